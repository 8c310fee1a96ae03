// Package extract turns a free-text question request into structured
// generation parameters: topics, quantity, difficulty, and a per-type count.
// Extraction is rule-based and never fails; unmatched inputs resolve to defaults.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

const (
	numberExpr = `(\d+|[一二两三四五六七八九十]{1,3})`
	// gapExpr is the short span allowed between a count and its type keyword.
	// It never crosses another digit, counter, generic 题 noun, list separator or
	// sentence end, so a type cannot collect an unrelated count. "5道题，包括选择题"
	// is therefore a total, not five multiple-choice questions.
	gapExpr = `[^\d道个题\n。.!?;,，、:：]{0,30}?`
	// enWordsExpr allows a few English qualifiers between a count and its type.
	enWordsExpr = `(?:[a-z][a-z/-]*\s+){0,3}?`
)

var (
	typeExpr = func() string {
		parts := make([]string, len(typeKeywords))
		for i, tk := range typeKeywords {
			parts[i] = tk.set.expr()
		}
		return strings.Join(parts, "|")
	}()

	typeRe = regexp.MustCompile(`(?i)` + typeExpr)

	typeLabelRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(typeKeywords))
		for i, tk := range typeKeywords {
			res[i] = regexp.MustCompile(`(?i)^(?:` + tk.set.expr() + `)$`)
		}
		return res
	}()

	// jointRe matches "<n> <unit> ... <type>" (Chinese order) or "<n> ... <type>"
	// (English order) where the type ends in a unit, "and", a separator or the line end.
	jointRe = regexp.MustCompile(`(?im)` + numberExpr +
		`(?:\s*(?:` + unitKeywords.expr() + `)` + gapExpr + `(` + typeExpr + `)` +
		`|\s+` + enWordsExpr + `(` + typeExpr + `)(?:\s*\b(?:questions?|items?)\b|\s*(?:[,;.]|\band\b)|\s*$))`)

	cnCountRe = regexp.MustCompile(numberExpr + `\s*(?:道|个|题)`)
	enCountRe = regexp.MustCompile(`(?i)(\d+)\s+(?:[a-z][a-z/-]*\s+){0,3}?(?:questions?|items?)\b`)

	difficultyRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, len(difficultyKeywords))
		for i, dk := range difficultyKeywords {
			res[i] = regexp.MustCompile(`(?i)` + dk.set.expr())
		}
		return res
	}()

	topicPhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:关于|有关|围绕)\s*([^,.;!?\n。]+?)\s*(?:的|方面|相关|[,.;!?\n。]|$)`),
		regexp.MustCompile(`(?i)\b(?:about|regarding|covering|concerning)\s+([^,.;:!?\n]+)`),
	}
	topicSplitRe   = regexp.MustCompile(`(?i)\s*(?:以及|和|与|及|、|,|/|&|\band\b)\s*`)
	trailingRe     = regexp.MustCompile(`(?i)(?:` + trailingQualifiers.expr() + `)[\s-]*$`)
	leadingArticle = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	countStripRe   = regexp.MustCompile(`(?i)` + numberExpr + `\s*(?:` + unitKeywords.expr() + `)|\d+`)
	fillerRe       = regexp.MustCompile(`(?i)` + fillerKeywords.expr())
	punctuationRe  = regexp.MustCompile(`[\p{P}\p{S}]+`)
)

// Extractor carries the subject vocabulary used for topic detection.
type Extractor struct {
	vocabulary   []string
	defaultTopic string
}

// New returns an Extractor for a subject's common topics. defaultTopic is used
// when no topic can be recovered from the request text.
func New(vocabulary []string, defaultTopic string) *Extractor {
	vocab := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		if v = strings.TrimSpace(v); v != "" {
			vocab = append(vocab, v)
		}
	}
	return &Extractor{vocabulary: vocab, defaultTopic: defaultTopic}
}

// Extract interprets rawText. It is pure and always returns a valid request.
func (e *Extractor) Extract(rawText string) models.InterpretedRequest {
	text := normalize(rawText)

	counts, quantity := jointCounts(text)
	if len(counts) == 0 {
		quantity = bareQuantity(text)
		if detected := bareTypes(text); len(detected) > 0 {
			// Integer division: the remainder is dropped, minimum one per type.
			per := quantity / len(detected)
			if per < 1 {
				per = 1
			}
			counts = make(map[models.QuestionType]int, len(detected))
			for _, t := range detected {
				counts[t] = per
			}
			quantity = per * len(detected)
		}
	}
	if len(counts) == 0 {
		counts = map[models.QuestionType]int{models.MultipleChoice: quantity}
	}

	primary := models.PrimaryMixed
	if len(counts) == 1 {
		for t := range counts {
			primary = t
		}
	}

	return models.InterpretedRequest{
		RawText:     rawText,
		Topics:      e.topics(text),
		Quantity:    quantity,
		Difficulty:  detectDifficulty(text),
		TypeCounts:  counts,
		PrimaryType: primary,
	}
}

// normalize folds full-width punctuation and digits to their ASCII forms.
func normalize(s string) string {
	s = width.Fold.String(s)
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func jointCounts(text string) (map[models.QuestionType]int, int) {
	counts := make(map[models.QuestionType]int)
	total := 0
	for _, m := range jointRe.FindAllStringSubmatch(text, -1) {
		n := parseNumber(m[1])
		if n <= 0 {
			continue
		}
		keyword := m[2]
		if keyword == "" {
			keyword = m[3]
		}
		label, ok := typeLabel(keyword)
		if !ok {
			continue
		}
		counts[label] += n
		total += n
	}
	return counts, total
}

func bareQuantity(text string) int {
	total := 0
	for _, m := range cnCountRe.FindAllStringSubmatch(text, -1) {
		total += max(parseNumber(m[1]), 0)
	}
	for _, m := range enCountRe.FindAllStringSubmatch(text, -1) {
		total += max(parseNumber(m[1]), 0)
	}
	if total <= 0 {
		return models.DefaultQuantity
	}
	return total
}

// bareTypes lists type labels in order of first appearance.
func bareTypes(text string) []models.QuestionType {
	var types []models.QuestionType
	seen := make(map[models.QuestionType]bool)
	for _, kw := range typeRe.FindAllString(text, -1) {
		label, ok := typeLabel(kw)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		types = append(types, label)
	}
	return types
}

func typeLabel(keyword string) (models.QuestionType, bool) {
	for i, re := range typeLabelRes {
		if re.MatchString(strings.TrimSpace(keyword)) {
			return typeKeywords[i].label, true
		}
	}
	return "", false
}

func detectDifficulty(text string) models.Difficulty {
	for i, re := range difficultyRes {
		if re.MatchString(text) {
			return difficultyKeywords[i].tier
		}
	}
	return models.DefaultDifficulty
}

func (e *Extractor) topics(text string) []string {
	var topics []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		topics = append(topics, t)
	}

	for _, t := range e.vocabularyHits(text) {
		add(t)
	}
	for _, re := range topicPhraseRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			for _, piece := range topicSplitRe.Split(m[1], -1) {
				add(cleanTopic(piece))
			}
		}
	}
	if len(topics) > 0 {
		return topics
	}

	if rest := stripKeywords(text); rest != "" {
		return []string{rest}
	}
	return []string{e.defaultTopic}
}

type span struct {
	start, end int
	term       string
}

// vocabularyHits returns vocabulary terms found in text, in order of appearance.
// A hit nested inside a longer hit is dropped.
func (e *Extractor) vocabularyHits(text string) []string {
	lower := strings.ToLower(text)
	var spans []span
	for _, term := range e.vocabulary {
		needle := strings.ToLower(term)
		for offset := 0; ; {
			idx := strings.Index(lower[offset:], needle)
			if idx < 0 {
				break
			}
			start := offset + idx
			spans = append(spans, span{start: start, end: start + len(needle), term: term})
			offset = start + len(needle)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var hits []string
	for i, s := range spans {
		nested := false
		for j, o := range spans {
			if i != j && o.start <= s.start && s.end <= o.end && (o.end-o.start) > (s.end-s.start) {
				nested = true
				break
			}
		}
		if !nested {
			hits = append(hits, s.term)
		}
	}
	return hits
}

func cleanTopic(piece string) string {
	t := strings.TrimSpace(piece)
	for {
		next := strings.TrimSpace(trailingRe.ReplaceAllString(t, ""))
		next = strings.TrimSpace(leadingArticle.ReplaceAllString(next, ""))
		if next == t {
			break
		}
		t = next
	}
	return strings.Trim(t, " -_'\"")
}

func stripKeywords(text string) string {
	s := countStripRe.ReplaceAllString(text, " ")
	s = typeRe.ReplaceAllString(s, " ")
	for _, re := range difficultyRes {
		s = re.ReplaceAllString(s, " ")
	}
	s = fillerRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !functionWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

var chineseDigits = map[rune]int{
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseNumber reads ASCII digits or a small Chinese numeral such as 三, 十二 or 二十.
func parseNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	total, current := 0, 0
	for _, r := range s {
		if r == '十' {
			if current == 0 {
				current = 1
			}
			total += current * 10
			current = 0
			continue
		}
		d, ok := chineseDigits[r]
		if !ok {
			return 0
		}
		current = d
	}
	return total + current
}
