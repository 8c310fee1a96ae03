// Package disclosure removes answer and explanation blocks from generated
// question sets so the questions can be shown before the learner attempts them.
package disclosure

import (
	"regexp"
	"strconv"
	"strings"
)

type state int

const (
	passing state = iota
	stripping
)

var (
	// answerStartRes match a line that opens an answer, explanation, analysis or scoring block.
	answerStartRes = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[(（【\[*]*\s*(?:(?:正确|参考|标准)?答案|答案解析|解析|解答)`),
		regexp.MustCompile(`(?i)^\s*[(（【\[*]*\s*(?:讲解|评分标准|评分要点|参考思路|思路|分析|(?:correct\s+)?answers?|explanations?|solutions?|scoring(?:\s+guide)?|analysis)\s*[*]*\s*[:：】\])）]`),
		regexp.MustCompile(`^\s*[(（【\[]?\s*(?:答|解)\s*[:：]`),
	}

	// inlineAnswerRe matches an answer marker followed by a colon anywhere in a line.
	inlineAnswerRe = regexp.MustCompile(`(?i)(?:(?:正确|参考|标准)?答案|答案解析|解析|解答|\banswer|\bexplanation)\s*[:：]`)

	// sectionRes match a line that opens the next item or section by title.
	sectionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:题目|选择题|判断题|简答题|材料分析题|question|q)\s*\d+`),
		regexp.MustCompile(`^\s*(?:选择题|判断题|简答题|材料分析题)\s*(?:[:：(（].*)?$`),
		regexp.MustCompile(`^\s*[*#]*\s*[一二三四五六七八九十]+\s*[、.．]`),
		regexp.MustCompile(`(?i)^\s*[*#]*\s*[【\[](?:选择题|判断题|简答题|multiple[\s-]*choice|true[\s/-]*false|short[\s-]*answer)[】\]]`),
		regexp.MustCompile(`^\s*#{1,6}\s+\S`),
	}

	// markerRes match numbered-item markers, most specific first.
	markerRes = []struct {
		kind markerKind
		re   *regexp.Regexp
	}{
		{parenMarker, regexp.MustCompile(`^\s*[*#]*\s*[(（]\s*(\d+)\s*[)）]`)},
		{ordinalMarker, regexp.MustCompile(`^\s*[*#]*\s*第\s*(\d+|[一二三四五六七八九十]+)\s*题`)},
		{arabicMarker, regexp.MustCompile(`^\s*[*#]*\s*(\d+)\s*[、.)．:：]`)},
	}

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

type markerKind int

const (
	arabicMarker markerKind = iota + 1 // 1. 1、 1)
	parenMarker                        // (1) （1）
	ordinalMarker                      // 第1题
)

// item is a numbered-item marker; the zero value means none.
type item struct {
	kind markerKind
	n    int
}

// Strip removes answer and explanation blocks from text.
//
// Lines are processed with two states. While passing, an answer-start line or a
// line carrying an inline answer marker is dropped and stripping begins. While
// stripping, lines are dropped until a boundary line (the next numbered item or
// section title) is seen; that line is kept. A line that opens an answer block is
// dropped in either state, which keeps Strip idempotent.
//
// Inside an answer block a numbered list restarting at 1 is taken as answer
// points and stays stripped while it counts up. A point number that also
// continues the question numbering ends the block only after a blank line.
func Strip(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))

	var (
		st        = passing
		question  item // last numbered item kept
		points    item // last answer point of the current block
		prevBlank bool
	)
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		afterBlank := prevBlank
		prevBlank = blank

		if isAnswerLine(line) {
			st = stripping
			points = item{}
			continue
		}

		marker, numbered := numberedItem(line)
		if st == stripping {
			switch {
			case numbered && continuesPoints(marker, points, question, afterBlank):
				points = marker
				continue
			case numbered && marker.n == 1 && points.n == 0:
				points = marker
				continue
			case !numbered && !isSection(line):
				continue
			}
			st = passing
		}

		if numbered {
			question = marker
		} else if isSection(line) {
			question = item{}
		}
		kept = append(kept, line)
	}

	out := blankRunRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.Trim(out, "\n")
}

func continuesPoints(marker, points, question item, afterBlank bool) bool {
	if points.n == 0 || marker.kind != points.kind || marker.n != points.n+1 {
		return false
	}
	nextQuestion := marker.kind == question.kind && marker.n == question.n+1
	return !(nextQuestion && afterBlank)
}

func isAnswerLine(line string) bool {
	for _, re := range answerStartRes {
		if re.MatchString(line) {
			return true
		}
	}
	return inlineAnswerRe.MatchString(line)
}

func isSection(line string) bool {
	for _, re := range sectionRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func numberedItem(line string) (item, bool) {
	for _, m := range markerRes {
		if sub := m.re.FindStringSubmatch(line); sub != nil {
			if n := itemNumber(sub[1]); n > 0 {
				return item{kind: m.kind, n: n}, true
			}
		}
	}
	return item{}, false
}

var chineseDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// itemNumber reads ASCII digits or a Chinese numeral up to 九十九.
func itemNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	total, current := 0, 0
	for _, r := range s {
		if r == '十' {
			total += max(current, 1) * 10
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
