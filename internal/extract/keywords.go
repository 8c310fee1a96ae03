package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

// keywordSet groups the Chinese and English spellings of one concept.
// Chinese keywords match with optional whitespace between characters.
// English entries are regular expressions matched on word boundaries.
type keywordSet struct {
	zh []string
	en []string
}

func (k keywordSet) expr() string {
	parts := make([]string, 0, 2)
	if len(k.zh) > 0 {
		zh := append([]string(nil), k.zh...)
		sort.SliceStable(zh, func(i, j int) bool {
			return utf8.RuneCountInString(zh[i]) > utf8.RuneCountInString(zh[j])
		})
		spaced := make([]string, len(zh))
		for i, w := range zh {
			spaced[i] = spacedLiteral(w)
		}
		parts = append(parts, strings.Join(spaced, "|"))
	}
	if len(k.en) > 0 {
		parts = append(parts, `\b(?:`+strings.Join(k.en, "|")+`)\b`)
	}
	return strings.Join(parts, "|")
}

func spacedLiteral(word string) string {
	runes := []rune(word)
	quoted := make([]string, len(runes))
	for i, r := range runes {
		quoted[i] = regexp.QuoteMeta(string(r))
	}
	return strings.Join(quoted, `\s*`)
}

func union(sets ...keywordSet) keywordSet {
	var out keywordSet
	for _, s := range sets {
		out.zh = append(out.zh, s.zh...)
		out.en = append(out.en, s.en...)
	}
	return out
}

var typeKeywords = []struct {
	label models.QuestionType
	set   keywordSet
}{
	{models.MultipleChoice, keywordSet{
		zh: []string{"单项选择题", "多项选择题", "单选题", "多选题", "选择题"},
		en: []string{`multiple[\s-]*choices?`, `mcqs?`},
	}},
	{models.TrueFalse, keywordSet{
		zh: []string{"判断题", "是非题", "对错题"},
		en: []string{`true[\s/-]*(?:or[\s/-]*)?false`, `t/f`},
	}},
	// Material-analysis questions are answered in prose and count as short-answer.
	{models.ShortAnswer, keywordSet{
		zh: []string{"材料分析题", "材料题", "论述题", "简答题", "问答题"},
		en: []string{`short[\s-]*answers?`, `essays?`, `material[\s-]*analysis`},
	}},
}

var difficultyKeywords = []struct {
	tier models.Difficulty
	set  keywordSet
}{
	{models.Easy, keywordSet{
		zh: []string{"简单", "容易", "基础题", "入门", "初级", "低难度", "难度低"},
		en: []string{`easy`, `basic`, `simple`, `beginner`},
	}},
	{models.Medium, keywordSet{
		zh: []string{"中等", "适中", "中级", "一般难度", "难度一般"},
		en: []string{`medium`, `moderate`, `intermediate`},
	}},
	{models.Hard, keywordSet{
		zh: []string{"困难", "较难", "很难", "高难", "难题", "有难度", "挑战", "拔高", "高级", "难度高", "难度较高"},
		en: []string{`hard`, `difficult`, `advanced`, `challenging`},
	}},
}

var (
	unitKeywords = keywordSet{
		zh: []string{"道", "个", "题"},
		en: []string{`questions?`, `items?`},
	}

	fillerKeywords = keywordSet{
		zh: []string{
			"请问", "请", "麻烦", "帮我", "给我", "为我", "我想要", "我要", "想要", "考考我",
			"出一些", "出几道", "出", "来", "生成", "一些", "几道", "几个", "题目", "试题", "练习题", "练习",
			"测试", "题型", "类型", "数量", "包含", "包括", "其中", "关于", "有关", "围绕", "方面", "相关", "知识点", "的", "和", "与", "以及", "及", "吧", "吗", "呢",
			"一下", "题",
		},
		en: []string{
			`please`, `give`, `me`, `generate`, `create`, `make`, `some`, `a`, `an`, `the`, `about`,
			`quiz`, `i`, `want`, `for`, `and`, `with`, `on`, `level`, `difficulty`, `questions?`, `items?`,
		},
	}

	// functionWords are leftovers of request phrasing ("再来3道", "都要") that are
	// dropped when they stand alone after keyword stripping. Matching whole words
	// keeps topics such as 主要矛盾 intact.
	functionWords = map[string]bool{
		"再": true, "都": true, "要": true, "都要": true, "各": true, "半": true,
		"也": true, "还": true, "还要": true, "再来": true, "另外": true, "然后": true,
	}

	// trailingQualifiers are stripped from the end of a phrase-captured topic.
	trailingQualifiers = union(
		typeKeywords[0].set, typeKeywords[1].set, typeKeywords[2].set,
		difficultyKeywords[0].set, difficultyKeywords[1].set, difficultyKeywords[2].set,
		keywordSet{
			zh: []string{"题目", "试题", "练习题", "练习", "题", "方面", "相关", "知识点", "知识", "内容", "问题", "的", "难度"},
			en: []string{`questions?`, `items?`, `quiz`, `level`, `difficulty`, `in`, `with`, `at`, `for`, `please`},
		},
	)
)
