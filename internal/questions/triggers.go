package questions

import (
	"regexp"
	"strings"
)

var answerTriggers = []string{"解析", "答案", "讲解", "答案解析", "参考答案"}

var questionKeywords = []string{"出题", "生成题目", "题目", "选择题", "判断题", "简答题", "试题", "练习"}

var (
	englishAnswerRe = regexp.MustCompile(`(?i)\b(?:answers?|explanations?|solutions?)\b`)
	shortPrefixRe   = regexp.MustCompile(`(?i)\bshort[\s-]*$`)
)

// IsAnswerRequest reports whether the text asks for the answers of the last questions.
// "short answer" names a question type and is not a request.
func IsAnswerRequest(text string) bool {
	for _, kw := range answerTriggers {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, loc := range englishAnswerRe.FindAllStringIndex(text, -1) {
		if !shortPrefixRe.MatchString(text[:loc[0]]) {
			return true
		}
	}
	return false
}

// IsQuestionRequest reports whether the text asks for questions to be generated
func IsQuestionRequest(text string) bool {
	for _, kw := range questionKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
