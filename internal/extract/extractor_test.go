package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

var testVocabulary = []string{
	"唯物辩证法", "历史唯物主义", "马克思主义哲学", "认识论", "实践观", "矛盾论",
	"否定之否定", "质量互变", "联系", "发展", "社会存在", "社会意识", "辩证唯物主义",
}

const testDefaultTopic = "马克思主义基本原理"

func newTestExtractor() *Extractor {
	return New(testVocabulary, testDefaultTopic)
}

func TestExtract_Examples(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.InterpretedRequest
	}{
		{
			name: "joint count with topic phrase and difficulty",
			raw:  "给我出3道关于唯物辩证法的简单选择题",
			want: models.InterpretedRequest{
				Topics:      []string{"唯物辩证法"},
				Quantity:    3,
				Difficulty:  models.Easy,
				TypeCounts:  map[models.QuestionType]int{models.MultipleChoice: 3},
				PrimaryType: models.MultipleChoice,
			},
		},
		{
			name: "two joint matches produce a mixed request",
			raw:  "出2道选择题和1道判断题",
			want: models.InterpretedRequest{
				Topics:      []string{testDefaultTopic},
				Quantity:    3,
				Difficulty:  models.Medium,
				TypeCounts:  map[models.QuestionType]int{models.MultipleChoice: 2, models.TrueFalse: 1},
				PrimaryType: models.PrimaryMixed,
			},
		},
		{
			name: "english order with unit after type",
			raw:  "give me 5 medium-difficulty multiple-choice questions about dialectics",
			want: models.InterpretedRequest{
				Topics:      []string{"dialectics"},
				Quantity:    5,
				Difficulty:  models.Medium,
				TypeCounts:  map[models.QuestionType]int{models.MultipleChoice: 5},
				PrimaryType: models.MultipleChoice,
			},
		},
		{
			name: "chinese numerals",
			raw:  "出两道判断题和三道简答题，难度较高",
			want: models.InterpretedRequest{
				Topics:      []string{testDefaultTopic},
				Quantity:    5,
				Difficulty:  models.Hard,
				TypeCounts:  map[models.QuestionType]int{models.TrueFalse: 2, models.ShortAnswer: 3},
				PrimaryType: models.PrimaryMixed,
			},
		},
		{
			name: "material analysis normalizes to short answer",
			raw:  "出2道关于社会存在的材料分析题",
			want: models.InterpretedRequest{
				Topics:      []string{"社会存在"},
				Quantity:    2,
				Difficulty:  models.Medium,
				TypeCounts:  map[models.QuestionType]int{models.ShortAnswer: 2},
				PrimaryType: models.ShortAnswer,
			},
		},
		{
			name: "nothing recognized falls back to defaults",
			raw:  "出题",
			want: models.InterpretedRequest{
				Topics:      []string{testDefaultTopic},
				Quantity:    models.DefaultQuantity,
				Difficulty:  models.Medium,
				TypeCounts:  map[models.QuestionType]int{models.MultipleChoice: models.DefaultQuantity},
				PrimaryType: models.MultipleChoice,
			},
		},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want.RawText = tt.raw
			got := e.Extract(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestExtract_IndependentDetectionDropsRemainder(t *testing.T) {
	got := newTestExtractor().Extract("请出5道题。题型：选择题、判断题")
	assert.Equal(t, map[models.QuestionType]int{models.MultipleChoice: 2, models.TrueFalse: 2}, got.TypeCounts)
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, models.PrimaryMixed, got.PrimaryType)
}

func TestExtract_TotalCountIsNotTyped(t *testing.T) {
	tests := []struct {
		raw  string
		want map[models.QuestionType]int
	}{
		{"出5道题，包括选择题和判断题", map[models.QuestionType]int{models.MultipleChoice: 2, models.TrueFalse: 2}},
		{"出5道题目，选择题和判断题都要", map[models.QuestionType]int{models.MultipleChoice: 2, models.TrueFalse: 2}},
		{"出5道题，包含判断题和简答题", map[models.QuestionType]int{models.TrueFalse: 2, models.ShortAnswer: 2}},
		{"来6个题，选择题、判断题、简答题", map[models.QuestionType]int{
			models.MultipleChoice: 2, models.TrueFalse: 2, models.ShortAnswer: 2,
		}},
	}
	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := e.Extract(tt.raw)
			assert.Equal(t, tt.want, got.TypeCounts)
			assert.Equal(t, 2*len(tt.want), got.Quantity)
			assert.Equal(t, models.PrimaryMixed, got.PrimaryType)
			assert.Equal(t, []string{testDefaultTopic}, got.Topics)
		})
	}
}

func TestExtract_EnglishCountBeforeBareType(t *testing.T) {
	got := newTestExtractor().Extract("give me 2 multiple choice and 1 true/false questions")
	assert.Equal(t, map[models.QuestionType]int{models.MultipleChoice: 2, models.TrueFalse: 1}, got.TypeCounts)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, models.PrimaryMixed, got.PrimaryType)

	got = newTestExtractor().Extract("3 short answer, 2 mcq")
	assert.Equal(t, map[models.QuestionType]int{models.ShortAnswer: 3, models.MultipleChoice: 2}, got.TypeCounts)
}

func TestExtract_MinimumOnePerType(t *testing.T) {
	got := newTestExtractor().Extract("出1道题。题型：选择题、判断题、简答题")
	assert.Equal(t, 3, got.Quantity)
	for _, typ := range models.QuestionTypes {
		assert.Equal(t, 1, got.TypeCounts[typ], string(typ))
	}
}

func TestExtract_FullWidthPunctuationAndDigits(t *testing.T) {
	got := newTestExtractor().Extract("题型：选择题，数量：３道")
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, map[models.QuestionType]int{models.MultipleChoice: 3}, got.TypeCounts)
}

func TestExtract_WhitespaceInsideTypeKeyword(t *testing.T) {
	got := newTestExtractor().Extract("出4道 判 断 题")
	assert.Equal(t, map[models.QuestionType]int{models.TrueFalse: 4}, got.TypeCounts)

	got = newTestExtractor().Extract("3 true / false questions")
	assert.Equal(t, map[models.QuestionType]int{models.TrueFalse: 3}, got.TypeCounts)
}

func TestExtract_BareEnglishItems(t *testing.T) {
	got := newTestExtractor().Extract("I need 4 items about practice, hard")
	assert.Equal(t, 4, got.Quantity)
	assert.Equal(t, models.Hard, got.Difficulty)
	assert.Equal(t, []string{"practice"}, got.Topics)
}

func TestExtract_JointSumInvariant(t *testing.T) {
	inputs := []string{
		"出2道选择题和1道判断题",
		"出3个单选题、4道简答题、1道判断题",
		"2 true/false questions and 3 short answer questions",
		"给我十道选择题",
	}
	e := newTestExtractor()
	for _, raw := range inputs {
		got := e.Extract(raw)
		sum := 0
		for _, n := range got.TypeCounts {
			require.Positive(t, n)
			sum += n
		}
		assert.Equal(t, got.Quantity, sum, raw)
	}
}

func TestExtract_Topics(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"关于矛盾论和认识论的题", []string{"矛盾论", "认识论"}},
		{"出3道关于实践观简单题目", []string{"实践观"}},
		{"出一道否定之否定的判断题", []string{"否定之否定"}},
		{"questions about alienation and labour value, medium", []string{"alienation", "labour value"}},
		{"出一道辩证唯物主义的选择题", []string{"辩证唯物主义"}},
		{"出5道剩余价值选择题", []string{"剩余价值"}},
		{"给我5道选择题，再来3道判断题", []string{testDefaultTopic}},
		{"出3道主要矛盾选择题，都要", []string{"主要矛盾"}},
	}
	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.raw).Topics)
		})
	}
}

func TestExtract_TopicsNeverEmpty(t *testing.T) {
	e := New(nil, "默认")
	for _, raw := range []string{"", "   ", "出5道简单的选择题", "？？？"} {
		got := e.Extract(raw)
		assert.NotEmpty(t, got.Topics, raw)
		assert.Positive(t, got.Quantity, raw)
		assert.NotEmpty(t, got.TypeCounts, raw)
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]int{
		"12": 12, "三": 3, "两": 2, "十": 10, "十二": 12, "二十": 20, "二十五": 25, "x": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseNumber(in), in)
	}
}
