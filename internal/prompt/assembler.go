package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

var typeDisplayNames = map[models.QuestionType]string{
	models.MultipleChoice: "选择题",
	models.TrueFalse:      "判断题",
	models.ShortAnswer:    "简答题",
}

var difficultyDisplayNames = map[models.Difficulty]string{
	models.Easy:   "简单",
	models.Medium: "中等",
	models.Hard:   "困难",
}

// Section is one question type in a mixed request.
type Section struct {
	Type  string
	Label string
	Count int
}

type questionData struct {
	Subject    string
	Topics     string
	Quantity   int
	Difficulty string
	Context    []string
	RawText    string
	Sections   []Section
}

// Assembler renders question-generation prompts.
type Assembler struct {
	loader  *Loader
	subject string
}

func NewAssembler(loader *Loader, subjectLabel string) *Assembler {
	return &Assembler{loader: loader, subject: subjectLabel}
}

// Assemble renders the prompt for req. The template family is chosen by the
// request's primary type: "mixed" selects the mixed template, anything else the
// matching single-type template. Every prompt ends with the verbatim request text.
func (a *Assembler) Assemble(req models.InterpretedRequest, ctx models.RetrievedContext) (string, error) {
	data := questionData{
		Subject:    a.subject,
		Topics:     strings.Join(req.Topics, "、"),
		Quantity:   req.Quantity,
		Difficulty: DifficultyName(req.Difficulty),
		Context:    ctx.Texts(),
		RawText:    req.RawText,
	}
	for _, t := range req.OrderedTypes() {
		data.Sections = append(data.Sections, Section{
			Type:  string(t),
			Label: TypeName(t),
			Count: req.TypeCounts[t],
		})
	}

	return a.loader.Render(TemplateName(req.PrimaryType), data)
}

// TemplateName maps a primary type to its template.
func TemplateName(primary models.QuestionType) string {
	switch primary {
	case models.PrimaryMixed, models.MultipleChoice, models.TrueFalse, models.ShortAnswer:
		return string(primary)
	default:
		return string(models.MultipleChoice)
	}
}

// TypeName returns the display label for a question type.
func TypeName(t models.QuestionType) string {
	if name, ok := typeDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// DifficultyName returns the display label for a difficulty tier.
func DifficultyName(d models.Difficulty) string {
	if name, ok := difficultyDisplayNames[d]; ok {
		return name
	}
	return difficultyDisplayNames[models.DefaultDifficulty]
}
