package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tutor-api/internal/app"
	"github.com/Conceptual-Machines/tutor-api/internal/dialogue"
	"github.com/Conceptual-Machines/tutor-api/internal/mindmap"
	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

const (
	exitCommand = "exit"
	cliCallerID = "cli"
)

var firstImage string

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate practice questions interactively",
	Long: `Reads one request per line. Ask for questions ("出5道关于矛盾论的选择题"),
then for the answers ("答案") to see the full set. A line asking for a knowledge
map ("矛盾论知识图谱") prints a Mermaid mind map instead. Type "exit" to quit.`,
	Args: cobra.NoArgs,
	RunE: runQuiz,
}

var dialogueCmd = &cobra.Command{
	Use:   "dialogue",
	Short: "Hold a Socratic dialogue with a historical persona",
	Long: `The first line picks the topic and persona ("我想和黑格尔聊聊矛盾");
every following line is a reply. Type "exit" to quit.`,
	Args: cobra.NoArgs,
	RunE: runDialogue,
}

func newApp(ctx context.Context) (*app.App, error) {
	cfg, profile, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, profile, nil)
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	fmt.Fprintf(cmd.OutOrStdout(), "📝 %s 出题助手（输入 exit 退出）\n", a.Profile.SubjectLabel)
	return quizLoop(cmd.InOrStdin(), cmd.OutOrStdout(), func(text string) string {
		if mindmap.IsRequest(text) {
			return a.Mindmap.Build(ctx, text)
		}
		return a.Questions.Generate(ctx, text, cliCallerID)
	})
}

// quizLoop answers each non-empty input line until exit or EOF
func quizLoop(in io.Reader, out io.Writer, generate func(text string) string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, exitCommand) {
			return nil
		}
		fmt.Fprintln(out, generate(text))
	}
}

func runDialogue(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	fmt.Fprintln(cmd.OutOrStdout(), "💬 苏格拉底式对话（输入 exit 退出）")
	return dialogueLoop(cmd.InOrStdin(), cmd.OutOrStdout(), firstImage, func(text string, state *models.DialogueState, imagePath string) dialogue.Result {
		return a.Agent.AdvanceMultimodal(ctx, text, state, imagePath)
	})
}

// dialogueLoop runs turns until exit or EOF. The image goes with the first turn only.
// A failed turn ends the dialogue, the way a failed HTTP turn discards its session.
func dialogueLoop(in io.Reader, out io.Writer, imagePath string, advance func(string, *models.DialogueState, string) dialogue.Result) error {
	scanner := bufio.NewScanner(in)
	var state *models.DialogueState
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, exitCommand) {
			fmt.Fprintln(out, dialogue.EndedMessage)
			return nil
		}

		result := advance(text, state, imagePath)
		imagePath = ""
		if result.Status == models.StatusError {
			fmt.Fprintln(out, result.Response)
			return nil
		}
		if state == nil {
			fmt.Fprintf(out, "（%s · %s）\n", result.State.Persona, result.State.Topic)
		}
		state = result.State
		fmt.Fprintln(out, result.Response)
	}
}
