// Command tutorctl ingests course material and runs the tutor from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tutor-api/internal/config"
)

var (
	envFile     string
	profilePath string
)

var rootCmd = &cobra.Command{
	Use:   "tutorctl",
	Short: "Course tutor: knowledge ingestion, practice questions and Socratic dialogue",
	Long: `tutorctl drives the tutoring services without the HTTP server.

Commands:
  ingest    - Embed a directory of course material into the knowledge base
  quiz      - Interactive question generation (type "exit" to quit)
  dialogue  - Interactive Socratic dialogue (type "exit" to quit)
  extract   - Print how a request is interpreted`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
			fmt.Fprintf(os.Stderr, "⚠️  Could not load %s: %v\n", envFile, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "subject profile YAML (default: SUBJECT_PROFILE or the embedded profile)")

	ingestCmd.Flags().BoolVar(&replaceSource, "replace", false, "delete the existing chunks of the knowledge source first")
	dialogueCmd.Flags().StringVar(&firstImage, "image", "", "image to attach to the opening message")

	rootCmd.AddCommand(ingestCmd, quizCmd, dialogueCmd, extractCmd)
}

// loadConfig reads the environment and the subject profile. The --profile flag
// overrides SUBJECT_PROFILE.
func loadConfig() (*config.Config, *config.SubjectProfile, error) {
	cfg := config.Load()
	path := cfg.SubjectProfile
	if profilePath != "" {
		path = profilePath
	}
	profile, err := config.LoadSubjectProfile(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, profile, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
