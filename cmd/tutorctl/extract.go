package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tutor-api/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <text>",
	Short: "Print the interpreted form of a question request as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, profile, err := loadConfig()
	if err != nil {
		return err
	}

	req := extract.New(profile.CommonTopics, profile.DefaultTopic).Extract(strings.Join(args, " "))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(req)
}
