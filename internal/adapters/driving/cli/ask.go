package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the course materials",
	Long: `Answers a single question. The model may search course content and
look up course outlines before answering; the sources it used are listed
after the answer.

Pass --session with the ID printed by a previous answer to continue a
conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID to continue")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	svc, err := loadServices(NeedLLM)
	if err != nil {
		return err
	}
	if err := requireQuery(svc); err != nil {
		return err
	}

	answer, err := svc.Query.Query(cmd.Context(), question, askSession)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			if src.URL != nil && *src.URL != "" {
				cmd.Printf("  - %s (%s)\n", src.Display, *src.URL)
			} else {
				cmd.Printf("  - %s\n", src.Display)
			}
		}
	}
	if answer.SessionID != "" {
		cmd.Println()
		cmd.Printf("Session: %s\n", answer.SessionID)
	}
}
