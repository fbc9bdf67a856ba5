package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui"
)

var (
	chatSession  string
	chatLineMode bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat about the course materials",
	Long: `Opens a chat window that keeps the conversation in one session.

Controls:
  Enter   - Ask
  Ctrl+N  - New session
  Ctrl+O  - List courses
  PgUp/Dn - Scroll
  Esc     - Quit

When stdin is not a terminal, or with --plain, questions are read one per
line and answers are printed as they arrive.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session ID to continue")
	chatCmd.Flags().BoolVar(&chatLineMode, "plain", false, "line mode without the full-screen interface")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(NeedLLM)
	if err != nil {
		return err
	}
	if err := requireQuery(svc); err != nil {
		return err
	}

	if chatLineMode || !term.IsTerminal(int(os.Stdin.Fd())) {
		return runLineChat(cmd, svc, cmd.InOrStdin())
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := tui.Run(cmd.Context(), &tui.Ports{Query: svc.Query}, chatSession); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}

// runLineChat answers one question per input line until EOF or "exit".
func runLineChat(cmd *cobra.Command, svc *Services, in io.Reader) error {
	sessionID := chatSession
	scanner := bufio.NewScanner(in)

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := svc.Query.Query(cmd.Context(), line, sessionID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID
		answer.SessionID = ""
		printAnswer(cmd, answer)
		cmd.Println()
	}
}
