package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/solenne/iris/internal/assistant"
	"github.com/solenne/iris/internal/domain"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	suggestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.cleanup()

			return runREPL(cmd.Context(), eng)
		},
	}
}

func runREPL(ctx context.Context, eng *engine) error {
	eng.ctrl.Open()
	defer eng.ctrl.Close()

	// Navigation fires as an event mid-turn; surface it as a notice.
	go func() {
		for ev := range eng.ctrl.Bus().Subscribe() {
			if ev.Type == assistant.EventNavigate {
				if p, ok := ev.Payload.(assistant.NavigatePayload); ok {
					fmt.Println(noticeStyle.Render("→ navigating to " + p.Target))
				}
			}
		}
	}()

	info := eng.ctrl.SessionInfo()
	if info.HasHistory {
		fmt.Println(noticeStyle.Render(fmt.Sprintf("resuming session: %d messages, %s", info.MessageCount, info.Duration)))
	} else {
		fmt.Println(noticeStyle.Render("iris is ready — ask about the projects, resume, or background"))
	}
	printSuggestions(eng.ctrl.Suggestions(info.CurrentPage))
	fmt.Println(suggestStyle.Render("commands: /clear /new /sound /info /quit"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(eng, line); quit {
				return nil
			}
			continue
		}

		if err := eng.ctrl.Send(ctx, line); err != nil {
			fmt.Println(errStyle.Render("iris> " + lastAssistantText(eng)))
			continue
		}

		fmt.Println(answerStyle.Render("iris> " + lastAssistantText(eng)))
		if sug := lastSuggestion(eng); sug != nil {
			fmt.Println(suggestStyle.Render(fmt.Sprintf("      [%s → %s]", sug.Text, sug.Target)))
		}
		printSuggestions(eng.ctrl.Suggestions(eng.ctrl.SessionInfo().CurrentPage))
	}
}

// runCommand handles slash commands; returns true to exit the REPL.
func runCommand(eng *engine, line string) bool {
	switch line {
	case "/quit", "/exit":
		return true
	case "/clear":
		eng.ctrl.ClearConversation()
		fmt.Println(noticeStyle.Render("conversation cleared"))
	case "/new":
		eng.ctrl.StartNewSession()
		fmt.Println(noticeStyle.Render("new session started"))
	case "/sound":
		if eng.ctrl.ToggleSound() {
			fmt.Println(noticeStyle.Render("sound on"))
		} else {
			fmt.Println(noticeStyle.Render("sound off"))
		}
	case "/info":
		info := eng.ctrl.SessionInfo()
		fmt.Println(noticeStyle.Render(fmt.Sprintf(
			"session: %d messages, %d topics, %s, page %s",
			info.MessageCount, info.TopicCount, info.Duration, info.CurrentPage)))
	default:
		fmt.Println(suggestStyle.Render("unknown command: " + line))
	}
	return false
}

func lastAssistantText(eng *engine) string {
	msgs := eng.store.GetSession().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}

func lastSuggestion(eng *engine) *domain.Suggestion {
	msgs := eng.store.GetSession().Messages
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1].Suggestion
}

func printSuggestions(suggestions []domain.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	var parts []string
	for _, s := range suggestions {
		parts = append(parts, s.Text)
	}
	fmt.Println(suggestStyle.Render("try: " + strings.Join(parts, " · ")))
}
