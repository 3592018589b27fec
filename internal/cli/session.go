package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage the stored session",
	}
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionClearCmd())
	cmd.AddCommand(newSessionResetCmd())
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.cleanup()

			sess := eng.store.GetSession()
			info := eng.store.SessionInfo()

			fmt.Printf("Session:  %s\n", sess.ID)
			fmt.Printf("Duration: %s\n", info.Duration)
			fmt.Printf("Messages: %d\n", info.MessageCount)
			fmt.Printf("Page:     %s\n", info.CurrentPage)
			if len(sess.TopicsDiscussed) > 0 {
				fmt.Printf("Topics:   %s\n", strings.Join(sess.TopicsDiscussed, ", "))
			}
			if len(sess.NavigationHistory) > 0 {
				fmt.Printf("Visited:  %s\n", strings.Join(sess.NavigationHistory, " → "))
			}
			for _, m := range sess.Messages {
				fmt.Printf("  [%s] %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func newSessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the conversation, keeping the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.cleanup()

			eng.store.ClearMessages()
			fmt.Println("conversation cleared")
			return nil
		},
	}
}

func newSessionResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the session and start fresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.cleanup()

			sess := eng.store.ResetSession()
			fmt.Printf("new session %s\n", sess.ID)
			return nil
		},
	}
}
