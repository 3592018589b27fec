package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/solenne/iris/internal/config"
	"github.com/solenne/iris/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Iris status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Iris %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Chat:    provider=%s model=%s rate=%d/min\n",
				cfg.Chat.Provider, orDash(cfg.Chat.Model), cfg.Chat.RequestsPerMinute)
			fmt.Printf("TTS:     endpoint=%s voice=%s player=%s\n",
				orDash(cfg.TTS.Endpoint), cfg.TTS.Voice, orDash(cfg.TTS.Player))
			fmt.Printf("Session: store=%s idle=%dm cap=%d\n",
				cfg.Session.Store, cfg.Session.IdleMinutes, cfg.Session.MaxMessages)
			fmt.Printf("Gateway: port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)
			fmt.Println()

			// Probe a running gateway, if any.
			url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Gateway.Port)
			client := &http.Client{Timeout: 2 * time.Second}
			resp, err := client.Get(url)
			if err != nil {
				fmt.Println("Gateway: not running")
				return nil
			}
			defer resp.Body.Close()

			var health struct {
				Status  string `json:"status"`
				Version string `json:"version"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&health); err == nil && health.Status == "ok" {
				fmt.Printf("Gateway: running (version %s)\n", health.Version)
			} else {
				fmt.Printf("Gateway: unexpected response (%d)\n", resp.StatusCode)
			}
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
