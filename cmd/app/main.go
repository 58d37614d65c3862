// File: cmd/app/main.go
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"agentloop-chat/internal/config"
	"agentloop-chat/internal/infra/api"
	"agentloop-chat/internal/infra/auth"
	"agentloop-chat/internal/infra/logging"
	"agentloop-chat/internal/infra/metrics"
	"agentloop-chat/internal/infra/security"
)

const version = "0.3.0"

var (
	cfgPath string
	devMode bool
)

func main() {
	root := &cobra.Command{
		Use:           "agentloop-chat",
		Short:         "Stream chat turns against the agent-loop endpoint and manage chat sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&devMode, "dev", false, "development mode (verbose secrets in logs)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newChatCmd(),
		newSessionsCmd(),
		newHistoryCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the wiring every subcommand needs.
type app struct {
	cfg    *config.Config
	log    *zerolog.Logger
	creds  *auth.FileStore
	client *api.Client
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.SetBuildInfo(version)

	var cipher *security.Cipher
	if cfg.Auth.EncryptionKey != "" {
		if cipher, err = security.NewCipher(cfg.Auth.EncryptionKey); err != nil {
			return nil, err
		}
	}
	creds := auth.NewFileStore(cfg.Auth.CredentialsFile, cipher)
	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout, creds, logger)

	return &app{cfg: cfg, log: logger, creds: creds, client: client}, nil
}

// projectID resolves the project for a command: flag first, config default.
func (a *app) projectID(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.cfg.Chat.ProjectID != "" {
		return a.cfg.Chat.ProjectID, nil
	}
	return "", fmt.Errorf("no project id: pass --project or set chat.project_id in %s", cfgPath)
}
