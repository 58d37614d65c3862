// File: cmd/app/chat.go
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agentloop-chat/internal/domain/model"
	"agentloop-chat/internal/domain/ports/adapter"
	"agentloop-chat/internal/infra/logging"
	"agentloop-chat/internal/infra/state"
	"agentloop-chat/internal/infra/tokens"
	"agentloop-chat/internal/infra/web"
	"agentloop-chat/internal/usecase"
)

func newChatCmd() *cobra.Command {
	var (
		sessionID string
		projectID string
		promptID  int
		kbID      string
		noKB      bool
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send one chat turn and stream the agent's reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			project, err := a.projectID(projectID)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithTraceID(ctx, uuid.NewString())
			log := logging.With(ctx, a.log)

			req := model.ChatRequest{
				Message:             strings.Join(args, " "),
				SessionID:           sessionID,
				ProjectID:           project,
				SimilarityThreshold: a.cfg.Chat.SimilarityThreshold,
				TopK:                a.cfg.Chat.TopK,
			}
			if promptID != 0 {
				req.PromptID = promptID
			} else {
				req.PromptID = a.cfg.Chat.PromptID
			}
			if kbID == "" {
				kbID = a.cfg.Chat.KnowledgeBaseID
			}
			if noKB {
				f := false
				req.UseKnowledgeBase = &f
			} else if kbID != "" {
				t := true
				req.KnowledgeBaseID = kbID
				req.UseKnowledgeBase = &t
			} else {
				req.UseKnowledgeBase = a.cfg.Chat.UseKnowledgeBase
			}
			if imagePath != "" {
				b, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				req.Image = base64.StdEncoding.EncodeToString(b)
			}

			states := state.NewStreamStore()
			usage := state.NewUsageCache()

			var estimator adapter.TokenEstimator
			if est, err := tokens.NewEstimator(a.cfg.Chat.TokenizerModel); err != nil {
				log.Debug().Err(err).Msg("token estimator disabled")
			} else {
				estimator = est
			}

			uc := usecase.NewChatStreamUseCase(a.client, states, usage, estimator, log)

			if a.cfg.Admin.Port > 0 {
				statusSrv := web.NewServer(a.cfg.Admin.Port, a.cfg.Admin.APIKey, states, usage, log)
				go func() {
					if err := statusSrv.Start(); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn().Err(err).Msg("status server stopped")
					}
				}()
				defer statusSrv.Shutdown(context.Background())
			}

			startCh := make(chan string, 1)
			r := newRenderer(uc, cmd.OutOrStdout())
			renderDone := make(chan struct{})
			go func() {
				defer close(renderDone)
				r.run(ctx, startCh)
			}()

			err = uc.Stream(ctx, req, func(id string) { startCh <- id })
			stop() // ends the render loop
			<-renderDone

			if err != nil {
				return err // cancellation
			}
			return r.finish(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue an existing session")
	cmd.Flags().StringVarP(&projectID, "project", "P", "", "project id (defaults to chat.project_id)")
	cmd.Flags().IntVar(&promptID, "prompt", 0, "prompt id override")
	cmd.Flags().StringVar(&kbID, "kb", "", "knowledge base id")
	cmd.Flags().BoolVar(&noKB, "no-kb", false, "disable knowledge base retrieval")
	cmd.Flags().StringVar(&imagePath, "image", "", "attach an image file")
	return cmd
}
