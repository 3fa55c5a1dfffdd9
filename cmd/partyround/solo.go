package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkwon12/partyround/internal/content"
	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/solo"
	"github.com/dkwon12/partyround/internal/ui"
)

func newSoloCmd(cfg *Config) *cobra.Command {
	var contentID string
	cmd := &cobra.Command{
		Use:   "solo",
		Short: "Play a content set locally, no room server involved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolo(cmd.Context(), cfg, contentID)
		},
	}
	cmd.Flags().StringVar(&contentID, "content", "", "content id to play")
	cmd.MarkFlagRequired("content")
	return cmd
}

func runSolo(ctx context.Context, cfg *Config, contentID string) error {
	client := content.NewClient(cfg.ContentURL, cfg.ContentAPIKey, cfg.Token)
	record, err := client.Fetch(ctx, contentID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term := ui.NewTerminal(os.Stdout)
	controls := ui.NewControls(os.Stdout)
	go controls.Run(ctx, os.Stdin)

	opts := solo.Options{Deadline: time.Duration(cfg.RoundTimerSec) * time.Second}

	switch record.Mode {
	case game.ModeTournament:
		_, err := solo.NewTournament(term, controls, opts).Run(ctx, record)
		return err
	case game.ModeQuiz:
		_, err := solo.NewQuiz(term, controls, opts).Run(ctx, record)
		return err
	default:
		return fmt.Errorf("content %s: %w", record.ID, game.ErrUnknownMode)
	}
}
