package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkwon12/partyround/internal/game"
	"github.com/dkwon12/partyround/internal/identity"
	"github.com/dkwon12/partyround/internal/resume"
	"github.com/dkwon12/partyround/internal/room"
	"github.com/dkwon12/partyround/internal/transport"
	"github.com/dkwon12/partyround/internal/ui"
)

type createRoomCommand struct {
	ContentID string `json:"content_id"`
	Mode      string `json:"mode,omitempty"`
}

type joinRoomCommand struct {
	RoomID string `json:"room_id"`
}

func newCreateCmd(cfg *Config) *cobra.Command {
	var contentID, mode string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and host a shared session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), cfg, func(ctx context.Context, tr transport.Transport) error {
				return tr.Emit(ctx, room.CommandCreate, createRoomCommand{ContentID: contentID, Mode: mode})
			})
		},
	}
	cmd.Flags().StringVar(&contentID, "content", "", "content id to play")
	cmd.Flags().StringVar(&mode, "mode", "", "override the content's game mode (worldcup or quiz)")
	cmd.MarkFlagRequired("content")
	return cmd
}

func newJoinCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room>",
		Short: "Join an existing room by its code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]
			return runSession(cmd.Context(), cfg, func(ctx context.Context, tr transport.Transport) error {
				return tr.Emit(ctx, room.CommandJoin, joinRoomCommand{RoomID: roomID})
			})
		},
	}
}

func newResumeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Rejoin the last active session, if the room still exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openResumeStore(cfg)
			if err != nil {
				return err
			}
			session, err := store.Load(cmd.Context())
			store.Close()
			if errors.Is(err, resume.ErrNoSession) {
				fmt.Println("No session to resume.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Resume room %s (saved %s)? [y/N] ", session.RoomID, session.SavedAt.Format(time.RFC822))
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				store, err := openResumeStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				return store.Clear(cmd.Context())
			}

			return runSession(cmd.Context(), cfg, func(ctx context.Context, tr transport.Transport) error {
				return tr.Emit(ctx, room.CommandJoin, joinRoomCommand{RoomID: session.RoomID})
			})
		},
	}
}

// runSession drives one multiplayer session end to end: credential, link,
// join, reconcile, input.
func runSession(ctx context.Context, cfg *Config, issueJoin func(context.Context, transport.Transport) error) error {
	ident := identity.NewHolder()
	if cfg.Token == "" {
		return errors.New("multiplayer needs a bearer token; set --token or PARTYROUND_TOKEN")
	}
	if err := ident.Set(cfg.Token); err != nil {
		return err
	}
	if ident.Expired(time.Now()) {
		return errors.New("credential expired; sign in again")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Losing the credential ends the remote session.
	ident.OnChange(func() {
		if ident.UserID() == "" {
			log.Warn().Msg("credential cleared, leaving session")
			cancel()
		}
	})

	tr, err := connectTransport(ctx, cfg)
	if err != nil {
		return err
	}
	defer tr.Close()

	term := ui.NewTerminal(os.Stdout)
	controls := ui.NewControls(os.Stdout)
	rc := room.NewReconciler(tr, term, ident, nil)

	events := make(chan room.Event, 16)
	go func() {
		defer close(events)
		for ev := range tr.Events() {
			select {
			case events <- room.Event{Type: room.EventType(ev.Name), Data: ev.Data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- rc.Run(ctx, events) }()

	if err := issueJoin(ctx, tr); err != nil {
		return err
	}

	roomID, err := awaitRoom(ctx, rc)
	if err != nil {
		return err
	}
	if err := tr.BindRoom(roomID); err != nil {
		return err
	}

	store, err := openResumeStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, roomID, rc.Snapshot().ContentID); err != nil {
		log.Warn().Err(err).Msg("could not save session for resume")
	}

	go controls.Run(ctx, os.Stdin)
	go inputLoop(ctx, rc, controls)

	err = <-runErr

	if rc.Snapshot().Phase == room.PhaseFinished {
		if clearErr := store.Clear(context.Background()); clearErr != nil {
			log.Warn().Err(clearErr).Msg("could not clear finished session")
		}
	}
	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer leaveCancel()
	if leaveErr := tr.Emit(leaveCtx, room.CommandLeave, joinRoomCommand{RoomID: roomID}); leaveErr != nil {
		log.Debug().Err(leaveErr).Msg("leave not acknowledged")
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func connectTransport(ctx context.Context, cfg *Config) (transport.Transport, error) {
	if cfg.NATSURL != "" {
		return transport.ConnectNATS(transport.DefaultNATSConfig(cfg.NATSURL))
	}
	return transport.DialWS(ctx, transport.DefaultWSConfig(cfg.ServerURL, cfg.Token))
}

func openResumeStore(cfg *Config) (*resume.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return resume.Open(filepath.Join(cfg.DataDir, "resume.db"))
}

// awaitRoom waits for the first room snapshot after a create or join.
func awaitRoom(ctx context.Context, rc *room.Reconciler) (string, error) {
	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if id := rc.Snapshot().ID; id != "" {
			return id, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", errors.New("no room state received; the server may be down")
		case <-ticker.C:
		}
	}
}

// inputLoop translates typed lines into intents for the current phase.
func inputLoop(ctx context.Context, rc *room.Reconciler, controls *ui.Controls) {
	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case line = <-controls.Pick():
		case line = <-controls.Choice():
		case line = <-controls.Text():
		case <-controls.Continue():
			advance(ctx, rc)
			continue
		}
		dispatch(ctx, rc, line)
	}
}

func dispatch(ctx context.Context, rc *room.Reconciler, line string) {
	var err error
	switch rc.Snapshot().Phase {
	case room.PhaseLobby:
		if strings.EqualFold(line, "start") {
			err = rc.Start(ctx)
		}
	case room.PhasePlaying:
		if line == string(game.SideA) || line == string(game.SideB) {
			err = rc.CommitPick(ctx, game.Side(line))
		}
	case room.PhaseAnswering:
		err = rc.SubmitAnswer(ctx, line)
	}
	if err != nil {
		log.Warn().Err(err).Msg("command not accepted")
	}
}

func advance(ctx context.Context, rc *room.Reconciler) {
	var err error
	switch rc.Snapshot().Phase {
	case room.PhaseReveal:
		err = rc.Ready(ctx)
	case room.PhaseRevealed, room.PhaseScoreboard:
		err = rc.RequestAdvance(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Msg("advance not accepted")
	}
}
