package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "partyround",
		Short:         "Round-based party games: pairwise tournaments and quizzes, solo or in a shared room.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(cmd.Root().PersistentFlags(), cfg)
		},
	}

	fs := root.PersistentFlags()
	fs.StringVar(&cfg.ConfigPath, "config", "", "path to config file (default <data-dir>/config.yaml)")
	fs.StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "room server websocket URL (env: PARTYROUND_SERVER_URL)")
	fs.StringVar(&cfg.ContentURL, "content-url", cfg.ContentURL, "content API base URL (env: PARTYROUND_CONTENT_URL)")
	fs.StringVar(&cfg.ContentAPIKey, "content-api-key", cfg.ContentAPIKey, "content API key (env: PARTYROUND_CONTENT_API_KEY)")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "use a NATS room server at this URL instead of websockets (env: PARTYROUND_NATS_URL)")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "bearer token for the room server and content API (env: PARTYROUND_TOKEN)")
	fs.IntVar(&cfg.RoundTimerSec, "round-timer", cfg.RoundTimerSec, "seconds allowed per pick or answer (env: PARTYROUND_ROUND_TIMER)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for local state (env: PARTYROUND_DATA_DIR)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error (env: PARTYROUND_LOG_LEVEL)")

	root.AddCommand(newSoloCmd(cfg))
	root.AddCommand(newCreateCmd(cfg))
	root.AddCommand(newJoinCmd(cfg))
	root.AddCommand(newResumeCmd(cfg))

	root.CompletionOptions.HiddenDefaultCmd = true
	return root
}

// resolveConfig layers flag values over environment over config file over
// defaults.
func resolveConfig(fs *pflag.FlagSet, cfg *Config) error {
	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := cfg.loadFile(); err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix("PARTYROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if _, ok := changed[f.Name]; ok {
			return
		}
		if err := v.BindEnv(f.Name); err != nil {
			bindErr = err
			return
		}
		if v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = err
			}
		}
	})
	if bindErr != nil {
		return bindErr
	}

	// Explicit flags win over everything the file or env provided.
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	return cfg.validate()
}
