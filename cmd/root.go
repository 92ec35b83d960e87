package cmd

import (
	"fmt"

	"github.com/cmass-sales/visitlog/internal/config"
	"github.com/cmass-sales/visitlog/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	return newRootCmd().Execute()
}

// rootState carries what the persistent flags resolve to. It is filled in by
// the root pre-run hook before any subcommand runs.
type rootState struct {
	viper      *viper.Viper
	configFile string
	cfg        config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	state := &rootState{viper: viper.New(), log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "visitlog",
		Short: "Turn KakaoTalk sales reports into school visit records",
		Long: "visitlog reads exported KakaoTalk chat transcripts in which sales staff report school visits, " +
			"extracts one record per visited subject, resolves school names against the sales roster and the " +
			"NEIS school registry, and writes CSV, aggregated JSON and JSON Lines outputs.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.configFile, "config", "", "Config file (default: ./visitlog.toml or ~/.config/visitlog/visitlog.toml)")
	flags.String("roster", "", "Sales roster CSV (default: sales_staff.csv)")
	flags.String("vocabulary", "", "Vocabulary file with school aliases and keyword tables (.toml or .yaml)")
	flags.String("snapshots", "", "Glob of saved NEIS responses (default: neis_*.json)")
	flags.String("cache-backend", "", "Lookup cache backend: json or sqlite")
	flags.String("cache-path", "", "Lookup cache location")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "Log format: console or json")

	bindings := map[string]string{
		"roster.path":     "roster",
		"vocabulary.path": "vocabulary",
		"snapshot.glob":   "snapshots",
		"cache.backend":   "cache-backend",
		"cache.path":      "cache-path",
		"log.level":       "log-level",
		"log.format":      "log-format",
	}
	for key, flag := range bindings {
		_ = state.viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newConvertCmd(state),
		newResolveCmd(state),
		newCacheCmd(state),
		newAliasCmd(state),
	)

	return rootCmd
}

func (s *rootState) load(cmd *cobra.Command) error {
	cfg, err := config.Load(s.viper, config.Options{ConfigFile: s.configFile})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	s.cfg = cfg
	s.log = logging.New(logging.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: cmd.Name(),
		Writer:    cmd.ErrOrStderr(),
	})

	return nil
}
