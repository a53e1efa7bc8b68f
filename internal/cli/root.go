package cli

import (
	"io"
	"time"

	"github.com/evantbyrne/folio/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	cfg    config.Cfg
	logger zerolog.Logger
	open   sourceOpener
}

func NewRootCmd(ver string) *cobra.Command {
	return newRootCmd(ver, &app{open: openSource})
}

func newRootCmd(ver string, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Page through database tables",
		Long:          "folio: read tables and collections one page at a time, from the shell or over HTTP",
		Version:       ver,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
			cmd.SetContext(a.logger.WithContext(cmd.Context()))
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(newPageCmd(a), newServeCmd(a), newVersionCmd(ver))
	return cmd
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(parsed).
		With().
		Timestamp().
		Str("component", "cli").
		Logger()
}

func newVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("folio " + ver)
			return nil
		},
	}
}
