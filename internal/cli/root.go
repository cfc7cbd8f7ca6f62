package cli

import (
	"log/slog"

	"rundown-orchestrator/internal/platform/config"
	"rundown-orchestrator/internal/platform/logger"
	"rundown-orchestrator/internal/playout"

	"github.com/spf13/cobra"
)

var (
	flagLogLevel  string
	flagLogFormat string
	flagStudio    string

	log *slog.Logger
)

// NewRootCmd creates the root cobra command for the rundownd binary.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rundownd",
		Short: "Rundown playout orchestrator",
		Long:  "rundownd serves the playout HTTP API and simulates takes through a rundown.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.NewWithWriter(cmd.ErrOrStderr(), flagLogLevel, flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", config.GetEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", config.GetEnv("LOG_FORMAT", "json"), "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagStudio, "studio-config", config.GetEnv("STUDIO_CONFIG", ""), "Studio settings YAML file (or STUDIO_CONFIG env)")

	root.AddCommand(
		newServeCmd(),
		newSimulateCmd(),
	)

	return root
}

// studioSettings loads the studio file and environment overrides.
func studioSettings(path string) (playout.StudioSettings, error) {
	st, err := config.LoadStudio(path)
	if err != nil {
		return playout.StudioSettings{}, err
	}
	return playout.StudioSettings{
		FallbackPartDuration:   st.FallbackPartDuration,
		ForceQuickLoopAutoNext: playout.ParseForceAutoNext(st.ForceQuickLoopAutoNext),
	}, nil
}
