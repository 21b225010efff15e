// Package cmd implements the §6 CLI surface: five top-level commands
// (sim, cs, est, deriv, obsToCsv) sharing one model-folder layout and
// logger, built the same way the teacher's config-driven entry points
// compose flags, collaborators, and a structured logger.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scaper-sim/scaper/internal/runlog"
)

// globalFlags holds the persistent flags every subcommand shares.
type globalFlags struct {
	modelDir string
	console  bool
	logFile  bool
}

var flags globalFlags

// NewRootCmd builds the root "scaper" command with every subcommand
// wired in.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scaper",
		Short:         "Microsimulation engine for travel behaviour",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.modelDir, "model", "m", "", "model folder (models/<MODELFOLDER>)")
	root.PersistentFlags().BoolVarP(&flags.console, "console", "c", false, "log human-readable output to stderr")
	root.PersistentFlags().BoolVarP(&flags.logFile, "logFile", "l", false, "log structured JSON to the model's logs/ folder")
	root.MarkPersistentFlagRequired("model") //nolint:errcheck // cobra reports this itself at parse time

	root.AddCommand(
		newSimCmd(),
		newCsCmd(),
		newEstCmd(),
		newDerivCmd(),
		newObsToCsvCmd(),
	)
	return root
}

// newLogger builds a run's Logger per the persistent --console/--logFile
// flags, writing any file output under the model folder's logs/
// subdirectory (§6 "persisted layout").
func newLogger() (*runlog.Logger, error) {
	logPath := ""
	if flags.logFile {
		var err error
		logPath, err = timestampedPath(flags.modelDir, "logs", "log")
		if err != nil {
			return nil, err
		}
	}
	return runlog.New(logPath, flags.console)
}
