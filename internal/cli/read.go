package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/progress"
)

// ReadOptions holds flags for the read command.
type ReadOptions struct {
	*RootOptions
	Database string
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read <section> <subsection>",
		Short: "Record the last read position",
		Long: `Record the last read position for the active identity.

The position update preserves the identity's bookmark list and emits a
change notification for the synchronization engine.

Example:
  kitab read 2 5
  kitab read 2 5 --user user-42 --db ./kitab.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from KITAB_DB)")

	return cmd
}

func runRead(opts *ReadOptions, args []string, cmd *cobra.Command) error {
	section, err := strconv.Atoi(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid section", err)
	}
	subsection, err := strconv.Atoi(args[1])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid subsection", err)
	}

	cfg, err := loadConfig(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Record daily history from the same change notification the sync
	// engine would consume.
	bus := event.NewBus()
	defer bus.Close()

	manager, _, closeStore, err := openManager(cfg.DBPath, bus)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	recorder := progress.NewHistoryRecorder(manager.Storage())
	recorder.Attach(bus)
	defer recorder.Detach()

	id := resolveIdentity(opts.RootOptions)
	rec, err := manager.SaveProgress(cmd.Context(), id, section, subsection)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to save progress", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(rec)
	}
	return out.Success(fmt.Sprintf("%s: now at %d/%d (%d bookmarks)",
		rec.Identity, rec.LastSection, rec.LastSubsection, len(rec.Bookmarks)))
}
