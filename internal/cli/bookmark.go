package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kitab-io/kitab/internal/reading"
)

// BookmarkOptions holds flags for the bookmark command.
type BookmarkOptions struct {
	*RootOptions
	Database string
	Category string
}

// NewBookmarkCommand creates the bookmark command.
func NewBookmarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BookmarkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bookmark <section> <subsection>",
		Short: "Toggle a bookmark",
		Long: `Toggle a bookmark at the given position for the active identity.

Re-running the command on the same position removes the bookmark again.

Example:
  kitab bookmark 2 5
  kitab bookmark 2 5 --category favorites --user user-42`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookmark(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from KITAB_DB)")
	cmd.Flags().StringVar(&opts.Category, "category", reading.DefaultCategory, "bookmark category")

	return cmd
}

func runBookmark(opts *BookmarkOptions, args []string, cmd *cobra.Command) error {
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

	manager, _, closeStore, err := openManager(cfg.DBPath, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	id := resolveIdentity(opts.RootOptions)
	rec, err := manager.ToggleBookmark(cmd.Context(), id, section, subsection, opts.Category)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to toggle bookmark", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(rec)
	}

	state := "removed"
	if manager.IsBookmarked(rec.Bookmarks, section, subsection) {
		state = "added"
	}
	return out.Success(fmt.Sprintf("%s: bookmark %d/%d %s (%d total)",
		rec.Identity, section, subsection, state, len(rec.Bookmarks)))
}
