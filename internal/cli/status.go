package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kitab-io/kitab/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	All      bool
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show reading progress for the active identity",
		Long: `Show the last read position, bookmarks, reading-day count, and the
number of pages stored for offline use.

An identity that has never read anything reports "no progress yet"
rather than an error. With --all, every identity known to the store is
listed with its position.

Example:
  kitab status
  kitab status --all
  kitab status --user user-42 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from KITAB_DB)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "list every identity in the store")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	manager, st, closeStore, err := openManager(cfg.DBPath, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	if opts.All {
		if st == nil {
			return NewExitError(ExitFailure, "no persistent store to list")
		}
		return runStatusAll(opts, cmd, st, out)
	}

	id := resolveIdentity(opts.RootOptions)
	rec, err := manager.LoadProgress(cmd.Context(), id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load progress", err)
	}

	// Store-only extras: how many distinct days this identity has read
	// on, and how many pages precache has persisted.
	days := 0
	storedPages := 0
	if st != nil {
		if days, err = st.HistoryDays(cmd.Context(), id); err != nil {
			return WrapExitError(ExitFailure, "failed to count history", err)
		}
		pages, err := st.ListContentIndex(cmd.Context())
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list stored pages", err)
		}
		storedPages = len(pages)
	}

	if opts.Format == "json" {
		var progressData any
		if rec != nil {
			progressData = rec
		}
		return out.Success(map[string]any{
			"identity":     id,
			"progress":     progressData,
			"reading_days": days,
			"stored_pages": storedPages,
		})
	}

	var text string
	if rec == nil {
		text = fmt.Sprintf("%s: no progress yet", id)
	} else {
		text = fmt.Sprintf("%s: at %d/%d, %d bookmarks",
			rec.Identity, rec.LastSection, rec.LastSubsection, len(rec.Bookmarks))
		for _, b := range rec.Bookmarks {
			text += fmt.Sprintf("\n  %d/%d [%s]", b.Section, b.Subsection, b.Category)
		}
	}
	text += fmt.Sprintf("\n%d reading days, %d pages stored offline", days, storedPages)
	return out.Success(text)
}

// runStatusAll lists every identity's position via an ad hoc query over
// the progress table.
func runStatusAll(opts *StatusOptions, cmd *cobra.Command, st *store.Store, out *OutputFormatter) error {
	rows, err := st.Query(cmd.Context(), `
		SELECT identity, last_section, last_subsection
		FROM progress ORDER BY identity
	`)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to query identities", err)
	}
	defer rows.Close()

	type identityRow struct {
		Identity       string `json:"identity"`
		LastSection    int    `json:"last_section"`
		LastSubsection int    `json:"last_subsection"`
	}
	var list []identityRow
	for rows.Next() {
		var row identityRow
		if err := rows.Scan(&row.Identity, &row.LastSection, &row.LastSubsection); err != nil {
			return WrapExitError(ExitFailure, "failed to scan identity row", err)
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return WrapExitError(ExitFailure, "failed to read identity rows", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"identities": list})
	}
	if len(list) == 0 {
		return out.Success("no identities in store")
	}
	text := fmt.Sprintf("%d identities", len(list))
	for _, row := range list {
		text += fmt.Sprintf("\n  %s: at %d/%d", row.Identity, row.LastSection, row.LastSubsection)
	}
	return out.Success(text)
}
