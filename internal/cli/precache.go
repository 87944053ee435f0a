package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitab-io/kitab/internal/cache"
	"github.com/kitab-io/kitab/internal/reading"
	"github.com/kitab-io/kitab/internal/store"
)

// PrecacheOptions holds flags for the precache command.
type PrecacheOptions struct {
	*RootOptions
	Database string
	Policy   string
}

// NewPrecacheCommand creates the precache command.
func NewPrecacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrecacheOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "precache",
		Short: "Warm the static content cache for offline reading",
		Long: `Fetch every section and bundle document once, warming the
cache-first tier and persisting each page locally, so later offline
navigations resolve without the network.

Example:
  kitab precache
  KITAB_API_BASE=https://content.example kitab precache`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrecache(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from KITAB_DB)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "path to a CUE cache policy (default embedded)")

	return cmd
}

func runPrecache(opts *PrecacheOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	policyPath := opts.Policy
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}
	policy, err := loadPolicy(policyPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load cache policy", err)
	}

	engine, err := cache.New(policy, offlineDocument, cache.WithTimeout(cfg.NetTimeout))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build cache engine", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	var paths []string
	for i := 1; i <= cfg.Sections; i++ {
		paths = append(paths, fmt.Sprintf("/section/%d", i))
	}
	for i := 1; i <= cfg.Bundles; i++ {
		paths = append(paths, fmt.Sprintf("/bundle/%d", i))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	out.VerboseLog("precaching %d documents from %s", len(paths), cfg.APIBase)

	stored := 0
	for _, p := range paths {
		page, err := fetchDocument(cmd.Context(), engine, cfg.APIBase, p)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("precache %s", p), err)
		}
		if page == nil {
			continue
		}
		if err := st.PutContent(cmd.Context(), page); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("store %s", p), err)
		}
		stored++
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"cached": engine.TierLen("pages"), "stored": stored})
	}
	return out.Success(fmt.Sprintf("cached %d documents, stored %d pages", engine.TierLen("pages"), stored))
}

// fetchDocument issues one document navigation through the engine and
// converts a successful response into a content page. Non-2xx responses
// are skipped rather than fatal so a missing bundle does not abort the
// whole warmup.
func fetchDocument(ctx context.Context, engine *cache.Engine, baseURL, path string) (*reading.ContentPage, error) {
	id, kind, err := parseContentPath(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	resp, err := engine.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("skipping document", "path", path, "status", resp.StatusCode)
		return nil, nil
	}
	if resp.Header.Get(cache.FallbackHeader) != "" {
		// The offline placeholder is not page content.
		slog.Warn("skipping document, offline fallback served", "path", path)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &reading.ContentPage{
		ID:    id,
		Kind:  kind,
		Title: fmt.Sprintf("%s %d", kind, id),
		Body:  string(body),
	}, nil
}

// parseContentPath splits "/section/2" into (2, "section").
func parseContentPath(path string) (int, string, error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("unexpected content path %q", path)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("unexpected content path %q: %w", path, err)
	}
	return id, parts[0], nil
}

// loadPolicy resolves the tier policy: a CUE file when given, otherwise
// the embedded default.
func loadPolicy(path string) (cache.Policy, error) {
	if path != "" {
		return cache.LoadPolicyFile(path)
	}
	return cache.DefaultPolicy()
}
