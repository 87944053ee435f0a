package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitab-io/kitab/internal/cache"
	"github.com/kitab-io/kitab/internal/connectivity"
	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/navigator"
	"github.com/kitab-io/kitab/internal/progress"
	"github.com/kitab-io/kitab/internal/store"
)

// offlineDocument is the pinned fallback served for failed document
// navigations. It is installed before any other caching can occur and
// is never evicted.
var offlineDocument = []byte(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Offline</title></head>
<body>
<h1>You are offline</h1>
<p>This page is not cached yet. Reconnect and try again, or open a
section you have already read.</p>
</body>
</html>
`)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	DBPath string
	Policy string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local reading proxy",
		Long: `Start the local HTTP front door. Every request to the remote
content API passes through the tier cache engine, so reads keep working
when the network drops. Reading progress events recorded through the
store feed the history ledger while the server runs.

Example:
  kitab serve --addr :8090
  KITAB_API_BASE=https://content.example kitab serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8090", "listen address")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "database path (default $KITAB_DB)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "path to a CUE cache policy (default embedded)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	base, err := url.Parse(cfg.APIBase)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid API base URL", err)
	}

	policyPath := opts.Policy
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}
	policy, err := loadPolicy(policyPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load cache policy", err)
	}

	bus := event.NewBus()
	defer bus.Close()

	manager, st, closeStore, err := openManager(cfg.DBPath, bus)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer closeStore()

	engineOpts := []cache.Option{cache.WithTimeout(cfg.NetTimeout)}
	if st != nil {
		// Pages persisted by precache outlive cache eviction; serve
		// them before resorting to the offline placeholder.
		engineOpts = append(engineOpts, cache.WithDocumentSource(storeDocuments(st)))
	}
	engine, err := cache.New(policy, offlineDocument, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build cache engine", err)
	}

	recorder := progress.NewHistoryRecorder(manager.Storage())
	recorder.Attach(bus)
	defer recorder.Detach()

	// The proxy process starts assuming the link is up; the first
	// failed upstream round trip flips the flag.
	monitor := connectivity.New(func() bool { return true })
	nav := navigator.New(monitor)
	defer nav.Close()

	bus.Subscribe(func(e event.Event) {
		slog.Debug("change event", "id", e.ID, "seq", e.Seq, "op", e.Op, "identity", e.Identity)
	})

	proxy := httputil.NewSingleHostReverseProxy(base)
	proxy.Transport = engine
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("proxy error", "url", r.URL.String(), "err", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/_kitab/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"mode":   nav.Mode().String(),
			"online": monitor.Online(),
			"tiers": map[string]int{
				"api":   engine.TierLen("api"),
				"pages": engine.TierLen("pages"),
			},
		})
	})
	// Only proxied traffic feeds the connectivity flag; local status
	// requests say nothing about the link.
	mux.Handle("/", connectivityMiddleware(monitor, proxy))

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", opts.Addr, "upstream", cfg.APIBase, "identity", resolveIdentity(opts.RootOptions))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown failed", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitFailure, "server failed", err)
	}
}

// storeDocuments adapts the content tables into the engine's offline
// document source. Paths that are not content pages, and pages never
// precached, report a miss so the placeholder takes over.
func storeDocuments(st *store.Store) cache.DocumentSource {
	return func(ctx context.Context, path string) ([]byte, bool) {
		id, kind, err := parseContentPath(path)
		if err != nil {
			return nil, false
		}
		page, err := st.GetContent(ctx, id, kind)
		if err != nil || page == nil {
			return nil, false
		}
		return []byte(page.Body), true
	}
}

// connectivityMiddleware feeds request outcomes back into the monitor so
// navigation mode tracks the real link state. A 502 from the proxy means
// the upstream was unreachable through every tier.
func connectivityMiddleware(monitor *connectivity.Monitor, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		monitor.SetOnline(rec.status != http.StatusBadGateway)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
