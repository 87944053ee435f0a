package cli

import (
	"errors"
	"log/slog"

	"github.com/kitab-io/kitab/internal/config"
	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/identity"
	"github.com/kitab-io/kitab/internal/progress"
	"github.com/kitab-io/kitab/internal/store"
)

// resolveIdentity maps the --user flag through the identity resolver.
func resolveIdentity(opts *RootOptions) string {
	return identity.Resolve(identity.Session{UserID: opts.User})
}

// loadConfig reads environment config, letting a --db flag override the
// database path.
func loadConfig(dbFlag string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	return cfg, nil
}

// openManager opens the persistent store and wraps it in a progress
// manager. When storage is unavailable the session degrades to
// in-memory operation instead of failing - reads and writes still work,
// they just don't survive the process. The returned store is nil in the
// degraded case; callers that want store-only features (history counts,
// stored pages) must check for it.
func openManager(dbPath string, bus *event.Bus) (*progress.Manager, *store.Store, func(), error) {
	s, err := store.Open(dbPath)
	if err != nil {
		if errors.Is(err, store.ErrStorageUnavailable) {
			slog.Warn("storage unavailable, running without persistence", "path", dbPath, "err", err)
			return progress.NewManager(progress.NewMemStorage(), bus), nil, func() {}, nil
		}
		return nil, nil, nil, err
	}
	return progress.NewManager(s, bus), s, func() { s.Close() }, nil
}
