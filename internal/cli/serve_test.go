package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitab-io/kitab/internal/connectivity"
	"github.com/kitab-io/kitab/internal/reading"
	"github.com/kitab-io/kitab/internal/store"
)

func TestConnectivityMiddlewareMarksOffline(t *testing.T) {
	monitor := connectivity.New(func() bool { return true })

	handler := connectivityMiddleware(monitor, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, monitor.Online())
}

func TestConnectivityMiddlewareMarksOnlineAgain(t *testing.T) {
	monitor := connectivity.New(func() bool { return false })

	handler := connectivityMiddleware(monitor, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/section/2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, monitor.Online())
}

func TestConnectivityMiddlewareImplicitOK(t *testing.T) {
	// A handler that writes a body without calling WriteHeader still
	// counts as a successful round trip.
	monitor := connectivity.New(func() bool { return false })

	handler := connectivityMiddleware(monitor, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/section/3", nil))

	assert.True(t, monitor.Online())
}

func TestStoreDocumentsServesPersistedPages(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "kitab.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.PutContent(ctx, &reading.ContentPage{
		ID: 2, Kind: "section", Title: "section 2", Body: "<html>two</html>",
	}))

	source := storeDocuments(st)

	body, ok := source(ctx, "/section/2")
	require.True(t, ok)
	assert.Equal(t, "<html>two</html>", string(body))

	_, ok = source(ctx, "/section/9")
	assert.False(t, ok, "never-precached page is a miss")
	_, ok = source(ctx, "/_kitab/status")
	assert.False(t, ok, "non-content path is a miss")
}

func TestStatusRecorderCapturesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.WriteHeader(http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, sr.status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
