package artists

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/database"
	"catalog-manager/core/labels"
	"catalog-manager/core/metacache"
	"catalog-manager/core/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestApp wires the full artist feature against an in-memory
// cache, a SQLite database, and a fake provider server.
func setupTestApp(t *testing.T, provider http.Handler) (*fiber.App, *Service) {
	t.Helper()

	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.LabelRow{}, &database.ArtistRow{}, &database.ArtistLabelRow{}))

	seed := []any{
		&database.ArtistRow{ID: "a1", Name: "Direct Act", LabelID: "1"},
		&database.ArtistRow{ID: "a2", Name: "Deep Dive", Bio: "member of Build It Deep collective"},
		&database.ArtistRow{ID: "a3", Name: "Joined Act", Bio: "deep house duo"},
		&database.ArtistLabelRow{ArtistID: "a3", LabelID: "1"},
		&database.ArtistLabelRow{ArtistID: "a3", LabelID: "2"},
	}
	for _, row := range seed {
		require.NoError(t, db.Create(row).Error)
	}

	store := cache.NewMemory(720 * time.Hour)
	manager := metacache.NewManager(store, zap.NewNop())
	index := metacache.NewLabelIndex(store)
	client := upstream.NewClient(upstream.Config{BaseURL: srv.URL, TimeoutSeconds: 2, SearchTimeoutSeconds: 2}, zap.NewNop())

	table := labels.NewTable(labels.BuiltinDefinitions())
	engine := labels.NewEngine(table, "1")

	svc := NewService(manager, index, client, database.NewRepository(db), table, engine, zap.NewNop())

	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app, svc
}

func artistProvider(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		switch r.URL.Path {
		case "/artists/up1":
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"id":    "up1",
					"name":  "Upstream Act",
					"label": "Build It Deep",
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestHandleGetArtist(t *testing.T) {
	var calls atomic.Int32
	app, _ := setupTestApp(t, artistProvider(&calls))

	req := httptest.NewRequest("GET", "/artists/up1", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var lookup metacache.Lookup
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lookup))
	assert.Equal(t, metacache.SourceUpstream, lookup.Source)

	var artist upstream.Artist
	require.NoError(t, json.Unmarshal(lookup.Value, &artist))
	assert.Equal(t, "Upstream Act", artist.Name)

	// Second request is answered by the cache without another fetch.
	resp, err = app.Test(httptest.NewRequest("GET", "/artists/up1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lookup))
	assert.Equal(t, metacache.SourceCache, lookup.Source)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandleGetArtistUnknown(t *testing.T) {
	app, _ := setupTestApp(t, artistProvider(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/artists/ghost", nil))

	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleGetArtistUpstreamDown(t *testing.T) {
	app, _ := setupTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/artists/up1", nil))

	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleResolveLabel(t *testing.T) {
	app, _ := setupTestApp(t, artistProvider(nil))

	cases := []struct {
		artistID string
		labelID  string
		strategy string
	}{
		{"a1", "1", "direct"},
		{"a2", "2", "heuristic"},
		{"a3", "2", "indirect"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", "/artists/"+tc.artistID+"/label", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode, tc.artistID)

		var result labels.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, tc.labelID, result.LabelID, tc.artistID)
		assert.Equal(t, labels.Strategy(tc.strategy), result.Strategy, tc.artistID)
	}
}

func TestHandleResolveLabelFallsBackToUpstream(t *testing.T) {
	// up1 is unknown locally; the upstream projection carries the
	// "Build It Deep" label reference.
	app, _ := setupTestApp(t, artistProvider(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/artists/up1/label", nil))

	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result labels.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "2", result.LabelID)
	assert.Equal(t, labels.StrategyDirect, result.Strategy)
}

func TestHandleAcceptLabel(t *testing.T) {
	app, svc := setupTestApp(t, artistProvider(nil))

	body, _ := json.Marshal(map[string]string{"label": "Build It Deep"})
	req := httptest.NewRequest("POST", "/artists/a1/label", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "2", out["label_id"])

	// The persisted assignment now drives direct reconciliation.
	result, err := svc.ResolveLabel(req.Context(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "2", result.LabelID)
	assert.Equal(t, labels.StrategyDirect, result.Strategy)
}

func TestHandleAcceptLabelRejectsBadInput(t *testing.T) {
	app, _ := setupTestApp(t, artistProvider(nil))

	req := httptest.NewRequest("POST", "/artists/a1/label", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	body, _ := json.Marshal(map[string]string{"label": "nonsense"})
	req = httptest.NewRequest("POST", "/artists/a1/label", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleListByLabel(t *testing.T) {
	app, _ := setupTestApp(t, artistProvider(nil))

	// First call scans the database and builds the index.
	resp, err := app.Test(httptest.NewRequest("GET", "/labels/buildit-deep/artists", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var roster LabelRoster
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roster))
	assert.Equal(t, "2", roster.LabelID)
	assert.ElementsMatch(t, []string{"a2", "a3"}, roster.ArtistIDs)
	assert.True(t, roster.Complete)
	assert.False(t, roster.FromIndex)

	// Second call is answered by the index populated above.
	resp, err = app.Test(httptest.NewRequest("GET", "/labels/deep/artists", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roster))
	assert.ElementsMatch(t, []string{"a2", "a3"}, roster.ArtistIDs)
	assert.True(t, roster.FromIndex)
}

func TestHandleListByLabelUnknown(t *testing.T) {
	app, _ := setupTestApp(t, artistProvider(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/labels/nonsense/artists", nil))

	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
