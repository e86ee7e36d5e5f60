package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAPI is a mock implementation of API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Get(ctx context.Context, path string, queryParams map[string]string) (*remote.Response, error) {
	args := m.Called(ctx, path, queryParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.Response), args.Error(1)
}

func (m *MockAPI) Patch(ctx context.Context, path string, body any) (*remote.Response, error) {
	args := m.Called(ctx, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.Response), args.Error(1)
}

func okResponse(op, body string) *remote.Response {
	return &remote.Response{Op: op, StatusCode: http.StatusOK, Body: []byte(body)}
}

func statusError(op string, status int) error {
	return &remote.Error{Op: op, StatusCode: status, Message: "http error: status " + strconv.Itoa(status)}
}

func newTestStore(api API) *Store {
	return NewStore(api, zap.NewNop(), telemetry.NewNoopStoreMetrics())
}

func TestFetchAll_Scenario(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":1,"name":"Tempered","priceTransparent":150,"priceColor":null}]`), nil)

	store := newTestStore(api)
	store.FetchAll(context.Background())

	glasses := store.Glasses()
	require.Len(t, glasses, 1)
	assert.Equal(t, "1", glasses[0].ID)
	assert.Equal(t, "Tempered", glasses[0].Name)
	assert.True(t, glasses[0].PriceTransparent.Equals(valueobject.MustPrice(150)))
	assert.False(t, glasses[0].PriceColor.IsSet())
	assert.False(t, store.IsLoading())
	assert.Empty(t, store.Error())
	api.AssertExpectations(t)
}

func TestFetchAll_LegacyPriceRoundTrip(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":1,"name":"Vidrio Templado","price":"$150.00"},{"id":"2","Name":"Vidrio Laminado"}]`), nil)

	store := newTestStore(api)
	store.FetchAll(context.Background())

	legacy, ok := store.Glass("1")
	require.True(t, ok)
	assert.Equal(t, "$150.00", legacy.PriceTransparent.Display())
	assert.False(t, legacy.PriceColor.IsSet())

	missing, ok := store.Glass("2")
	require.True(t, ok)
	assert.Equal(t, "Vidrio Laminado", missing.Name)
	assert.False(t, missing.PriceTransparent.IsSet(), "missing price must be absent, not zero")
	assert.Equal(t, valueobject.AbsentDisplay, missing.PriceTransparent.Display())
}

func TestFetchAll_FailureKeepsCollection(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"a","name":"A","priceTransparent":1},{"id":"b","name":"B","priceTransparent":2}]`), nil).Once()
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(nil, statusError("GET /glasses", http.StatusInternalServerError)).Once()
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"c","name":"C","priceTransparent":3}]`), nil).Once()

	store := newTestStore(api)
	ctx := context.Background()

	store.FetchAll(ctx)
	before := store.Glasses()
	require.Len(t, before, 2)

	store.FetchAll(ctx)
	assert.Equal(t, before, store.Glasses())
	assert.NotEmpty(t, store.Error())
	assert.False(t, store.IsLoading())

	store.FetchAll(ctx)
	assert.Empty(t, store.Error())
	after := store.Glasses()
	require.Len(t, after, 1)
	assert.Equal(t, "c", after[0].ID)
}

func TestFetchAll_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "negative price", body: `[{"id":1,"name":"A","priceTransparent":-5}]`},
		{name: "missing id", body: `[{"name":"A","priceTransparent":5}]`},
		{name: "not a list", body: `{"id":1}`},
		{name: "bad price string", body: `[{"id":1,"price":"cheap"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			api.On("Get", mock.Anything, "/glasses", mock.Anything).
				Return(okResponse("GET /glasses", tt.body), nil)

			store := newTestStore(api)
			store.FetchAll(context.Background())

			assert.Empty(t, store.Glasses())
			assert.Contains(t, store.Error(), "invalid response body")
		})
	}
}

func TestFetchAll_DuplicateIDsCollapse(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":1,"name":"old"},{"id":2,"name":"two"},{"id":"1","name":"new"}]`), nil)

	store := newTestStore(api)
	store.FetchAll(context.Background())

	glasses := store.Glasses()
	require.Len(t, glasses, 2)
	assert.Equal(t, "new", glasses[0].Name)
	assert.Equal(t, "two", glasses[1].Name)
}

func TestFetchAll_StaleResultDiscarded(t *testing.T) {
	api := new(MockAPI)
	started := make(chan struct{})
	release := make(chan struct{})

	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(okResponse("GET /glasses", `[{"id":"old","name":"slow"}]`), nil).Once()
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"new","name":"fast"}]`), nil).Once()

	store := newTestStore(api)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.FetchAll(context.Background())
	}()
	<-started

	store.FetchAll(context.Background())
	assert.True(t, store.IsLoading(), "slow fetch is still in flight")

	close(release)
	wg.Wait()

	glasses := store.Glasses()
	require.Len(t, glasses, 1)
	assert.Equal(t, "new", glasses[0].ID)
	assert.False(t, store.IsLoading())
}

func TestFetchAll_MutationDuringFetchWins(t *testing.T) {
	api := new(MockAPI)
	started := make(chan struct{})
	release := make(chan struct{})

	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A","priceTransparent":100}]`), nil).Once()
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A","priceTransparent":100}]`), nil).Once()
	api.On("Patch", mock.Anything, "/glasses/1", mock.Anything).
		Return(okResponse("PATCH /glasses/1", ``), nil)

	store := newTestStore(api)
	store.FetchAll(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.FetchAll(context.Background())
	}()
	<-started

	require.NoError(t, store.EditPrice(context.Background(), "1", valueobject.MustPrice(175)))
	close(release)
	wg.Wait()

	g, ok := store.Glass("1")
	require.True(t, ok)
	assert.Equal(t, "$175.00", g.PriceTransparent.Display())
}

func TestEditPrice_Success(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A","priceTransparent":100,"priceColor":120},{"id":"2","name":"B","priceTransparent":50}]`), nil)
	api.On("Patch", mock.Anything, "/glasses/1", mock.MatchedBy(func(body pricePatch) bool {
		return body.PriceTransparent.Equals(valueobject.MustPrice(110)) && body.PriceColor == nil
	})).Return(okResponse("PATCH /glasses/1", ``), nil).Once()
	api.On("Patch", mock.Anything, "/glasses/2", mock.MatchedBy(func(body pricePatch) bool {
		return body.PriceColor != nil && body.PriceColor.Equals(valueobject.MustPrice(80))
	})).Return(okResponse("PATCH /glasses/2", ``), nil).Once()

	store := newTestStore(api)
	ctx := context.Background()
	store.FetchAll(ctx)

	require.NoError(t, store.EditPrice(ctx, "1", valueobject.MustPrice(110)))
	require.NoError(t, store.EditPrice(ctx, "2", valueobject.MustPrice(60), valueobject.MustPrice(80)))

	first, _ := store.Glass("1")
	assert.Equal(t, "$110.00", first.PriceTransparent.Display())
	assert.Equal(t, "$120.00", first.PriceColor.Display(), "color untouched when not given")
	assert.Equal(t, "A", first.Name)

	second, _ := store.Glass("2")
	assert.Equal(t, "$60.00", second.PriceTransparent.Display())
	assert.Equal(t, "$80.00", second.PriceColor.Display())
	assert.Empty(t, store.Error())
	api.AssertExpectations(t)
}

func TestEditPrice_FailureKeepsStalePrice(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A","priceTransparent":100}]`), nil)
	api.On("Patch", mock.Anything, "/glasses/1", mock.Anything).
		Return(nil, statusError("PATCH /glasses/1", http.StatusBadRequest))

	store := newTestStore(api)
	ctx := context.Background()
	store.FetchAll(ctx)

	err := store.EditPrice(ctx, "1", valueobject.MustPrice(999))
	var rerr *remote.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.StatusCode)

	g, _ := store.Glass("1")
	assert.Equal(t, "$100.00", g.PriceTransparent.Display())
	assert.Equal(t, err.Error(), store.Error())
	assert.False(t, store.IsLoading())
}

func TestEditPrice_InvalidInput(t *testing.T) {
	api := new(MockAPI)
	store := newTestStore(api)
	ctx := context.Background()

	err := store.EditPrice(ctx, "1", valueobject.NoPrice())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = store.EditPrice(ctx, " ", valueobject.MustPrice(1))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = store.EditPrice(ctx, "1", valueobject.MustPrice(1), valueobject.MustPrice(2), valueobject.MustPrice(3))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	api.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, store.Error())
}

func TestEditPrice_UnknownIDLeavesCollection(t *testing.T) {
	api := new(MockAPI)
	api.On("Patch", mock.Anything, "/glasses/ghost", mock.Anything).
		Return(okResponse("PATCH /glasses/ghost", ``), nil)

	store := newTestStore(api)
	require.NoError(t, store.EditPrice(context.Background(), "ghost", valueobject.MustPrice(10)))
	assert.Empty(t, store.Glasses())
}

func TestSubscribe(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A"}]`), nil)

	store := newTestStore(api)

	var snaps []Snapshot
	store.Subscribe(func(Snapshot) { panic("broken view") })
	unsubscribe := store.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	store.FetchAll(context.Background())

	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Loading)
	assert.Empty(t, snaps[0].Glasses)
	assert.False(t, snaps[1].Loading)
	assert.Len(t, snaps[1].Glasses, 1)
	assert.Greater(t, snaps[1].Version, snaps[0].Version)

	unsubscribe()
	store.FetchAll(context.Background())
	assert.Len(t, snaps, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, "/glasses", mock.Anything).
		Return(okResponse("GET /glasses", `[{"id":"1","name":"A"}]`), nil)

	store := newTestStore(api)
	store.FetchAll(context.Background())

	glasses := store.Glasses()
	glasses[0].Name = "mutated"

	g, _ := store.Glass("1")
	assert.Equal(t, "A", g.Name)
}

func TestStore_AgainstHTTPServer(t *testing.T) {
	var mu sync.Mutex
	var patches []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/glasses":
			_, _ = w.Write([]byte(`[{"id":"t 1","name":"Templado","priceTransparent":"150","priceColor":"$180.50"}]`))
		case r.Method == http.MethodPatch && r.URL.EscapedPath() == "/glasses/t%201":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mu.Lock()
			patches = append(patches, body)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := remote.NewClient(config.APIConfig{BaseURL: server.URL})
	require.NoError(t, err)

	store := newTestStore(client)
	ctx := context.Background()

	store.FetchAll(ctx)
	require.Empty(t, store.Error())
	g, ok := store.Glass("t 1")
	require.True(t, ok)
	assert.Equal(t, "$150.00", g.PriceTransparent.Display())
	assert.Equal(t, "$180.50", g.PriceColor.Display())

	require.NoError(t, store.EditPrice(ctx, "t 1", valueobject.MustPrice(160), valueobject.MustPrice(190)))

	mu.Lock()
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"priceTransparent": 160.0, "priceColor": 190.0}, patches[0])
	mu.Unlock()

	err = store.EditPrice(ctx, "missing", valueobject.MustPrice(1))
	assert.True(t, remote.IsNotFound(err))
	assert.Equal(t, "http error: status 404", store.Error())
}

func TestGlassNotFound(t *testing.T) {
	store := newTestStore(new(MockAPI))
	_, ok := store.Glass("nope")
	assert.False(t, ok)
	assert.Equal(t, Snapshot{Glasses: []catalog.Glass{}}, store.Snapshot())
}
