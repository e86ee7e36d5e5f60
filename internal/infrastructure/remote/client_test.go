package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.APIConfig{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		UserAgent: "vidro/test",
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "absolute url", baseURL: "https://vidro-api.onrender.com"},
		{name: "with base path", baseURL: "http://localhost:8080/api"},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "relative", baseURL: "vidro-api", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(config.APIConfig{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		path     string
		query    map[string]string
		expected string
	}{
		{"root base", "http://h", "/glasses", nil, "http://h/glasses"},
		{"base path kept", "http://h/api", "/visits/7", nil, "http://h/api/visits/7"},
		{"no leading slash", "http://h/api/", "visits", nil, "http://h/api/visits"},
		{"query", "http://h", "/visits", map[string]string{"status": "1"}, "http://h/visits?status=1"},
		{"escaped id", "http://h", "/visits/a%2Fb", nil, "http://h/visits/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(config.APIConfig{BaseURL: tt.baseURL})
			require.NoError(t, err)

			u, err := client.buildURL(tt.path, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.String())
		})
	}
}

func TestGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/visits", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("status"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "vidro/test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.Empty(t, r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1"}]`))
	})

	resp, err := client.Get(context.Background(), "/visits", map[string]string{"status": "2"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET /visits", resp.Op)
	assert.NotEmpty(t, resp.RequestID)

	var out []map[string]string
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "1", out[0]["id"])
}

func TestPatchSendsJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/visits/7", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2, body["status"])
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := client.Patch(context.Background(), "/visits/7", map[string]int{"status": 2})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var ignored map[string]any
	assert.NoError(t, resp.Decode(&ignored))
	assert.Nil(t, ignored)
}

func TestRequestIDFromContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-from-ctx", r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusOK)
	})

	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-from-ctx")
	resp, err := client.Delete(ctx, "/visits/3")
	require.NoError(t, err)
	assert.Equal(t, "req-from-ctx", resp.RequestID)
}

func TestNon2xxIsError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			resp, err := client.Post(context.Background(), "/visits", map[string]string{"name": "Ana"})
			assert.Nil(t, resp)

			var rerr *Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, status, rerr.StatusCode)
			assert.Equal(t, "POST /visits", rerr.Op)
			assert.Equal(t, "http error: status "+strconv.Itoa(status), err.Error())
			assert.False(t, rerr.IsTransport())
			assert.Equal(t, status, StatusCode(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(config.APIConfig{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/glasses", nil)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsTransport())
	assert.NotEmpty(t, rerr.Message)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))

	_, err := client.Get(context.Background(), "/glasses", nil)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsTransport())
}

func TestDecodeInvalidBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	resp, err := client.Get(context.Background(), "/glasses", nil)
	require.NoError(t, err)

	var out []any
	err = resp.Decode(&out)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusOK, rerr.StatusCode)
	assert.Contains(t, rerr.Message, "invalid response body")
}

func TestRateLimiterHonoursContext(t *testing.T) {
	var calls atomic.Int32
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}, WithLimiter(limiter))

	_, err := client.Get(context.Background(), "/glasses", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, "/glasses", nil)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsTransport())
	assert.Equal(t, int32(1), calls.Load())
}

func TestSetHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "es", r.Header.Get("Accept-Language"))
		w.WriteHeader(http.StatusOK)
	})
	client.SetHeader("Accept-Language", "es")

	_, err := client.Get(context.Background(), "/glasses", nil)
	require.NoError(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(newStatusError("GET /glasses/9", http.StatusNotFound)))
	assert.False(t, IsNotFound(errors.New("plain")))
}
