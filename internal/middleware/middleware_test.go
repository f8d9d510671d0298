package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Chain Tests
// ============================================================================

func TestChain_NoMiddlewares_ReturnsHandler(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("handler"))
	})

	rr := httptest.NewRecorder()
	Chain(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "handler", rr.Body.String())
}

func TestChain_MultipleMiddlewares_AppliesInOrder(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("H"))
	})
	tag := func(s string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(s))
				next.ServeHTTP(w, r)
			})
		}
	}

	rr := httptest.NewRecorder()
	Chain(handler, tag("1"), tag("2"), tag("3")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "123H", rr.Body.String())
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_NoHeader_GeneratesUUID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRequestID_WithHeader_PreservesExisting(t *testing.T) {
	t.Parallel()

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestGetRequestID_WrongType_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), RequestIDKey, 42)
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_NoPanic_ProceedsNormally(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("success"))
	})

	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", rr.Body.String())
}

func TestRecovery_WithPanic_ReturnsProblem(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Internal Server Error")
	assert.NotContains(t, rr.Body.String(), "something went wrong")
}

func TestRecovery_AbortHandler_Repanics(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Recovery(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	})
}

// ============================================================================
// CORS Tests
// ============================================================================

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowedOrigin_SetsHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	CORS([]string{"https://example.com", "https://app.example.com"})(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rr.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}

func TestCORS_DisallowedOrigin_NoHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	CORS([]string{"https://example.com"})(okHandler()).ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_Preflight_AnswersWithoutCallingNext(t *testing.T) {
	t.Parallel()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/v1/songs", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	CORS([]string{"https://example.com"})(next).ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPatch, rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
}

// ============================================================================
// Compress Tests
// ============================================================================

func TestCompress_AcceptsGzip_CompressesResponse(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("Amazing grace how sweet the sound. ", 100)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()
	Compress(handler).ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()
	decompressed, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, body, string(decompressed))
}

func TestCompress_NoGzipAccept_DoesNotCompress(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("uncompressed response"))
	})

	rr := httptest.NewRecorder()
	Compress(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Equal(t, "uncompressed response", rr.Body.String())
}

// ============================================================================
// Cache header Tests
// ============================================================================

func TestCacheControl_GetIsCacheable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		public bool
		want   string
	}{
		{"public get", http.MethodGet, true, "public, max-age=300"},
		{"private get", http.MethodGet, false, "private, max-age=300"},
		{"write", http.MethodPost, true, "no-store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			CacheControl(5*time.Minute, tt.public)(okHandler()).ServeHTTP(rr, httptest.NewRequest(tt.method, "/v1/instruments", nil))
			assert.Equal(t, tt.want, rr.Header().Get("Cache-Control"))
		})
	}
}

func TestNoStore_SetsHeader(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))

	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

// ============================================================================
// UUIDParams Tests
// ============================================================================

func TestUUIDParams(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.Handle("GET /songs/{id}/versions/{versionId}", UUIDParams("id", "versionId")(okHandler()))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"both valid", "/songs/" + uuid.NewString() + "/versions/" + uuid.NewString(), http.StatusOK},
		{"bad song id", "/songs/not-a-uuid/versions/" + uuid.NewString(), http.StatusBadRequest},
		{"bad version id", "/songs/" + uuid.NewString() + "/versions/42", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

// ============================================================================
// Logger / responseWriter Tests
// ============================================================================

func TestResponseWriter_CapturesFirstStatusCode(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestLogger_CompletesRequest(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Logger(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestMetrics_PassesThrough(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.Handle("GET /v1/songs", okHandler())

	rr := httptest.NewRecorder()
	Metrics(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/songs", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
