package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lcars-core/internal/config"
	"lcars-core/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	c := New()
	c.Use(mark("first"))
	c.Use(mark("second"))

	c.Then(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCORS(t *testing.T) {
	cfg := config.Default()
	h := CORS(cfg)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/ipc/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWT(t *testing.T) {
	cfg := config.Default()
	cfg.JWTSecret = "s3cret"
	h := JWT(cfg)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ipc/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := pkg.IssueToken("s3cret", "test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/ipc/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestJWT_DisabledWithoutSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	JWT(config.Default())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ipc/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
