package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/campagnes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/campagnes/{id}", "GET", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/campagnes/"+id, nil))
	}
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/campagnes/{id}", "GET", "418"))
	assert.Equal(t, 3.0, after-before)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nulle-part", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}
