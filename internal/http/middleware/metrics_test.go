package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1/calls", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/calls", "200"))

	// Query-dispatched operations must share one label set per route.
	for _, target := range []string{"/api/v1/calls?type=status", "/api/v1/calls?type=users"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s -> %d", target, w.Code)
		}
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/calls", "200"))
	if after-before != 2 {
		t.Fatalf("counter delta = %v, want 2", after-before)
	}
}

func TestObserveClipSize(t *testing.T) {
	before := testutil.CollectAndCount(voiceClipBytes)
	if before != 1 {
		t.Fatalf("histogram not registered: %d", before)
	}
	// Must not panic and must accept any size.
	ObserveClipSize(0)
	ObserveClipSize(4 << 20)
}
