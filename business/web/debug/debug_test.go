package debug_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vnetwork/vblockchain/business/web/debug"
	"go.uber.org/zap"
)

func Test_Mux(t *testing.T) {
	mux := debug.Mux("test", zap.NewNop().Sugar())

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/liveness", nil))

	var resp struct {
		Status string `json:"status"`
		Build  string `json:"build"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Should decode the liveness response: %s", err)
	}

	if w.Code != http.StatusOK || resp.Status != "up" || resp.Build != "test" {
		t.Fatalf("Should report the service is up: %d %+v", w.Code, resp)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/readiness", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Should report the service is ready: %d", w.Code)
	}
}
