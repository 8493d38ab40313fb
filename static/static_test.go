package static

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesIndexWithFallback(t *testing.T) {
	h := Handler()

	for _, path := range []string{"/", "/inbox/anything"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != 200 || !strings.Contains(rec.Body.String(), "boardwatch inbox") {
			t.Errorf("GET %s: status %d", path, rec.Code)
		}
	}
}
