package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/telemetry"
)

func TestErrorWritesBodyAndLogsTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		c.Set("tenantId", "tenant-1")
		Error(c, http.StatusUnprocessableEntity, "configuration_error", "client credentials not configured", gin.H{"clientId": "c1"})
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "configuration_error" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}
	if !strings.Contains(buf.String(), `"tenant_id":"tenant-1"`) {
		t.Fatalf("expected tenant_id in log, got %s", buf.String())
	}
}
