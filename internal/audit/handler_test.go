package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/server/middleware"
)

func newAuditRouter(t *testing.T, store Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(nil, true))
	NewHandler(NewWriter(store)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHandlerListsTenantEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	_ = store.Append(ctx, Entry{ID: "mine", TenantID: "tenant-1", ClientID: "c1", Action: ActionDocumentUploadedExternal, CreatedAt: now})
	_ = store.Append(ctx, Entry{ID: "theirs", TenantID: "tenant-2", ClientID: "c1", Action: ActionDocumentUploadedExternal, CreatedAt: now})

	router := newAuditRouter(t, store)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?clientId=c1", nil)
	req.Header.Set("X-Tenant-Id", "tenant-1")
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body []EntryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0].ID != "mine" {
		t.Fatalf("unexpected entries %+v", body)
	}
}

func TestHandlerRejectsUnknownAction(t *testing.T) {
	router := newAuditRouter(t, NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?action=NOPE", nil)
	req.Header.Set("X-Tenant-Id", "tenant-1")
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
