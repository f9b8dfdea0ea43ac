package clients

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/shared/server/middleware"
)

func newClientsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService()
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Auth(nil, true))
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, tenant string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", tenant)
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerCredentialsFlowRedactsPassword(t *testing.T) {
	r := newClientsRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/clients", `{"name":"Acme"}`, "tenant-1")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created ClientResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = doJSON(t, r, http.MethodPut, "/api/v1/clients/"+created.ClientID+"/platform-credentials",
		`{"username":"obralia","password":"hunter2","apiKey":"k"}`, "tenant-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "hunter2") {
		t.Fatalf("password leaked in response: %s", resp.Body.String())
	}
	var updated ClientResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.PlatformConfigured || !updated.HasAPIKey {
		t.Fatalf("unexpected response %+v", updated)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/clients/"+created.ClientID, "", "tenant-2")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other tenant, got %d", resp.Code)
	}
}
