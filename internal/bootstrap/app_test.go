package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Port:                    "0",
		Env:                     "dev",
		CORSAllowOrigin:         []string{"http://localhost:5173"},
		ObjectStoreType:         "local",
		LocalStoreDir:           t.TempDir(),
		PlatformMode:            "stub",
		PlatformStubSuccessRate: 1,
		HandoffTimeout:          time.Second,
		HandoffRetryAttempts:    1,
		RetentionWindow:         7 * 24 * time.Hour,
		AuditBuffer:             8,
	}
}

func do(t *testing.T, r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("X-Tenant-Id", "tenant-1")
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	cfg.JWTSecret = "secret"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestUploadHandoffAndSweepEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	router := app.Router

	resp := do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/clients", bytes.NewBufferString(`{"name":"Construcciones Norte"}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create client: %d %s", resp.Code, resp.Body.String())
	}
	var client struct {
		ClientID string `json:"clientId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &client); err != nil {
		t.Fatalf("decode client: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("clientId", client.ClientID)
	fileWriter, err := writer.CreateFormFile("file", "contrato.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fileWriter.Write([]byte("Contrato de subcontratacion entre las partes."))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp = do(t, router, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", resp.Code, resp.Body.String())
	}
	var doc struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}

	resp = do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.DocumentID+"/handoff", nil))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 before credentials, got %d", resp.Code)
	}

	resp = do(t, router, httptest.NewRequest(http.MethodPut, "/api/v1/clients/"+client.ClientID+"/platform-credentials",
		bytes.NewBufferString(`{"username":"obralia","password":"secret"}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("credentials: %d %s", resp.Code, resp.Body.String())
	}

	resp = do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.DocumentID+"/handoff", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("handoff: %d %s", resp.Code, resp.Body.String())
	}

	stored, err := app.DocumentsRepo.GetByID(context.Background(), doc.DocumentID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.DeletionScheduledAt == nil {
		t.Fatalf("deletion must be scheduled after handoff")
	}

	res, err := app.Sweeper.Sweep(context.Background(), stored.DeletionScheduledAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Deleted != 1 || res.Errors != 0 {
		t.Fatalf("unexpected sweep result %+v", res)
	}

	if err := app.Audit.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	entries, err := app.AuditWriter.List(context.Background(), audit.Filter{TenantID: "tenant-1", DocumentID: doc.DocumentID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := map[audit.Action]int{}
	for _, e := range entries {
		seen[e.Action]++
	}
	if seen[audit.ActionDocumentCreated] != 1 || seen[audit.ActionDocumentUploadedExternal] != 1 || seen[audit.ActionDocumentDeletedCleanup] != 1 {
		t.Fatalf("unexpected audit trail %v", seen)
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}
