package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"constructia-backend/internal/shared/storage/object"
)

// HTTPClient talks to the platform over HTTPS. Each upload logs in with the
// client's own credentials using the OAuth2 password grant.
type HTTPClient struct {
	baseURL    string
	oauth      *oauth2.Config
	store      object.ObjectStore
	httpClient *http.Client
}

// HTTPOptions configure NewHTTPClient.
type HTTPOptions struct {
	BaseURL  string
	TokenURL string
	ClientID string
	Timeout  time.Duration
}

// NewHTTPClient constructs an HTTPClient that reads file bodies from store.
func NewHTTPClient(opts HTTPOptions, store object.ObjectStore) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL is required for http platform mode")
	}
	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = baseURL + "/oauth/token"
	}
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// The caller's context deadline must fire before the transport timer so
	// expirations surface as context.DeadlineExceeded.
	timeout += clientTimeoutGrace
	return &HTTPClient{
		baseURL: baseURL,
		oauth: &oauth2.Config{
			ClientID: opts.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

const clientTimeoutGrace = 5 * time.Second

type uploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Upload authenticates, streams the stored file and returns the platform reference.
func (c *HTTPClient) Upload(ctx context.Context, creds Credentials, req UploadRequest) (UploadResult, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return UploadResult{}, ErrMissingCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return UploadResult{}, tokenError(err)
	}

	body, contentType, err := c.buildBody(ctx, req)
	if err != nil {
		return UploadResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", body)
	if err != nil {
		return UploadResult{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if creds.APIKey != "" {
		httpReq.Header.Set("X-Api-Key", creds.APIKey)
	}

	resp, err := c.oauth.Client(ctx, token).Do(httpReq)
	if err != nil {
		return UploadResult{}, fmt.Errorf("platform request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UploadResult{}, fmt.Errorf("platform response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadResult{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return UploadResult{}, fmt.Errorf("platform response parse: %w", err)
	}
	if parsed.Error != "" {
		return UploadResult{Success: false, Error: parsed.Error}, nil
	}
	if parsed.ID == "" {
		return UploadResult{Success: false, Error: "platform returned no reference"}, nil
	}
	return UploadResult{Success: true, ExternalID: parsed.ID}, nil
}

func (c *HTTPClient) buildBody(ctx context.Context, req UploadRequest) (*bytes.Buffer, string, error) {
	rc, err := c.store.Open(ctx, req.FilePath)
	if err != nil {
		return nil, "", fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fields := map[string]string{
		"documentId":     req.DocumentID,
		"classification": req.Classification,
	}
	if req.Confidence != nil {
		fields["confidence"] = strconv.Itoa(*req.Confidence)
	}
	for _, k := range []string{"documentId", "classification", "confidence"} {
		v, ok := fields[k]
		if !ok || v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	name := req.FileName
	if name == "" {
		name = req.DocumentID
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, "", fmt.Errorf("copy stored file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &StatusError{Code: re.Response.StatusCode, Body: "login failed: " + strings.TrimSpace(string(re.Body))}
	}
	return fmt.Errorf("platform login: %w", err)
}

var _ Uploader = (*HTTPClient)(nil)
