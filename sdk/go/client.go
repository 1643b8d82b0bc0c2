package risklinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Riskline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Tree mirrors the API's task-call tree input.
type Tree struct {
	RootKey   string `json:"root_key"`
	TaskCalls []Task `json:"taskcalls"`
}

// Task mirrors one task-call record.
type Task struct {
	ResolvedName string   `json:"resolved_name"`
	Spec         TaskSpec `json:"spec"`
}

type TaskSpec struct {
	Name          string `json:"name,omitempty"`
	ModuleOptions any    `json:"module_options,omitempty"`
	DefinedIn     string `json:"defined_in"`
}

// ScanRequest is the POST /scan payload.
type ScanRequest struct {
	Trees      []Tree `json:"trees"`
	Collection string `json:"collection,omitempty"`
	PrePass    bool   `json:"pre_pass,omitempty"`
	Save       bool   `json:"save,omitempty"`
	Source     string `json:"source,omitempty"`
}

// ScanResponse carries both report shapes.
type ScanResponse struct {
	Report    json.RawMessage `json:"report"`
	Narrative string          `json:"narrative"`
	RunID     string          `json:"run_id,omitempty"`
}

// Run is a saved run summary.
type Run struct {
	ID            string          `json:"id"`
	CreatedAt     string          `json:"created_at"`
	Source        string          `json:"source,omitempty"`
	Collection    string          `json:"collection,omitempty"`
	PlaybookTotal int             `json:"playbook_total"`
	PlaybookRisk  int             `json:"playbook_risk"`
	RoleTotal     int             `json:"role_total"`
	RoleRisk      int             `json:"role_risk"`
	Report        json.RawMessage `json:"report,omitempty"`
	Narrative     string          `json:"narrative,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Scan runs detection over a forest.
func (c *Client) Scan(ctx context.Context, req ScanRequest) (ScanResponse, error) {
	var resp ScanResponse
	err := c.do(ctx, http.MethodPost, "v0/scan", req, &resp)
	return resp, err
}

// Runs lists saved runs.
func (c *Client) Runs(ctx context.Context, limit int) ([]Run, error) {
	endpoint := "v0/runs"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Run
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Run fetches one saved run with its full report.
func (c *Client) Run(ctx context.Context, id string) (Run, error) {
	var resp Run
	err := c.do(ctx, http.MethodGet, "v0/runs/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Health checks the API.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "v0/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
