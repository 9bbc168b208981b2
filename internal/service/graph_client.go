package service

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

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"golang.org/x/time/rate"
)

// GraphTransport is shared by every publisher so the request budget covers
// all Graph API traffic of the process.
type GraphTransport struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewGraphTransport builds a transport. requestsPerSecond <= 0 disables
// throttling.
func NewGraphTransport(timeout time.Duration, requestsPerSecond float64) *GraphTransport {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &GraphTransport{
		HTTPClient: &http.Client{Timeout: timeout},
		Limiter:    rate.NewLimiter(limit, burst),
	}
}

type graphClient struct {
	baseURL   string
	platform  models.Platform
	transport *GraphTransport
}

func newGraphClient(baseURL string, platform models.Platform, transport *GraphTransport) *graphClient {
	return &graphClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		platform:  platform,
		transport: transport,
	}
}

func (c *graphClient) post(ctx context.Context, stage, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &PublishError{Kind: ErrorKindValidation, Platform: c.platform, Stage: stage, Detail: "error marshalling payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewBuffer(body))
	if err != nil {
		return &PublishError{Kind: ErrorKindNetwork, Platform: c.platform, Stage: stage, Detail: "error creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, stage, out)
}

func (c *graphClient) get(ctx context.Context, stage, path string, query url.Values, out any) error {
	reqURL := c.baseURL + "/" + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &PublishError{Kind: ErrorKindNetwork, Platform: c.platform, Stage: stage, Detail: "error creating request", Err: err}
	}

	return c.do(req, stage, out)
}

func (c *graphClient) do(req *http.Request, stage string, out any) error {
	if err := c.transport.Limiter.Wait(req.Context()); err != nil {
		return &PublishError{Kind: ErrorKindNetwork, Platform: c.platform, Stage: stage, Detail: "rate limiter", Err: err}
	}

	resp, err := c.transport.HTTPClient.Do(req)
	if err != nil {
		return &PublishError{Kind: ErrorKindNetwork, Platform: c.platform, Stage: stage, Detail: "HTTP request error", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PublishError{Kind: ErrorKindNetwork, Platform: c.platform, Stage: stage, Detail: "error reading response body", Err: err}
	}

	var errResp transfer.GraphErrorResponse
	_ = json.Unmarshal(respBody, &errResp)
	if errResp.Error != nil {
		return &PublishError{Kind: ErrorKindAPI, Platform: c.platform, Stage: stage, Detail: describeGraphError(errResp.Error)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PublishError{
			Kind:     ErrorKindAPI,
			Platform: c.platform,
			Stage:    stage,
			Detail:   fmt.Sprintf("unexpected status code %d: %s", resp.StatusCode, truncate(string(respBody), 300)),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &PublishError{Kind: ErrorKindAPI, Platform: c.platform, Stage: stage, Detail: "error parsing response", Err: err}
		}
	}
	return nil
}

func describeGraphError(e *transfer.GraphError) string {
	msg := e.Message
	if e.ErrorUserMsg != "" && e.ErrorUserMsg != e.Message {
		msg += " (" + e.ErrorUserMsg + ")"
	}
	if msg == "" {
		msg = "unknown Graph API error"
	}
	details := []string{}
	if e.Type != "" {
		details = append(details, "type "+e.Type)
	}
	if e.Code != 0 {
		details = append(details, fmt.Sprintf("code %d", e.Code))
	}
	if e.ErrorSubcode != 0 {
		details = append(details, fmt.Sprintf("subcode %d", e.ErrorSubcode))
	}
	if e.FbtraceID != "" {
		details = append(details, "fbtrace_id "+e.FbtraceID)
	}
	if len(details) > 0 {
		msg += " [" + strings.Join(details, ", ") + "]"
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
