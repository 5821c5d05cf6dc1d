package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/wire"
)

// Flows talks to the flow server's REST endpoints. No client-side timeout is
// enforced here; that is the transport's job (pass an http.Client with one).
type Flows struct {
	baseURL    string
	httpClient *http.Client
}

func NewFlows(baseURL string, httpClient *http.Client) *Flows {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Flows{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Get loads a flow payload.
func (c *Flows) Get(ctx context.Context, id string) (*wire.FlowPayload, error) {
	var payload wire.FlowPayload
	if err := c.do(ctx, http.MethodGet, "/flows/"+id, nil, &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

// Create stores a new draft flow and returns its server-assigned id.
func (c *Flows) Create(ctx context.Context, payload wire.FlowPayload) (string, error) {
	payload.IsPublished = false

	var resp wire.CreateFlowResponse
	if err := c.do(ctx, http.MethodPost, "/flows", payload, &resp); err != nil {
		return "", err
	}

	return resp.FlowID, nil
}

// Update overwrites the flow's content in place.
func (c *Flows) Update(ctx context.Context, id string, payload wire.FlowPayload) (*wire.UpdateFlowResponse, error) {
	var resp wire.UpdateFlowResponse
	if err := c.do(ctx, http.MethodPut, "/flows/"+id, payload, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Publish marks the flow published. A 409 response surfaces as a
// UsageLockedError carrying the attached campaigns.
func (c *Flows) Publish(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/flows/"+id+"/publish", nil, nil)
}

// Usage returns the read-only usage-lock view for a flow.
func (c *Flows) Usage(ctx context.Context, id string) (*models.CampaignUsage, error) {
	var resp struct {
		Campaigns []models.CampaignRef `json:"campaigns"`
	}

	if err := c.do(ctx, http.MethodGet, "/flows/"+id+"/usage", nil, &resp); err != nil {
		return nil, err
	}

	return &models.CampaignUsage{
		Locked:    len(resp.Campaigns) > 0,
		Campaigns: resp.Campaigns,
	}, nil
}

// Fork asks the server for a deep-copied new draft of a locked flow.
func (c *Flows) Fork(ctx context.Context, id string) (string, error) {
	var resp wire.ForkFlowResponse
	if err := c.do(ctx, http.MethodPost, "/flows/"+id+"/fork", nil, &resp); err != nil {
		return "", err
	}

	return resp.FlowID, nil
}

func (c *Flows) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrFlowNotFound)
	case resp.StatusCode == http.StatusConflict:
		return c.usageLockedError(path, raw)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Flows) usageLockedError(path string, raw []byte) error {
	lockErr := &UsageLockedError{FlowID: flowIDFromPath(path)}

	var body struct {
		Campaigns []models.CampaignRef `json:"campaigns"`
	}

	if err := json.Unmarshal(raw, &body); err == nil {
		lockErr.Campaigns = body.Campaigns
	}

	return lockErr
}

func flowIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "flows" {
		return parts[1]
	}

	return ""
}
