package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
	"github.com/waflow/waflow/pkg/persistence/file"
	"github.com/waflow/waflow/pkg/services"
	"github.com/waflow/waflow/pkg/web"
	"github.com/waflow/waflow/pkg/wire"
)

func setupTestApp(t *testing.T) (*fiber.App, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	handlers := web.NewAPIHandlers(
		services.NewFlow(p),
		services.NewPublishing(p),
		wire.NewMapper(nil),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.Register(app)

	return app, p
}

func testPayload(name string) wire.FlowPayload {
	return wire.FlowPayload{
		FlowName: name,
		Nodes: []wire.NodePayload{
			{
				ID:           "n1",
				TemplateName: "welcome",
				TemplateType: "text_template",
				MessageBody:  "Hello",
				Buttons: []wire.ButtonPayload{
					{Text: "Yes", Type: "QUICK_REPLY", Index: 0},
				},
			},
			{
				ID:           "n2",
				TemplateName: "followup",
				TemplateType: "text_template",
				MessageBody:  "Next",
			},
		},
		Edges: []wire.EdgePayload{
			{FromNodeID: "n1", ToNodeID: "n2", SourceHandle: "Yes"},
		},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", string(raw))

	return out
}

func createFlow(t *testing.T, app *fiber.App, name string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/flows", testPayload(name))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decode[wire.CreateFlowResponse](t, resp).FlowID
}

func TestAPI_CreateAndGetFlow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")
	require.NotEmpty(t, flowID)

	resp := doJSON(t, app, http.MethodGet, "/flows/"+flowID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decode[wire.FlowPayload](t, resp)
	assert.Equal(t, "Welcome", payload.FlowName)
	assert.False(t, payload.IsPublished, "create always yields a draft")
	require.Len(t, payload.Nodes, 2)
	require.Len(t, payload.Edges, 1)
	assert.Equal(t, "Yes", payload.Edges[0].SourceHandle, "edges keyed by button text on the wire")
}

func TestAPI_CreateFlow_InvalidBody(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/flows", map[string]any{"flowName": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetFlow_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/flows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListFlows(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	createFlow(t, app, "A")
	createFlow(t, app, "B")

	resp := doJSON(t, app, http.MethodGet, "/flows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[struct {
		Flows      []web.FlowSummary `json:"flows"`
		TotalCount int               `json:"total_count"`
	}](t, resp)
	assert.Equal(t, 2, list.TotalCount)
	assert.Len(t, list.Flows, 2)
	assert.Equal(t, 2, list.Flows[0].NodeCount)
}

func TestAPI_UpdateFlow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodPut, "/flows/"+flowID, testPayload("Welcome v2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[wire.UpdateFlowResponse](t, resp).NeedsRepublish)

	resp = doJSON(t, app, http.MethodGet, "/flows/"+flowID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome v2", decode[wire.FlowPayload](t, resp).FlowName)
}

func TestAPI_UpdatePublishedFlow_NeedsRepublish(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodPost, "/flows/"+flowID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/flows/"+flowID, testPayload("Welcome v2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[wire.UpdateFlowResponse](t, resp).NeedsRepublish)
}

func TestAPI_PublishBlockedOnValidation(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	payload := testPayload("Broken")
	payload.Nodes[0].TemplateType = "image_template" // Media header with no URL

	resp := doJSON(t, app, http.MethodPost, "/flows", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "draft save proceeds with warnings")
	flowID := decode[wire.CreateFlowResponse](t, resp).FlowID

	resp = doJSON(t, app, http.MethodPost, "/flows/"+flowID+"/publish", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_UsageLockConflict(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodPost, "/flows/"+flowID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, p.AttachCampaign(t.Context(), flowID,
		models.CampaignRef{ID: "c1", Name: "Spring promo", Status: "running"}))

	resp = doJSON(t, app, http.MethodPut, "/flows/"+flowID, testPayload("Welcome v2"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	conflict := decode[struct {
		Campaigns []models.CampaignRef `json:"campaigns"`
	}](t, resp)
	require.Len(t, conflict.Campaigns, 1)
	assert.Equal(t, "Spring promo", conflict.Campaigns[0].Name)
}

func TestAPI_Usage(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodGet, "/flows/"+flowID+"/usage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[web.UsageResponse](t, resp).Campaigns)

	require.NoError(t, p.AttachCampaign(t.Context(), flowID,
		models.CampaignRef{ID: "c1", Name: "Spring promo", Status: "running"}))

	resp = doJSON(t, app, http.MethodGet, "/flows/"+flowID+"/usage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[web.UsageResponse](t, resp).Campaigns, 1)
}

func TestAPI_Fork(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodPost, "/flows/"+flowID+"/fork", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	forkID := decode[wire.ForkFlowResponse](t, resp).FlowID
	require.NotEmpty(t, forkID)
	require.NotEqual(t, flowID, forkID)

	resp = doJSON(t, app, http.MethodGet, "/flows/"+forkID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fork := decode[wire.FlowPayload](t, resp)
	assert.Equal(t, "Welcome (Copy)", fork.FlowName)
	assert.False(t, fork.IsPublished)
	assert.Len(t, fork.Edges, 1, "edges rewired to the copied nodes")
}

func TestAPI_DeleteFlow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	flowID := createFlow(t, app, "Welcome")

	resp := doJSON(t, app, http.MethodDelete, "/flows/"+flowID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
