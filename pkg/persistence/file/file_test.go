package file

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

func testFlow(name string) *models.Flow {
	return &models.Flow{
		ID:   uuid.NewString(),
		Name: name,
		Nodes: []*models.Node{
			{
				ID:           uuid.NewString(),
				TemplateName: "welcome",
				Kind:         models.TemplateKindText,
				MessageBody:  "Hello",
			},
		},
	}
}

func TestFilePersistence_SaveAndGet(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	flow := testFlow("Welcome")
	require.NoError(t, p.SaveFlow(ctx, flow))
	assert.False(t, flow.CreatedAt.IsZero(), "timestamps stamped on save")

	loaded, err := p.FlowByID(ctx, flow.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, "welcome", loaded.Nodes[0].TemplateName)
}

func TestFilePersistence_GetMissing(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())

	_, err := p.FlowByID(context.Background(), "nope")
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestFilePersistence_Delete(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	flow := testFlow("Welcome")
	require.NoError(t, p.SaveFlow(ctx, flow))
	require.NoError(t, p.DeleteFlow(ctx, flow.ID))

	_, err := p.FlowByID(ctx, flow.ID)
	assert.True(t, persistence.IsFlowNotFound(err))

	assert.NoError(t, p.DeleteFlow(ctx, flow.ID), "double delete is fine")
}

func TestFilePersistence_ListAll(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	require.NoError(t, p.SaveFlow(ctx, testFlow("A")))
	require.NoError(t, p.SaveFlow(ctx, testFlow("B")))

	flows, err := p.Flows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestFilePersistence_Usage(t *testing.T) {
	t.Parallel()

	p := NewPersistence(t.TempDir())
	ctx := context.Background()

	flow := testFlow("Welcome")
	require.NoError(t, p.SaveFlow(ctx, flow))

	campaigns, err := p.FlowUsage(ctx, flow.ID)
	require.NoError(t, err)
	assert.Empty(t, campaigns)

	ref := models.CampaignRef{ID: "c1", Name: "Spring promo", Status: "running"}
	require.NoError(t, p.AttachCampaign(ctx, flow.ID, ref))
	require.NoError(t, p.AttachCampaign(ctx, flow.ID, ref), "re-attach updates in place")

	campaigns, err = p.FlowUsage(ctx, flow.ID)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Spring promo", campaigns[0].Name)

	require.NoError(t, p.DetachCampaign(ctx, flow.ID, "c1"))

	err = p.DetachCampaign(ctx, flow.ID, "c1")
	assert.ErrorIs(t, err, persistence.ErrCampaignNotAttached)
}

func TestFilePersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(context.Background()))
	assert.Error(t, NewPersistence("/nonexistent/waflow").HealthCheck(context.Background()))
}
