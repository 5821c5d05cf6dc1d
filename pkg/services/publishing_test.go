package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
)

func TestPublishing_Publish(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	svc := NewFlow(p)
	publishing := NewPublishing(p)
	ctx := context.Background()

	created, err := svc.Create(ctx, draftFlow("Welcome"))
	require.NoError(t, err)

	published, err := publishing.Publish(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
}

func TestPublishing_BlockedOnValidationIssue(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	svc := NewFlow(p)
	publishing := NewPublishing(p)
	ctx := context.Background()

	flow := draftFlow("Welcome")
	flow.Nodes[0].Kind = models.TemplateKindImage // Media header, no URL set

	created, err := svc.Create(ctx, flow)
	require.NoError(t, err)

	_, err = publishing.Publish(ctx, created.ID)
	require.ErrorIs(t, err, ErrPublishBlocked)
	assert.True(t, IsValidationError(err))

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsPublished)
}

func TestPublishing_EmptyFlowRefused(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	publishing := NewPublishing(p)
	ctx := context.Background()

	flow := draftFlow("Welcome")
	flow.Nodes = nil
	require.NoError(t, p.SaveFlow(ctx, flow))

	_, err := publishing.Publish(ctx, flow.ID)
	assert.ErrorIs(t, err, ErrNodesRequired)
}

func TestPublishing_LockedRepublishConflict(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	svc := NewFlow(p)
	publishing := NewPublishing(p)
	ctx := context.Background()

	created, err := svc.Create(ctx, draftFlow("Welcome"))
	require.NoError(t, err)
	_, err = publishing.Publish(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, p.AttachCampaign(ctx, created.ID, models.CampaignRef{ID: "c1", Name: "Promo", Status: "running"}))

	_, err = publishing.Publish(ctx, created.ID)
	assert.ErrorIs(t, err, ErrUsageLocked)
}

func TestPublishing_ForkIsolatedDeepCopy(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	svc := NewFlow(p)
	publishing := NewPublishing(p)
	ctx := context.Background()

	original := draftFlow("Welcome")
	sourceID := original.Nodes[0].ID
	targetID := "00000000-0000-0000-0000-000000000002"
	original.Nodes = append(original.Nodes, &models.Node{
		ID:           targetID,
		TemplateName: "followup",
		Kind:         models.TemplateKindText,
		MessageBody:  "Next",
	})
	original.Nodes[0].Buttons[0].TargetNodeID = targetID
	original.Edges = []*models.Edge{
		{ID: "e1", Source: sourceID, Target: targetID, SourceHandle: models.HandleForIndex(0), Label: "Yes"},
	}

	created, err := svc.Create(ctx, original)
	require.NoError(t, err)
	_, err = publishing.Publish(ctx, created.ID)
	require.NoError(t, err)

	fork, err := publishing.Fork(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, fork.ID)
	assert.Equal(t, "Welcome (Copy)", fork.Name)
	assert.False(t, fork.IsPublished)

	// Fresh node and edge ids, with edges rewired to them.
	require.Len(t, fork.Nodes, 2)
	require.Len(t, fork.Edges, 1)
	assert.NotEqual(t, sourceID, fork.Nodes[0].ID)
	assert.NotEqual(t, "e1", fork.Edges[0].ID)
	assert.Equal(t, fork.Nodes[0].ID, fork.Edges[0].Source)
	assert.Equal(t, fork.Nodes[1].ID, fork.Edges[0].Target)
	assert.Equal(t, fork.Nodes[1].ID, fork.Nodes[0].Buttons[0].TargetNodeID, "target cache remapped")

	// Editing the fork leaves the original untouched.
	fork.Name = "Welcome v2"
	_, _, err = NewFlow(p).Update(ctx, fork.ID, fork)
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", reloaded.Name)
	assert.True(t, reloaded.IsPublished)
}
