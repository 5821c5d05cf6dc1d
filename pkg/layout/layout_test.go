package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
)

func chain(ids ...string) ([]*models.Node, []*models.Edge) {
	nodes := make([]*models.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, &models.Node{ID: id})
	}

	edges := make([]*models.Edge, 0, len(ids)-1)
	for i := 0; i+1 < len(ids); i++ {
		edges = append(edges, &models.Edge{
			ID:           "e-" + ids[i],
			Source:       ids[i],
			Target:       ids[i+1],
			SourceHandle: models.HandleForIndex(0),
		})
	}

	return nodes, edges
}

func TestApply_RanksFollowEdges(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b", "c")
	positions := Apply(nodes, edges, Options{Direction: LeftToRight})

	require.Len(t, positions, 3)
	assert.Less(t, positions["a"].X, positions["b"].X)
	assert.Less(t, positions["b"].X, positions["c"].X)
}

func TestApply_TopToBottom(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b")
	positions := Apply(nodes, edges, Options{Direction: TopToBottom})

	assert.Less(t, positions["a"].Y, positions["b"].Y)
	assert.Equal(t, positions["a"].X, positions["b"].X)
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b", "c")
	nodes = append(nodes, &models.Node{ID: "d"}) // Disconnected node
	edges = append(edges, &models.Edge{
		ID: "fanout", Source: "a", Target: "d",
		SourceHandle: models.HandleForIndex(1),
	})

	first := Apply(nodes, edges, Options{})
	second := Apply(nodes, edges, Options{})

	assert.Equal(t, first, second)
}

func TestApply_SurvivesCycles(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b")
	edges = append(edges, &models.Edge{
		ID: "loop", Source: "b", Target: "a",
		SourceHandle: models.HandleForIndex(1),
	})

	positions := Apply(nodes, edges, Options{})
	require.Len(t, positions, 2)
	assert.Less(t, positions["a"].X, positions["b"].X, "back edge does not reshuffle ranks")
}

func TestApply_MeasuredSizes(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b")
	wide := Apply(nodes, edges, Options{
		Sizes: map[string]Size{"a": {Width: 600, Height: 140}},
	})
	narrow := Apply(nodes, edges, Options{})

	assert.Greater(t, wide["b"].X, narrow["b"].X, "rank offset tracks the widest node")
}

func TestApply_NeverMutatesInput(t *testing.T) {
	t.Parallel()

	nodes, edges := chain("a", "b")
	nodes[0].Position = models.Position{X: 77, Y: 88}

	_ = Apply(nodes, edges, Options{})

	assert.Equal(t, models.Position{X: 77, Y: 88}, nodes[0].Position)
	assert.Equal(t, "a", edges[0].Source)
}
