// Package layout places flow nodes with a deterministic layered algorithm:
// longest-path rank assignment, stable in-rank ordering, then coordinate
// assignment. It never mutates edges or ids, and running it twice on an
// unchanged graph yields the same positions.
package layout

import (
	"sort"

	"github.com/waflow/waflow/pkg/models"
)

// Direction selects the rank axis.
type Direction string

const (
	LeftToRight Direction = "left-to-right"
	TopToBottom Direction = "top-to-bottom"
)

// Defaults used when the rendering layer has not measured a node yet.
const (
	DefaultNodeWidth  = 260.0
	DefaultNodeHeight = 140.0

	defaultNodeSpacing = 48.0
	defaultRankSpacing = 120.0
)

// Size is a measured node box.
type Size struct {
	Width  float64
	Height float64
}

// Options parameterize a layout run.
type Options struct {
	Direction   Direction
	NodeSpacing float64         // Spacing between nodes within a rank
	RankSpacing float64         // Spacing between ranks
	Sizes       map[string]Size // Measured sizes by node id; missing entries fall back
}

func (o Options) withDefaults() Options {
	if o.Direction == "" {
		o.Direction = LeftToRight
	}

	if o.NodeSpacing <= 0 {
		o.NodeSpacing = defaultNodeSpacing
	}

	if o.RankSpacing <= 0 {
		o.RankSpacing = defaultRankSpacing
	}

	return o
}

func (o Options) size(nodeID string) Size {
	if s, ok := o.Sizes[nodeID]; ok && s.Width > 0 && s.Height > 0 {
		return s
	}

	return Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
}

// Apply returns a new position for every node. The input slices are not
// modified.
func Apply(nodes []*models.Node, edges []*models.Edge, opts Options) map[string]models.Position {
	opts = opts.withDefaults()
	positions := make(map[string]models.Position, len(nodes))

	if len(nodes) == 0 {
		return positions
	}

	ranks := assignRanks(nodes, edges)

	// Stable in-rank ordering: insertion order of the node slice, which the
	// graph model keeps append-only.
	byRank := make(map[int][]*models.Node)
	maxRank := 0

	for _, n := range nodes {
		r := ranks[n.ID]
		byRank[r] = append(byRank[r], n)

		if r > maxRank {
			maxRank = r
		}
	}

	rankOffset := 0.0

	for r := 0; r <= maxRank; r++ {
		members := byRank[r]
		if len(members) == 0 {
			continue
		}

		crossOffset := 0.0
		thickest := 0.0

		for _, n := range members {
			size := opts.size(n.ID)

			switch opts.Direction {
			case TopToBottom:
				positions[n.ID] = models.Position{X: crossOffset, Y: rankOffset}
				crossOffset += size.Width + opts.NodeSpacing

				if size.Height > thickest {
					thickest = size.Height
				}
			case LeftToRight:
				positions[n.ID] = models.Position{X: rankOffset, Y: crossOffset}
				crossOffset += size.Height + opts.NodeSpacing

				if size.Width > thickest {
					thickest = size.Width
				}
			}
		}

		rankOffset += thickest + opts.RankSpacing
	}

	return positions
}

// assignRanks computes longest-path ranks from the roots. Edges that would
// close a cycle are ignored for ranking, so loops back to earlier steps do
// not push their target deeper.
func assignRanks(nodes []*models.Node, edges []*models.Edge) map[string]int {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	out := make(map[string][]string)
	hasIncoming := make(map[string]bool)

	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}

		out[e.Source] = append(out[e.Source], e.Target)
		hasIncoming[e.Target] = true
	}

	for _, targets := range out {
		sort.Strings(targets)
	}

	ranks := make(map[string]int, len(nodes))
	onStack := make(map[string]bool)

	var visit func(id string, rank int)
	visit = func(id string, rank int) {
		if onStack[id] {
			return // Back edge; keep the earlier rank
		}

		if existing, ok := ranks[id]; ok && existing >= rank {
			return
		}

		ranks[id] = rank
		onStack[id] = true

		for _, next := range out[id] {
			visit(next, rank+1)
		}

		onStack[id] = false
	}

	// Roots in insertion order keep the traversal deterministic.
	for _, n := range nodes {
		if !hasIncoming[n.ID] {
			visit(n.ID, 0)
		}
	}

	// Nodes only reachable through cycles (no root at all) anchor at rank 0.
	for _, n := range nodes {
		if _, ok := ranks[n.ID]; !ok {
			visit(n.ID, 0)
		}
	}

	return ranks
}
