// Package layout computes node positions for the graph renderers: a layered
// top-down arrangement for the 2D view and a fixed circular placement for the
// 3D view. It knows nothing about persistence — callers pass plain id lists.
package layout

import "sort"

// Nominal node box and spacing used by the layered layout.
const (
	NodeWidth  = 260.0
	NodeHeight = 120.0

	nodeSpacing  = 32.0 // between nodes in the same layer
	layerSpacing = 60.0 // between layers
)

// Point is a 2D coordinate (top-left of the node box).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge references two node ids by position in the graph.
type Edge struct {
	ID     string
	FromID string
	ToID   string
}

// Result holds one position per node id plus the overall frame size.
type Result struct {
	Positions map[string]Point `json:"positions"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
}

// Layered arranges nodes in layers so edges point from an upper layer toward
// a lower one. Cycles are tolerated: back-edges found during DFS are ignored
// for layering, so such an edge may point upward. Every node id receives
// exactly one position; edges referencing unknown ids are skipped.
func Layered(nodeIDs []string, edges []Edge) Result {
	res := Result{Positions: make(map[string]Point, len(nodeIDs))}
	if len(nodeIDs) == 0 {
		return res
	}

	known := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
	}

	// Forward adjacency without back-edges.
	succ := make(map[string][]string)
	pred := make(map[string][]string)
	for _, e := range dropBackEdges(nodeIDs, edges, known) {
		succ[e.FromID] = append(succ[e.FromID], e.ToID)
		pred[e.ToID] = append(pred[e.ToID], e.FromID)
	}

	layers := assignLayers(nodeIDs, succ, pred)
	orderLayers(layers, pred)

	// Widest layer determines the frame; narrower layers are centered in it.
	maxCount := 0
	for _, l := range layers {
		if len(l) > maxCount {
			maxCount = len(l)
		}
	}
	frameWidth := float64(maxCount)*(NodeWidth+nodeSpacing) - nodeSpacing

	for li, layer := range layers {
		rowWidth := float64(len(layer))*(NodeWidth+nodeSpacing) - nodeSpacing
		offset := (frameWidth - rowWidth) / 2
		for i, id := range layer {
			res.Positions[id] = Point{
				X: offset + float64(i)*(NodeWidth+nodeSpacing),
				Y: float64(li) * (NodeHeight + layerSpacing),
			}
		}
	}
	res.Width = frameWidth
	res.Height = float64(len(layers))*(NodeHeight+layerSpacing) - layerSpacing
	return res
}

// dropBackEdges runs an iterative DFS over the graph and removes edges that
// close a cycle, leaving a DAG for layer assignment.
func dropBackEdges(nodeIDs []string, edges []Edge, known map[string]bool) []Edge {
	adj := make(map[string][]Edge)
	for _, e := range edges {
		if !known[e.FromID] || !known[e.ToID] {
			continue
		}
		adj[e.FromID] = append(adj[e.FromID], e)
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on stack
		black = 2 // done
	)
	color := make(map[string]int, len(nodeIDs))
	back := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, e := range adj[id] {
			switch color[e.ToID] {
			case white:
				visit(e.ToID)
			case gray:
				back[e.ID] = true
			}
		}
		color[id] = black
	}
	for _, id := range nodeIDs {
		if color[id] == white {
			visit(id)
		}
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if !known[e.FromID] || !known[e.ToID] || back[e.ID] {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// assignLayers gives each node the longest-path depth from any root, so an
// edge always spans at least one layer downward.
func assignLayers(nodeIDs []string, succ, pred map[string][]string) [][]string {
	depth := make(map[string]int, len(nodeIDs))
	indeg := make(map[string]int, len(nodeIDs))
	for _, id := range nodeIDs {
		indeg[id] = len(pred[id])
	}

	queue := []string{}
	for _, id := range nodeIDs {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			if depth[id]+1 > depth[next] {
				depth[next] = depth[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	maxDepth := 0
	for _, id := range nodeIDs {
		if depth[id] > maxDepth {
			maxDepth = depth[id]
		}
	}
	layers := make([][]string, maxDepth+1)
	for _, id := range nodeIDs {
		layers[depth[id]] = append(layers[depth[id]], id)
	}
	return layers
}

// orderLayers sorts each layer by the barycenter of its predecessors in the
// layer above, reducing edge crossings. The first layer keeps input order.
func orderLayers(layers [][]string, pred map[string][]string) {
	for li := 1; li < len(layers); li++ {
		rank := make(map[string]int, len(layers[li-1]))
		for i, id := range layers[li-1] {
			rank[id] = i
		}
		bary := make(map[string]float64, len(layers[li]))
		for _, id := range layers[li] {
			sum, count := 0.0, 0
			for _, p := range pred[id] {
				if r, ok := rank[p]; ok {
					sum += float64(r)
					count++
				}
			}
			if count > 0 {
				bary[id] = sum / float64(count)
			}
		}
		layer := layers[li]
		sort.SliceStable(layer, func(a, b int) bool {
			return bary[layer[a]] < bary[layer[b]]
		})
	}
}
