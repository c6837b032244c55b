package layout

import "math"

// 3D circular placement constants.
const (
	circleRadius = 3.0
	edgeRadius   = 0.02
)

// Vec3 is an [x, y, z] coordinate.
type Vec3 [3]float64

// Segment describes the cylinder geometry for one drawable edge.
type Segment struct {
	EdgeID string  `json:"edgeId"`
	From   Vec3    `json:"from"`
	To     Vec3    `json:"to"`
	Mid    Vec3    `json:"mid"`
	Length float64 `json:"length"`
	Radius float64 `json:"radius"`
}

// Circular3D places node i of n at angle (i/n)*2π on a circle of fixed
// radius, with a three-level vertical stagger. The stagger is cosmetic, not
// collision-aware. Edges referencing a node id absent from the node set are
// silently skipped.
func Circular3D(nodeIDs []string, edges []Edge) (map[string]Vec3, []Segment) {
	positions := make(map[string]Vec3, len(nodeIDs))
	n := len(nodeIDs)
	for i, id := range nodeIDs {
		angle := float64(i) / float64(n) * 2 * math.Pi
		positions[id] = Vec3{
			math.Cos(angle) * circleRadius,
			float64(i%3)*0.5 - 1,
			math.Sin(angle) * circleRadius,
		}
	}

	segments := []Segment{}
	for _, e := range edges {
		from, okFrom := positions[e.FromID]
		to, okTo := positions[e.ToID]
		if !okFrom || !okTo {
			continue
		}
		segments = append(segments, Segment{
			EdgeID: e.ID,
			From:   from,
			To:     to,
			Mid: Vec3{
				(from[0] + to[0]) / 2,
				(from[1] + to[1]) / 2,
				(from[2] + to[2]) / 2,
			},
			Length: dist(from, to),
			Radius: edgeRadius,
		})
	}
	return positions, segments
}

func dist(a, b Vec3) float64 {
	dx, dy, dz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
