// Package worldmodel defines the collision-query collaborator the planner core
// delegates footprint legality checks to, plus a reference polygon-rasterizing
// implementation and the Bresenham line-cost ray trace.
package worldmodel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/geom"
)

// Polygon is the robot footprint, a closed convex polygon given as ordered vertices in
// the robot's body frame (z unused).
type Polygon []r3.Vector

// Transform rotates and translates the footprint into the world frame at pose p.
func (poly Polygon) Transform(p geom.Pose) Polygon {
	cos, sin := math.Cos(p.Theta), math.Sin(p.Theta)
	out := make(Polygon, len(poly))
	for i, v := range poly {
		out[i] = r3.Vector{
			X: p.Point.X + v.X*cos - v.Y*sin,
			Y: p.Point.Y + v.X*sin + v.Y*cos,
		}
	}
	return out
}

// Radii computes the inscribed radius (the minimum distance from the origin to any
// footprint edge) and circumscribed radius (the maximum distance from the origin to any
// footprint vertex), the same two numbers costmap_2d::calculateMinAndMaxDistances
// derives from a footprint polygon.
func (poly Polygon) Radii() (inscribed, circumscribed float64) {
	if len(poly) == 0 {
		return 0, 0
	}
	inscribed = math.Inf(1)
	for i, v := range poly {
		d := math.Hypot(v.X, v.Y)
		if d > circumscribed {
			circumscribed = d
		}
		next := poly[(i+1)%len(poly)]
		d = distanceToSegment(r3.Vector{}, v, next)
		if d < inscribed {
			inscribed = d
		}
	}
	if math.IsInf(inscribed, 1) {
		inscribed = 0
	}
	return inscribed, circumscribed
}

func distanceToSegment(p, a, b r3.Vector) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	segLenSq := abx*abx + aby*aby
	if segLenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / segLenSq
	t = math.Max(0, math.Min(1, t))
	projX, projY := a.X+t*abx, a.Y+t*aby
	return math.Hypot(p.X-projX, p.Y-projY)
}

// WorldModel is the narrow collision-query interface the planner core consumes. A
// negative return means the footprint at that pose is in collision or otherwise
// illegal; a non-negative return is the worst occupancy cost under the footprint.
type WorldModel interface {
	FootprintCost(pose geom.Pose, footprint Polygon, inscribedRadius, circumscribedRadius float64) float64
}

// FootprintCostOracle wraps a WorldModel with a fixed footprint polygon and
// precomputed radii so rollouts don't recompute them every step.
type FootprintCostOracle struct {
	World                          WorldModel
	Footprint                      Polygon
	InscribedRadius, Circumscribed float64
}

// NewFootprintCostOracle builds an oracle for the given footprint, precomputing its
// inscribed/circumscribed radii once.
func NewFootprintCostOracle(world WorldModel, footprint Polygon) *FootprintCostOracle {
	inscribed, circumscribed := footprint.Radii()
	return &FootprintCostOracle{
		World:           world,
		Footprint:       footprint,
		InscribedRadius: inscribed,
		Circumscribed:   circumscribed,
	}
}

// FootprintCost delegates to the wrapped world model. The core never inspects the
// world model's internals, only this return value.
func (o *FootprintCostOracle) FootprintCost(pose geom.Pose) float64 {
	return o.World.FootprintCost(pose, o.Footprint, o.InscribedRadius, o.Circumscribed)
}

// CellCoord is an integer costmap cell coordinate.
type CellCoord struct {
	X, Y int
}

// FootprintCells enumerates the cells a footprint polygon at pose p covers on cm. If
// fillInterior is true, every cell inside the polygon is returned (used by the planner
// façade to mark cells "within_robot"); otherwise only the cells along the polygon's
// edges are returned.
func FootprintCells(pose geom.Pose, footprint Polygon, cm costmap.Costmap2D, fillInterior bool) []CellCoord {
	world := footprint.Transform(pose)
	if len(world) == 0 {
		return nil
	}
	if !fillInterior {
		return footprintEdgeCells(world, cm)
	}
	return footprintFilledCells(world, cm)
}

func footprintEdgeCells(world Polygon, cm costmap.Costmap2D) []CellCoord {
	seen := map[CellCoord]bool{}
	var out []CellCoord
	for i := range world {
		a, b := world[i], world[(i+1)%len(world)]
		ax, ay, aok := cm.WorldToMap(a.X, a.Y)
		bx, by, bok := cm.WorldToMap(b.X, b.Y)
		if !aok || !bok {
			continue
		}
		for _, c := range bresenhamCells(ax, ay, bx, by) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// footprintFilledCells rasterizes the polygon with a standard scanline fill over the
// cell rows the polygon spans.
func footprintFilledCells(world Polygon, cm costmap.Costmap2D) []CellCoord {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range world {
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	res := cm.Resolution()
	var out []CellCoord
	for y := minY; y <= maxY+res; y += res {
		xs := scanlineIntersections(world, y)
		for i := 0; i+1 < len(xs); i += 2 {
			startCx, cy, ok1 := cm.WorldToMap(xs[i], y)
			endCx, _, ok2 := cm.WorldToMap(xs[i+1], y)
			if !ok1 || !ok2 {
				continue
			}
			for cx := startCx; cx <= endCx; cx++ {
				out = append(out, CellCoord{X: cx, Y: cy})
			}
		}
	}
	return out
}

// scanlineIntersections returns the sorted x coordinates where the horizontal line at
// height y crosses the polygon's edges.
func scanlineIntersections(world Polygon, y float64) []float64 {
	var xs []float64
	for i := range world {
		a, b := world[i], world[(i+1)%len(world)]
		if (a.Y <= y && b.Y > y) || (b.Y <= y && a.Y > y) {
			t := (y - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
	}
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
	return xs
}

// PointCost returns the costmap cost at cell (x, y), or -1 if the cell is lethal,
// inscribed-inflated, or unknown.
func PointCost(cm costmap.Costmap2D, x, y int) float64 {
	cost := cm.GetCost(x, y)
	if cost == costmap.Lethal || cost == costmap.InscribedInflated || cost == costmap.NoInformation {
		return -1
	}
	return float64(cost)
}

// LineCost ray-traces the segment from (x0,y0) to (x1,y1) in cell coordinates using
// integer Bresenham traversal, returning the maximum per-cell cost along it, or -1 if
// any traversed cell is lethal, inscribed-inflated, or unknown.
func LineCost(cm costmap.Costmap2D, x0, y0, x1, y1 int) float64 {
	lineCost := 0.0
	for _, c := range bresenhamCells(x0, y0, x1, y1) {
		pc := PointCost(cm, c.X, c.Y)
		if pc < 0 {
			return -1
		}
		if pc > lineCost {
			lineCost = pc
		}
	}
	return lineCost
}

// bresenhamCells returns every cell on the integer line from (x0,y0) to (x1,y1),
// inclusive, using the classic Bresenham traversal.
func bresenhamCells(x0, y0, x1, y1 int) []CellCoord {
	deltaX := absInt(x1 - x0)
	deltaY := absInt(y1 - y0)
	x, y := x0, y0

	var xinc1, xinc2, yinc1, yinc2 int
	if x1 >= x0 {
		xinc1, xinc2 = 1, 1
	} else {
		xinc1, xinc2 = -1, -1
	}
	if y1 >= y0 {
		yinc1, yinc2 = 1, 1
	} else {
		yinc1, yinc2 = -1, -1
	}

	var den, num, numAdd, numPixels int
	if deltaX >= deltaY {
		xinc1, yinc2 = 0, 0
		den, num, numAdd, numPixels = deltaX, deltaX/2, deltaY, deltaX
	} else {
		xinc2, yinc1 = 0, 0
		den, num, numAdd, numPixels = deltaY, deltaY/2, deltaX, deltaY
	}

	cells := make([]CellCoord, 0, numPixels+1)
	for i := 0; i <= numPixels; i++ {
		cells = append(cells, CellCoord{X: x, Y: y})
		num += numAdd
		if num >= den {
			num -= den
			x += xinc1
			y += yinc1
		}
		x += xinc2
		y += yinc2
	}
	return cells
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// PolygonWorldModel is a reference WorldModel that rasterizes the transformed
// footprint polygon over a costmap and reports the worst cell cost under it.
type PolygonWorldModel struct {
	Costmap costmap.Costmap2D
}

// NewPolygonWorldModel builds a reference world model over cm.
func NewPolygonWorldModel(cm costmap.Costmap2D) (*PolygonWorldModel, error) {
	if cm == nil {
		return nil, errors.New("polygon world model requires a non-nil costmap")
	}
	return &PolygonWorldModel{Costmap: cm}, nil
}

// FootprintCost implements WorldModel by rasterizing footprint at pose and returning
// the maximum cell cost under it, or -1 if any covered cell is illegal.
func (m *PolygonWorldModel) FootprintCost(pose geom.Pose, footprint Polygon, _, _ float64) float64 {
	cells := FootprintCells(pose, footprint, m.Costmap, true)
	if len(cells) == 0 {
		// Degenerate (point) footprint: fall back to the cell under the pose itself.
		cx, cy, ok := m.Costmap.WorldToMap(pose.Point.X, pose.Point.Y)
		if !ok {
			return -1
		}
		return PointCost(m.Costmap, cx, cy)
	}
	worst := 0.0
	for _, c := range cells {
		pc := PointCost(m.Costmap, c.X, c.Y)
		if pc < 0 {
			return -1
		}
		if pc > worst {
			worst = pc
		}
	}
	return worst
}
