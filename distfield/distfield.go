// Package distfield implements the distance-field builder collaborator: breadth-first
// propagation of cell distance from a seed set, used to build the planner's path_map
// and goal_map grids.
package distfield

import (
	"github.com/pkg/errors"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/geom"
)

// Sentinel target_dist values. ObstacleCost marks a cell the BFS refused to propagate
// through because the underlying costmap cell is lethal, inscribed-inflated, or
// unknown. UnreachableCost marks a cell the BFS never reached at all.
const (
	ObstacleCost    uint32 = 1 << 30
	UnreachableCost uint32 = 1<<31 - 1
)

// DistanceCell is one cell of a path_map or goal_map grid.
type DistanceCell struct {
	TargetDist  uint32
	WithinRobot bool // only meaningful in path_map
}

// Cell is an integer costmap cell coordinate.
type Cell struct {
	X, Y int
}

// Grid is a dense row-major distance field over a costmap-sized area.
type Grid struct {
	SizeX, SizeY int
	Cells        []DistanceCell
}

// NewGrid allocates a sizeX x sizeY grid, every cell unreachable and not within_robot.
func NewGrid(sizeX, sizeY int) (*Grid, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return nil, errors.Errorf("distance field dimensions must be positive, got %dx%d", sizeX, sizeY)
	}
	g := &Grid{SizeX: sizeX, SizeY: sizeY, Cells: make([]DistanceCell, sizeX*sizeY)}
	g.reset()
	return g, nil
}

func (g *Grid) index(x, y int) int { return y*g.SizeX + x }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.SizeX && y >= 0 && y < g.SizeY
}

// At returns the cell at (x, y). Callers must bounds-check first; At does not.
func (g *Grid) At(x, y int) DistanceCell {
	return g.Cells[g.index(x, y)]
}

// MarkWithinRobot sets within_robot on every cell in cells that lies within the grid.
func (g *Grid) MarkWithinRobot(cells []Cell) {
	for _, c := range cells {
		if g.inBounds(c.X, c.Y) {
			g.Cells[g.index(c.X, c.Y)].WithinRobot = true
		}
	}
}

// reset sets every cell's target_dist to the unreachable sentinel and within_robot to
// false.
func (g *Grid) reset() {
	for i := range g.Cells {
		g.Cells[i] = DistanceCell{TargetDist: UnreachableCost}
	}
}

// Builder is the distance-field collaborator the planner façade injects. Reset,
// SetTargetCells, and SetLocalGoal are called in that order during a plan rebuild.
type Builder interface {
	// Reset clears grid back to all-unreachable, not-within-robot.
	Reset(grid *Grid)
	// SetTargetCells fills path_map with BFS distance, in cells, from every cell the
	// global plan passes through to each reachable free cell.
	SetTargetCells(grid *Grid, cm costmap.Costmap2D, plan []geom.Pose) error
	// SetLocalGoal selects one plan pose as the local goal and fills goal_map with BFS
	// distance from that single cell. It returns the chosen goal's world coordinates.
	SetLocalGoal(grid *Grid, cm costmap.Costmap2D, plan []geom.Pose) (goalX, goalY float64, err error)
}

// BFSBuilder is the reference Builder: a breadth-first search over 4-connected free
// cells, seeded from the target cells and refusing to propagate through obstacles.
// Grounded on MapGrid::setTargetCells / setLocalGoal (trajectory_planner.cpp calls
// them at lines 604-605 and 1176-1177; std::queue-driven BFS).
type BFSBuilder struct{}

// NewBFSBuilder builds a reference BFS distance-field builder.
func NewBFSBuilder() *BFSBuilder {
	return &BFSBuilder{}
}

// Reset implements Builder.
func (b *BFSBuilder) Reset(grid *Grid) {
	grid.reset()
}

// SetTargetCells implements Builder by seeding the BFS frontier with every costmap
// cell a plan pose maps to.
func (b *BFSBuilder) SetTargetCells(grid *Grid, cm costmap.Costmap2D, plan []geom.Pose) error {
	if err := checkGridMatchesCostmap(grid, cm); err != nil {
		return err
	}
	var seeds []Cell
	for _, pose := range plan {
		cx, cy, ok := cm.WorldToMap(pose.X(), pose.Y())
		if !ok {
			continue
		}
		seeds = append(seeds, Cell{X: cx, Y: cy})
	}
	bfs(grid, cm, seeds)
	return nil
}

// SetLocalGoal implements Builder by choosing the last plan pose that still falls
// within the costmap as the single BFS seed, mirroring MapGrid::setLocalGoal picking
// the last in-bounds pose of a plan already pruned to the local costmap window.
func (b *BFSBuilder) SetLocalGoal(grid *Grid, cm costmap.Costmap2D, plan []geom.Pose) (float64, float64, error) {
	if err := checkGridMatchesCostmap(grid, cm); err != nil {
		return 0, 0, err
	}
	for i := len(plan) - 1; i >= 0; i-- {
		cx, cy, ok := cm.WorldToMap(plan[i].X(), plan[i].Y())
		if !ok {
			continue
		}
		bfs(grid, cm, []Cell{{X: cx, Y: cy}})
		goalX, goalY := cm.MapToWorld(cx, cy)
		return goalX, goalY, nil
	}
	// Empty or entirely out-of-bounds plan: leave the grid unreachable everywhere.
	return 0, 0, nil
}

func checkGridMatchesCostmap(grid *Grid, cm costmap.Costmap2D) error {
	if grid.SizeX != cm.SizeX() || grid.SizeY != cm.SizeY() {
		return errors.Errorf(
			"distance field grid size %dx%d does not match costmap size %dx%d",
			grid.SizeX, grid.SizeY, cm.SizeX(), cm.SizeY())
	}
	return nil
}

// bfs runs a multi-source breadth-first search outward from seeds over 4-connected
// free cells, writing cell-unit distances into grid. Obstacle cells are marked
// ObstacleCost and never expanded through; already-assigned cells are never revisited.
func bfs(grid *Grid, cm costmap.Costmap2D, seeds []Cell) {
	queue := make([]Cell, 0, len(seeds))
	for _, s := range seeds {
		if !grid.inBounds(s.X, s.Y) {
			continue
		}
		idx := grid.index(s.X, s.Y)
		if isObstacleCell(cm, s.X, s.Y) {
			grid.Cells[idx].TargetDist = ObstacleCost
			continue
		}
		if grid.Cells[idx].TargetDist != UnreachableCost {
			continue
		}
		grid.Cells[idx].TargetDist = 0
		queue = append(queue, s)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curDist := grid.At(cur.X, cur.Y).TargetDist

		for _, n := range []Cell{
			{X: cur.X - 1, Y: cur.Y}, {X: cur.X + 1, Y: cur.Y},
			{X: cur.X, Y: cur.Y - 1}, {X: cur.X, Y: cur.Y + 1},
		} {
			if !grid.inBounds(n.X, n.Y) {
				continue
			}
			idx := grid.index(n.X, n.Y)
			if isObstacleCell(cm, n.X, n.Y) {
				grid.Cells[idx].TargetDist = ObstacleCost
				continue
			}
			if grid.Cells[idx].TargetDist != UnreachableCost {
				continue
			}
			grid.Cells[idx].TargetDist = curDist + 1
			queue = append(queue, n)
		}
	}
}

func isObstacleCell(cm costmap.Costmap2D, x, y int) bool {
	cost := cm.GetCost(x, y)
	return cost == costmap.Lethal || cost == costmap.InscribedInflated || cost == costmap.NoInformation
}
