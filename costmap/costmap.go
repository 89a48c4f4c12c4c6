// Package costmap defines the external costmap collaborator the planner reads cell
// costs and world/cell coordinate mappings from, plus a dense in-memory reference
// implementation so the planner is runnable without a production costmap service.
package costmap

import "github.com/pkg/errors"

// Cost sentinel values, matching costmap_2d's named obstacle costs.
const (
	// FreeSpace is the minimum possible cost: no inflation, no obstacle.
	FreeSpace uint8 = 0
	// InscribedInflated marks a cell inside the robot's inscribed radius of an obstacle.
	InscribedInflated uint8 = 253
	// Lethal marks a cell that physically overlaps an obstacle.
	Lethal uint8 = 254
	// NoInformation marks a cell the map has no data for.
	NoInformation uint8 = 255
)

// Costmap2D is the narrow interface the planner core consumes. Implementations own the
// occupancy data and the resolution/origin of the grid; the core only ever reads.
type Costmap2D interface {
	// SizeX returns the grid width in cells.
	SizeX() int
	// SizeY returns the grid height in cells.
	SizeY() int
	// Resolution returns the size of one cell edge, in meters.
	Resolution() float64
	// GetCost returns the cost at cell (cx, cy). Behavior for out-of-range cells is
	// implementation defined; callers should bounds-check with WorldToMap first.
	GetCost(cx, cy int) uint8
	// WorldToMap converts a world-frame point to a cell coordinate. ok is false if the
	// point falls outside the grid.
	WorldToMap(x, y float64) (cx, cy int, ok bool)
	// MapToWorld converts a cell coordinate to the world-frame coordinate of its center.
	MapToWorld(cx, cy int) (x, y float64)
}

// StaticGrid is a dense, in-memory reference Costmap2D. It is not meant to replace a
// production costmap (which would be continuously updated from sensor data); it exists
// so the planner can be exercised and tested standalone.
type StaticGrid struct {
	sizeX, sizeY int
	resolution   float64
	originX      float64
	originY      float64
	cells        []uint8
}

// NewStaticGrid builds a sizeX x sizeY grid at the given resolution, with the world
// origin (originX, originY) located at the corner of cell (0, 0). All cells start free.
func NewStaticGrid(sizeX, sizeY int, resolution, originX, originY float64) (*StaticGrid, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return nil, errors.Errorf("costmap dimensions must be positive, got %dx%d", sizeX, sizeY)
	}
	if resolution <= 0 {
		return nil, errors.Errorf("costmap resolution must be positive, got %f", resolution)
	}
	return &StaticGrid{
		sizeX:      sizeX,
		sizeY:      sizeY,
		resolution: resolution,
		originX:    originX,
		originY:    originY,
		cells:      make([]uint8, sizeX*sizeY),
	}, nil
}

// SizeX implements Costmap2D.
func (g *StaticGrid) SizeX() int { return g.sizeX }

// SizeY implements Costmap2D.
func (g *StaticGrid) SizeY() int { return g.sizeY }

// Resolution implements Costmap2D.
func (g *StaticGrid) Resolution() float64 { return g.resolution }

func (g *StaticGrid) inBounds(cx, cy int) bool {
	return cx >= 0 && cx < g.sizeX && cy >= 0 && cy < g.sizeY
}

func (g *StaticGrid) index(cx, cy int) int {
	return cy*g.sizeX + cx
}

// GetCost implements Costmap2D. Out-of-range cells read as NoInformation.
func (g *StaticGrid) GetCost(cx, cy int) uint8 {
	if !g.inBounds(cx, cy) {
		return NoInformation
	}
	return g.cells[g.index(cx, cy)]
}

// SetCost sets the cost of cell (cx, cy); out-of-range writes are silently ignored.
func (g *StaticGrid) SetCost(cx, cy int, cost uint8) {
	if !g.inBounds(cx, cy) {
		return
	}
	g.cells[g.index(cx, cy)] = cost
}

// WorldToMap implements Costmap2D.
func (g *StaticGrid) WorldToMap(x, y float64) (int, int, bool) {
	cx := int((x - g.originX) / g.resolution)
	cy := int((y - g.originY) / g.resolution)
	if (x-g.originX) < 0 || (y-g.originY) < 0 || !g.inBounds(cx, cy) {
		return 0, 0, false
	}
	return cx, cy, true
}

// MapToWorld implements Costmap2D.
func (g *StaticGrid) MapToWorld(cx, cy int) (float64, float64) {
	x := g.originX + (float64(cx)+0.5)*g.resolution
	y := g.originY + (float64(cy)+0.5)*g.resolution
	return x, y
}
