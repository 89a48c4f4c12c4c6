package costmap

import (
	"testing"

	"go.viam.com/test"
)

func TestNewStaticGrid(t *testing.T) {
	t.Run("rejects bad dimensions", func(t *testing.T) {
		_, err := NewStaticGrid(0, 5, 1.0, 0, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("rejects bad resolution", func(t *testing.T) {
		_, err := NewStaticGrid(5, 5, 0, 0, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("starts all free", func(t *testing.T) {
		g, err := NewStaticGrid(4, 4, 1.0, 0, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.GetCost(0, 0), test.ShouldEqual, FreeSpace)
	})
}

func TestStaticGridCoordinateMapping(t *testing.T) {
	g, err := NewStaticGrid(10, 10, 0.5, -1.0, -1.0)
	test.That(t, err, test.ShouldBeNil)

	cx, cy, ok := g.WorldToMap(-1.0, -1.0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cx, test.ShouldEqual, 0)
	test.That(t, cy, test.ShouldEqual, 0)

	_, _, ok = g.WorldToMap(-2.0, -2.0)
	test.That(t, ok, test.ShouldBeFalse)

	_, _, ok = g.WorldToMap(100, 100)
	test.That(t, ok, test.ShouldBeFalse)

	x, y := g.MapToWorld(0, 0)
	test.That(t, x, test.ShouldAlmostEqual, -0.75, 1e-9)
	test.That(t, y, test.ShouldAlmostEqual, -0.75, 1e-9)
}

func TestStaticGridOutOfRangeReadsNoInformation(t *testing.T) {
	g, err := NewStaticGrid(4, 4, 1.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.GetCost(-1, 0), test.ShouldEqual, NoInformation)
	test.That(t, g.GetCost(0, 99), test.ShouldEqual, NoInformation)
}

func TestStaticGridSetCost(t *testing.T) {
	g, err := NewStaticGrid(4, 4, 1.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	g.SetCost(2, 2, Lethal)
	test.That(t, g.GetCost(2, 2), test.ShouldEqual, Lethal)
	// Out-of-range writes are silently ignored.
	g.SetCost(-5, -5, Lethal)
}
