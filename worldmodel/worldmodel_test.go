package worldmodel

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/geom"
)

func squareFootprint(halfSide float64) Polygon {
	return Polygon{
		{X: halfSide, Y: halfSide},
		{X: -halfSide, Y: halfSide},
		{X: -halfSide, Y: -halfSide},
		{X: halfSide, Y: -halfSide},
	}
}

func TestPolygonRadii(t *testing.T) {
	poly := squareFootprint(0.5)
	inscribed, circumscribed := poly.Radii()
	test.That(t, inscribed, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, circumscribed, test.ShouldAlmostEqual, r3.Vector{X: 0.5, Y: 0.5}.Norm(), 1e-9)
}

func TestPolygonTransform(t *testing.T) {
	poly := Polygon{{X: 1, Y: 0}}
	world := poly.Transform(geom.NewPose(2, 3, 0))
	test.That(t, world[0].X, test.ShouldAlmostEqual, 3.0, 1e-9)
	test.That(t, world[0].Y, test.ShouldAlmostEqual, 3.0, 1e-9)
}

func TestLineCostStopsAtLethal(t *testing.T) {
	g, err := costmap.NewStaticGrid(10, 1, 1.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	g.SetCost(5, 0, costmap.Lethal)

	cost := LineCost(g, 0, 0, 9, 0)
	test.That(t, cost, test.ShouldEqual, -1.0)
}

func TestLineCostFreeSpace(t *testing.T) {
	g, err := costmap.NewStaticGrid(10, 1, 1.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	g.SetCost(5, 0, 100)

	cost := LineCost(g, 0, 0, 9, 0)
	test.That(t, cost, test.ShouldEqual, 100.0)
}

func TestPointCost(t *testing.T) {
	g, err := costmap.NewStaticGrid(4, 4, 1.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PointCost(g, 0, 0), test.ShouldEqual, 0.0)
	g.SetCost(1, 1, costmap.InscribedInflated)
	test.That(t, PointCost(g, 1, 1), test.ShouldEqual, -1.0)
}

func TestPolygonWorldModelFreeSpace(t *testing.T) {
	g, err := costmap.NewStaticGrid(20, 20, 0.1, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	wm, err := NewPolygonWorldModel(g)
	test.That(t, err, test.ShouldBeNil)

	poly := squareFootprint(0.2)
	cost := wm.FootprintCost(geom.NewPose(1.0, 1.0, 0), poly, 0, 0)
	test.That(t, cost, test.ShouldEqual, 0.0)
}

func TestPolygonWorldModelDetectsLethal(t *testing.T) {
	g, err := costmap.NewStaticGrid(20, 20, 0.1, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	g.SetCost(10, 10, costmap.Lethal)
	wm, err := NewPolygonWorldModel(g)
	test.That(t, err, test.ShouldBeNil)

	poly := squareFootprint(0.2)
	cost := wm.FootprintCost(geom.NewPose(1.0, 1.0, 0), poly, 0, 0)
	test.That(t, cost, test.ShouldEqual, -1.0)
}

func TestNewPolygonWorldModelRejectsNilCostmap(t *testing.T) {
	_, err := NewPolygonWorldModel(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFootprintCostOracleDelegates(t *testing.T) {
	g, err := costmap.NewStaticGrid(20, 20, 0.1, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	wm, err := NewPolygonWorldModel(g)
	test.That(t, err, test.ShouldBeNil)

	oracle := NewFootprintCostOracle(wm, squareFootprint(0.2))
	test.That(t, oracle.InscribedRadius, test.ShouldAlmostEqual, 0.2, 1e-9)
	cost := oracle.FootprintCost(geom.NewPose(1.0, 1.0, 0))
	test.That(t, cost, test.ShouldEqual, 0.0)
}
