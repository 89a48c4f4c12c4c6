package localplan

import (
	"testing"

	"go.viam.com/test"

	"github.com/mobilerobots/localplanner/geom"
)

// TestComputeEnvelopeDynamicWindowClamp checks that with dwa=true, sim_period=0.1,
// ax=1.0, current vx=2.0, max_vx_cfg=5.0, min_vx_cfg=0.0, the dynamic window clamps
// the search bounds to max_vx=2.1, min_vx=1.9.
func TestComputeEnvelopeDynamicWindowClamp(t *testing.T) {
	cfg := Config{
		VelocityLimits: geom.VelocityLimits{MinVx: 0.0, MaxVx: 5.0, MaxVy: 0.3, MaxVtheta: 1.0, MinVtheta: -1.0},
		AccelLimits:    geom.AccelLimits{Ax: 1.0, Ay: 1.0, Atheta: 1.0},
		SimTime:        1.0,
		SimPeriod:      0.1,
		UseDynamicWindow: true,
		VxSamples:      5, VySamples: 3, VthetaSamples: 5,
	}
	env := computeEnvelope(cfg, geom.BodyVelocity{Vx: 2.0}, 0, false)
	test.That(t, env.maxVx, test.ShouldAlmostEqual, 2.1, 1e-9)
	test.That(t, env.minVx, test.ShouldAlmostEqual, 1.9, 1e-9)
}

func TestComputeEnvelopeClampsToFinalGoalDistance(t *testing.T) {
	cfg := Config{
		VelocityLimits: geom.VelocityLimits{MinVx: -1.0, MaxVx: 5.0, MaxVy: 5.0, MaxVtheta: 1.0, MinVtheta: -1.0},
		AccelLimits:    geom.AccelLimits{Ax: 1.0, Ay: 1.0, Atheta: 1.0},
		SimTime:        1.0,
		VxSamples:      5, VySamples: 3, VthetaSamples: 5,
	}
	env := computeEnvelope(cfg, geom.BodyVelocity{}, 0.5, true)
	test.That(t, env.maxVx, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, env.maxVy, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestComputeEnvelopeNonDWALeavesMinVxAtConfigured(t *testing.T) {
	cfg := Config{
		VelocityLimits: geom.VelocityLimits{MinVx: -0.5, MaxVx: 5.0, MaxVy: 1.0, MaxVtheta: 1.0, MinVtheta: -1.0},
		AccelLimits:    geom.AccelLimits{Ax: 1.0, Ay: 1.0, Atheta: 1.0},
		SimTime:        1.0,
		VxSamples:      5, VySamples: 3, VthetaSamples: 5,
	}
	env := computeEnvelope(cfg, geom.BodyVelocity{Vx: 2.0}, 0, false)
	test.That(t, env.minVx, test.ShouldAlmostEqual, -0.5, 1e-9)
	test.That(t, env.maxVx, test.ShouldAlmostEqual, 3.0, 1e-9) // 2.0 + 1.0*1.0
}

func TestGridDeltaSingleSampleIsZero(t *testing.T) {
	test.That(t, gridDelta(5, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, gridDelta(5, 0, 3), test.ShouldAlmostEqual, 2.5, 1e-9)
}

func TestIsBetterRejectsIllegalCandidate(t *testing.T) {
	candidate := &Trajectory{Cost: CostFootprintHit}
	best := &Trajectory{Cost: CostInitial}
	test.That(t, isBetter(candidate, best, 100), test.ShouldBeFalse)
}

func TestIsBetterAcceptsLegalCandidateOverIllegalBest(t *testing.T) {
	candidate := &Trajectory{Cost: 1.0, GoalCostTraj: 0.5}
	best := &Trajectory{Cost: CostInitial}
	test.That(t, isBetter(candidate, best, 1.0), test.ShouldBeTrue)
}

func TestIsBetterRequiresBeatingReference(t *testing.T) {
	candidate := &Trajectory{Cost: 1.0, GoalCostTraj: 2.0}
	best := &Trajectory{Cost: CostInitial}
	test.That(t, isBetter(candidate, best, 1.0), test.ShouldBeFalse)
}

func TestIsBetterRequiresLowerCostThanLegalBest(t *testing.T) {
	candidate := &Trajectory{Cost: 5.0, GoalCostTraj: 0.1}
	best := &Trajectory{Cost: 1.0, GoalCostTraj: 0.1}
	test.That(t, isBetter(candidate, best, 1.0), test.ShouldBeFalse)
}

func TestInPlaceBetterRequiresExceedingDvtheta(t *testing.T) {
	candidate := &Trajectory{Cost: 1.0, GoalCostTraj: 0.1, Sample: geom.BodyVelocity{Vtheta: 0.05}}
	best := &Trajectory{Cost: CostInitial}
	test.That(t, inPlaceBetter(candidate, best, 0.1, 1.0), test.ShouldBeFalse)
}

func TestInPlaceBetterAcceptsOverIllegalBest(t *testing.T) {
	candidate := &Trajectory{Cost: 1.0, GoalCostTraj: 0.1, Sample: geom.BodyVelocity{Vtheta: 0.5}}
	best := &Trajectory{Cost: CostInitial}
	test.That(t, inPlaceBetter(candidate, best, 0.1, 1.0), test.ShouldBeTrue)
}

func TestLateralSamplesSkipsNearZero(t *testing.T) {
	cfg := Config{VySamples: 3, ExtraYVels: []float64{0.005, 0.5}}
	env := velocityEnvelope{minVy: -0.1, dvy: 0.1}
	samples := lateralSamples(env, cfg)
	for _, vy := range samples {
		test.That(t, vy >= 0.01 || vy <= -0.01, test.ShouldBeTrue)
	}
	// -0.1, 0.0 (skipped), 0.1, 0.005 (skipped), 0.5 => {-0.1, 0.1, 0.5}
	test.That(t, len(samples), test.ShouldEqual, 3)
}
