package localplan

import (
	"testing"

	"go.viam.com/test"

	"github.com/mobilerobots/localplanner/geom"
)

func validConfig() Config {
	return Config{
		AccelLimits:            geom.AccelLimits{Ax: 1, Ay: 1, Atheta: 1},
		SimTime:                1.0,
		SimGranularity:         0.1,
		AngularSimGranularity:  0.1,
		SimPeriod:              0.1,
		PathDistScale:          0.6,
		GoalDistScale:          0.8,
		OccDistScale:           0.01,
		HeadingDiffScale:       0.8,
		VxSamples:              5,
		VySamples:              3,
		VthetaSamples:          5,
	}
}

func TestConfigValidateAccumulatesErrors(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigValidateAcceptsValidConfig(t *testing.T) {
	err := validConfig().Validate()
	test.That(t, err, test.ShouldBeNil)
}

func TestConfigValidateRequiresSimPeriodUnderDWA(t *testing.T) {
	cfg := validConfig()
	cfg.UseDynamicWindow = true
	cfg.SimPeriod = 0
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNormalizeCoercesSampleCountsToAtLeastOne(t *testing.T) {
	cfg := validConfig()
	cfg.VxSamples = 0
	cfg.VySamples = -3
	cfg.VthetaSamples = 0
	out := cfg.normalize(1.0)
	test.That(t, out.VxSamples, test.ShouldEqual, 1)
	test.That(t, out.VthetaSamples, test.ShouldEqual, 1)
}

func TestNormalizeLeavesVySamplesUncoerced(t *testing.T) {
	cfg := validConfig()
	cfg.VySamples = -3
	out := cfg.normalize(1.0)
	test.That(t, out.VySamples, test.ShouldEqual, -3)
}

func TestNormalizeScalesWeightsByResolutionWhenMeterScoring(t *testing.T) {
	cfg := validConfig()
	cfg.MeterScoring = true
	out := cfg.normalize(0.05)
	test.That(t, out.PathDistScale, test.ShouldAlmostEqual, 0.03, 1e-9)
	test.That(t, out.GoalDistScale, test.ShouldAlmostEqual, 0.04, 1e-9)
	test.That(t, out.OccDistScale, test.ShouldAlmostEqual, 0.0005, 1e-9)
}

func TestNormalizeLeavesWeightsWhenNotMeterScoring(t *testing.T) {
	cfg := validConfig()
	out := cfg.normalize(0.05)
	test.That(t, out.PathDistScale, test.ShouldAlmostEqual, cfg.PathDistScale, 1e-9)
}

func TestParseExtraYVelsSplitsOnCommaAndWhitespace(t *testing.T) {
	vels := parseExtraYVels("0.1, -0.2  0.3,,")
	test.That(t, len(vels), test.ShouldEqual, 3)
	test.That(t, vels[0], test.ShouldAlmostEqual, 0.1, 1e-9)
	test.That(t, vels[1], test.ShouldAlmostEqual, -0.2, 1e-9)
	test.That(t, vels[2], test.ShouldAlmostEqual, 0.3, 1e-9)
}

func TestParseExtraYVelsEmptyString(t *testing.T) {
	vels := parseExtraYVels("")
	test.That(t, len(vels), test.ShouldEqual, 0)
}
