package localplan

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/mobilerobots/localplanner/geom"
)

// Config is the planner's full parameter set: sampling resolution, cost weights,
// behavior flags, and velocity/accel limits. It is replaced atomically by
// Planner.Reconfigure and read under the planner's configuration lock.
type Config struct {
	VelocityLimits geom.VelocityLimits
	AccelLimits    geom.AccelLimits

	VxSamples, VySamples, VthetaSamples int
	SimTime                             float64
	SimPeriod                           float64
	SimGranularity                      float64
	AngularSimGranularity               float64
	// RawExtraYVels is the whitespace/comma separated list as configured; ExtraYVels
	// is its parsed form, populated by Reconfigure.
	RawExtraYVels string
	ExtraYVels    []float64

	PathDistScale    float64
	GoalDistScale    float64
	OccDistScale     float64
	HeadingDiffScale float64
	PathDistanceMax  float64
	MeterScoring     bool
	HeadingScoring   bool
	// HeadingScoringTimestep is accepted but neither validated nor consulted: heading
	// is scored only on the rollout's final step.
	HeadingScoringTimestep float64
	SimpleAttractor        bool
	HeadingLookahead       int

	HolonomicRobot       bool
	UseDynamicWindow     bool
	BackupVel            float64
	OscillationResetDist float64
	EscapeResetDist      float64
	EscapeResetTheta     float64
}

// Validate checks the invariants placed on configuration fields, accumulating every
// violation with multierr rather than failing on the first.
func (c Config) Validate() error {
	var err error
	if c.AccelLimits.Ax <= 0 {
		err = multierr.Append(err, errors.New("accel_x must be strictly positive"))
	}
	if c.AccelLimits.Ay <= 0 {
		err = multierr.Append(err, errors.New("accel_y must be strictly positive"))
	}
	if c.AccelLimits.Atheta <= 0 {
		err = multierr.Append(err, errors.New("accel_theta must be strictly positive"))
	}
	if c.SimTime <= 0 {
		err = multierr.Append(err, errors.New("sim_time must be strictly positive"))
	}
	if c.SimGranularity <= 0 {
		err = multierr.Append(err, errors.New("sim_granularity must be strictly positive"))
	}
	if c.AngularSimGranularity <= 0 {
		err = multierr.Append(err, errors.New("angular_sim_granularity must be strictly positive"))
	}
	if c.UseDynamicWindow && c.SimPeriod <= 0 {
		err = multierr.Append(err, errors.New("sim_period must be strictly positive when dwa is enabled"))
	}
	if c.PathDistScale < 0 || c.GoalDistScale < 0 || c.OccDistScale < 0 || c.HeadingDiffScale < 0 {
		err = multierr.Append(err, errors.New("cost weights must be non-negative"))
	}
	if c.PathDistanceMax < 0 {
		err = multierr.Append(err, errors.New("path_distance_max must be non-negative"))
	}
	return err
}

// normalize applies the coercions reconfigure performs: the vx and vtheta sample
// counts floor at 1 (vy is deliberately left uncoerced — a caller-configured 0 or
// negative vy_samples disables the holonomic lateral search phases outright, extra
// y velocities included, rather than silently becoming 1), and (when meterScoring is set) scoring weights are
// rescaled into meters by the costmap resolution.
func (c Config) normalize(costmapResolution float64) Config {
	out := c
	if out.VxSamples < 1 {
		out.VxSamples = 1
	}
	if out.VthetaSamples < 1 {
		out.VthetaSamples = 1
	}
	if out.MeterScoring {
		out.PathDistScale *= costmapResolution
		out.GoalDistScale *= costmapResolution
		out.OccDistScale *= costmapResolution
	}
	out.ExtraYVels = parseExtraYVels(out.RawExtraYVels)
	return out
}

// parseExtraYVels splits a whitespace- and/or comma-separated list of extra lateral
// velocities to probe alongside the regular vy grid.
func parseExtraYVels(raw string) []float64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	vels := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			vels = append(vels, v)
		}
	}
	return vels
}
