package localplan

import (
	"math"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/distfield"
	"github.com/mobilerobots/localplanner/geom"
	"github.com/mobilerobots/localplanner/worldmodel"
)

// sampleRollouts bundles the read-only collaborators a rollout needs, so the search
// phases below don't thread eight parameters through every call.
type sampleRollouts struct {
	cm        costmap.Costmap2D
	footprint *worldmodel.FootprintCostOracle
	pathGrid  *distfield.Grid
	goalGrid  *distfield.Grid
	plan      []geom.Pose
	cfg       Config
	start     geom.Pose
	startVel  geom.BodyVelocity
}

func (r *sampleRollouts) rollout(vx, vy, vtheta float64, into *Trajectory) {
	GenerateTrajectory(r.cm, r.footprint, r.pathGrid, r.goalGrid, r.plan, r.cfg,
		r.start, r.startVel, geom.BodyVelocity{Vx: vx, Vy: vy, Vtheta: vtheta}, into)
}

// velocityEnvelope is the admissible search window derived for one tick.
type velocityEnvelope struct {
	maxVx, minVx       float64
	maxVy, minVy       float64
	maxVtheta, minVtheta float64
	dvx, dvy, dvtheta  float64
}

// computeEnvelope derives the tick's admissible velocity envelope and sample grid
// deltas. finalGoalValid gates the goal-distance deceleration clamp.
func computeEnvelope(cfg Config, currentVel geom.BodyVelocity, finalGoalDist float64, finalGoalValid bool) velocityEnvelope {
	limits := cfg.VelocityLimits
	accel := cfg.AccelLimits

	maxVx := limits.MaxVx
	maxVy := limits.MaxVy
	if finalGoalValid {
		maxVx = math.Min(maxVx, finalGoalDist/cfg.SimTime)
		maxVy = math.Min(maxVy, finalGoalDist/cfg.SimTime)
	}

	minVx := math.Min(limits.MinVx, maxVx)
	minVy := -maxVy

	maxVtheta := limits.MaxVtheta
	minVtheta := limits.MinVtheta

	if cfg.UseDynamicWindow {
		maxVx = math.Min(maxVx, currentVel.Vx+accel.Ax*cfg.SimPeriod)
		minVx = math.Max(limits.MinVx, currentVel.Vx-accel.Ax*cfg.SimPeriod)

		// Y-velocity bounds are centered on vx, not vy: a preserved quirk of the
		// original dynamic-window math.
		maxVy = math.Min(maxVy, currentVel.Vx+accel.Ay*cfg.SimPeriod)
		minVy = math.Max(minVy, currentVel.Vx-accel.Ay*cfg.SimPeriod)

		maxVtheta = math.Min(maxVtheta, currentVel.Vtheta+accel.Atheta*cfg.SimPeriod)
		minVtheta = math.Max(minVtheta, currentVel.Vtheta-accel.Atheta*cfg.SimPeriod)
	} else {
		maxVx = math.Min(maxVx, currentVel.Vx+accel.Ax*cfg.SimTime)
		maxVtheta = math.Min(maxVtheta, currentVel.Vtheta+accel.Atheta*cfg.SimTime)
		minVtheta = math.Max(minVtheta, currentVel.Vtheta-accel.Atheta*cfg.SimTime)
	}

	env := velocityEnvelope{maxVx: maxVx, minVx: minVx, maxVy: maxVy, minVy: minVy, maxVtheta: maxVtheta, minVtheta: minVtheta}
	env.dvx = gridDelta(maxVx, minVx, cfg.VxSamples)
	env.dvy = gridDelta(maxVy, minVy, cfg.VySamples)
	env.dvtheta = gridDelta(maxVtheta, minVtheta, cfg.VthetaSamples)
	return env
}

func gridDelta(max, min float64, samples int) float64 {
	if samples <= 1 {
		return 0
	}
	return (max - min) / float64(samples-1)
}

// isBetter is the generic search-phase comparator: candidate must be legal, must
// either beat an illegal best or score a strictly lower cost, and must beat the
// reference trajectory's goal_cost_traj.
func isBetter(candidate, best *Trajectory, referenceGoalCost float64) bool {
	if !candidate.Legal() {
		return false
	}
	if best.Legal() && candidate.Cost >= best.Cost {
		return false
	}
	return candidate.GoalCostTraj < referenceGoalCost
}

// inPlaceBetter is the in-place rotation phase's stricter comparator.
func inPlaceBetter(candidate, best *Trajectory, dvtheta, referenceGoalCost float64) bool {
	if !candidate.Legal() {
		return false
	}
	betterThanBest := !best.Legal()
	if !betterThanBest {
		if candidate.Cost < best.Cost || (candidate.Cost == best.Cost && candidate.GoalCostTraj < best.GoalCostTraj) {
			betterThanBest = true
		} else if best.Sample.Vy != 0 && candidate.Cost < best.Cost && candidate.GoalCostTraj < best.GoalCostTraj {
			betterThanBest = true
		}
	}
	if !betterThanBest {
		return false
	}
	if math.Abs(candidate.Sample.Vtheta) <= dvtheta {
		return false
	}
	return candidate.GoalCostTraj < referenceGoalCost
}

// lateralSamples returns the holonomic lateral vy values to try: the grid samples
// plus any configured extra y velocities, skipping |vy| < 0.01. It returns none when
// VySamples is below 1.
func lateralSamples(env velocityEnvelope, cfg Config) []float64 {
	if cfg.VySamples < 1 {
		return nil
	}
	samples := make([]float64, 0, cfg.VySamples+len(cfg.ExtraYVels))
	for k := 0; k < cfg.VySamples; k++ {
		samples = append(samples, env.minVy+float64(k)*env.dvy)
	}
	samples = append(samples, cfg.ExtraYVels...)
	out := samples[:0]
	for _, vy := range samples {
		if math.Abs(vy) >= 0.01 {
			out = append(out, vy)
		}
	}
	return out
}

// runSampler performs the five search phases (forward+rotation fan, pure lateral,
// lateral+forward, in-place rotation, reverse escape) and returns the chosen
// trajectory, a fresh allocation owned by the caller.
func runSampler(
	cm costmap.Costmap2D,
	footprint *worldmodel.FootprintCostOracle,
	pathGrid, goalGrid *distfield.Grid,
	plan []geom.Pose,
	cfg Config,
	start geom.Pose,
	startVel geom.BodyVelocity,
	finalGoalDist float64,
	finalGoalValid bool,
	osc *OscillationState,
	esc *EscapeState,
	maxN int,
) *Trajectory {
	roll := &sampleRollouts{cm: cm, footprint: footprint, pathGrid: pathGrid, goalGrid: goalGrid, plan: plan, cfg: cfg, start: start, startVel: startVel}
	env := computeEnvelope(cfg, startVel, finalGoalDist, finalGoalValid)

	reference := NewTrajectory(maxN)
	roll.rollout(0, 0, 0, reference)

	best := NewTrajectory(maxN)
	best.Cost = CostInitial
	scratch := NewTrajectory(maxN)

	consider := func(vx, vy, vtheta float64) {
		roll.rollout(vx, vy, vtheta, scratch)
		if isBetter(scratch, best, reference.GoalCostTraj) {
			best, scratch = scratch, best
		}
	}

	forbidForward := esc.Escaping

	// Phase 1: forward + rotation fan.
	for k := 0; k < cfg.VxSamples; k++ {
		vx := env.minVx + float64(k)*env.dvx
		if forbidForward && vx > 0 {
			continue
		}
		consider(vx, 0, 0)
		for j := 0; j < cfg.VthetaSamples-1; j++ {
			vtheta := env.minVtheta + float64(j)*env.dvtheta
			if osc.StuckLeft && vtheta > 0 {
				continue
			}
			if osc.StuckRight && vtheta < 0 {
				continue
			}
			consider(vx, 0, vtheta)
		}
	}

	if cfg.HolonomicRobot {
		lateral := lateralSamples(env, cfg)

		// Phase 2: pure lateral.
		for _, vy := range lateral {
			if osc.StuckLeftStrafe && vy < 0 {
				continue
			}
			if osc.StuckRightStrafe && vy > 0 {
				continue
			}
			consider(0, vy, 0)
		}

		// Phase 3: lateral combined with small forward.
		nxHalf := cfg.VxSamples / 2
		if nxHalf < 1 {
			nxHalf = 1
		}
		lowVx := env.minVx / 2
		for a := 0; a < nxHalf; a++ {
			vx := lowVx + float64(a)*env.dvx
			if forbidForward && vx > 0 {
				continue
			}
			for _, vy := range lateral {
				if osc.StuckLeftStrafe && vy < 0 {
					continue
				}
				if osc.StuckRightStrafe && vy > 0 {
					continue
				}
				consider(vx, vy, 0)
			}
		}
	}

	// Phase 4: in-place rotation.
	for m := 0; m < cfg.VthetaSamples; m++ {
		vtheta := env.minVtheta + float64(m)*env.dvtheta
		if math.Abs(vtheta) < cfg.VelocityLimits.MinInPlaceVtheta {
			if vtheta >= 0 {
				vtheta = cfg.VelocityLimits.MinInPlaceVtheta
			} else {
				vtheta = -cfg.VelocityLimits.MinInPlaceVtheta
			}
		}
		roll.rollout(0, 0, vtheta, scratch)
		if inPlaceBetter(scratch, best, env.dvtheta, reference.GoalCostTraj) {
			best, scratch = scratch, best
		}
	}

	// Phase 5: reverse escape, only if nothing legal was found.
	if !best.Legal() {
		roll.rollout(cfg.BackupVel, 0, 0, scratch)
		if scratch.Cost == CostFootprintHit {
			scratch.Cost = 1
		}
		best, scratch = scratch, best
		enterEscape(esc, start)
	}

	updateOscillationState(osc, esc, best, start.X(), start.Y(), start.Theta, cfg.OscillationResetDist)
	return best
}
