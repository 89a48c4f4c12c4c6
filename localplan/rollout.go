package localplan

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/distfield"
	"github.com/mobilerobots/localplanner/geom"
	"github.com/mobilerobots/localplanner/utils"
	"github.com/mobilerobots/localplanner/worldmodel"
)

const impossibleCost = float64(distfield.ObstacleCost)

// GenerateTrajectory forward-simulates sample from (start, startVel) and scores it
// into traj. traj is reset and fully overwritten; cm, footprint, pathGrid, and
// goalGrid are read-only collaborators.
func GenerateTrajectory(
	cm costmap.Costmap2D,
	footprint *worldmodel.FootprintCostOracle,
	pathGrid, goalGrid *distfield.Grid,
	plan []geom.Pose,
	cfg Config,
	start geom.Pose,
	startVel, sample geom.BodyVelocity,
	traj *Trajectory,
) {
	traj.Reset()
	traj.Sample = sample

	n := stepCount(cfg, sample)
	dt := cfg.SimTime / float64(n)

	x, y, theta := start.X(), start.Y(), start.Theta
	vx, vy, vtheta := startVel.Vx, startVel.Vy, startVel.Vtheta

	var pathDist, goalDist, occCost, headingDiffVal float64

	for i := 0; i < n; i++ {
		cx, cy, ok := cm.WorldToMap(x, y)
		if !ok {
			traj.Cost = CostOffMap
			return
		}

		fc := footprint.FootprintCost(geom.NewPose(x, y, theta))
		if fc < 0 {
			traj.Cost = CostFootprintHit
			return
		}
		occCost = math.Max(occCost, math.Max(fc, float64(cm.GetCost(cx, cy))))

		switch {
		case cfg.SimpleAttractor:
			if len(plan) > 0 {
				last := plan[len(plan)-1]
				dx, dy := x-last.X(), y-last.Y()
				goalDist = dx*dx + dy*dy
			}
		case !cfg.HeadingScoring:
			pathDist = float64(pathGrid.At(cx, cy).TargetDist)
			goalDist = float64(goalGrid.At(cx, cy).TargetDist)
		default:
			if i == n-1 {
				headingDiffVal, pathDist, goalDist = headingDiff(plan, x, y, theta, cfg.HeadingLookahead)
			}
		}

		if pathDist == impossibleCost || goalDist == impossibleCost {
			traj.Cost = CostImpossible
			return
		}
		if cfg.PathDistanceMax > 0 && pathDist <= cfg.PathDistanceMax {
			pathDist = 0
		}
		if math.Abs(headingDiffVal) < 0.2 {
			headingDiffVal = 0
		}

		traj.Points = append(traj.Points, geom.NewPose(x, y, theta))

		next := geom.StepBodyVelocity(sample, geom.BodyVelocity{Vx: vx, Vy: vy, Vtheta: vtheta}, cfg.AccelLimits, dt)
		vx, vy, vtheta = next.Vx, next.Vy, next.Vtheta
		stepped := geom.StepPose(geom.NewPose(x, y, theta), next, dt)
		x, y, theta = stepped.X(), stepped.Y(), stepped.Theta
	}

	traj.PathDistTraj = pathDist
	if !cfg.HeadingScoring {
		traj.Cost = cfg.PathDistScale*pathDist + cfg.GoalDistScale*goalDist + cfg.OccDistScale*occCost
	} else {
		traj.Cost = cfg.OccDistScale*occCost + cfg.PathDistScale*pathDist +
			cfg.HeadingDiffScale*headingDiffVal + cfg.GoalDistScale*goalDist
	}
	traj.GoalCostTraj = cfg.GoalDistScale * goalDist
}

// stepCount picks the rollout's step count: for velocity-based scoring it scales
// with how far sample would carry the robot over SimTime, for heading scoring it is
// fixed to SimTime/SimGranularity. Always coerced to at least 1.
func stepCount(cfg Config, sample geom.BodyVelocity) int {
	var n int
	if !cfg.HeadingScoring {
		vmag := math.Hypot(sample.Vx, sample.Vy)
		n = int(math.Round(math.Max(
			vmag*cfg.SimTime/cfg.SimGranularity,
			math.Abs(sample.Vtheta)/cfg.AngularSimGranularity,
		)))
	} else {
		n = int(math.Round(cfg.SimTime / cfg.SimGranularity))
	}
	if n < 1 {
		n = 1
	}
	return n
}

// headingDiff walks plan from the end backward accumulating cumulative arc length,
// finds the plan pose closest to (x,y), looks lookahead steps further along the
// plan, and returns the absolute heading difference to that pose's yaw plus the
// path_dist/goal_dist side effects.
func headingDiff(plan []geom.Pose, x, y, theta float64, lookahead int) (diff, pathDist, goalDist float64) {
	n := len(plan)
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 {
		pathDist = math.Hypot(x-plan[0].X(), y-plan[0].Y())
		goalDist = pathDist
		diff = math.Abs(utils.ShortestAngularDistance(theta, plan[0].Theta))
		return diff, pathDist, goalDist
	}

	segLens := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		segLens[i] = plan[i].DistanceTo(plan[i+1])
	}

	// suffix[i] = arc length from plan[i] to plan[n-1]. Computed via a reversed
	// cumulative sum so the accumulation itself goes through gonum/floats rather than
	// a hand-rolled backward loop.
	revSegLens := make([]float64, len(segLens))
	for i, v := range segLens {
		revSegLens[len(segLens)-1-i] = v
	}
	revCum := make([]float64, len(revSegLens))
	floats.CumSum(revCum, revSegLens)

	suffix := make([]float64, n)
	for i := 0; i < n-1; i++ {
		suffix[i] = revCum[len(segLens)-1-i]
	}

	dists := make([]float64, n)
	for i, pose := range plan {
		dists[i] = math.Hypot(x-pose.X(), y-pose.Y())
	}
	iStar := floats.MinIdx(dists)

	j := iStar + lookahead
	if j > n-1 {
		j = n - 1
	}

	pathDist = dists[iStar]
	// Tail bias is normalized by the plan's pose count, not its arc length —
	// matches trajectory_planner.cpp's goal_dist_traj term exactly.
	goalDist = suffix[j] + float64(n-1-j)/float64(n)
	if goalDist == 0 {
		last := plan[n-1]
		goalDist = math.Hypot(x-last.X(), y-last.Y())
	}
	diff = math.Abs(utils.ShortestAngularDistance(theta, plan[j].Theta))
	return diff, pathDist, goalDist
}
