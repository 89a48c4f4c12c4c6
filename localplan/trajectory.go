package localplan

import "github.com/mobilerobots/localplanner/geom"

// Trajectory is one scored rollout: the body-frame sample that produced it, the
// sequence of poses it visited, and the scalar cost (or failure sentinel, see
// errors.go) it scored.
type Trajectory struct {
	Sample geom.BodyVelocity
	Points []geom.Pose
	Cost   float64

	// GoalCostTraj and PathDistTraj are cached sub-scores consulted by the sampler's
	// search phases without re-deriving them from Cost.
	GoalCostTraj float64
	PathDistTraj float64
}

// NewTrajectory preallocates a Trajectory's point buffer to hold up to maxN points,
// per the design note that buffers are reused rather than reallocated per rollout.
func NewTrajectory(maxN int) *Trajectory {
	return &Trajectory{
		Points: make([]geom.Pose, 0, maxN),
		Cost:   CostInitial,
	}
}

// Reset clears t back to its pre-rollout state, keeping the underlying point buffer's
// capacity.
func (t *Trajectory) Reset() {
	t.Sample = geom.BodyVelocity{}
	t.Points = t.Points[:0]
	t.Cost = CostInitial
	t.GoalCostTraj = 0
	t.PathDistTraj = 0
}

// CopyFrom overwrites t with a deep-enough copy of src's scalar fields and points,
// without reallocating t's point buffer unless its capacity is insufficient.
func (t *Trajectory) CopyFrom(src *Trajectory) {
	t.Sample = src.Sample
	t.Cost = src.Cost
	t.GoalCostTraj = src.GoalCostTraj
	t.PathDistTraj = src.PathDistTraj
	if cap(t.Points) < len(src.Points) {
		t.Points = make([]geom.Pose, len(src.Points))
	}
	t.Points = t.Points[:len(src.Points)]
	copy(t.Points, src.Points)
}

// Legal reports whether t scored a non-negative cost.
func (t *Trajectory) Legal() bool {
	return t.Cost >= 0
}
