package localplan

// Failure sentinels carried as Trajectory.Cost. These never escape as Go errors; they
// are internal bookkeeping values the sampler discards candidates on.
const (
	// CostLineLethal is returned by LineCost (not by rollout) when a ray-traced
	// segment crosses a lethal, inscribed-inflated, or unknown cell.
	CostLineLethal float64 = -1
	// CostImpossible means goal_dist or path_dist equals the distance field's
	// obstacle_cost sentinel.
	CostImpossible float64 = -2
	// CostInitial marks a trajectory that was never scored.
	CostInitial float64 = -3
	// CostOffMap means the rollout left the costmap bounds.
	CostOffMap float64 = -4
	// CostFootprintHit means the footprint overlapped an illegal cell during rollout.
	CostFootprintHit float64 = -5
)
