// Package localplan is the planner core: trajectory rollout and scoring, the
// velocity-space sampler, the oscillation/escape state machine, and the façade that
// ties them to an injected costmap, world model, and distance-field builder.
package localplan

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mobilerobots/localplanner/costmap"
	"github.com/mobilerobots/localplanner/distfield"
	"github.com/mobilerobots/localplanner/geom"
	"github.com/mobilerobots/localplanner/worldmodel"
)

// Planner is the façade client code drives each control tick. It owns the two distance-field grids
// and the oscillation/escape memory; the costmap, world model, and distance-field
// builder are injected collaborators it never mutates beyond calling their interfaces.
type Planner struct {
	mu  sync.RWMutex
	cfg Config

	cm          costmap.Costmap2D
	footprint   *worldmodel.FootprintCostOracle
	distBuilder distfield.Builder

	pathGrid *distfield.Grid
	goalGrid *distfield.Grid

	plan           []geom.Pose
	finalGoal      geom.Pose
	finalGoalValid bool
	localGoalX     float64
	localGoalY     float64

	osc OscillationState
	esc EscapeState

	maxN int

	logger *zap.SugaredLogger
}

// NewPlanner builds a Planner over cm, wiring footprint and distBuilder in as the
// world-model and distance-field collaborators. cfg is validated and normalized
// before use.
func NewPlanner(
	cm costmap.Costmap2D,
	footprint *worldmodel.FootprintCostOracle,
	distBuilder distfield.Builder,
	cfg Config,
	logger *zap.SugaredLogger,
) (*Planner, error) {
	if cm == nil {
		return nil, errors.New("planner requires a non-nil costmap")
	}
	if footprint == nil {
		return nil, errors.New("planner requires a non-nil footprint cost oracle")
	}
	if distBuilder == nil {
		return nil, errors.New("planner requires a non-nil distance-field builder")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	pathGrid, err := distfield.NewGrid(cm.SizeX(), cm.SizeY())
	if err != nil {
		return nil, errors.Wrap(err, "allocating path_map")
	}
	goalGrid, err := distfield.NewGrid(cm.SizeX(), cm.SizeY())
	if err != nil {
		return nil, errors.Wrap(err, "allocating goal_map")
	}

	p := &Planner{
		cm:          cm,
		footprint:   footprint,
		distBuilder: distBuilder,
		pathGrid:    pathGrid,
		goalGrid:    goalGrid,
		maxN:        maxStepsFor(cfg),
		logger:      logger,
	}
	normalized := cfg.normalize(cm.Resolution())
	p.cfg = normalized
	p.esc.EscapeResetDist = normalized.EscapeResetDist
	p.esc.EscapeResetTheta = normalized.EscapeResetTheta
	p.esc.BackupVel = normalized.BackupVel
	return p, nil
}

func maxStepsFor(cfg Config) int {
	n := int(cfg.SimTime/cfg.SimGranularity) + 2
	if n < 1 {
		n = 1
	}
	return n
}

// Reconfigure validates cfg and then atomically replaces the configuration under the
// planner's write lock, held from normalization through the swap.
func (p *Planner) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	normalized := cfg.normalize(p.cm.Resolution())
	p.cfg = normalized
	p.esc.EscapeResetDist = normalized.EscapeResetDist
	p.esc.EscapeResetTheta = normalized.EscapeResetTheta
	p.esc.BackupVel = normalized.BackupVel
	p.maxN = maxStepsFor(normalized)

	p.logger.Infow("planner reconfigured",
		"vx_samples", normalized.VxSamples,
		"vy_samples", normalized.VySamples,
		"vtheta_samples", normalized.VthetaSamples,
		"holonomic", normalized.HolonomicRobot,
		"dwa", normalized.UseDynamicWindow,
	)
	return nil
}

// UpdatePlan replaces the global plan. If recompute is true it also rebuilds both
// distance fields from the new plan via the injected distance-field builder.
func (p *Planner) UpdatePlan(plan []geom.Pose, recompute bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.plan = plan
	if len(plan) > 0 {
		p.finalGoal = plan[len(plan)-1]
		p.finalGoalValid = true
	} else {
		p.finalGoalValid = false
	}

	if !recompute {
		return nil
	}
	p.resetDistanceFields()
	return p.fillDistanceFields()
}

// resetDistanceFields clears both grids back to all-unreachable. Callers must hold
// p.mu for writing.
func (p *Planner) resetDistanceFields() {
	p.distBuilder.Reset(p.pathGrid)
	p.distBuilder.Reset(p.goalGrid)
}

// fillDistanceFields repopulates both grids from the current plan and costmap,
// assuming they have already been reset (and, for a tick's own footprint, marked
// within_robot). Callers must hold p.mu for writing.
func (p *Planner) fillDistanceFields() error {
	if err := p.distBuilder.SetTargetCells(p.pathGrid, p.cm, p.plan); err != nil {
		return errors.Wrap(err, "set_target_cells")
	}
	goalX, goalY, err := p.distBuilder.SetLocalGoal(p.goalGrid, p.cm, p.plan)
	if err != nil {
		return errors.Wrap(err, "set_local_goal")
	}
	p.localGoalX, p.localGoalY = goalX, goalY
	return nil
}

// markFootprintWithinRobot rasterizes the footprint at pose and marks those cells
// within_robot on path_map, so GetCellCosts reports no costs for them. The rollout
// does not read the mark.
func (p *Planner) markFootprintWithinRobot(pose geom.Pose) {
	cells := worldmodel.FootprintCells(pose, p.footprint.Footprint, p.cm, true)
	dfCells := make([]distfield.Cell, len(cells))
	for i, c := range cells {
		dfCells[i] = distfield.Cell{X: c.X, Y: c.Y}
	}
	p.pathGrid.MarkWithinRobot(dfCells)
}

// ScoreTrajectory rolls out sample from (pose, vel) and returns its scalar cost
// (negative sentinel on failure).
func (p *Planner) ScoreTrajectory(pose geom.Pose, vel, sample geom.BodyVelocity) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	traj := NewTrajectory(p.maxN)
	GenerateTrajectory(p.cm, p.footprint, p.pathGrid, p.goalGrid, p.plan, p.cfg, pose, vel, sample, traj)
	return traj.Cost
}

// CheckTrajectory reports whether sample would score a legal (non-negative) cost.
func (p *Planner) CheckTrajectory(pose geom.Pose, vel, sample geom.BodyVelocity) bool {
	return p.ScoreTrajectory(pose, vel, sample) >= 0
}

// FindBestPath resets the distance fields, marks the robot's own footprint
// within_robot, rebuilds the fields, runs the velocity-space sampler, and converts
// the chosen trajectory into a drive command. It always returns a Trajectory, even
// when every sample failed; the returned command is zero whenever the trajectory is
// illegal.
func (p *Planner) FindBestPath(pose geom.Pose, vel geom.BodyVelocity) (*Trajectory, geom.BodyVelocity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetDistanceFields()
	p.markFootprintWithinRobot(pose)
	if err := p.fillDistanceFields(); err != nil {
		p.logger.Warnw("distance field rebuild failed", "error", err)
	}

	finalGoalDist := 0.0
	if p.finalGoalValid {
		finalGoalDist = pose.DistanceTo(p.finalGoal)
	}

	best := runSampler(
		p.cm, p.footprint, p.pathGrid, p.goalGrid, p.plan, p.cfg,
		pose, vel, finalGoalDist, p.finalGoalValid,
		&p.osc, &p.esc, p.maxN,
	)

	cmd := geom.BodyVelocity{}
	if best.Legal() {
		cmd = best.Sample
	} else {
		p.logger.Debugw("no legal trajectory this tick", "cost", best.Cost)
	}
	return best, cmd
}

// GetLocalGoal returns the local-goal coordinates the goal-map builder last selected.
func (p *Planner) GetLocalGoal() (x, y float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.localGoalX, p.localGoalY
}

// GetCellCosts reports the decomposed cost at (cx, cy), or ok=false if the cell is
// within_robot, its distance field value is the obstacle/unreachable sentinel, or its
// occupancy cost is at least INSCRIBED_INFLATED.
func (p *Planner) GetCellCosts(cx, cy int) (pathCost, goalCost, occCost, total float64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if cx < 0 || cy < 0 || cx >= p.cm.SizeX() || cy >= p.cm.SizeY() {
		return 0, 0, 0, 0, false
	}
	pc := p.pathGrid.At(cx, cy)
	if pc.WithinRobot {
		return 0, 0, 0, 0, false
	}
	if pc.TargetDist == distfield.ObstacleCost || pc.TargetDist == distfield.UnreachableCost {
		return 0, 0, 0, 0, false
	}
	occ := float64(p.cm.GetCost(cx, cy))
	if occ >= float64(costmap.InscribedInflated) {
		return 0, 0, 0, 0, false
	}
	gc := p.goalGrid.At(cx, cy)

	pathCost = float64(pc.TargetDist)
	goalCost = float64(gc.TargetDist)
	occCost = occ
	total = p.cfg.PathDistScale*pathCost + p.cfg.GoalDistScale*goalCost + p.cfg.OccDistScale*occCost
	return pathCost, goalCost, occCost, total, true
}
