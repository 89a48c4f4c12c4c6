// Package geom holds the planar pose/velocity types and the kinematic integrator the
// planner rolls candidate trajectories forward with.
package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Pose is a robot pose in the world frame: position in meters, heading in radians.
// Headings are never normalized by the integrator; callers that need a wrapped
// difference should use utils.ShortestAngularDistance.
type Pose struct {
	Point r3.Vector // Z is always 0; planar positions only.
	Theta float64
}

// NewPose builds a Pose from x, y, theta.
func NewPose(x, y, theta float64) Pose {
	return Pose{Point: r3.Vector{X: x, Y: y}, Theta: theta}
}

// X returns the pose's world-frame x coordinate.
func (p Pose) X() float64 { return p.Point.X }

// Y returns the pose's world-frame y coordinate.
func (p Pose) Y() float64 { return p.Point.Y }

// DistanceTo returns the planar Euclidean distance between two poses' positions.
func (p Pose) DistanceTo(other Pose) float64 {
	dx := p.Point.X - other.Point.X
	dy := p.Point.Y - other.Point.Y
	return math.Hypot(dx, dy)
}

// BodyVelocity is a robot velocity expressed in the robot's body frame: vx, vy in
// meters/second, vtheta in radians/second.
type BodyVelocity struct {
	Vx, Vy, Vtheta float64
}

// IsZero reports whether all three components are exactly zero.
func (v BodyVelocity) IsZero() bool {
	return v.Vx == 0 && v.Vy == 0 && v.Vtheta == 0
}

// AccelLimits are the strictly-positive per-axis acceleration magnitudes used to ramp
// a velocity sample toward its target over a simulation step.
type AccelLimits struct {
	Ax, Ay, Atheta float64
}

// VelocityLimits bound the admissible envelope the sampler searches within.
type VelocityLimits struct {
	MinVx, MaxVx       float64
	MinVy, MaxVy       float64
	MinVtheta, MaxVtheta float64
	MinInPlaceVtheta   float64
}

// StepVelocity advances a single velocity component toward target under a positive
// acceleration limit over a positive timestep.
func StepVelocity(target, current, accel, dt float64) float64 {
	switch {
	case current < target:
		return math.Min(current+accel*dt, target)
	case current > target:
		return math.Max(current-accel*dt, target)
	default:
		return target
	}
}

// StepBodyVelocity advances all three velocity components toward target.
func StepBodyVelocity(target, current BodyVelocity, accel AccelLimits, dt float64) BodyVelocity {
	return BodyVelocity{
		Vx:     StepVelocity(target.Vx, current.Vx, accel.Ax, dt),
		Vy:     StepVelocity(target.Vy, current.Vy, accel.Ay, dt),
		Vtheta: StepVelocity(target.Vtheta, current.Vtheta, accel.Atheta, dt),
	}
}

// StepPose advances a pose by one timestep given a body-frame velocity, using the
// standard body-to-world rotation. Theta is not normalized.
func StepPose(p Pose, v BodyVelocity, dt float64) Pose {
	cos, sin := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose{
		Point: r3.Vector{
			X: p.Point.X + (v.Vx*cos-v.Vy*sin)*dt,
			Y: p.Point.Y + (v.Vx*sin+v.Vy*cos)*dt,
		},
		Theta: p.Theta + v.Vtheta*dt,
	}
}
