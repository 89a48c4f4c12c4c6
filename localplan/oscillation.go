package localplan

import (
	"math"

	"github.com/mobilerobots/localplanner/geom"
	"github.com/mobilerobots/localplanner/utils"
)

// OscillationState is the anti-dithering memory: once the robot rotates or strafes
// the same direction a second time without translating, that direction is flagged
// stuck until the robot has moved far enough to reset.
type OscillationState struct {
	RotatingLeft, RotatingRight   bool
	StrafeLeft, StrafeRight       bool
	StuckLeft, StuckRight         bool
	StuckLeftStrafe, StuckRightStrafe bool
	PrevX, PrevY                  float64
}

// EscapeState is the reverse-escape memory.
type EscapeState struct {
	Escaping                           bool
	EscapeX, EscapeY, EscapeTheta      float64
	EscapeResetDist, EscapeResetTheta  float64
	BackupVel                          float64
}

// updateOscillationState classifies best's motion and updates osc/esc in place. x, y,
// theta is the pose the sample was rolled out from (the tick's current pose, not a
// point along best's trajectory).
func updateOscillationState(osc *OscillationState, esc *EscapeState, best *Trajectory, x, y, theta, oscillationResetDist float64) {
	if math.Hypot(x-osc.PrevX, y-osc.PrevY) > oscillationResetDist {
		*osc = OscillationState{}
	}

	if best.Sample.Vx <= 0 {
		switch {
		case best.Sample.Vtheta < 0:
			if osc.RotatingRight {
				osc.StuckRight = true
			}
			osc.RotatingRight = true
		case best.Sample.Vtheta > 0:
			if osc.RotatingLeft {
				osc.StuckLeft = true
			}
			osc.RotatingLeft = true
		}
		switch {
		case best.Sample.Vy > 0:
			if osc.StrafeRight {
				osc.StuckRightStrafe = true
			}
			osc.StrafeRight = true
		case best.Sample.Vy < 0:
			if osc.StrafeLeft {
				osc.StuckLeftStrafe = true
			}
			osc.StrafeLeft = true
		}
	}

	osc.PrevX, osc.PrevY = x, y

	if esc.Escaping {
		movedFar := math.Hypot(x-esc.EscapeX, y-esc.EscapeY) > esc.EscapeResetDist
		turnedFar := math.Abs(utils.ShortestAngularDistance(theta, esc.EscapeTheta)) > esc.EscapeResetTheta
		if movedFar || turnedFar {
			esc.Escaping = false
		}
	}
}

// enterEscape marks esc as actively escaping, anchored at the current pose. Wired
// live per the chosen resolution of the "escaping_ set-site" design-note ambiguity:
// this is the one call site that sets Escaping, invoked when the reverse-escape
// search phase fires.
func enterEscape(esc *EscapeState, pose geom.Pose) {
	esc.Escaping = true
	esc.EscapeX, esc.EscapeY, esc.EscapeTheta = pose.X(), pose.Y(), pose.Theta
}
