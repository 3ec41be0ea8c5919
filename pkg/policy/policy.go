// Package policy maps the latest target geometry to a motor command.
//
// The policy is purely reactive: every decision is a function of the
// current tick's target and the configured Params. State is kept only as a
// label for status reporting.
package policy

import (
	"fmt"
	"time"

	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

// State labels the branch taken on the last step.
type State string

const (
	Searching   State = "SEARCHING"
	Aligning    State = "ALIGNING"
	Approaching State = "APPROACHING"
	Pushing     State = "PUSHING"
)

// Action names the command family emitted on a step.
type Action string

const (
	ActionSpin      Action = "spin"
	ActionTurnLeft  Action = "turn-left"
	ActionTurnRight Action = "turn-right"
	ActionForward   Action = "forward"
	ActionPush      Action = "push"
	ActionStop      Action = "stop"
)

// Params are the geometric thresholds and motor constants.
//
// LeftSpeed and RightSpeed are the per-side full-speed magnitudes; their
// ratio compensates for the imbalance between the two motors.
type Params struct {
	FarRadius  float64 `json:"farRadius"`
	NearRadius float64 `json:"nearRadius"`
	CenterMin  float64 `json:"centerMin"`
	CenterMax  float64 `json:"centerMax"`

	LeftSpeed     float64 `json:"leftSpeed"`
	RightSpeed    float64 `json:"rightSpeed"`
	TurnSpeed     float64 `json:"turnSpeed"`
	ApproachScale float64 `json:"approachScale"`

	SpinTime     time.Duration `json:"spinTime"`
	SpinCooldown time.Duration `json:"spinCooldown"`
	TurnTime     time.Duration `json:"turnTime"`
	TurnCooldown time.Duration `json:"turnCooldown"`
	PushHold     time.Duration `json:"pushHold"`
}

// DefaultParams returns the values tuned for a 640x480 frame.
func DefaultParams() Params {
	return Params{
		FarRadius:     10,
		NearRadius:    40,
		CenterMin:     240,
		CenterMax:     400,
		LeftSpeed:     0.7,
		RightSpeed:    1.0,
		TurnSpeed:     0.4,
		ApproachScale: 0.8,
		SpinTime:      90 * time.Millisecond,
		SpinCooldown:  300 * time.Millisecond,
		TurnTime:      100 * time.Millisecond,
		TurnCooldown:  50 * time.Millisecond,
		PushHold:      2 * time.Second,
	}
}

// Validate checks the threshold ordering.
func (p Params) Validate() error {
	if p.FarRadius >= p.NearRadius {
		return fmt.Errorf("farRadius (%v) must be less than nearRadius (%v)", p.FarRadius, p.NearRadius)
	}
	if p.CenterMin >= p.CenterMax {
		return fmt.Errorf("centerMin (%v) must be less than centerMax (%v)", p.CenterMin, p.CenterMax)
	}
	for name, v := range map[string]float64{
		"leftSpeed":     p.LeftSpeed,
		"rightSpeed":    p.RightSpeed,
		"turnSpeed":     p.TurnSpeed,
		"approachScale": p.ApproachScale,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s (%v) must be within [0, 1]", name, v)
		}
	}
	return nil
}

// Decision is the outcome of one step.
type Decision struct {
	State   State         `json:"state"`
	Action  Action        `json:"action"`
	Command motor.Command `json:"command"`
}

func (d Decision) String() string {
	return fmt.Sprintf("%s/%s %s", d.State, d.Action, d.Command)
}

// Policy is the actuation state machine. It is not safe for concurrent use.
type Policy struct {
	params Params
	state  State
}

// New returns a Policy in the Searching state.
func New(params Params) *Policy {
	return &Policy{params: params, state: Searching}
}

// State returns the label of the last step.
func (p *Policy) State() State {
	return p.state
}

// Params returns the active parameters.
func (p *Policy) Params() Params {
	return p.params
}

// SetParams replaces the parameters. The next Step uses them.
func (p *Policy) SetParams(params Params) {
	p.params = params
}

// Step classifies target and returns the command to apply. A nil target
// means nothing was detected this tick.
func (p *Policy) Step(target *types.Target) Decision {
	d := p.decide(target)
	p.state = d.State
	return d
}

func (p *Policy) decide(target *types.Target) Decision {
	pp := p.params

	if target == nil || target.Radius < pp.FarRadius {
		return Decision{State: Searching, Action: ActionSpin, Command: p.spin()}
	}

	if target.Radius >= pp.NearRadius {
		return Decision{State: Pushing, Action: ActionPush, Command: motor.Command{
			Left:  pp.LeftSpeed,
			Right: pp.RightSpeed,
			Hold:  pp.PushHold,
		}}
	}

	switch {
	case target.X < pp.CenterMin:
		return Decision{State: Aligning, Action: ActionTurnLeft, Command: p.turn(-1)}
	case target.X > pp.CenterMax:
		return Decision{State: Aligning, Action: ActionTurnRight, Command: p.turn(1)}
	default:
		return Decision{State: Approaching, Action: ActionForward, Command: motor.Command{
			Left:  pp.LeftSpeed * pp.ApproachScale,
			Right: pp.RightSpeed * pp.ApproachScale,
		}}
	}
}

// spin rotates in place: left forward, right backward.
func (p *Policy) spin() motor.Command {
	return motor.Command{
		Left:          p.params.LeftSpeed,
		Right:         -p.params.RightSpeed,
		Hold:          p.params.SpinTime,
		StopAfterHold: true,
		Cooldown:      p.params.SpinCooldown,
	}
}

// turn is a short pivot burst. dir -1 turns left, +1 turns right.
func (p *Policy) turn(dir float64) motor.Command {
	s := p.params.TurnSpeed
	return motor.Command{
		Left:          dir * s * p.params.LeftSpeed,
		Right:         -dir * s * p.params.RightSpeed,
		Hold:          p.params.TurnTime,
		StopAfterHold: true,
		Cooldown:      p.params.TurnCooldown,
	}
}
