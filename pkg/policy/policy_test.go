package policy

import (
	"math"
	"testing"
	"time"

	"github.com/ajcalinisan/roboticscamp2025/pkg/motor"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func sameCommand(a, b motor.Command) bool {
	return approx(a.Left, b.Left) && approx(a.Right, b.Right) &&
		a.Hold == b.Hold && a.StopAfterHold == b.StopAfterHold && a.Cooldown == b.Cooldown
}

func TestPolicy_Step(t *testing.T) {
	tests := []struct {
		name       string
		target     *types.Target
		wantState  State
		wantAction Action
		wantCmd    motor.Command
	}{
		{
			name:       "no target",
			target:     nil,
			wantState:  Searching,
			wantAction: ActionSpin,
			wantCmd:    motor.Command{Left: 0.7, Right: -1, Hold: 90 * time.Millisecond, StopAfterHold: true, Cooldown: 300 * time.Millisecond},
		},
		{
			name:       "too far",
			target:     &types.Target{X: 320, Y: 240, Radius: 5},
			wantState:  Searching,
			wantAction: ActionSpin,
			wantCmd:    motor.Command{Left: 0.7, Right: -1, Hold: 90 * time.Millisecond, StopAfterHold: true, Cooldown: 300 * time.Millisecond},
		},
		{
			name:       "left of band",
			target:     &types.Target{X: 100, Y: 240, Radius: 20},
			wantState:  Aligning,
			wantAction: ActionTurnLeft,
			wantCmd:    motor.Command{Left: -0.28, Right: 0.4, Hold: 100 * time.Millisecond, StopAfterHold: true, Cooldown: 50 * time.Millisecond},
		},
		{
			name:       "right of band",
			target:     &types.Target{X: 500, Y: 240, Radius: 20},
			wantState:  Aligning,
			wantAction: ActionTurnRight,
			wantCmd:    motor.Command{Left: 0.28, Right: -0.4, Hold: 100 * time.Millisecond, StopAfterHold: true, Cooldown: 50 * time.Millisecond},
		},
		{
			name:       "centered",
			target:     &types.Target{X: 300, Y: 240, Radius: 20},
			wantState:  Approaching,
			wantAction: ActionForward,
			wantCmd:    motor.Command{Left: 0.56, Right: 0.8},
		},
		{
			name:       "band edges are inclusive",
			target:     &types.Target{X: 240, Y: 0, Radius: 10},
			wantState:  Approaching,
			wantAction: ActionForward,
			wantCmd:    motor.Command{Left: 0.56, Right: 0.8},
		},
		{
			name:       "close",
			target:     &types.Target{X: 320, Y: 240, Radius: 50},
			wantState:  Pushing,
			wantAction: ActionPush,
			wantCmd:    motor.Command{Left: 0.7, Right: 1, Hold: 2 * time.Second},
		},
		{
			name:       "near radius boundary pushes",
			target:     &types.Target{X: 10, Y: 240, Radius: 40},
			wantState:  Pushing,
			wantAction: ActionPush,
			wantCmd:    motor.Command{Left: 0.7, Right: 1, Hold: 2 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(DefaultParams())
			d := p.Step(tt.target)
			if d.State != tt.wantState || d.Action != tt.wantAction {
				t.Errorf("Step() = %s/%s, want %s/%s", d.State, d.Action, tt.wantState, tt.wantAction)
			}
			if !sameCommand(d.Command, tt.wantCmd) {
				t.Errorf("Step() command = %s, want %s", d.Command, tt.wantCmd)
			}
			if p.State() != tt.wantState {
				t.Errorf("State() = %s, want %s", p.State(), tt.wantState)
			}
		})
	}
}

func TestPolicy_Deterministic(t *testing.T) {
	targets := []*types.Target{
		nil,
		{X: 100, Y: 240, Radius: 20},
		{X: 320, Y: 240, Radius: 50},
		{X: 300, Y: 240, Radius: 20},
	}

	p := New(DefaultParams())
	first := make([]Decision, len(targets))
	for i, tg := range targets {
		first[i] = p.Step(tg)
	}
	// Replaying in reverse order must not change any decision.
	for i := len(targets) - 1; i >= 0; i-- {
		if got := p.Step(targets[i]); got != first[i] {
			t.Errorf("target %d: got %s, first run %s", i, got, first[i])
		}
	}
}

func TestPolicy_InitialState(t *testing.T) {
	if got := New(DefaultParams()).State(); got != Searching {
		t.Fatalf("initial state = %s, want %s", got, Searching)
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	bad := DefaultParams()
	bad.FarRadius = 50
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for farRadius >= nearRadius")
	}

	bad = DefaultParams()
	bad.CenterMin, bad.CenterMax = 400, 240
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for inverted center band")
	}

	bad = DefaultParams()
	bad.TurnSpeed = 1.5
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for turnSpeed > 1")
	}
}
