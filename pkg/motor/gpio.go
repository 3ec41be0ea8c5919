package motor

import (
	"fmt"
	"math"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// GPIOConfig names the BCM pins of the two H-bridge channels.
type GPIOConfig struct {
	LeftForward   int
	LeftBackward  int
	RightForward  int
	RightBackward int
	PWMFrequency  physic.Frequency
}

// hbridge is one wheel: a forward and a backward input.
type hbridge struct {
	forward  gpio.PinIO
	backward gpio.PinIO
}

// GPIO drives two DC motors through an H-bridge wired to the host GPIO
// header. Speed is applied as PWM duty on the active direction pin.
type GPIO struct {
	mu     sync.Mutex
	wheels map[Side]hbridge
	freq   physic.Frequency
}

var _ Driver = &GPIO{}

// OpenGPIO initializes the host drivers and claims the configured pins.
// The motors are stopped before it returns.
func OpenGPIO(cfg GPIOConfig) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to initialize host gpio drivers")
	}

	pin := func(n int) (gpio.PinIO, error) {
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
		if p == nil {
			return nil, pkgerrors.Errorf("gpio pin %d not found", n)
		}
		return p, nil
	}

	var pins [4]gpio.PinIO
	for i, n := range []int{cfg.LeftForward, cfg.LeftBackward, cfg.RightForward, cfg.RightBackward} {
		p, err := pin(n)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}

	freq := cfg.PWMFrequency
	if freq <= 0 {
		freq = 100 * physic.Hertz
	}

	g := &GPIO{
		wheels: map[Side]hbridge{
			Left:  {forward: pins[0], backward: pins[1]},
			Right: {forward: pins[2], backward: pins[3]},
		},
		freq: freq,
	}

	logrus.WithFields(logrus.Fields{
		"leftForward":   cfg.LeftForward,
		"leftBackward":  cfg.LeftBackward,
		"rightForward":  cfg.RightForward,
		"rightBackward": cfg.RightBackward,
		"pwmFrequency":  freq.String(),
	}).Info("gpio motor driver opened")

	return g, g.Stop()
}

func (g *GPIO) SetVelocity(side Side, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.wheels[side]
	if !ok {
		return pkgerrors.Errorf("unknown motor side %q", side)
	}

	value = ClampVelocity(value)
	logrus.WithFields(logrus.Fields{"side": side, "value": value}).Trace("SetVelocity called")

	switch {
	case value > 0:
		if err := w.backward.Out(gpio.Low); err != nil {
			return pkgerrors.Wrapf(err, "failed to release %s backward pin", side)
		}
		return g.drive(w.forward, value)
	case value < 0:
		if err := w.forward.Out(gpio.Low); err != nil {
			return pkgerrors.Wrapf(err, "failed to release %s forward pin", side)
		}
		return g.drive(w.backward, -value)
	default:
		return stopWheel(w)
	}
}

func (g *GPIO) drive(p gpio.PinIO, speed float64) error {
	if speed >= 1 {
		return p.Out(gpio.High)
	}
	duty := gpio.Duty(math.Round(speed * float64(gpio.DutyMax)))
	if err := p.PWM(duty, g.freq); err != nil {
		return pkgerrors.Wrapf(err, "failed to set pwm on %s", p.Name())
	}
	return nil
}

func (g *GPIO) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	logrus.Trace("Stop called")

	var firstErr error
	for side, w := range g.wheels {
		if err := stopWheel(w); err != nil && firstErr == nil {
			firstErr = pkgerrors.Wrapf(err, "failed to stop %s motor", side)
		}
	}
	return firstErr
}

func (g *GPIO) Close() error {
	err := g.Stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range g.wheels {
		_ = w.forward.Halt()
		_ = w.backward.Halt()
	}
	return err
}

func stopWheel(w hbridge) error {
	if err := w.forward.Out(gpio.Low); err != nil {
		return err
	}
	return w.backward.Out(gpio.Low)
}
