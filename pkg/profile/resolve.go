package profile

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

// Resolve loads name from s and falls back to def when the profile is
// missing or invalid. Load failures are logged, never returned.
func Resolve(s Store, name string, def hsv.ColorRange) (hsv.ColorRange, *hsv.Sample, bool) {
	p, err := s.Load(name)
	if err == nil {
		return p.Range, p.ClickedCenter, true
	}

	l := logrus.WithError(err).WithFields(logrus.Fields{
		"profile":  name,
		"fallback": def.String(),
	})
	switch {
	case errors.Is(err, ErrNotFound):
		l.Info("no stored profile, using default range")
	case errors.Is(err, ErrInvalidProfile):
		l.Warn("stored profile is invalid, using default range")
	default:
		l.Error("failed to load profile, using default range")
	}
	return def, nil, false
}
