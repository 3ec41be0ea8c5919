// Package profile persists calibrated color ranges by profile name.
//
// The store is a single JSON object mapping profile names to records:
//
//	{"red": {"lower": [172,130,50], "upper": [178,247,255], "clickedCenter": [175,190,200]}}
//
// Records that fail validation are reported as ErrInvalidProfile and must
// be treated by callers as absent.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
)

var (
	// ErrNotFound means the store has no record for the profile.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfile means the stored record is malformed or out of range.
	ErrInvalidProfile = errors.New("invalid persisted profile")
)

// Profile is one named calibration.
type Profile struct {
	Name          string         `json:"name"`
	Range         hsv.ColorRange `json:"range"`
	ClickedCenter *hsv.Sample    `json:"clickedCenter,omitempty"`
}

// Store loads and saves profiles.
type Store interface {
	Load(name string) (*Profile, error)
	Save(name string, r hsv.ColorRange, clickedCenter *hsv.Sample) error
}

// record is the on-disk shape of a profile. clicked_hsv is the legacy
// spelling of clickedCenter and is only read.
type record struct {
	Lower         json.RawMessage `json:"lower"`
	Upper         json.RawMessage `json:"upper"`
	ClickedCenter json.RawMessage `json:"clickedCenter,omitempty"`
	ClickedHSV    json.RawMessage `json:"clicked_hsv,omitempty"`
}

var _ Store = &File{}

// File is a Store backed by a JSON file.
type File struct {
	mu       sync.Mutex
	filepath string
}

func NewFile(path string) *File {
	return &File{filepath: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) Load(name string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}

	raw, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	p, err := parseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidProfile, name, err)
	}
	p.Name = name
	return p, nil
}

// Names lists the profiles in the store, valid or not.
func (f *File) Names() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// Save replaces the record for name and keeps every other record as is.
// The file is written to a temporary file and renamed into place.
func (f *File) Save(name string, r hsv.ColorRange, clickedCenter *hsv.Sample) error {
	if err := r.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "refusing to save invalid range for profile %q", name)
	}
	if clickedCenter != nil {
		if err := clickedCenter.Validate(); err != nil {
			return pkgerrors.Wrapf(err, "refusing to save invalid center for profile %q", name)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		// An unreadable store is moved aside and replaced rather than
		// blocking calibration.
		backup := f.filepath + ".bak"
		if err := os.Rename(f.filepath, backup); err != nil {
			return pkgerrors.Wrapf(err, "profile store %s is unreadable and could not be moved aside", f.filepath)
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":   f.filepath,
			"backup": backup,
		}).Warn("profile store unreadable, moved aside and starting a new one")
		all = map[string]json.RawMessage{}
	}

	rec := map[string][3]int{
		"lower": r.Lower.Triplet(),
		"upper": r.Upper.Triplet(),
	}
	if clickedCenter != nil {
		rec["clickedCenter"] = clickedCenter.Triplet()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal profile %q", name)
	}
	all[name] = b

	out, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal profile store")
	}
	out = append(out, '\n')

	if err := writeFileAtomic(f.filepath, out, 0644); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"profile": name,
		"range":   r.String(),
		"path":    f.filepath,
	}).Info("profile saved")
	return nil
}

// readAll returns every raw record. A missing or empty file is an empty
// store.
func (f *File) readAll() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read profile store %s", f.filepath)
	}
	if strings.TrimSpace(string(b)) == "" {
		return map[string]json.RawMessage{}, nil
	}

	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("%w: store %s is not a JSON object: %v", ErrInvalidProfile, f.filepath, err)
	}
	return all, nil
}

func parseRecord(raw json.RawMessage) (*Profile, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("record is not an object: %v", err)
	}
	if rec.Lower == nil || rec.Upper == nil {
		return nil, errors.New("record needs both lower and upper")
	}

	lower, err := parseTriplet(rec.Lower)
	if err != nil {
		return nil, fmt.Errorf("lower: %v", err)
	}
	upper, err := parseTriplet(rec.Upper)
	if err != nil {
		return nil, fmt.Errorf("upper: %v", err)
	}
	r, err := hsv.NewColorRange(lower, upper)
	if err != nil {
		return nil, err
	}

	p := &Profile{Range: r}

	center := rec.ClickedCenter
	if isNull(center) {
		center = rec.ClickedHSV
	}
	if !isNull(center) {
		// The center is informational; a bad one does not cost the range.
		c, err := parseTriplet(center)
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			logrus.WithError(err).WithField("clickedCenter", string(center)).Warn("ignoring invalid clickedCenter")
		} else {
			p.ClickedCenter = &c
		}
	}

	return p, nil
}

// parseTriplet decodes [h, s, v]. Every element must be a JSON integer;
// strings and fractional numbers are rejected.
func parseTriplet(raw json.RawMessage) (hsv.Sample, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return hsv.Sample{}, fmt.Errorf("not an array: %v", err)
	}
	if len(elems) != 3 {
		return hsv.Sample{}, fmt.Errorf("want 3 elements, got %d", len(elems))
	}

	var t [3]int
	for i, e := range elems {
		if err := json.Unmarshal(e, &t[i]); err != nil {
			return hsv.Sample{}, fmt.Errorf("element %d is not an integer: %s", i, string(e))
		}
	}
	return hsv.SampleFromTriplet(t), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to chmod %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
