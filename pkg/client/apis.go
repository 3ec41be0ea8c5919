package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/ajcalinisan/roboticscamp2025/pkg/calibration"
	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

func getJSON[T any](c *Client, path, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}
	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

func sendJSON[T any](c *Client, method, path string, payload any, what string) (*T, error) {
	data := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = string(b)
	}
	ret, err := c.Send(method, path, data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to %s", what)
	}
	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal response to %s", what)
	}
	return &v, nil
}

func (c *Client) GetStatus() (*types.Status, error) {
	return getJSON[types.Status](c, "/status", "status")
}

func (c *Client) GetConfig() (map[string]any, error) {
	m, err := getJSON[map[string]any](c, "/config", "config")
	if err != nil {
		return nil, err
	}
	return *m, nil
}

func (c *Client) GetVersion() (string, error) {
	v, err := getJSON[string](c, "/version", "version")
	if err != nil {
		return "", err
	}
	return *v, nil
}

func (c *Client) GetDrive() (bool, error) {
	ret, err := c.Get("/drive")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get drive status")
	}
	return parseBoolResponse(ret)
}

func (c *Client) SetDrive(enabled bool) (string, error) {
	return c.Put("/drive", strconv.FormatBool(enabled))
}

func (c *Client) GetRange() (*types.RangeResponse, error) {
	return getJSON[types.RangeResponse](c, "/range", "color range")
}

func (c *Client) SetRange(r hsv.ColorRange) (*types.RangeResponse, error) {
	return sendJSON[types.RangeResponse](c, "PUT", "/range", r, "set color range")
}

func (c *Client) GetProfiles() ([]string, error) {
	names, err := getJSON[[]string](c, "/profiles", "profiles")
	if err != nil {
		return nil, err
	}
	return *names, nil
}

func (c *Client) GetCalibration() (*calibration.Status, error) {
	return getJSON[calibration.Status](c, "/calibration", "calibration status")
}

func (c *Client) ResetCalibration() (*calibration.Status, error) {
	return sendJSON[calibration.Status](c, "DELETE", "/calibration", nil, "reset calibration")
}

// SamplePixel samples the last frame at (x, y).
func (c *Client) SamplePixel(x, y int) (*types.SampleResponse, error) {
	return sendJSON[types.SampleResponse](c, "POST", "/calibration/sample", types.PixelRequest{X: x, Y: y}, "sample pixel")
}

// SampleHSV submits a raw HSV sample.
func (c *Client) SampleHSV(s hsv.Sample) (*types.SampleResponse, error) {
	return sendJSON[types.SampleResponse](c, "POST", "/calibration/sample-hsv", s, "submit sample")
}

// GetFrame returns the last frame as JPEG, or its color mask.
func (c *Client) GetFrame(mask bool) ([]byte, error) {
	path := "/frame"
	if mask {
		path += "?view=mask"
	}
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get frame")
	}
	return []byte(ret), nil
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
