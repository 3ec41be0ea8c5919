package daemon

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ajcalinisan/roboticscamp2025/pkg/hsv"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
	"github.com/ajcalinisan/roboticscamp2025/pkg/version"
	"github.com/ajcalinisan/roboticscamp2025/pkg/vision"
)

// sseKeepAlive is the interval of ping events on idle streams.
var sseKeepAlive = 15 * time.Second

func getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.Status())
}

func getConfig(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.LogrusFields())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func getDrive(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.DriveEnabled())
}

func setDrive(c *gin.Context) {
	var enabled bool
	if err := c.BindJSON(&enabled); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := ctrl.SetDriveEnabled(enabled); err != nil {
		logrus.Errorf("SetDriveEnabled failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	conf.SetDriveEnabled(enabled)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set drive enabled to %t", enabled)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getRange(c *gin.Context) {
	name, r := ctrl.Range()
	c.IndentedJSON(http.StatusOK, types.RangeResponse{Profile: name, Range: r, Wraps: r.Wraps()})
}

func setRange(c *gin.Context) {
	var r hsv.ColorRange
	if err := c.BindJSON(&r); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	resp, err := ctrl.SetRange(r)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, resp)
}

func getProfiles(c *gin.Context) {
	names, err := store.Names()
	if err != nil {
		logrus.Errorf("list profiles failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, names)
}

func getCalibration(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.CalibrationStatus())
}

func resetCalibration(c *gin.Context) {
	ctrl.ResetCalibration()
	c.IndentedJSON(http.StatusOK, ctrl.CalibrationStatus())
}

func postCalibrationSample(c *gin.Context) {
	var p types.PixelRequest
	if err := c.BindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	resp, err := ctrl.SamplePixel(p.X, p.Y)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrNoFrame) {
			code = http.StatusServiceUnavailable
		} else if !errors.Is(err, vision.ErrOutOfBounds) {
			code = http.StatusInternalServerError
		}
		abort(c, code, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, resp)
}

func postCalibrationSampleHSV(c *gin.Context) {
	var s hsv.Sample
	if err := c.BindJSON(&s); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	resp, err := ctrl.AddSample(s)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, resp)
}

func getFrame(c *gin.Context) {
	b, err := ctrl.SnapshotJPEG(c.Query("view") == "mask")
	if err != nil {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", b)
}

func streamEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
