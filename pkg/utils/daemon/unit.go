package daemon

import (
	"strings"
)

var unitPath = "/etc/systemd/system/soccerbot.service"

const unitTemplate = `[Unit]
Description=soccerbot visual-servoing daemon
After=network.target

[Service]
Type=simple
ExecStart=/path/to/soccerbot daemon --config /path/to/config
Restart=on-failure
RestartSec=2
KillSignal=SIGTERM
TimeoutStopSec=10

[Install]
WantedBy=multi-user.target
`

func renderUnit(exePath, configPath string) string {
	return strings.NewReplacer(
		"/path/to/soccerbot", exePath,
		"/path/to/config", configPath,
	).Replace(unitTemplate)
}
