package daemon

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func fakeSystemctl(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	orig := systemctl
	systemctl = func(args ...string) error {
		calls = append(calls, args)
		return nil
	}
	t.Cleanup(func() { systemctl = orig })
	return &calls
}

func TestRenderUnit(t *testing.T) {
	u := renderUnit("/usr/local/bin/soccerbot", "/etc/soccerbot.json")
	if !strings.Contains(u, "ExecStart=/usr/local/bin/soccerbot daemon --config /etc/soccerbot.json\n") {
		t.Fatalf("unexpected unit:\n%s", u)
	}
	if strings.Contains(u, "/path/to/") {
		t.Fatalf("placeholders left in unit:\n%s", u)
	}
}

func TestInstallUninstall(t *testing.T) {
	calls := fakeSystemctl(t)

	orig := unitPath
	unitPath = filepath.Join(t.TempDir(), "system", "soccerbot.service")
	t.Cleanup(func() { unitPath = orig })

	if err := Install("/etc/soccerbot.json"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	b, err := os.ReadFile(unitPath)
	if err != nil {
		t.Fatalf("unit not written: %v", err)
	}
	if !strings.Contains(string(b), "--config /etc/soccerbot.json") {
		t.Fatalf("unit missing config path:\n%s", b)
	}

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if _, err := os.Stat(unitPath); !os.IsNotExist(err) {
		t.Fatalf("unit still present: %v", err)
	}

	want := [][]string{
		{"daemon-reload"},
		{"enable", "--now", "soccerbot.service"},
		{"disable", "--now", "soccerbot.service"},
		{"daemon-reload"},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Fatalf("systemctl calls = %v, want %v", *calls, want)
	}
}
