package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ajcalinisan/roboticscamp2025/pkg/events"
	"github.com/ajcalinisan/roboticscamp2025/pkg/policy"
	"github.com/ajcalinisan/roboticscamp2025/pkg/types"
)

const maxWatchLog = 12

var (
	styleTitle = lipgloss.NewStyle().
			Background(lipgloss.Color("#002200")).
			Foreground(lipgloss.Color("#00FF41")).
			Bold(true).
			Padding(0, 1)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00AA22")).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#008F11"))
	styleValue = lipgloss.NewStyle().Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3300"))

	stateColors = map[policy.State]lipgloss.Color{
		policy.Searching:   lipgloss.Color("#FFAA00"),
		policy.Aligning:    lipgloss.Color("#00FFAA"),
		policy.Approaching: lipgloss.Color("#33FF66"),
		policy.Pushing:     lipgloss.Color("#00FF41"),
	}
)

type statusMsg struct {
	status *types.Status
	err    error
}

type eventMsg events.Event

type pollMsg time.Time

type watchModel struct {
	interval time.Duration
	width    int

	status *types.Status
	err    error
	log    []string
}

func newWatchModel(interval time.Duration) watchModel {
	return watchModel{interval: interval}
}

func fetchStatusCmd() tea.Msg {
	st, err := apiClient.GetStatus()
	return statusMsg{status: st, err: err}
}

func (m watchModel) pollCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return fetchStatusCmd
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			return m, tea.Quit
		case "d":
			if m.status != nil {
				enable := !m.status.DriveEnabled
				return m, func() tea.Msg {
					if _, err := apiClient.SetDrive(enable); err != nil {
						return statusMsg{err: err}
					}
					return fetchStatusCmd()
				}
			}
		}
		return m, nil

	case pollMsg:
		return m, fetchStatusCmd

	case statusMsg:
		m.err = msg.err
		if msg.status != nil {
			m.status = msg.status
		}
		return m, m.pollCmd()

	case eventMsg:
		m.log = append(m.log, describeEvent(events.Event(msg)))
		if len(m.log) > maxWatchLog {
			m.log = m.log[len(m.log)-maxWatchLog:]
		}
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("soccerbot watch") + "  " + styleLabel.Render("[d] toggle drive  [q] quit") + "\n")

	if m.err != nil {
		b.WriteString(styleError.Render(m.err.Error()) + "\n")
	}
	if m.status == nil {
		b.WriteString("Waiting for daemon...\n")
		return b.String()
	}

	st := m.status
	stateStyle := styleValue.Foreground(stateColors[policy.State(st.State)])

	target := styleWarn.Render("not visible")
	if st.Target != nil {
		target = styleValue.Render(st.Target.String())
	}
	drive := styleValue.Render("enabled")
	if !st.DriveEnabled {
		drive = styleWarn.Render("disabled")
	}

	rows := []string{
		row("State", stateStyle.Render(st.State)),
		row("Action", styleValue.Render(st.Action)),
		row("Wheels", styleValue.Render(fmt.Sprintf("L %+.2f  R %+.2f", st.Left, st.Right))),
		row("Ball", target),
		row("Drive", drive),
		row("Profile", styleValue.Render(st.Profile)),
		row("Range", styleValue.Render(st.Range.String())),
		row("Calibration", styleValue.Render(fmt.Sprintf("%d/%d samples", st.Calibration.Collected, st.Calibration.Required))),
		row("Loop", styleValue.Render(fmt.Sprintf("%.1f ticks/s", st.TicksPerSec))),
	}
	panel := stylePanel.Render(strings.Join(rows, "\n"))

	logPanel := stylePanel.Render(styleLabel.Render("Events") + "\n" + strings.Join(m.log, "\n"))

	if m.width > 0 && m.width < lipgloss.Width(panel)+lipgloss.Width(logPanel) {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, panel, logPanel))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panel, logPanel))
	}
	b.WriteString("\n")
	return b.String()
}

func row(label, value string) string {
	return styleLabel.Width(12).Render(label) + value
}

func describeEvent(ev events.Event) string {
	ts := time.Now().Format(time.TimeOnly)
	switch ev.Name {
	case events.ControllerState:
		e, err := events.DecodeAs[events.ControllerStateEvent](ev)
		if err != nil {
			break
		}
		return fmt.Sprintf("%s %s -> %s (%s)", ts, e.From, e.To, e.Action)
	case events.CalibrationSample:
		e, err := events.DecodeAs[events.CalibrationSampleEvent](ev)
		if err != nil {
			break
		}
		return fmt.Sprintf("%s sample %s %d/%d", ts, e.Sample, e.Collected, e.Required)
	case events.CalibrationComplete:
		e, err := events.DecodeAs[events.CalibrationCompleteEvent](ev)
		if err != nil {
			break
		}
		if !e.Saved {
			return fmt.Sprintf("%s calibrated %s (not saved: %s)", ts, e.Range, e.SaveError)
		}
		return fmt.Sprintf("%s calibrated %s", ts, e.Range)
	}
	return fmt.Sprintf("%s %s", ts, ev.Name)
}

func NewWatchCommand() *cobra.Command {
	interval := 500 * time.Millisecond

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Live view of the controller",
		GroupID: gBasic,
		Long:    `Show controller state, detection and calibration events as they happen.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			p := tea.NewProgram(newWatchModel(interval), tea.WithAltScreen())

			ch, err := apiClient.Events(ctx)
			if err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}
			go func() {
				for ev := range ch {
					p.Send(eventMsg(ev))
				}
			}()

			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", interval, "status refresh interval")

	return cmd
}
