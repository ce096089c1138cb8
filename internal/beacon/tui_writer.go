package beacon

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/term"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
	Quit()
}

type beaconMsg struct{ Beacon }

const (
	historyRows  = 10
	defaultWidth = 80
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// TUIWriter shows the beacons being broadcast in a terminal UI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// IsTerminal reports whether STDOUT can host the TUI.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the UI interrupts the current process so the broadcast shuts down cleanly.
func NewTUIWriter() *TUIWriter {
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(width, time.Now()), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements Writer.
func (w *TUIWriter) Write(b Beacon) error {
	w.program.Send(beaconMsg{b})
	return nil
}

// Close stops the UI without interrupting the process.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	w.program.Quit()
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	sessionID string
	started   time.Time
	width     int
	table     table.Model
	rows      []table.Row
	last      *Beacon
}

func newTUIModel(width int, started time.Time) tuiModel {
	cols := []table.Column{
		{Title: "Seq", Width: 8},
		{Title: "Time", Width: 12},
		{Title: "Lat", Width: 11},
		{Title: "Lon", Width: 11},
		{Title: "Alt", Width: 7},
		{Title: "Height", Width: 7},
		{Title: "Speed", Width: 6},
		{Title: "Course", Width: 6},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(historyRows+1))
	return tuiModel{started: started, width: width, table: t}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case beaconMsg:
		b := msg.Beacon
		m.last = &b
		m.sessionID = b.SessionID
		r := b.Record
		row := table.Row{
			humanize.Comma(int64(b.Seq)),
			b.Timestamp.Format("15:04:05.000"),
			fmt.Sprintf("%.5f", r.Position.Lat),
			fmt.Sprintf("%.5f", r.Position.Lon),
			fmt.Sprintf("%.1f", r.Altitude),
			fmt.Sprintf("%.1f", r.Height),
			fmt.Sprintf("%.1f", r.Speed),
			fmt.Sprintf("%.0f", r.Course),
		}
		m.rows = append([]table.Row{row}, m.rows...)
		if len(m.rows) > historyRows {
			m.rows = m.rows[:historyRows]
		}
		m.table.SetRows(m.rows)
	}
	return m, nil
}

func (m tuiModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("UAS Remote ID beacon"))
	if m.sessionID != "" {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render("session "))
		sb.WriteString(valueStyle.Render(m.sessionID))
	}
	sb.WriteString("\n\n")

	if m.last == nil {
		sb.WriteString(hintStyle.Render("waiting for first beacon..."))
		sb.WriteString("\n")
		return sb.String()
	}

	b := m.last
	r := b.Record
	field := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}
	summary := strings.Join([]string{
		field("sent", humanize.Comma(int64(b.Seq))) + "   " + field("started", humanize.Time(m.started)),
		field("position", fmt.Sprintf("%.5f, %.5f", r.Position.Lat, r.Position.Lon)) + "   " + field("home", fmt.Sprintf("%.5f, %.5f", r.Home.Lat, r.Home.Lon)),
		field("altitude", fmt.Sprintf("%.1f m", r.Altitude)) + "   " + field("height", fmt.Sprintf("%.1f m", r.Height)),
		field("speed", fmt.Sprintf("%.1f m/s", r.Speed)) + "   " + field("course", fmt.Sprintf("%.0f°", r.Course)),
		field("element", humanize.Bytes(uint64(len(b.Element)/2))),
	}, "\n")

	inner := m.width - 4
	if inner < 20 {
		inner = 20
	}
	sb.WriteString(boxStyle.Render(summary + "\n" + wrap.String(b.Element, inner)))
	sb.WriteString("\n")
	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("q to quit"))
	sb.WriteString("\n")
	return sb.String()
}
