package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/twolayer/internal/config"
	"github.com/san-kum/twolayer/internal/experiment"
	"github.com/san-kum/twolayer/internal/models"
	"github.com/san-kum/twolayer/internal/sim"
	"github.com/san-kum/twolayer/internal/viz"
	"github.com/sirupsen/logrus"
)

const (
	tickInterval = 50 * time.Millisecond
	maxSpeed     = 64
	barWidth     = 40
)

type state int

const (
	stateMenu state = iota
	stateSim
)

type entry struct {
	model  string
	preset string
}

// model is the bubbletea model of the live view. Each tick advances the
// simulation by speed calls to Step.
type model struct {
	state   state
	cursor  int
	entries []entry

	reg *experiment.Registry
	log logrus.FieldLogger

	cfg    *config.Config
	exp    *experiment.Experiment
	err    error
	paused bool
	speed  int

	width  int
	height int
}

// NewLiveApp returns the live view. With a nil cfg it opens on a menu of
// the presets; otherwise it starts stepping cfg.
func NewLiveApp(reg *experiment.Registry, cfg *config.Config, log logrus.FieldLogger) tea.Model {
	m := model{
		reg:    reg,
		log:    log,
		speed:  1,
		width:  80,
		height: 24,
	}
	for _, name := range []string{models.NameTwoLayer, models.NameImpulseResponse} {
		for _, p := range config.ListPresets(name) {
			m.entries = append(m.entries, entry{model: name, preset: p})
		}
	}
	if cfg != nil {
		m.start(cfg)
	}
	return m
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if !m.paused && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		e := m.entries[m.cursor]
		m.start(config.GetPreset(e.model, e.preset))
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
		m.exp = nil
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start(m.cfg)
	case "s":
		if m.err == nil {
			m.step()
		}
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "t":
		names := viz.ThemeNames()
		for i, n := range names {
			if n == viz.CurrentTheme.Name {
				viz.SetTheme(names[(i+1)%len(names)])
				break
			}
		}
	}
	return m, nil
}

func (m *model) start(cfg *config.Config) {
	m.cfg = cfg
	m.state = stateSim
	m.paused = false
	m.err = nil

	m.exp = experiment.New(cfg)
	m.exp.SetLogger(m.log)
	if err := m.exp.Setup(m.reg); err != nil {
		m.err = err
		return
	}
	m.err = m.exp.Bind()
}

func (m *model) advance() {
	for i := 0; i < m.speed && !m.done(); i++ {
		m.step()
	}
}

func (m *model) step() {
	if m.done() {
		m.paused = true
		return
	}
	if err := m.exp.Model().Step(); err != nil {
		m.err = err
	}
}

func (m model) done() bool {
	return m.exp == nil || m.exp.Model() == nil || m.exp.Model().Phase() == sim.PhaseComplete
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n  " + viz.Title.Render("twolayer") + viz.Subtle.Render("  live energy balance") + "\n\n")
	for i, e := range m.entries {
		cursor := "  "
		line := fmt.Sprintf("%-18s %s", e.model, e.preset)
		if i == m.cursor {
			cursor = viz.Title.Render("> ")
			line = viz.MetricValue.Render(line)
		}
		b.WriteString("  " + cursor + line + "\n")
	}
	b.WriteString("\n  " + viz.KeyHint.Render("↑/↓ select · enter run · q quit") + "\n")
	return b.String()
}

func (m model) viewSim() string {
	var b strings.Builder
	b.WriteString("\n  " + viz.Title.Render(m.cfg.Model) + viz.Subtle.Render("  "+m.cfg.Forcing.Scenario) + "\n\n")

	if m.err != nil {
		b.WriteString("  " + viz.StatusPaused.Render("error: "+m.err.Error()) + "\n")
		b.WriteString("\n  " + viz.KeyHint.Render("r restart · q menu") + "\n")
		return b.String()
	}

	res, err := m.exp.Result()
	if err != nil {
		return b.String() + "  " + err.Error() + "\n"
	}
	idx, ok := m.exp.Model().Index()

	status := viz.StatusRunning.Render("running")
	switch {
	case m.done():
		status = viz.StatusDone.Render("complete")
	case m.paused:
		status = viz.StatusPaused.Render("paused")
	}
	frac := 0.0
	if ok {
		frac = float64(idx+1) / float64(res.Len())
	}
	b.WriteString(fmt.Sprintf("  %s  %s  x%d\n\n", status, viz.ProgressBar(frac, barWidth), m.speed))

	if ok {
		b.WriteString(fmt.Sprintf("  %s %s   %s %s   %s %s   %s %s\n",
			viz.MetricLabel.Render("year"), viz.MetricValue.Render(fmt.Sprintf("%.0f", res.Times.Magnitudes[idx])),
			viz.MetricLabel.Render("upper"), viz.MetricValue.Render(fmt.Sprintf("%.3f", res.Upper.Magnitudes[idx])),
			viz.MetricLabel.Render("deep"), viz.MetricValue.Render(fmt.Sprintf("%.3f", res.Deep.Magnitudes[idx])),
			viz.MetricLabel.Render("rndt"), viz.MetricValue.Render(fmt.Sprintf("%.3f", res.Rndt.Magnitudes[idx])),
		))
		b.WriteString("  " + viz.Sparkline(res.Upper.Magnitudes, barWidth) + "\n\n")

		opts := viz.PlotOptions{Width: max(m.width-20, 20), Height: max(m.height/3, 5)}
		plot := viz.PlotLayers(res.Upper, res.Deep, opts)
		b.WriteString(indent(plot) + "\n\n")
		b.WriteString(indent(viz.Panel.Render(viz.MetricTable(finite(res.Metrics)))) + "\n")
	}

	b.WriteString("\n  " + viz.KeyHint.Render("space pause · s step · +/- speed · r reset · t theme · q menu") + "\n")
	return b.String()
}

func finite(ms map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for k, v := range ms {
		if !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
