package viz

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/metrics"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/storage"
)

const (
	defaultCols   = 80
	defaultRows   = 24
	panelWidth    = 36
	cursorStep    = 10.0
	cursorJump    = 40.0
	pickSlack     = 8.0
	soupSize      = 24
	gravityOn     = 0.5
	recordingFile = "molsim.gif"
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(0, 1)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(panelWidth)
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

// tunable lists the parameters the , . - + keys step through, with the
// additive step for each.
var tunable = []struct {
	name string
	step float64
}{
	{"gravity", 0.1},
	{"friction", 0.01},
	{"repulsion", 250},
	{"bond_stiffness", 0.05},
	{"temperature", 5},
	{"time_step", 0.25},
}

// TickMsg drives the simulation clock.
type TickMsg time.Time

// Options wires the live view to the rest of the program. Only the session
// is required.
type Options struct {
	Registry *presets.Registry
	History  *metrics.History
	Autosave *storage.Autosaver
	Store    *storage.Store
	Log      logging.Logger
	FPS      int
	Seed     int64
	RunName  string
}

// Model is the interactive simulation view. It owns the session: every
// mutation happens inside Update, on the bubbletea goroutine.
type Model struct {
	session  *sim.Session
	sched    *sim.Scheduler
	registry *presets.Registry
	history  *metrics.History
	autosave *storage.Autosaver
	store    *storage.Store
	log      logging.Logger
	rng      *rand.Rand
	interval time.Duration
	runName  string

	scene    *Scene
	cursor   dynamo.Vec2
	element  int
	param    int
	lastTick time.Time
	status   string
	recorder *Recorder
	showHelp bool
	quitting bool
}

// NewModel builds the live view over s.
func NewModel(s *sim.Session, opts Options) Model {
	if opts.Registry == nil {
		opts.Registry = presets.NewRegistry()
	}
	if opts.History == nil {
		opts.History = metrics.NewHistory(600)
		s.Engine().AddObserver(opts.History)
	}
	if opts.Log == nil {
		opts.Log = logging.Discard
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.RunName == "" {
		opts.RunName = "session"
	}
	if opts.Autosave != nil {
		as, e := opts.Autosave, s.Engine()
		s.OnChange(func() { as.Save(e.World(), e.Params()) })
	}

	b := s.Engine().Bounds()
	return Model{
		session:  s,
		sched:    sim.NewScheduler(s.Engine()),
		registry: opts.Registry,
		history:  opts.History,
		autosave: opts.Autosave,
		store:    opts.Store,
		log:      opts.Log,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		interval: time.Second / time.Duration(opts.FPS),
		runName:  opts.RunName,
		scene:    NewScene(defaultCols, defaultRows),
		cursor:   dynamo.Vec2{X: b.Width / 2, Y: b.Height / 2},
		element:  chem.Carbon,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		now := time.Time(msg)
		elapsed := m.interval
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick)
		}
		m.lastTick = now
		m.sched.Advance(elapsed)
		if m.recorder != nil {
			m.scene.Draw(m.session.Engine().Frame())
			m.recorder.Capture(m.scene.Canvas())
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	cols := w - panelWidth - 6
	rows := h - 2
	if cols < 20 {
		cols = 20
	}
	if rows < 8 {
		rows = 8
	}
	m.scene.Resize(cols, rows)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.session.Engine()
	m.status = ""
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.session.EndDrag()
		if m.autosave != nil {
			m.autosave.Save(e.World(), e.Params())
		}
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp

	case "up", "k":
		m.moveCursor(0, -cursorStep)
	case "down", "j":
		m.moveCursor(0, cursorStep)
	case "left", "h":
		m.moveCursor(-cursorStep, 0)
	case "right", "l":
		m.moveCursor(cursorStep, 0)
	case "K":
		m.moveCursor(0, -cursorJump)
	case "J":
		m.moveCursor(0, cursorJump)
	case "H":
		m.moveCursor(-cursorJump, 0)
	case "L":
		m.moveCursor(cursorJump, 0)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.element = int(key[0] - '1')
	case "0":
		m.element = 9
	case "e":
		m.element = (m.element + 1) % chem.NumElements
	case "E":
		m.element = (m.element + chem.NumElements - 1) % chem.NumElements

	case "a", "enter":
		if _, err := m.session.Spawn(m.cursor.X, m.cursor.Y, m.element); err != nil {
			m.status = err.Error()
		}
	case "d":
		if m.session.Dragging() != "" {
			m.session.EndDrag()
		} else if id, ok := m.hover(); ok {
			m.session.BeginDrag(id)
		}
	case "b":
		if id, ok := m.hover(); ok {
			m.status = m.link(id)
		}
	case "esc":
		m.session.CancelLink()
		m.session.EndDrag()
	case "x", "delete", "backspace":
		if id, ok := m.hover(); ok {
			m.session.Delete(id)
		}
	case "X":
		m.session.ClearAll()
	case "c":
		if id, ok := m.hover(); ok {
			m.session.CycleElement(id, 1)
		}
	case "C":
		if id, ok := m.hover(); ok {
			m.session.CycleElement(id, -1)
		}
	case "tab", "i":
		if id, ok := m.hover(); ok {
			m.session.Select(id)
		} else {
			m.session.Select("")
		}

	case " ":
		m.session.TogglePause()
	case "g":
		p := e.Params()
		if p.Gravity > 0 {
			p.Gravity = 0
		} else {
			p.Gravity = gravityOn
		}
		m.setParams(p)
	case "v":
		p := e.Params()
		p.Electrostatics = !p.Electrostatics
		m.setParams(p)
	case ",":
		m.param = (m.param + len(tunable) - 1) % len(tunable)
	case ".":
		m.param = (m.param + 1) % len(tunable)
	case "+", "=":
		m.adjustParam(1)
	case "-", "_":
		m.adjustParam(-1)

	case "p":
		m.placeRandom()
	case "n":
		m.placeSoup()
	case "s":
		m.saveRun()
	case "r":
		m.toggleRecording()
	case "t":
		SetTheme(NextTheme(CurrentTheme).Name)
	}
	return m, nil
}

func (m *Model) moveCursor(dx, dy float64) {
	b := m.session.Engine().Bounds()
	m.cursor.X = clamp(m.cursor.X+dx, 0, b.Width)
	m.cursor.Y = clamp(m.cursor.Y+dy, 0, b.Height)
	if m.session.Dragging() != "" {
		m.session.UpdateDrag(m.cursor.X, m.cursor.Y)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hover returns the atom under the cursor. While a drag is in progress the
// dragged atom is always the target.
func (m Model) hover() (dynamo.AtomID, bool) {
	if d := m.session.Dragging(); d != "" {
		return d, true
	}
	return m.session.Engine().World().AtomAt(m.cursor.X, m.cursor.Y, pickSlack)
}

func (m Model) link(id dynamo.AtomID) string {
	first := m.session.Pending()
	res := m.session.LinkPick(id)
	switch {
	case first == "":
		return "link: pick a second atom"
	case first == id:
		return "link cancelled"
	case res == dynamo.LinkUnchanged:
		return "link blocked by valency"
	default:
		return "bond " + res.String()
	}
}

func (m *Model) setParams(p dynamo.Params) {
	if err := m.session.SetParams(p); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) adjustParam(dir float64) {
	t := tunable[m.param]
	p := m.session.Engine().Params()
	val := math.Round((p.GetParams()[t.name]+dir*t.step)*1e6) / 1e6
	if err := p.SetParam(t.name, val); err != nil {
		m.status = err.Error()
		return
	}
	m.setParams(p)
}

func (m *Model) placeRandom() {
	p := m.registry.Random(m.rng)
	cx, cy := m.cursor.X, m.cursor.Y
	var err error
	m.session.Mutate(func(w *dynamo.World) {
		var ids []dynamo.AtomID
		ids, err = presets.Build(w, p, cx, cy)
		presets.Spin(w, ids, cx, cy, presets.DefaultSpin)
	})
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = "placed " + p.Name
}

func (m *Model) placeSoup() {
	seed := m.rng.Int63()
	b := m.session.Engine().Bounds()
	var err error
	m.session.Mutate(func(w *dynamo.World) {
		_, err = presets.Soup(w, b, soupSize, seed)
	})
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) saveRun() {
	if m.store == nil {
		m.status = "no run store configured"
		return
	}
	e := m.session.Engine()
	id, err := m.store.Save(storage.Run{
		Name:    m.runName,
		Ticks:   e.Ticks(),
		World:   e.World(),
		Params:  e.Params(),
		History: m.history.Samples(),
	})
	if err != nil {
		m.log.Errorf("save run: %v", err)
		m.status = "save failed: " + err.Error()
		return
	}
	m.log.Infof("saved run %s", id)
	m.status = "saved " + id
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder()
		return
	}
	if err := m.recorder.Save(recordingFile); err != nil {
		m.status = "recording: " + err.Error()
	} else {
		m.status = "wrote " + recordingFile
	}
	m.recorder = nil
}

// View renders the TUI interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	e := m.session.Engine()
	f := e.Frame()
	hover, _ := m.hover()
	canvasView := canvasStyle.Render(m.scene.Render(f, View{
		Theme:   CurrentTheme,
		Cursor:  m.cursor,
		Hover:   hover,
		Pending: m.session.Pending(),
	}))

	var s strings.Builder
	s.WriteString(HeaderStyle.Render("MOLSIM") + "\n")
	switch {
	case m.recorder != nil:
		s.WriteString(StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len())))
	case e.Paused():
		s.WriteString(StatusPaused.Render("PAUSED"))
	default:
		s.WriteString(StatusRunning.Render("RUNNING"))
	}
	s.WriteString("\n\n")

	el := chem.MustLookup(m.element)
	s.WriteString(MetricLabel.Render("Element") + lipgloss.NewStyle().Foreground(lipgloss.Color(el.Color)).Bold(true).Render(el.Symbol) + " " + Subtle.Render(el.Name) + "\n")
	s.WriteString(MetricLabel.Render("Atoms") + MetricValue.Render(fmt.Sprint(len(f.Atoms))) + "\n")
	s.WriteString(MetricLabel.Render("Bonds") + MetricValue.Render(fmt.Sprint(len(f.Bonds))) + "\n")
	if n := f.OverValencyCount(); n > 0 {
		s.WriteString(MetricLabel.Render("Invalid") + WarnStyle.Render(fmt.Sprint(n)) + "\n")
	}
	if len(f.Atoms) > 0 {
		valid := 1 - float64(f.OverValencyCount())/float64(len(f.Atoms))
		s.WriteString(MetricLabel.Render("Valency") + ProgressBar(valid, 12) + "\n")
	}
	if bonds := m.history.BondCounts(); len(bonds) > 1 {
		s.WriteString(MetricLabel.Render("Bond trend") + SparklineChart(bonds, 16) + "\n")
	}
	s.WriteString(MetricLabel.Render("Tick") + MetricValue.Render(fmt.Sprint(f.Tick)) + "\n")

	if energies := m.history.Energies(); len(energies) > 1 {
		chart := asciigraph.Plot(energies, asciigraph.Height(4), asciigraph.Width(panelWidth-10), asciigraph.Caption("kinetic energy"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\n" + m.inspector() + "\n")
	s.WriteString("\n" + m.paramsView())

	if m.status != "" {
		s.WriteString("\n" + KeyHint.Render(m.status))
	}
	s.WriteString("\n" + KeyHint.Render("?:help  q:quit"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func (m Model) inspector() string {
	mol := m.session.Selection()
	if mol == nil {
		return Subtle.Render("tab: inspect molecule")
	}
	var s strings.Builder
	s.WriteString(Separator(panelWidth-4) + "\n")
	name := mol.Name
	if name == "" {
		name = "unknown"
	}
	s.WriteString(MetricLabel.Render("Formula") + MetricValue.Render(mol.Formula) + "\n")
	s.WriteString(MetricLabel.Render("Name") + MetricValue.Render(name) + "\n")
	s.WriteString(MetricLabel.Render("Mass") + MetricValue.Render(fmt.Sprintf("%.0f u", mol.Mass)) + "\n")
	s.WriteString(MetricLabel.Render("Size") + MetricValue.Render(fmt.Sprintf("%d atoms", mol.Size())))
	return s.String()
}

func (m Model) paramsView() string {
	p := m.session.Engine().Params()
	values := p.GetParams()
	var s strings.Builder
	s.WriteString("PARAMETERS\n")
	for i, t := range tunable {
		line := fmt.Sprintf("%-15s %8.2f", t.name, values[t.name])
		if i == m.param {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}
	electro := "off"
	if p.Electrostatics {
		electro = "on"
	}
	s.WriteString("  " + Subtle.Render(fmt.Sprintf("%-15s %8s", "electrostatics", electro)))
	return s.String()
}

const helpText = `
╔══════════════════════════════════════════╗
║            KEYBOARD SHORTCUTS            ║
╠══════════════════════════════════════════╣
║  hjkl/arrows  move cursor (HJKL: faster) ║
║  1-9 0 e E    choose element             ║
║  a enter      spawn atom                 ║
║  b            link (pick two atoms)      ║
║  d            drag / drop atom           ║
║  x            delete atom, X clear all   ║
║  c C          change atom element        ║
║  tab          inspect molecule           ║
║  space        pause / resume             ║
║  g v          gravity, electrostatics    ║
║  , . - +      select / tune parameter    ║
║  p n          random molecule, soup      ║
║  s            save run                   ║
║  r            start / stop GIF recording ║
║  t            cycle theme                ║
║  esc          cancel link or drag        ║
║  q            quit                       ║
╚══════════════════════════════════════════╝`
