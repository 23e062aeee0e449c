package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/molsim/internal/config"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	pointer     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeItem  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	activeDesc  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleItem    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	idleDesc    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	hintKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	hintText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	editedValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// choice is one way of seeding the world from the start menu.
type choice struct {
	name, desc string
	seed       func(w *dynamo.World, cx, cy float64) error
}

// App is the full terminal program: a start menu choosing what to put in
// the world, a parameter screen, then the live simulation.
type App struct {
	state, cursor int
	choices       []choice
	selected      choice

	params      dynamo.Params
	paramNames  []string
	paramCursor int
	physics     []string
	physIdx     int
	editing     bool
	editBuf     string
	err         string

	session *sim.Session
	opts    Options
	live    Model
	width   int
	height  int
}

// NewApp builds the menu over an existing session. A session whose world
// already holds atoms, for example one restored from an autosave, gets a
// "continue" entry.
func NewApp(s *sim.Session, opts Options) *App {
	if opts.Registry == nil {
		opts.Registry = presets.NewRegistry()
	}
	a := &App{
		session:    s,
		opts:       opts,
		params:     s.Engine().Params(),
		paramNames: []string{"gravity", "friction", "repulsion", "bond_stiffness", "temperature", "time_step", "electrostatics"},
		physics:    config.ListPresets(),
	}

	if s.Engine().World().NumAtoms() > 0 {
		a.choices = append(a.choices, choice{name: "continue", desc: "resume the saved session"})
	}
	a.choices = append(a.choices,
		choice{name: "empty", desc: "blank canvas", seed: func(*dynamo.World, float64, float64) error { return nil }},
		choice{name: "soup", desc: "random atoms", seed: func(w *dynamo.World, _, _ float64) error {
			_, err := presets.Soup(w, s.Engine().Bounds(), soupSize, opts.Seed)
			return err
		}},
	)
	for _, name := range opts.Registry.Names() {
		p, err := opts.Registry.Get(name)
		if err != nil {
			continue
		}
		a.choices = append(a.choices, choice{name: p.Name, desc: p.Formula, seed: func(w *dynamo.World, cx, cy float64) error {
			_, err := presets.Build(w, p, cx, cy)
			return err
		}})
	}
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.state == stateSim {
			a.live.resize(msg.Width, msg.Height)
		}
		return a, nil
	default:
		if a.state == stateSim {
			return a.forward(msg)
		}
	}
	return a, nil
}

func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.live.Update(msg)
	a.live = next.(Model)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.state {
	case stateMenu:
		return a.menuKey(msg)
	case stateConfig:
		return a.configKey(msg)
	case stateSim:
		return a.forward(msg)
	}
	return a, nil
}

func (a *App) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.choices)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.selected = a.choices[a.cursor]
		a.state, a.paramCursor, a.err = stateConfig, 0, ""
	}
	return a, nil
}

func (a *App) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			val, err := strconv.ParseFloat(a.editBuf, 64)
			if err == nil {
				a.setParam(a.paramNames[a.paramCursor], val)
			} else {
				a.err = "not a number: " + a.editBuf
			}
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					a.editBuf += string(c)
				}
			}
		}
		return a, nil
	}

	name := a.paramNames[a.paramCursor]
	switch msg.String() {
	case "q", "esc":
		a.state = stateMenu
	case "up", "k":
		if a.paramCursor > 0 {
			a.paramCursor--
		}
	case "down", "j":
		if a.paramCursor < len(a.paramNames)-1 {
			a.paramCursor++
		}
	case "enter", " ":
		a.editing, a.editBuf = true, strconv.FormatFloat(a.params.GetParams()[name], 'f', -1, 64)
	case "left", "h":
		a.nudge(name, -1)
	case "right", "l":
		a.nudge(name, 1)
	case "p":
		if len(a.physics) > 0 {
			a.physIdx = (a.physIdx + 1) % len(a.physics)
			a.params, _ = config.GetPreset(a.physics[a.physIdx])
			a.err = ""
		}
	case "s":
		return a, a.start()
	}
	return a, nil
}

func (a *App) setParam(name string, val float64) {
	if err := a.params.SetParam(name, val); err != nil {
		a.err = err.Error()
		return
	}
	a.err = ""
}

func (a *App) nudge(name string, dir float64) {
	step := 1.0
	if name == "electrostatics" {
		cur := a.params.GetParams()[name]
		a.setParam(name, 1-cur)
		return
	}
	for _, t := range tunable {
		if t.name == name {
			step = t.step
		}
	}
	a.setParam(name, math.Round((a.params.GetParams()[name]+dir*step)*1e6)/1e6)
}

// start seeds the world from the chosen entry and switches to the live view.
func (a *App) start() tea.Cmd {
	if err := a.session.SetParams(a.params); err != nil {
		a.err = err.Error()
		return nil
	}
	if a.selected.seed != nil {
		b := a.session.Engine().Bounds()
		var err error
		a.session.ClearAll()
		a.session.Mutate(func(w *dynamo.World) {
			err = a.selected.seed(w, b.Width/2, b.Height/2)
		})
		if err != nil {
			a.err = err.Error()
			return nil
		}
	}
	if a.opts.RunName == "" {
		a.opts.RunName = runName(a.selected.name)
	}
	a.live = NewModel(a.session, a.opts)
	if a.width > 0 {
		a.live.resize(a.width, a.height)
	}
	a.state = stateSim
	return a.live.Init()
}

func runName(choice string) string {
	return strings.ReplaceAll(strings.ToLower(choice), " ", "_")
}

func (a *App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateConfig:
		return a.viewConfig()
	case stateSim:
		return a.live.View()
	}
	return ""
}

func hint(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(hintKey.Render(pairs[i]) + hintText.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (a *App) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + GradientText("MOLSIM", CurrentTheme.Primary, CurrentTheme.Secondary) + "\n    " + subStyle.Render("atoms, bonds and valency") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, c := range a.choices {
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pointer.Render("▸"), activeItem.Render(fmt.Sprintf("%-16s", c.name)), activeDesc.Render(c.desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idleItem.Render(fmt.Sprintf("  %-16s", c.name)), idleDesc.Render(c.desc)))
		}
	}
	b.WriteString("\n    " + hint("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (a *App) viewConfig() string {
	var b strings.Builder
	preset := "custom"
	if len(a.physics) > 0 {
		if p, ok := config.GetPreset(a.physics[a.physIdx]); ok && p == a.params {
			preset = a.physics[a.physIdx]
		}
	}
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(a.selected.name)) + "\n    " + subStyle.Render("physics: "+preset) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	values := a.params.GetParams()
	for i, name := range a.paramNames {
		valStr := fmt.Sprintf("%10.3f", values[name])
		if a.editing && i == a.paramCursor {
			valStr = fmt.Sprintf("%10s", a.editBuf+"_")
		}
		if i == a.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", pointer.Render("▸"), activeItem.Render(fmt.Sprintf("%-15s", name)), editedValue.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", idleItem.Render(fmt.Sprintf("  %-15s", name)), idleDesc.Render(valStr)))
		}
	}
	if a.err != "" {
		b.WriteString("\n    " + WarnStyle.Render(a.err) + "\n")
	}
	b.WriteString("\n    " + hint("j/k", "select", "h/l", "adjust", "enter", "edit", "p", "physics preset", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// Run starts the full-screen program and blocks until it exits.
func Run(s *sim.Session, opts Options) error {
	_, err := tea.NewProgram(NewApp(s, opts), tea.WithAltScreen()).Run()
	return err
}
