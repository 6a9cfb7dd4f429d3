package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/sim"
	"github.com/san-kum/kitesim/internal/steering"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var presetInfo = map[string]string{
	"calm":      "light air, no gusts",
	"breeze":    "steady 12 km/h",
	"fresh":     "lively 25 km/h",
	"gusty":     "turbulent afternoon",
	"storm":     "heavy weather",
	"longlines": "30 m lines",
	"training":  "short lines, gentle wind",
	"weave":     "scripted figure-eights",
}

type appState int

const (
	stateMenu appState = iota
	stateSim
)

// steerHold tracks how recently an arrow key was seen, so the bar
// recenters when the key is released. Terminals only deliver key
// repeats, not key-up events.
const steerHoldWindow = 150 * time.Millisecond

type model struct {
	state   appState
	cursor  int
	presets []string

	cfg       *config.Config
	simu      *sim.Simulation
	simTime   float64
	paused    bool
	speed     float64
	steer     steering.Direction
	lastSteer time.Time

	trail   []trailPoint
	history []float64

	lastFrame time.Time
	fps       float64

	width  int
	height int
}

type trailPoint struct {
	z, y float64
}

func NewInteractiveApp() *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		speed:   1.0,
		trail:   make([]trailPoint, 0, 120),
		history: make([]float64, 0, 60),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
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
		if m.state != stateSim || m.simu == nil {
			return m, nil
		}
		if !m.paused {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now

			if m.steer != steering.None && time.Since(m.lastSteer) > steerHoldWindow {
				m.steer = steering.None
			}
			m.simu.SetSteering(m.steer)

			dt := 0.016 * m.speed
			steps := int(math.Ceil(dt / 0.004))
			for i := 0; i < steps; i++ {
				m.simu.Tick(dt / float64(steps))
			}
			m.simTime += dt
			m.record()
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.state == stateMenu {
		return m.menuKey(msg)
	}
	return m.simKey(msg)
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		cfg := config.GetPreset(m.presets[m.cursor])
		if cfg == nil {
			return m, nil
		}
		m.cfg = cfg
		m.simu = sim.NewSimulation(cfg.SimConfigFor())
		m.simTime = 0
		m.paused = false
		m.speed = 1.0
		m.trail = m.trail[:0]
		m.history = m.history[:0]
		m.lastFrame = time.Time{}
		m.state = stateSim
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape", "ctrl+c":
		m.state = stateMenu
		m.simu = nil
		return m, tea.ClearScreen
	case "left", "h":
		m.steer = steering.Left
		m.lastSteer = time.Now()
	case "right", "l":
		m.steer = steering.Right
		m.lastSteer = time.Now()
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.simu.Reset()
		m.simTime = 0
		m.steer = steering.None
		m.trail = m.trail[:0]
		m.history = m.history[:0]
	case "w":
		p := m.simu.Wind()
		p.Speed += 1
		if p.Speed > 14 {
			p.Speed = 2
		}
		m.simu.SetWindParams(p.Speed, p.Direction, p.Turbulence)
	case "+", "=":
		m.speed = math.Min(m.speed*2, 8)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) record() {
	pos := m.simu.State().Position
	m.trail = append(m.trail, trailPoint{pos.Z(), pos.Y()})
	if len(m.trail) > 120 {
		m.trail = m.trail[1:]
	}
	m.history = append(m.history, m.simu.Telemetry().TensionLeft+m.simu.Telemetry().TensionRight)
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	if m.state == stateMenu {
		return m.viewMenu()
	}
	return m.viewSim()
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("k i t e s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter fly   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 9
	if cw < 50 {
		cw = 50
	}
	if ch < 14 {
		ch = 14
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	m.drawFlight(canvas, cw, ch)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("flying")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	wind := m.simu.Wind()
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.presets[m.cursor]), statusText,
		dim.Render(fmt.Sprintf("wind %.0f m/s  %.1fx  %.0ffps", wind.Speed, m.speed, m.fps))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	tel := m.simu.Telemetry()
	b.WriteString(fmt.Sprintf("   %s%s  %s%s  %s%s  %s%s\n",
		dim.Render("alt "), white.Render(fmt.Sprintf("%5.1fm", m.simu.State().Position.Y())),
		dim.Render("aoa "), white.Render(fmt.Sprintf("%4.0f°", tel.AngleOfAttackDeg)),
		dim.Render("bar "), barGauge(tel.BarAngle, m.simu.Config().Bar.MaxAngle),
		dim.Render("tension "), tensionStr(tel)))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("load"), cyan.Render(sparkline(m.history, 24))))
	}

	b.WriteString("\n" + dim.Render("   ←→ steer  space pause  r relaunch  w wind  ± speed  q back") + "\n")

	return b.String()
}

func tensionStr(tel sim.Telemetry) string {
	return magenta.Render(fmt.Sprintf("%4.1f", tel.TensionLeft)) +
		dim.Render("/") +
		magenta.Render(fmt.Sprintf("%-4.1f", tel.TensionRight))
}

// barGauge renders the bar angle as a small centered gauge.
func barGauge(angle, max float64) string {
	const half = 5
	pos := 0
	if max > 0 {
		pos = int(angle / max * half)
	}
	if pos > half {
		pos = half
	}
	if pos < -half {
		pos = -half
	}
	var sb strings.Builder
	for i := -half; i <= half; i++ {
		switch {
		case i == pos:
			sb.WriteString(white.Render("●"))
		case i == 0:
			sb.WriteString(dimmer.Render("┼"))
		default:
			sb.WriteString(dimmer.Render("─"))
		}
	}
	return sb.String()
}

func (m model) drawFlight(canvas [][]rune, w, h int) {
	span := m.simu.Config().Lines.BaseLength * 1.3
	sx := float64(w-8) / span / 2
	sy := float64(h-3) / span

	project := func(wz, wy float64) (int, int) {
		return 4 + int(wz*sx*2), h - 2 - int(wy*sy)
	}

	for x := 0; x < w; x++ {
		set(canvas, x, h-1, '‾', w, h)
	}

	for i, pt := range m.trail {
		tx, ty := project(pt.z, pt.y)
		if i < len(m.trail)/2 {
			set(canvas, tx, ty, '·', w, h)
		} else {
			set(canvas, tx, ty, '∘', w, h)
		}
	}

	barPos := m.simu.Config().Bar.Position
	bx, by := project(barPos.Z(), barPos.Y())
	pos := m.simu.State().Position
	kx, ky := project(pos.Z(), pos.Y())

	drawLine(canvas, w, h, bx, by, kx, ky, '\'')
	drawLine(canvas, w, h, bx+1, by, kx+1, ky, '`')
	set(canvas, bx, by+1, '┃', w, h)
	set(canvas, bx, by, '┿', w, h)
	set(canvas, kx, ky, '◆', w, h)

	set(canvas, 2, 1, '~', w, h)
	set(canvas, 3, 1, '~', w, h)
	set(canvas, 4, 1, '>', w, h)
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
