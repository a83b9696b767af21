// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/m-rk/neewer-control/pkg/panel"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusBrightness = iota
	focusKelvin
)

const maxLogEntries = 100

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	// Session (for sending commands and reconnecting)
	mgr      *panel.Manager
	portName string

	// Panel state as last reported
	lastStatus panel.Status
	lastSeen   time.Time
	hasStatus  bool

	// Editable fields
	briInput     textinput.Model
	kelvinInput  textinput.Model
	focusedField int

	// Brightness bar
	bar progress.Model

	// Session counters
	connectedAt  time.Time
	statusCount  uint64
	commandCount uint64

	// Event log
	eventLog []eventLogEntry

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
	reconnecting   bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type statusMsg struct {
	status panel.Status
}

type connectionLostMsg struct{}

type reconnectedMsg struct{}

type reconnectFailedMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(mgr *panel.Manager, portName string, defaultKelvin uint32) controlModel {
	bi := textinput.New()
	bi.Placeholder = "100"
	bi.CharLimit = 3
	bi.Width = 5
	bi.Focus()

	ki := textinput.New()
	ki.Placeholder = strconv.FormatUint(uint64(defaultKelvin), 10)
	ki.CharLimit = 4
	ki.Width = 6

	return controlModel{
		mgr:          mgr,
		portName:     portName,
		briInput:     bi,
		kelvinInput:  ki,
		focusedField: focusBrightness,
		bar:          progress.New(progress.WithDefaultGradient()),
		connectedAt:  time.Now(),
		eventLog:     make([]eventLogEntry, 0),
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return controlTickCmd()
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = m.width - 24
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}

	case controlTickMsg:
		// Periodic redraw keeps the "last seen" age fresh.
		return m, controlTickCmd()

	case statusMsg:
		m.lastStatus = msg.status
		m.lastSeen = time.Now()
		m.statusCount++
		if !m.hasStatus {
			m.hasStatus = true
			m.addLogEntry(fmt.Sprintf("Panel reports brightness=%d%% temp=%dK",
				msg.status.Brightness, msg.status.Kelvin), false)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - press r to reconnect", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.reconnecting = false
		m.connectedAt = time.Now()
		m.addLogEntry("Reconnected", false)

	case reconnectFailedMsg:
		m.reconnecting = false
		m.addLogEntry(fmt.Sprintf("Reconnect failed: %v", msg.err), true)
	}

	// Update the focused input
	var cmd tea.Cmd
	switch m.focusedField {
	case focusBrightness:
		m.briInput, cmd = m.briInput.Update(msg)
	case focusKelvin:
		m.kelvinInput, cmd = m.kelvinInput.Update(msg)
	}

	return m, cmd
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.cycleFocus(1)
		return m, nil

	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "enter":
		m.applyInputs()
		return m, nil

	case "o":
		m.sendCommand(0, m.currentKelvin())
		return m, nil

	case "O":
		m.sendCommand(pl81.MaxBrightness, m.currentKelvin())
		return m, nil

	case "r":
		if m.connectionLost && !m.reconnecting {
			m.reconnecting = true
			m.addLogEntry("Reconnecting...", false)
			return m, m.reconnectCmd()
		}
		return m, nil
	}

	// Pass through to the focused input
	var cmd tea.Cmd
	switch m.focusedField {
	case focusBrightness:
		m.briInput, cmd = m.briInput.Update(msg)
	case focusKelvin:
		m.kelvinInput, cmd = m.kelvinInput.Update(msg)
	}

	return m, cmd
}

func (m *controlModel) cycleFocus(delta int) {
	m.focusedField = (m.focusedField + delta + 2) % 2

	if m.focusedField == focusBrightness {
		m.briInput.Focus()
		m.kelvinInput.Blur()
	} else {
		m.kelvinInput.Focus()
		m.briInput.Blur()
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

// currentKelvin returns the kelvin field value, falling back to the last
// reported state, then the placeholder default.
func (m *controlModel) currentKelvin() uint32 {
	if v := m.kelvinInput.Value(); v != "" {
		if k, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint32(k)
		}
	}
	if m.hasStatus {
		return m.lastStatus.Kelvin
	}
	k, _ := strconv.ParseUint(m.kelvinInput.Placeholder, 10, 32)
	return uint32(k)
}

func (m *controlModel) applyInputs() {
	briStr := m.briInput.Value()
	if briStr == "" {
		briStr = m.briInput.Placeholder
	}

	brightness, err := strconv.ParseUint(briStr, 10, 64)
	if err != nil || brightness > uint64(pl81.MaxBrightness) {
		m.addLogEntry(fmt.Sprintf("Invalid brightness: %s (expected 0-100)", briStr), true)
		return
	}

	m.sendCommand(uint8(brightness), m.currentKelvin())
}

func (m *controlModel) sendCommand(brightness uint8, kelvin uint32) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return
	}

	if err := m.mgr.SetLight(brightness, kelvin); err != nil {
		m.addLogEntry(fmt.Sprintf("Command failed: %v", err), true)
		return
	}

	m.commandCount++
	temp := pl81.KelvinToByte(kelvin)
	m.addLogEntry(fmt.Sprintf("Set brightness=%d%% temp=%dK (0x%02X)",
		brightness, pl81.ByteToKelvin(temp), temp), false)
}

// reconnectCmd retries the connection off the update loop.
func (m *controlModel) reconnectCmd() tea.Cmd {
	mgr := m.mgr
	port := m.portName
	return func() tea.Msg {
		if err := mgr.Connect(port); err != nil {
			return reconnectFailedMsg{err: err}
		}
		return reconnectedMsg{}
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("NEEWER PL81-PRO"))
	s.WriteString(" ")
	connStatus := m.portName
	if m.connectionLost {
		if m.reconnecting {
			connStatus = warningStyle.Render("RECONNECTING...")
		} else {
			connStatus = errorStyle.Render("DISCONNECTED (r=reconnect)")
		}
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=apply o/O=off/on", connStatus)))
	s.WriteString("\n\n")

	// Panel state
	s.WriteString(m.renderStatusPanel(labelStyle, valueStyle, headerStyle, boxStyle))
	s.WriteString("\n\n")

	// Control fields
	s.WriteString(m.renderControlPanel(labelStyle, boxStyle, focusedBoxStyle))
	s.WriteString("\n\n")

	// Session counters
	s.WriteString(m.renderSessionBar(labelStyle, valueStyle, boxStyle))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m controlModel) renderStatusPanel(labelStyle, valueStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder

	if !m.hasStatus {
		s.WriteString(headerStyle.Render("No status yet. The panel reports when its state changes;"))
		s.WriteString("\n")
		s.WriteString(headerStyle.Render("send a command or turn a knob."))
		return boxStyle.Width(m.width - 4).Render(s.String())
	}

	s.WriteString(fmt.Sprintf("%s %s %s\n",
		labelStyle.Render("Brightness:"),
		m.bar.ViewAs(float64(m.lastStatus.Brightness)/100.0),
		valueStyle.Render(fmt.Sprintf("%3d%%", m.lastStatus.Brightness))))

	temp := pl81.KelvinToByte(m.lastStatus.Kelvin)
	s.WriteString(fmt.Sprintf("%s %s %s\n",
		labelStyle.Render("Temperature:"),
		valueStyle.Render(fmt.Sprintf("%dK", m.lastStatus.Kelvin)),
		headerStyle.Render(fmt.Sprintf("(step 0x%02X, %d-%dK range)", temp, pl81.TempMinKelvin, pl81.TempMaxKelvin))))

	s.WriteString(fmt.Sprintf("%s %s",
		labelStyle.Render("Last report:"),
		headerStyle.Render(formatAge(time.Since(m.lastSeen)))))

	return boxStyle.Width(m.width - 4).Render(s.String())
}

func (m controlModel) renderControlPanel(labelStyle, boxStyle, focusedBoxStyle lipgloss.Style) string {
	briBox := boxStyle
	if m.focusedField == focusBrightness {
		briBox = focusedBoxStyle
	}
	kelvinBox := boxStyle
	if m.focusedField == focusKelvin {
		kelvinBox = focusedBoxStyle
	}

	briPanel := briBox.Render(fmt.Sprintf("%s %s", labelStyle.Render("Brightness %"), m.briInput.View()))
	kelvinPanel := kelvinBox.Render(fmt.Sprintf("%s %s", labelStyle.Render("Kelvin"), m.kelvinInput.View()))

	return lipgloss.JoinHorizontal(lipgloss.Top, briPanel, " ", kelvinPanel)
}

func (m controlModel) renderSessionBar(labelStyle, valueStyle, boxStyle lipgloss.Style) string {
	content := fmt.Sprintf("%s %s  %s %s  %s %s",
		labelStyle.Render("Session:"), valueStyle.Render(time.Since(m.connectedAt).Round(time.Second).String()),
		labelStyle.Render("Reports:"), valueStyle.Render(fmt.Sprintf("%d", m.statusCount)),
		labelStyle.Render("Commands:"), valueStyle.Render(fmt.Sprintf("%d", m.commandCount)),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

// formatAge renders a duration as a short human-readable age.
func formatAge(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds ago", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm ago", int(d.Hours()), int(d.Minutes())%60)
}
