package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WizardResult holds answers collected by the setup wizard.
type WizardResult struct {
	Backend       string
	Network       string
	RPCAlgorithm  string
	WalletAddress string
	WalletName    string
}

// WizardOptions lists the choices offered at each step.
type WizardOptions struct {
	Backends   []string
	Networks   []string
	Algorithms []string
}

type wizardStep int

const (
	stepBackend wizardStep = iota
	stepNetwork
	stepAlgorithm
	stepWallet
	stepDone
)

type wizardModel struct {
	opts      WizardOptions
	step      wizardStep
	result    WizardResult
	cursor    int
	choices   []string
	input     string
	inputMode bool
	aborted   bool
}

func newWizard(opts WizardOptions) wizardModel {
	return wizardModel{opts: opts, step: stepBackend, choices: opts.Backends}
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyUp:
		if !m.inputMode && m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if !m.inputMode && m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.inputMode {
			m.applyInput()
		} else {
			m.applyChoice()
		}
		m.advance()
	case tea.KeyBackspace:
		if m.inputMode && len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		if m.inputMode {
			m.input += string(key.Runes)
			break
		}
		switch key.String() {
		case "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "q":
			m.aborted = true
			return m, tea.Quit
		}
	}

	if m.step == stepDone {
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) advance() {
	m.cursor = 0
	m.step++
	// The local backend only has the in-process devnet, so network and RPC
	// steps have nothing to ask.
	if m.result.Backend == "local" && (m.step == stepNetwork || m.step == stepAlgorithm) {
		m.step = stepWallet
	}
	switch m.step {
	case stepNetwork:
		m.choices = m.opts.Networks
	case stepAlgorithm:
		m.choices = m.opts.Algorithms
	case stepWallet:
		m.choices = nil
		m.inputMode = true
		m.input = ""
	default:
		m.inputMode = false
	}
}

func (m *wizardModel) applyChoice() {
	if m.cursor >= len(m.choices) {
		return
	}
	pick := m.choices[m.cursor]
	switch m.step {
	case stepBackend:
		m.result.Backend = pick
	case stepNetwork:
		m.result.Network = pick
	case stepAlgorithm:
		m.result.RPCAlgorithm = pick
	}
}

func (m *wizardModel) applyInput() {
	// Strip whitespace and accidental brackets from paste.
	addr := strings.Trim(strings.TrimSpace(m.input), "[]")
	if addr != "" {
		m.result.WalletAddress = addr
		m.result.WalletName = "default"
	}
}

func (m wizardModel) View() string {
	var s string

	switch m.step {
	case stepBackend:
		s = renderMenu("Where does the ledger live?", m.choices, m.cursor)
	case stepNetwork:
		s = renderMenu("Select network:", m.choices, m.cursor)
	case stepAlgorithm:
		s = renderMenu("Select RPC algorithm:", m.choices, m.cursor)
	case stepWallet:
		s = StyleTitle.Render("Add a watch-only wallet (optional)") + "\n\n"
		s += StyleMeta.Render("Enter wallet address (or press Enter to skip):") + "\n"
		s += "> " + StyleAddress.Render(m.input) + "█\n"
	case stepDone:
		s = Success("Setup complete!") + "\n"
	}

	return StyleBorder.Render(s) + "\n"
}

func renderMenu(title string, items []string, cursor int) string {
	s := StyleTitle.Render(title) + "\n\n"
	for i, item := range items {
		icon := "  "
		style := lipgloss.NewStyle().Foreground(ColorValue)
		if i == cursor {
			icon = "▸ "
			style = StyleSelected
		}
		s += icon + style.Render(item) + "\n"
	}
	s += "\n" + StyleMeta.Render("↑/↓ navigate · Enter select · q quit")
	return s
}

// RunWizard launches the interactive setup wizard. A nil result means the
// user quit before finishing.
func RunWizard(opts WizardOptions) (*WizardResult, error) {
	p := tea.NewProgram(newWizard(opts))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard error: %w", err)
	}
	fm := final.(wizardModel)
	if fm.aborted {
		return nil, nil
	}
	return &fm.result, nil
}
