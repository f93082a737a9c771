package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func wizardOpts() WizardOptions {
	return WizardOptions{
		Backends:   []string{"evm", "local"},
		Networks:   []string{"sepolia", "hardhat"},
		Algorithms: []string{"fastest", "round-robin", "failover"},
	}
}

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestWizardEVMFlow(t *testing.T) {
	var m tea.Model = newWizard(wizardOpts())
	m = press(m, "enter")
	m = press(m, "down", "enter")
	m = press(m, "down", "down", "enter")
	m = typeText(m, "[0x70997970C51812dc3A010C7d01b50e0d17dc79C8]")
	m = press(m, "enter")

	wm := m.(wizardModel)
	assert.Equal(t, stepDone, wm.step)
	assert.Equal(t, WizardResult{
		Backend:       "evm",
		Network:       "hardhat",
		RPCAlgorithm:  "failover",
		WalletAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		WalletName:    "default",
	}, wm.result)
}

func TestWizardLocalSkipsNetworkSteps(t *testing.T) {
	var m tea.Model = newWizard(wizardOpts())
	m = press(m, "down", "enter")
	wm := m.(wizardModel)
	assert.Equal(t, stepWallet, wm.step)
	assert.True(t, wm.inputMode)

	m = press(m, "enter")
	wm = m.(wizardModel)
	assert.Equal(t, stepDone, wm.step)
	assert.Equal(t, "local", wm.result.Backend)
	assert.Empty(t, wm.result.WalletAddress)
}

func TestWizardBackspaceEditsInput(t *testing.T) {
	var m tea.Model = newWizard(wizardOpts())
	m = press(m, "down", "enter")
	m = typeText(m, "0xab")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "0xa", m.(wizardModel).input)
}

func TestWizardQuitAborts(t *testing.T) {
	var m tea.Model = newWizard(wizardOpts())
	m = press(m, "q")
	assert.True(t, m.(wizardModel).aborted)
}

func TestWizardViewShowsStep(t *testing.T) {
	v := newWizard(wizardOpts()).View()
	assert.Contains(t, v, "Where does the ledger live?")
	assert.Contains(t, v, "evm")
}
