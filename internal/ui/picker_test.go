package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func walletItems() []PickerItem {
	return []PickerItem{
		{Label: "deployer", SubLabel: "0xf39F…2266", Value: "deployer"},
		{Label: "alice", SubLabel: "0x7099…79C8", Value: "alice", Active: true},
		{Label: "bob", SubLabel: "0x3C44…93BC", Value: "bob"},
	}
}

func TestPickerStartsOnActiveItem(t *testing.T) {
	m := newPicker("Wallets", walletItems())
	assert.Equal(t, 1, m.cursor)
}

func TestPickerNavigateAndSelect(t *testing.T) {
	m := press(newPicker("Wallets", walletItems()), "down", "enter").(pickerModel)
	require.NotNil(t, m.selected)
	assert.Equal(t, "bob", m.selected.Value)
}

func TestPickerClampsAtEdges(t *testing.T) {
	m := press(newPicker("Wallets", walletItems()), "k", "k", "k").(pickerModel)
	assert.Equal(t, 0, m.cursor)
	m = press(m, "j", "j", "j", "j").(pickerModel)
	assert.Equal(t, 2, m.cursor)
}

func TestPickerCancel(t *testing.T) {
	m := press(newPicker("Wallets", walletItems()), "esc").(pickerModel)
	assert.True(t, m.quitting)
	assert.Nil(t, m.selected)
	assert.Empty(t, m.View())
}

func TestPickerViewMarksActive(t *testing.T) {
	v := newPicker("Wallets", walletItems()).View()
	assert.Contains(t, v, "Wallets")
	assert.Contains(t, v, "alice")
	assert.Contains(t, v, "●")
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("Wallets", nil)
	assert.ErrorIs(t, err, ErrNothingToPick)
}
