package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/history"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// TxRow holds per-record data needed for interactivity.
type TxRow struct {
	FullHash    string // full 0x... hash (for copy)
	ExplorerURL string // empty on networks without an explorer
	Detail      string // one-line summary shown for the selected row
}

// HistoryTable lays out records as seen from account, with the parallel
// TxRow slice RunTxList needs.
func HistoryTable(records []history.Record, account common.Address, net chain.Network) (*Table, []TxRow) {
	t := NewTable([]Column{
		{Title: "Block", Width: 8, Right: true},
		{Title: "Kind", Width: 10},
		{Title: "", Width: 1},
		{Title: "Counterparty", Width: 13},
		{Title: "Amount", Width: 18, Right: true},
		{Title: "Hash", Width: 13},
	})
	rows := make([]TxRow, 0, len(records))
	for _, r := range records {
		dir, other := "→", r.To
		if r.Incoming(account) {
			dir, other = "←", r.From
		}
		amount := "-"
		if r.Amount != nil {
			amount = chain.FormatUnitsFixed(r.Amount, 18, 4)
		}
		hash := r.Hash.Hex()
		t.AddRow(Row{
			fmt.Sprintf("%d", r.Block),
			r.Kind,
			dir,
			TruncateAddr(other.Hex()),
			amount,
			TruncateAddr(hash),
		})
		rows = append(rows, TxRow{
			FullHash:    hash,
			ExplorerURL: net.TxURL(hash),
			Detail:      recordDetail(r, account),
		})
	}
	return t, rows
}

// recordDetail reads as "sent 10 GC to 0x… · block 12".
func recordDetail(r history.Record, account common.Address) string {
	verb, prep, other := "sent", "to", r.To
	if r.Incoming(account) {
		verb, prep, other = "received", "from", r.From
	}
	if r.Kind != "" && r.Kind != "transfer" {
		verb = r.Kind
	}
	return fmt.Sprintf("%s %s %s %s · block %d", verb, GC(r.Amount), prep, other.Hex(), r.Block)
}

// txListModel is the bubbletea model for the interactive tx table.
type txListModel struct {
	title  string
	table  *Table
	txData []TxRow // parallel to table.Rows
	cursor int
	flash  string // brief feedback shown in hint bar
}

func (m txListModel) Init() tea.Cmd { return nil }

func (m txListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.table.Rows)-1 {
				m.cursor++
			}

		case "o", "enter":
			if m.cursor < len(m.txData) {
				url := m.txData[m.cursor].ExplorerURL
				if url != "" {
					browse(url)
					m.flash = "Opening in browser…"
				} else {
					m.flash = "No explorer URL available"
				}
			}

		case "c":
			if m.cursor < len(m.txData) {
				hash := m.txData[m.cursor].FullHash
				if hash == "" {
					m.flash = "No hash available"
					break
				}
				if err := clipboard(hash); err == nil {
					m.flash = "Copied: " + hash[:10] + "…"
				} else {
					m.flash = "Copy failed: " + err.Error()
				}
			}
		}
	}
	return m, nil
}

func (m txListModel) View() string {
	m.table.SelIdx = m.cursor

	var sb strings.Builder

	sb.WriteString(m.title)
	sb.WriteString("\n\n")

	sb.WriteString(m.table.Render())

	sb.WriteString("\n")
	if m.cursor < len(m.txData) && m.txData[m.cursor].Detail != "" {
		sb.WriteString(StyleMeta.Render("  " + m.txData[m.cursor].Detail))
		sb.WriteString("\n")
	}
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(txControls())
	}
	sb.WriteString("\n")

	return sb.String()
}

// txControls renders the consistent bottom control bar for the tx table.
func txControls() string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ]"))
	sb.WriteString(StyleMeta.Render(" navigate"))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ o/⏎ ]"))
	sb.WriteString(StyleMeta.Render(" open in browser"))
	sb.WriteString(sep)
	sb.WriteString(StyleWarning.Render("[ c ]"))
	sb.WriteString(StyleMeta.Render(" copy hash"))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ q ]"))
	sb.WriteString(StyleMeta.Render(" quit"))
	return sb.String()
}

// RunTxList starts the interactive history list. Blocks until the user
// presses q/ESC. Uses the alt screen so the terminal is restored on exit.
func RunTxList(title string, table *Table, txData []TxRow) error {
	m := txListModel{
		title:  title,
		table:  table,
		txData: txData,
	}
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// browse and clipboard are swapped out in tests.
var (
	browse    = openBrowser
	clipboard = copyToClipboard
)

// openBrowser opens url in the OS default browser.
func openBrowser(url string) {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "cmd"
	default:
		name = "xdg-open"
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(name, "/c", "start", url)
	} else {
		cmd = exec.Command(name, url)
	}
	_ = cmd.Start()
}

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	default:
		// Try wl-copy (Wayland), fall back to xclip.
		if _, err := exec.LookPath("wl-copy"); err == nil {
			cmd = exec.Command("wl-copy")
		} else {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		}
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	_, _ = io.WriteString(stdin, text)
	stdin.Close()
	return cmd.Wait()
}
