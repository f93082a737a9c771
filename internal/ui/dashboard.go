package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/gymcli/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// DashboardConfig wires the dashboard to a running session.
type DashboardConfig struct {
	Initial  session.Snapshot
	Updates  <-chan session.Snapshot
	Refresh  func() error // re-reads ledger state; nil disables polling
	Interval time.Duration
	Symbol   string // base currency, e.g. ETH
}

// dashboardModel is the Bubble Tea model for the live session dashboard.
type dashboardModel struct {
	cfg        DashboardConfig
	snap       session.Snapshot
	lastUpdate time.Time
	quitting   bool
	err        string
}

type tickMsg time.Time
type snapshotMsg session.Snapshot
type updatesClosedMsg struct{}
type refreshErrorMsg string

// NewDashboard creates a Bubble Tea program for the live session dashboard.
func NewDashboard(cfg DashboardConfig) *tea.Program {
	return tea.NewProgram(newDashboardModel(cfg))
}

func newDashboardModel(cfg DashboardConfig) dashboardModel {
	return dashboardModel{cfg: cfg, snap: cfg.Initial, lastUpdate: time.Now()}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.waitCmd(), m.tickCmd())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		}

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		m.lastUpdate = time.Now()
		m.err = ""
		return m, m.waitCmd()

	case refreshErrorMsg:
		m.err = string(msg)

	case updatesClosedMsg:
		m.err = "session ended"
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}
	s := m.snap

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚡ GymCoin Dashboard") + "\n")
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Updated: %s · r refresh · q quit\n\n", m.lastUpdate.Format("15:04:05"))))

	if s.Warning != "" {
		sb.WriteString(Warn(s.Warning) + "\n")
	}
	if m.err != "" {
		sb.WriteString(Err(trimErr(m.err)) + "\n")
	}

	if s.State != session.Connected {
		sb.WriteString(StyleMeta.Render(s.State.String()+"…") + "\n")
		return sb.String()
	}

	network := ChainName(s.Network)
	if !s.NetworkOK {
		network += " " + StyleError.Render(fmt.Sprintf("(wallet on chain %d)", s.ChainID))
	}

	pairs := [][2]string{
		{"Account", Addr(s.Account.Hex())},
		{"Role", Role(s.Role())},
		{"Network", network},
		{"Registered", registration(s)},
		{"Balance", GC(s.Balance)},
		{"Rates", RateLine(s.Rates, m.cfg.Symbol)},
		{"Reserve", Coin(s.Reserve, m.cfg.Symbol)},
		{"Total supply", GC(s.Supply)},
	}
	if s.LastTx.Hash != (common.Hash{}) {
		pairs = append(pairs, [2]string{"Last tx", fmt.Sprintf("%s (block %d)", TruncateAddr(s.LastTx.Hash.Hex()), s.LastTx.Block)})
	}
	sb.WriteString(KeyValueBlock("", pairs) + "\n")

	if !s.CanTrade() {
		sb.WriteString(Hint("register to buy and sell: gymcli register --username <name> --email <addr>") + "\n")
	}
	return sb.String()
}

func registration(s session.Snapshot) string {
	if !s.User.Registered {
		return "no"
	}
	return fmt.Sprintf("%s <%s>", s.User.Username, s.User.Email)
}

func (m dashboardModel) waitCmd() tea.Cmd {
	if m.cfg.Updates == nil {
		return nil
	}
	ch := m.cfg.Updates
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m dashboardModel) refreshCmd() tea.Cmd {
	if m.cfg.Refresh == nil {
		return nil
	}
	refresh := m.cfg.Refresh
	return func() tea.Msg {
		// A successful refresh arrives through Updates.
		if err := refresh(); err != nil {
			return refreshErrorMsg(err.Error())
		}
		return nil
	}
}

func (m dashboardModel) tickCmd() tea.Cmd {
	if m.cfg.Refresh == nil || m.cfg.Interval <= 0 {
		return nil
	}
	return tea.Tick(m.cfg.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
