package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/token"
)

// Tab is one pane of the wallet dashboard.
type Tab int

const (
	TabCoins Tab = iota
	TabNFTs
	TabTransactions
)

var tabNames = []string{"Coins", "NFTs", "Transactions"}

func (t Tab) String() string { return tabNames[t] }

// Messages the refresh jobs send into a running dashboard.
type (
	BalanceMsg struct {
		Token token.Token
		Err   error
	}
	TokensMsg  []token.Token
	NFTsMsg    []token.Collection
	HistoryMsg struct {
		Records []history.Record
		Err     error
	}
)

type dashTickMsg struct{}

func dashTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return dashTickMsg{} })
}

// Dashboard is the live wallet view: native balance on top and a tab each
// for coins, NFTs and transactions. It holds no timers of its own beyond the
// spinner; data arrives as messages from the refresh scheduler.
type Dashboard struct {
	Address string
	Network chain.Network

	tab     Tab
	cursor  int
	frame   int
	updated time.Time
	flash   string

	balance    *token.Token
	balanceErr string
	tokens     []token.Token
	nfts       []token.Collection
	nftsLoaded bool
	records    []history.Record
	historyErr string

	refresh func()
	open    func(string) error
	copy    func(string) error
	now     func() time.Time
}

// NewDashboard creates the model. refresh is called when the user presses r.
func NewDashboard(address string, n chain.Network, refresh func()) Dashboard {
	if refresh == nil {
		refresh = func() {}
	}
	return Dashboard{
		Address: address,
		Network: n,
		refresh: refresh,
		open:    OpenBrowser,
		copy:    CopyToClipboard,
		now:     time.Now,
	}
}

// Tab returns the active tab.
func (m Dashboard) Tab() Tab { return m.tab }

func (m Dashboard) Init() tea.Cmd { return dashTick() }

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)

	case dashTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, dashTick()

	case BalanceMsg:
		if msg.Err != nil {
			m.balanceErr = "Failed to fetch balance"
		} else {
			tk := msg.Token
			m.balance, m.balanceErr = &tk, ""
		}
		m.updated = m.now()

	case TokensMsg:
		m.tokens = msg
		m.updated = m.now()

	case NFTsMsg:
		m.nfts, m.nftsLoaded = msg, true
		m.updated = m.now()

	case HistoryMsg:
		m.historyErr = ""
		if msg.Err != nil {
			m.historyErr = msg.Err.Error()
		}
		if msg.Records != nil || msg.Err == nil {
			m.records = msg.Records
		}
		if m.cursor >= len(m.records) {
			m.cursor = max(len(m.records)-1, 0)
		}
		m.updated = m.now()
	}
	return m, nil
}

func (m Dashboard) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab, m.cursor = (m.tab+1)%Tab(len(tabNames)), 0
	case "shift+tab", "left", "h":
		m.tab, m.cursor = (m.tab+Tab(len(tabNames))-1)%Tab(len(tabNames)), 0
	case "1", "2", "3":
		m.tab, m.cursor = Tab(msg.String()[0]-'1'), 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "r":
		m.refresh()
		m.flash = "Refreshing…"
	case "o":
		url := m.Network.AddressURL(m.Address)
		if hash := m.selectedHash(); hash != "" {
			url = m.Network.TxURL(hash)
		}
		if err := m.open(url); err != nil {
			m.flash = "Open failed: " + err.Error()
		} else {
			m.flash = "Opening in browser…"
		}
	case "c":
		text := m.Address
		if hash := m.selectedHash(); hash != "" {
			text = hash
		}
		if err := m.copy(text); err != nil {
			m.flash = "Copy failed: " + err.Error()
		} else {
			m.flash = "Copied: " + TruncateAddr(text)
		}
	}
	return m, nil
}

func (m Dashboard) rows() int {
	switch m.tab {
	case TabCoins:
		return len(m.tokens)
	case TabNFTs:
		return len(m.nfts)
	default:
		return len(m.records)
	}
}

func (m Dashboard) selectedHash() string {
	if m.tab != TabTransactions || m.cursor >= len(m.records) {
		return ""
	}
	return m.records[m.cursor].Hash
}

// decimals maps tracked token contracts to their decimals for history values.
func (m Dashboard) decimals() map[string]int {
	out := make(map[string]int, len(m.tokens))
	for _, t := range m.tokens {
		if !t.Native {
			out[strings.ToLower(t.Address)] = t.Decimals
		}
	}
	return out
}

func (m Dashboard) View() string {
	var sb strings.Builder
	spin := StyleBrand.Render(spinnerFrames[m.frame])

	sb.WriteString(StyleTitle.Render(fmt.Sprintf("MONSEND  ·  %s  ·  %s", TruncateAddr(m.Address), m.Network.Name)) + "\n")

	switch {
	case m.balanceErr != "":
		sb.WriteString(Err(m.balanceErr) + "\n")
	case m.balance == nil:
		sb.WriteString(spin + StyleMeta.Render(" loading balance…") + "\n")
	default:
		sb.WriteString(Val(m.balance.Balance) + " " + Meta(m.balance.Symbol) + "\n")
	}
	sb.WriteString("\n")

	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs = append(tabs, StyleTabActive.Render(name))
		} else {
			tabs = append(tabs, StyleTab.Render(name))
		}
	}
	sb.WriteString(strings.Join(tabs, " ") + "\n\n")

	switch m.tab {
	case TabCoins:
		sb.WriteString(m.viewCoins(spin))
	case TabNFTs:
		sb.WriteString(m.viewNFTs(spin))
	case TabTransactions:
		sb.WriteString(m.viewTransactions(spin))
	}

	sb.WriteString("\n")
	if !m.updated.IsZero() {
		sb.WriteString(StyleMeta.Render("  updated "+m.updated.Format("15:04:05")) + "\n")
	}
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ "+m.flash) + "\n")
	} else {
		sb.WriteString(dashControls() + "\n")
	}
	return sb.String()
}

func (m Dashboard) viewCoins(spin string) string {
	if m.tokens == nil {
		return spin + StyleMeta.Render(" loading tokens…") + "\n"
	}
	t := TokenTable(m.tokens)
	t.SelIdx = m.cursor
	return t.Render()
}

func (m Dashboard) viewNFTs(spin string) string {
	switch {
	case !m.nftsLoaded:
		return spin + StyleMeta.Render(" loading NFTs…") + "\n"
	case len(m.nfts) == 0:
		return StyleMeta.Render("  No NFTs found") + "\n"
	}
	t := NFTTable(m.nfts)
	t.SelIdx = m.cursor
	return t.Render()
}

func (m Dashboard) viewTransactions(spin string) string {
	var sb strings.Builder
	if m.historyErr != "" {
		sb.WriteString(Warn(m.historyErr) + "\n")
	}
	switch {
	case m.records == nil && m.historyErr == "":
		sb.WriteString(spin + StyleMeta.Render(" scanning recent blocks…") + "\n")
	case len(m.records) == 0:
		sb.WriteString(StyleMeta.Render("  No transactions found") + "\n")
	default:
		t := HistoryTable(m.records, m.decimals())
		t.SelIdx = m.cursor
		sb.WriteString(t.Render())
	}
	return sb.String()
}

func dashControls() string {
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ tab ] switch"))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ ↑↓ ] navigate"))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ o ]") + StyleMeta.Render(" explorer"))
	sb.WriteString(sep)
	sb.WriteString(StyleWarning.Render("[ c ]") + StyleMeta.Render(" copy"))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ r ] refresh   [ q ] quit"))
	return sb.String()
}
