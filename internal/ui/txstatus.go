package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/history"
)

// TxUpdateMsg carries a persisted status transition from the tracker.
type TxUpdateMsg history.Record

// TxDoneMsg ends the view with the tracker's final result.
type TxDoneMsg struct {
	Record history.Record
	Err    error
}

type txTickMsg time.Time

func txTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return txTickMsg(t) })
}

// TxStatusModel follows one transaction hash until it is confirmed or
// failed. Quitting early only closes the view; the caller cancels tracking.
type TxStatusModel struct {
	Hash    string
	Network chain.Network
	Timeout time.Duration

	rec      *history.Record
	err      error
	done     bool
	started  time.Time
	elapsed  time.Duration
	frame    int
	decimals map[string]int
}

// NewTxStatus creates the view for hash. decimals formats token amounts, as
// in HistoryTable.
func NewTxStatus(hash string, n chain.Network, timeout time.Duration, decimals map[string]int) TxStatusModel {
	return TxStatusModel{Hash: hash, Network: n, Timeout: timeout, decimals: decimals}
}

// Record returns the last status seen.
func (m TxStatusModel) Record() (history.Record, bool) {
	if m.rec == nil {
		return history.Record{}, false
	}
	return *m.rec, true
}

// Done reports whether the tracker finished.
func (m TxStatusModel) Done() bool { return m.done }

// Err returns the tracker's error, if it ended with one.
func (m TxStatusModel) Err() error { return m.err }

func (m TxStatusModel) Init() tea.Cmd { return txTick() }

func (m TxStatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case txTickMsg:
		if m.done {
			return m, nil
		}
		t := time.Time(msg)
		if m.started.IsZero() {
			m.started = t
		}
		m.elapsed = t.Sub(m.started)
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, txTick()

	case TxUpdateMsg:
		rec := history.Record(msg)
		m.rec = &rec

	case TxDoneMsg:
		rec := msg.Record
		m.rec, m.err, m.done = &rec, msg.Err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m TxStatusModel) View() string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Transaction "+TruncateAddr(m.Hash)) + "\n")

	status := history.StatusPending
	if m.rec != nil {
		status = m.rec.Status
	}

	switch {
	case m.err != nil && !status.Terminal():
		sb.WriteString(Err(m.err.Error()) + "\n")
	case status == history.StatusConfirmed:
		sb.WriteString(Success("Transaction confirmed") + "\n")
	case status == history.StatusFailed:
		sb.WriteString(Err("Transaction failed") + "\n")
	default:
		line := fmt.Sprintf("%s waiting for confirmation… %s", spinnerFrames[m.frame], m.elapsed.Truncate(time.Second))
		if m.Timeout > 0 {
			line += " / " + m.Timeout.String()
		}
		sb.WriteString(StyleWarning.Render(line) + "\n")
	}

	if m.rec != nil {
		sb.WriteString(RecordBlock(*m.rec, m.Network, m.decimals) + "\n")
	} else {
		sb.WriteString(Meta("  "+m.Network.TxURL(m.Hash)) + "\n")
	}
	if !m.done {
		sb.WriteString(StyleMeta.Render("  [ q ] stop watching") + "\n")
	}
	return sb.String()
}
