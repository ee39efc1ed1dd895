package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/token"
)

// TokenTable lists balances, native first as the aggregator returns them.
func TokenTable(tokens []token.Token) *Table {
	t := NewTable([]Column{
		{Title: "Token", Width: 10},
		{Title: "Name", Width: 20},
		{Title: "Balance", Width: 24},
		{Title: "Contract", Width: 14},
	})
	for _, tk := range tokens {
		contract := "native"
		if !tk.Native {
			contract = TruncateAddr(tk.Address)
		}
		t.AddRow(Row{tk.Symbol, tk.Name, tk.Balance, contract})
	}
	return t
}

// NFTTable lists owned collections.
func NFTTable(cols []token.Collection) *Table {
	t := NewTable([]Column{
		{Title: "Collection", Width: 24},
		{Title: "Owned", Width: 8},
		{Title: "Contract", Width: 14},
	})
	for _, c := range cols {
		t.AddRow(Row{c.Name, fmt.Sprint(c.Count), TruncateAddr(c.Contract)})
	}
	return t
}

// HistoryTable lists records in the order given. decimals maps lowercase
// token contract addresses to their decimals; native values always use the
// network's.
func HistoryTable(records []history.Record, decimals map[string]int) *Table {
	t := NewTable([]Column{
		{Title: "Hash", Width: 13},
		{Title: "Type", Width: 8},
		{Title: "Counterparty", Width: 13},
		{Title: "Value", Width: 22},
		{Title: "Status", Width: 10},
		{Title: "When", Width: 10},
	})
	for _, r := range records {
		cp := counterparty(r)
		if strings.HasPrefix(cp, "0x") {
			cp = TruncateAddr(cp)
		}
		t.AddRow(Row{
			TruncateAddr(r.Hash),
			string(r.Direction),
			cp,
			RecordValue(r, decimals),
			string(r.Status),
			Ago(r.Timestamp, time.Now()),
		})
	}
	return t
}

func counterparty(r history.Record) string {
	if r.Direction == history.DirectionReceived {
		return r.From
	}
	if r.To == "" {
		return "contract creation"
	}
	return r.To
}

// RecordValue formats a record's amount with its symbol. Token amounts with
// unknown decimals are shown in base units.
func RecordValue(r history.Record, decimals map[string]int) string {
	symbol := r.TokenSymbol
	if r.TokenAddress == "" || r.TokenAddress == chain.NativeAddress {
		if symbol == "" {
			symbol = chain.MonadTestnet.NativeSymbol
		}
		return chain.WeiToMON(r.Value) + " " + symbol
	}
	if d, ok := decimals[strings.ToLower(r.TokenAddress)]; ok {
		return chain.FormatUnits(r.Value, d) + " " + symbol
	}
	if r.Value == nil {
		return "0 " + symbol
	}
	return r.Value.String() + " units " + symbol
}

// Ago renders a unix timestamp relative to now.
func Ago(unix int64, now time.Time) string {
	if unix <= 0 {
		return "-"
	}
	d := now.Sub(time.Unix(unix, 0))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// RecordBlock is the detail view of one transaction.
func RecordBlock(r history.Record, n chain.Network, decimals map[string]int) string {
	block := "-"
	if r.BlockNumber != nil {
		block = fmt.Sprintf("#%d", *r.BlockNumber)
	}
	to := r.To
	if to == "" {
		to = "-"
	}
	return KeyValueBlock("Transaction", [][2]string{
		{"Hash", r.Hash},
		{"Status", Status(r.Status)},
		{"From", r.From},
		{"To", to},
		{"Value", RecordValue(r, decimals)},
		{"Block", block},
		{"Explorer", n.TxURL(r.Hash)},
	})
}
