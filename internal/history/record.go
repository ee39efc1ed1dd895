// Package history keeps the per-address list of transactions the wallet has
// sent or observed, and scans recent blocks for ones it has not.
package history

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Status is a transaction's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusConfirmed || s == StatusFailed }

// Direction is relative to the owning address.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// DirectionFor returns sent when from is owner, received otherwise.
func DirectionFor(owner, from string) Direction {
	if strings.EqualFold(owner, from) {
		return DirectionSent
	}
	return DirectionReceived
}

// Record is one transaction in an owner's history.
type Record struct {
	Hash         string
	From         string
	To           string // empty for contract creation
	Value        *big.Int
	Timestamp    int64   // unix seconds; wall clock at submission for local sends
	BlockNumber  *uint64 // nil until mined
	Direction    Direction
	Status       Status
	TokenSymbol  string
	TokenAddress string
}

type recordJSON struct {
	Hash         string    `json:"hash"`
	From         string    `json:"from"`
	To           *string   `json:"to"`
	Value        string    `json:"value"`
	Timestamp    int64     `json:"timestamp"`
	BlockNumber  *uint64   `json:"blockNumber"`
	Direction    Direction `json:"type"`
	Status       Status    `json:"status"`
	TokenSymbol  string    `json:"tokenSymbol,omitempty"`
	TokenAddress string    `json:"tokenAddress,omitempty"`
}

// MarshalJSON encodes Value as a decimal string so it survives JS clients.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Hash:         r.Hash,
		From:         r.From,
		Value:        "0",
		Timestamp:    r.Timestamp,
		BlockNumber:  r.BlockNumber,
		Direction:    r.Direction,
		Status:       r.Status,
		TokenSymbol:  r.TokenSymbol,
		TokenAddress: r.TokenAddress,
	}
	if r.To != "" {
		to := r.To
		out.To = &to
	}
	if r.Value != nil {
		out.Value = r.Value.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v := new(big.Int)
	if in.Value != "" {
		if _, ok := v.SetString(in.Value, 10); !ok {
			return fmt.Errorf("record %s: invalid value %q", in.Hash, in.Value)
		}
	}
	*r = Record{
		Hash:         in.Hash,
		From:         in.From,
		Value:        v,
		Timestamp:    in.Timestamp,
		BlockNumber:  in.BlockNumber,
		Direction:    in.Direction,
		Status:       in.Status,
		TokenSymbol:  in.TokenSymbol,
		TokenAddress: in.TokenAddress,
	}
	if in.To != nil {
		r.To = *in.To
	}
	return nil
}

func hashKey(h string) string { return strings.ToLower(h) }

// Merge combines locally persisted records with chain-observed ones. The
// result holds each hash once and is ordered by Sort. On a collision the
// local record wins, with missing chain fields filled in from the observed
// copy.
func Merge(local, observed []Record) []Record {
	out := make([]Record, 0, len(local)+len(observed))
	index := make(map[string]int, len(local)+len(observed))

	for _, r := range local {
		k := hashKey(r.Hash)
		if i, ok := index[k]; ok {
			out[i] = r // later local entry is the newer write
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	for _, r := range observed {
		k := hashKey(r.Hash)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		backfill(&out[i], r)
	}

	Sort(out)
	return out
}

func backfill(dst *Record, src Record) {
	if dst.BlockNumber == nil && src.BlockNumber != nil {
		bn := *src.BlockNumber
		dst.BlockNumber = &bn
	}
	if dst.To == "" {
		dst.To = src.To
	}
	if dst.From == "" {
		dst.From = src.From
	}
	if (dst.Value == nil || dst.Value.Sign() == 0) && src.Value != nil {
		dst.Value = new(big.Int).Set(src.Value)
	}
}

// Sort orders records pending-first, then newest timestamp first. Ties fall
// back to block height, then hash, so the order is deterministic.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if ap, bp := a.Status == StatusPending, b.Status == StatusPending; ap != bp {
			return ap
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		if ab, bb := blockOf(a), blockOf(b); ab != bb {
			return ab > bb
		}
		return a.Hash < b.Hash
	})
}

func blockOf(r Record) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return *r.BlockNumber
}

// Upsert replaces the record with r's hash in place, or appends r.
func Upsert(records []Record, r Record) []Record {
	k := hashKey(r.Hash)
	for i := range records {
		if hashKey(records[i].Hash) == k {
			records[i] = r
			return records
		}
	}
	return append(records, r)
}

// Find returns the record with hash, if present.
func Find(records []Record, hash string) (Record, bool) {
	k := hashKey(hash)
	for _, r := range records {
		if hashKey(r.Hash) == k {
			return r, true
		}
	}
	return Record{}, false
}
