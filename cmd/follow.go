package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

// followTx tracks sub until it is terminal, in the status view or, with
// plain, behind a spinner. Closing the view early stops tracking; the
// pending record stays in the book.
func followTx(ctx context.Context, client tracker.ChainReader, book *history.Book, sub tracker.Submission, decimals map[string]int, plain bool) (history.Record, error) {
	if plain {
		spin := ui.NewSpinner(os.Stdout, "Waiting for confirmation...")
		spin.Start()
		rec, err := newTracker(client, book, nil).Track(ctx, sub)
		spin.Stop()
		if err == nil {
			fmt.Println(ui.RecordBlock(rec, cfg.Network(), decimals))
		}
		return rec, err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewTxStatus(sub.Hash, cfg.Network(), cfg.TrackTimeout(), decimals)
	prog := tea.NewProgram(model, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	type result struct {
		rec history.Record
		err error
	}
	done := make(chan result, 1)
	go func() {
		tr := newTracker(client, book, func(r history.Record) { prog.Send(ui.TxUpdateMsg(r)) })
		rec, err := tr.Track(ctx, sub)
		done <- result{rec, err}
		prog.Send(ui.TxDoneMsg{Record: rec, Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		return history.Record{}, err
	}
	cancel()
	res := <-done
	if errors.Is(res.err, context.Canceled) && parent.Err() == nil {
		fmt.Println(ui.Info("Stopped watching. The transaction is still tracked as pending."))
		fmt.Println(ui.Hint("Check it later with: monsend status " + sub.Hash + " --from " + sub.From))
		return res.rec, nil
	}
	return res.rec, res.err
}
