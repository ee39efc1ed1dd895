package send

import (
	"context"
	"sync"

	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
)

// State is a step of the send screen.
type State string

const (
	StateSelectToken State = "select-token"
	StateCompose     State = "compose"
	StateSubmit      State = "submit"
	StateSuccess     State = "success"
	StateFailed      State = "failed"
)

// Flow walks one transfer through token selection, composition and
// submission. It is safe for use from a UI goroutine and a worker.
type Flow struct {
	sender *Sender

	mu         sync.Mutex
	state      State
	token      *token.Token
	submission tracker.Submission
	err        error
}

// NewFlow starts a flow at token selection.
func NewFlow(s *Sender) *Flow {
	return &Flow{sender: s, state: StateSelectToken}
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error that moved the flow to failed, or the last
// validation error while composing.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Token returns the selected token, if any.
func (f *Flow) Token() (token.Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == nil {
		return token.Token{}, false
	}
	return *f.token, true
}

// Submission returns the submitted transfer after success.
func (f *Flow) Submission() tracker.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submission
}

// Select picks the token to send and moves to compose.
func (f *Flow) Select(tk token.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.err = &tk, nil
	f.state = StateCompose
}

// Back returns to token selection.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.err = nil, nil
	f.state = StateSelectToken
}

// Submit sends the composed transfer. Validation errors keep the flow in
// compose so the user can correct the input; a network or wallet error
// moves it to failed.
func (f *Flow) Submit(ctx context.Context, to, amount string) (tracker.Submission, error) {
	f.mu.Lock()
	if f.token == nil {
		f.err = ErrNoToken
		f.mu.Unlock()
		return tracker.Submission{}, ErrNoToken
	}
	tk := *f.token
	if _, err := Validate(to, amount, tk); err != nil {
		f.err = err
		f.mu.Unlock()
		return tracker.Submission{}, err
	}
	f.state, f.err = StateSubmit, nil
	f.mu.Unlock()

	sub, err := f.sender.Send(ctx, Request{To: to, Amount: amount, Token: tk})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state, f.err = StateFailed, err
		return tracker.Submission{}, err
	}
	f.state, f.submission = StateSuccess, sub
	return sub, nil
}

// Reset clears the outcome and returns to compose with the same token, the
// "send another" action.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err, f.submission = nil, tracker.Submission{}
	if f.token != nil {
		f.state = StateCompose
	} else {
		f.state = StateSelectToken
	}
}
