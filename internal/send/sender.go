package send

import (
	"context"
	"fmt"
	"math/big"

	"github.com/charmbracelet/log"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/contract"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

// Request is one transfer as entered by the user.
type Request struct {
	To     string
	Amount string
	Token  token.Token
}

// DispatchError carries the wallet's own message for a rejected transfer.
type DispatchError struct{ Err error }

func (e *DispatchError) Error() string { return "transaction failed: " + e.Err.Error() }
func (e *DispatchError) Unwrap() error { return e.Err }

// Sender turns validated requests into connector calls.
type Sender struct {
	connector wallet.Connector
	network   chain.Network
	onSuccess func(tracker.Submission)
	logger    *log.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithNetwork sets the network transfers must be sent on.
func WithNetwork(n chain.Network) Option { return func(s *Sender) { s.network = n } }

// WithOnSuccess registers a callback fired after the connector returns a hash.
func WithOnSuccess(fn func(tracker.Submission)) Option {
	return func(s *Sender) { s.onSuccess = fn }
}

// WithLogger sets the sender's logger.
func WithLogger(l *log.Logger) Option { return func(s *Sender) { s.logger = l } }

// NewSender creates a Sender over a connected connector.
func NewSender(c wallet.Connector, opts ...Option) *Sender {
	s := &Sender{connector: c, network: chain.MonadTestnet, logger: log.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Send validates req, makes sure the connector is on the right chain and
// dispatches a native transfer or an ERC-20 transfer call. The returned
// submission is ready for the tracker.
func (s *Sender) Send(ctx context.Context, req Request) (tracker.Submission, error) {
	value, err := Validate(req.To, req.Amount, req.Token)
	if err != nil {
		return tracker.Submission{}, err
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return tracker.Submission{}, err
	}

	hash, err := s.dispatch(ctx, req, value)
	if err != nil {
		s.logger.Debug("dispatch failed", "token", req.Token.Symbol, "err", err)
		return tracker.Submission{}, &DispatchError{Err: err}
	}

	sub := tracker.Submission{
		Hash:         hash,
		From:         s.connector.Address(),
		To:           req.To,
		Value:        value,
		TokenSymbol:  req.Token.Symbol,
		TokenAddress: req.Token.Address,
	}
	s.logger.Info("transaction submitted", "hash", hash, "amount", req.Amount, "token", req.Token.Symbol)
	if s.onSuccess != nil {
		s.onSuccess(sub)
	}
	return sub, nil
}

func (s *Sender) ensureNetwork(ctx context.Context) error {
	if s.connector.ChainID() == s.network.ID {
		return nil
	}
	if err := s.connector.SwitchChain(ctx, s.network.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrWrongNetwork, err)
	}
	return nil
}

func (s *Sender) dispatch(ctx context.Context, req Request, value *big.Int) (string, error) {
	if req.Token.Native || req.Token.Address == chain.NativeAddress {
		return s.connector.SendTransaction(ctx, req.To, value)
	}
	return s.connector.WriteContract(ctx, req.Token.Address, contract.Builtin(contract.ERC20), "transfer", req.To, value.String())
}
