package send

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/contract"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
)

const (
	from      = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	recipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	usdc      = "0x1111111111111111111111111111111111111111"
)

// fakeConnector records every call made through the capability surface.
type fakeConnector struct {
	chainID   int64
	switchErr error
	sendErr   error

	switched []int64
	sends    []*big.Int
	writes   [][]string
	calls    int
}

func (f *fakeConnector) Connect(context.Context) error { f.calls++; return nil }
func (f *fakeConnector) Disconnect()                   { f.calls++ }
func (f *fakeConnector) Address() string               { return from }
func (f *fakeConnector) ChainID() int64                { return f.chainID }

func (f *fakeConnector) SwitchChain(_ context.Context, id int64) error {
	f.calls++
	f.switched = append(f.switched, id)
	if f.switchErr != nil {
		return f.switchErr
	}
	f.chainID = id
	return nil
}

func (f *fakeConnector) SendTransaction(_ context.Context, _ string, value *big.Int) (string, error) {
	f.calls++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sends = append(f.sends, value)
	return "0xnative", nil
}

func (f *fakeConnector) WriteContract(_ context.Context, addr string, _ contract.ABI, fn string, args ...string) (string, error) {
	f.calls++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.writes = append(f.writes, append([]string{addr, fn}, args...))
	return "0xerc20", nil
}

func mon(balance string) token.Token {
	raw, err := chain.ParseUnits(balance, 18)
	if err != nil {
		panic(err)
	}
	return token.Token{Address: chain.NativeAddress, Symbol: "MON", Decimals: 18, Balance: balance, Raw: raw, Native: true}
}

func usdcToken(balance string) token.Token {
	raw, _ := chain.ParseUnits(balance, 6)
	return token.Token{Address: usdc, Symbol: "USDC", Decimals: 6, Balance: balance, Raw: raw}
}

func newSender(c *fakeConnector, opts ...Option) *Sender {
	return NewSender(c, append([]Option{WithLogger(log.New(io.Discard))}, opts...)...)
}

func TestValidateOrder(t *testing.T) {
	tk := mon("2")
	tests := []struct {
		name      string
		recipient string
		amount    string
		want      error
	}{
		{"empty recipient", "", "1", ErrMissingFields},
		{"empty amount", recipient, " ", ErrMissingFields},
		{"missing fields beats bad address", "nope", "", ErrMissingFields},
		{"bad recipient", "0x123", "1", ErrInvalidRecipient},
		{"bad recipient beats bad amount", "nope", "abc", ErrInvalidRecipient},
		{"non numeric", recipient, "abc", ErrInvalidAmount},
		{"zero", recipient, "0", ErrInvalidAmount},
		{"negative", recipient, "-1", ErrInvalidAmount},
		{"too precise", recipient, "0.0000000000000000001", ErrInvalidAmount},
		{"above balance", recipient, "2.000000000000000001", ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.recipient, tt.amount, tk)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateExactBalance(t *testing.T) {
	raw, err := Validate(recipient, "2", mon("2"))
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", raw.String())
}

func TestValidateHugeExponentExceedsBalance(t *testing.T) {
	_, err := Validate(recipient, "1e999999999", mon("2"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = Validate(recipient, "2e0", mon("2"))
	assert.NoError(t, err)

	_, err = Validate(recipient, "1e-999999999", mon("2"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidateFallsBackToDisplayBalance(t *testing.T) {
	tk := token.Token{Symbol: "X", Decimals: 2, Balance: "1.5"}
	_, err := Validate(recipient, "1.5", tk)
	assert.NoError(t, err)
	_, err = Validate(recipient, "1.51", tk)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSendNativeScenario(t *testing.T) {
	c := &fakeConnector{chainID: chain.MonadTestnet.ID}
	var fired []tracker.Submission
	s := newSender(c, WithOnSuccess(func(sub tracker.Submission) { fired = append(fired, sub) }))

	sub, err := s.Send(context.Background(), Request{To: recipient, Amount: "1.5", Token: mon("2.0")})
	require.NoError(t, err)

	require.Len(t, c.sends, 1)
	assert.Equal(t, "1500000000000000000", c.sends[0].String())
	assert.Empty(t, c.writes)
	assert.Empty(t, c.switched)

	assert.Equal(t, "0xnative", sub.Hash)
	assert.Equal(t, from, sub.From)
	assert.Equal(t, "native", sub.TokenAddress)
	assert.Equal(t, []tracker.Submission{sub}, fired)
}

func TestSendERC20UsesTransfer(t *testing.T) {
	c := &fakeConnector{chainID: chain.MonadTestnet.ID}
	sub, err := newSender(c).Send(context.Background(), Request{To: recipient, Amount: "12.25", Token: usdcToken("100")})
	require.NoError(t, err)
	require.Len(t, c.writes, 1)
	assert.Equal(t, []string{usdc, "transfer", recipient, "12250000"}, c.writes[0])
	assert.Equal(t, "0xerc20", sub.Hash)
	assert.Equal(t, "USDC", sub.TokenSymbol)
	assert.Equal(t, int64(12250000), sub.Value.Int64())
}

func TestSendInvalidAmountMakesNoCalls(t *testing.T) {
	c := &fakeConnector{chainID: 1}
	fired := false
	_, err := newSender(c, WithOnSuccess(func(tracker.Submission) { fired = true })).
		Send(context.Background(), Request{To: recipient, Amount: "abc", Token: mon("2")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Zero(t, c.calls)
	assert.False(t, fired)
}

func TestSendSwitchesChain(t *testing.T) {
	c := &fakeConnector{chainID: 1}
	_, err := newSender(c).Send(context.Background(), Request{To: recipient, Amount: "1", Token: mon("2")})
	require.NoError(t, err)
	assert.Equal(t, []int64{chain.MonadTestnet.ID}, c.switched)
}

func TestSendWrongNetwork(t *testing.T) {
	cause := errors.New("user rejected")
	c := &fakeConnector{chainID: 1, switchErr: cause}
	_, err := newSender(c).Send(context.Background(), Request{To: recipient, Amount: "1", Token: mon("2")})
	assert.ErrorIs(t, err, ErrWrongNetwork)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, c.sends)
}

func TestSendWalletErrorIsVerbatim(t *testing.T) {
	c := &fakeConnector{chainID: chain.MonadTestnet.ID, sendErr: errors.New("insufficient funds for gas")}
	_, err := newSender(c).Send(context.Background(), Request{To: recipient, Amount: "1", Token: mon("2")})

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "transaction failed: insufficient funds for gas", err.Error())
}

func TestFlowStates(t *testing.T) {
	c := &fakeConnector{chainID: chain.MonadTestnet.ID}
	f := NewFlow(newSender(c))
	ctx := context.Background()
	assert.Equal(t, StateSelectToken, f.State())

	_, err := f.Submit(ctx, recipient, "1")
	assert.ErrorIs(t, err, ErrNoToken)

	f.Select(mon("2"))
	assert.Equal(t, StateCompose, f.State())

	_, err = f.Submit(ctx, recipient, "3")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, StateCompose, f.State(), "validation keeps the user composing")

	sub, err := f.Submit(ctx, recipient, "1")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, f.State())
	assert.Equal(t, sub, f.Submission())

	f.Reset()
	assert.Equal(t, StateCompose, f.State())

	f.Back()
	assert.Equal(t, StateSelectToken, f.State())
	_, ok := f.Token()
	assert.False(t, ok)
}

func TestFlowFailure(t *testing.T) {
	c := &fakeConnector{chainID: chain.MonadTestnet.ID, sendErr: errors.New("nonce too low")}
	f := NewFlow(newSender(c))
	f.Select(mon("2"))
	_, err := f.Submit(context.Background(), recipient, "1")
	require.Error(t, err)
	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, err, f.Err())
}
