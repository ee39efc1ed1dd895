package frame

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedEnvelope is returned for JSON Farcaster Signatures that do not
// decode.
var ErrMalformedEnvelope = errors.New("malformed signed envelope")

// Envelope is a JSON Farcaster Signature: three base64url segments.
type Envelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// AccountAssociation proves the app domain is owned by a Farcaster account.
type AccountAssociation = Envelope

// Header is the decoded header segment.
type Header struct {
	FID  int64  `json:"fid"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

// DecodeHeader decodes the header segment.
func (e Envelope) DecodeHeader() (Header, error) {
	var h Header
	if err := decodeSegment(e.Header, &h); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrMalformedEnvelope, err)
	}
	return h, nil
}

// DecodePayload decodes the payload segment into v.
func (e Envelope) DecodePayload(v any) error {
	if err := decodeSegment(e.Payload, v); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// SigningInput is the string the signature covers.
func (e Envelope) SigningInput() string { return e.Header + "." + e.Payload }

// MessageSigner produces an EIP-191 signature. *wallet.Signer satisfies it.
type MessageSigner interface {
	Address() string
	SignMessage(message []byte) ([]byte, error)
}

// Associate signs a custody account association for domain.
func Associate(s MessageSigner, fid int64, domain string) (AccountAssociation, error) {
	domain = strings.TrimSpace(domain)
	if fid <= 0 || domain == "" {
		return AccountAssociation{}, errors.New("fid and domain are required")
	}
	header, err := encodeSegment(Header{FID: fid, Type: "custody", Key: s.Address()})
	if err != nil {
		return AccountAssociation{}, err
	}
	payload, err := encodeSegment(struct {
		Domain string `json:"domain"`
	}{domain})
	if err != nil {
		return AccountAssociation{}, err
	}
	env := Envelope{Header: header, Payload: payload}
	sig, err := s.SignMessage([]byte(env.SigningInput()))
	if err != nil {
		return AccountAssociation{}, fmt.Errorf("signing account association: %w", err)
	}
	env.Signature = base64.RawURLEncoding.EncodeToString(sig)
	return env, nil
}

// RecoverFunc recovers the signing address of an EIP-191 signature.
// wallet.VerifyMessage satisfies it.
type RecoverFunc func(message, sig []byte) (common.Address, error)

// VerifyAssociation checks that the signature was made by the key named in
// the header and returns the associated domain.
func VerifyAssociation(a AccountAssociation, recoverFn RecoverFunc) (string, error) {
	h, err := a.DecodeHeader()
	if err != nil {
		return "", err
	}
	var p struct {
		Domain string `json:"domain"`
	}
	if err := a.DecodePayload(&p); err != nil {
		return "", err
	}
	sig, err := decodeBase64(a.Signature)
	if err != nil {
		return "", fmt.Errorf("%w: signature: %v", ErrMalformedEnvelope, err)
	}
	addr, err := recoverFn([]byte(a.SigningInput()), sig)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(addr.Hex(), h.Key) {
		return "", fmt.Errorf("association signed by %s, header names %s", addr.Hex(), h.Key)
	}
	return p.Domain, nil
}

func encodeSegment(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeSegment(s string, v any) error {
	data, err := decodeBase64(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// decodeBase64 accepts url-safe and standard alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return base64.RawURLEncoding.DecodeString(s)
}
