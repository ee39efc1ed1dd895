package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Notification delivery outcomes.
var (
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidToken = errors.New("notification token is no longer valid")
	ErrNoToken      = errors.New("user has not enabled notifications")
)

// Notification is the message shown to the user.
type Notification struct {
	Title     string
	Body      string
	TargetURL string
}

type notificationRequest struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

type notificationResponse struct {
	Result struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

// Notifier posts notifications to the host's notification endpoint.
type Notifier struct {
	client *http.Client
	tokens TokenStore
	newID  func() string
	logger *log.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) NotifierOption { return func(n *Notifier) { n.client = c } }

// WithNotifierLogger sets the notifier's logger.
func WithNotifierLogger(l *log.Logger) NotifierOption { return func(n *Notifier) { n.logger = l } }

// NewNotifier creates a Notifier. tokens may be nil; when set, invalid
// tokens reported by the host are removed from it.
func NewNotifier(tokens TokenStore, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		client: &http.Client{Timeout: 15 * time.Second},
		tokens: tokens,
		newID:  func() string { return uuid.NewString() },
		logger: log.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Send delivers msg to one user. It returns ErrRateLimited or ErrInvalidToken
// when the host reports the token as such.
func (n *Notifier) Send(ctx context.Context, fid int64, d NotificationDetails, msg Notification) error {
	if d.URL == "" || d.Token == "" {
		return ErrNoToken
	}
	body, err := json.Marshal(notificationRequest{
		NotificationID: n.newID(),
		Title:          msg.Title,
		Body:           msg.Body,
		TargetURL:      msg.TargetURL,
		Tokens:         []string{d.Token},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification endpoint returned HTTP %d", resp.StatusCode)
	}

	var out notificationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decoding notification response: %w", err)
	}
	switch {
	case slices.Contains(out.Result.RateLimitedTokens, d.Token):
		return ErrRateLimited
	case slices.Contains(out.Result.InvalidTokens, d.Token):
		if n.tokens != nil {
			if err := n.tokens.Delete(ctx, fid); err != nil {
				n.logger.Warn("failed to drop invalid token", "fid", fid, "err", err)
			}
		}
		return ErrInvalidToken
	case slices.Contains(out.Result.SuccessfulTokens, d.Token):
		n.logger.Debug("notification sent", "fid", fid)
		return nil
	}
	return errors.New("notification endpoint did not acknowledge the token")
}

// SendToUser looks up the user's details in the registry and sends msg.
func (n *Notifier) SendToUser(ctx context.Context, fid int64, msg Notification) error {
	if n.tokens == nil {
		return ErrNoToken
	}
	d, ok, err := n.tokens.Get(ctx, fid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoToken
	}
	return n.Send(ctx, fid, d, msg)
}
