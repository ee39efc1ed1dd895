package frame

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/monsend/internal/wallet"
)

const (
	anvilKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func seg(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(data)
}

func TestBuildManifest(t *testing.T) {
	c := DefaultConfig("https://monsend.example/")
	m := BuildManifest(c)

	assert.Equal(t, "1", m.Frame.Version)
	assert.Equal(t, "MONSEND", m.Frame.Name)
	assert.Equal(t, "https://monsend.example", m.Frame.HomeURL)
	assert.Equal(t, "https://monsend.example/images/icon.png", m.Frame.IconURL)
	assert.Equal(t, "https://monsend.example/api/webhook", m.Frame.WebhookURL)
	assert.Equal(t, "finance", m.Frame.PrimaryCategory)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "accountAssociation")
	for _, k := range []string{"splashImageUrl", "splashBackgroundColor", "ogTitle", "ogDescription", "tags"} {
		assert.Contains(t, raw["frame"], k)
	}
}

func TestConfigAbs(t *testing.T) {
	c := Config{AppURL: "https://a.example"}
	assert.Equal(t, "https://a.example/x.png", c.Abs("x.png"))
	assert.Equal(t, "https://cdn.example/x.png", c.Abs("https://cdn.example/x.png"))
	assert.Equal(t, "", c.Abs(""))
}

func TestRenderPageCarriesEmbed(t *testing.T) {
	page, err := RenderPage(DefaultConfig("https://monsend.example"))
	require.NoError(t, err)

	m := regexp.MustCompile(`<meta name="fc:frame" content="([^"]*)">`).FindSubmatch(page)
	require.NotNil(t, m, string(page))

	var e Embed
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(string(m[1]))), &e))
	assert.Equal(t, "next", e.Version)
	assert.Equal(t, "Launch MONSEND", e.Button.Title)
	assert.Equal(t, "launch_frame", e.Button.Action.Type)
	assert.Equal(t, "https://monsend.example", e.Button.Action.URL)
	assert.Equal(t, "https://monsend.example/images/splash.png", e.Button.Action.SplashImageURL)
}

func TestAssociateAndVerify(t *testing.T) {
	ks := wallet.NewInMemoryKeystore()
	m := wallet.NewManager(wallet.WithInMemoryStore(), wallet.WithKeystore(ks))
	w, err := m.AddWithKey("dev", anvilKey)
	require.NoError(t, err)

	assoc, err := Associate(wallet.NewSigner(w, ks), 328181, "monsend.example")
	require.NoError(t, err)

	h, err := assoc.DecodeHeader()
	require.NoError(t, err)
	assert.Equal(t, Header{FID: 328181, Type: "custody", Key: anvilAddr}, h)

	domain, err := VerifyAssociation(assoc, wallet.VerifyMessage)
	require.NoError(t, err)
	assert.Equal(t, "monsend.example", domain)

	tampered := assoc
	tampered.Payload = seg(t, map[string]string{"domain": "evil.example"})
	_, err = VerifyAssociation(tampered, wallet.VerifyMessage)
	assert.Error(t, err)
}

func TestAssociateRequiresFIDAndDomain(t *testing.T) {
	_, err := Associate(nil, 0, "x")
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	env := Envelope{
		Header:  seg(t, Header{FID: 42, Type: "app_key", Key: "0xabc"}),
		Payload: seg(t, map[string]any{"event": "frame_added", "notificationDetails": map[string]string{"url": "https://host/n", "token": "tok"}}),
	}
	ev, err := DecodeEvent(env)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.FID)
	assert.Equal(t, EventAdded, ev.Name)
	require.NotNil(t, ev.NotificationDetails)
	assert.Equal(t, "tok", ev.NotificationDetails.Token)

	// Standard base64 with padding decodes too.
	env.Header = base64.StdEncoding.EncodeToString([]byte(`{"fid":7,"type":"app_key","key":"0x1"}`))
	ev, err = DecodeEvent(env)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ev.FID)

	_, err = DecodeEvent(Envelope{Header: "!!", Payload: env.Payload})
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func tokenStores(t *testing.T) map[string]TokenStore {
	sq, err := OpenSQLiteTokens(filepath.Join(t.TempDir(), "monsend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]TokenStore{"mem": NewMemTokenStore(), "sqlite": sq}
}

func TestWebhookLifecycle(t *testing.T) {
	for name, store := range tokenStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wh := NewWebhook(store, quiet())
			event := func(name string, details *NotificationDetails) Envelope {
				p := map[string]any{"event": name}
				if details != nil {
					p["notificationDetails"] = details
				}
				return Envelope{Header: seg(t, Header{FID: 9}), Payload: seg(t, p)}
			}

			_, err := wh.Handle(ctx, event(EventAdded, &NotificationDetails{URL: "https://host/n", Token: "a"}))
			require.NoError(t, err)
			d, ok, err := store.Get(ctx, 9)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "a", d.Token)

			_, err = wh.Handle(ctx, event(EventNotificationsEnabled, &NotificationDetails{URL: "https://host/n", Token: "b"}))
			require.NoError(t, err)
			d, _, _ = store.Get(ctx, 9)
			assert.Equal(t, "b", d.Token)

			fids, err := store.FIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{9}, fids)

			_, err = wh.Handle(ctx, event(EventNotificationsDisabled, nil))
			require.NoError(t, err)
			_, ok, _ = store.Get(ctx, 9)
			assert.False(t, ok)

			_, err = wh.Handle(ctx, event("something_else", nil))
			assert.NoError(t, err)
		})
	}
}

// hostServer mimics the notification endpoint.
func hostServer(t *testing.T, status int, result map[string][]string, got *notificationRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNotifierSend(t *testing.T) {
	var got notificationRequest
	srv := hostServer(t, http.StatusOK, map[string][]string{"successfulTokens": {"tok"}}, &got)

	n := NewNotifier(nil, WithNotifierLogger(quiet()))
	err := n.Send(context.Background(), 1, NotificationDetails{URL: srv.URL, Token: "tok"},
		Notification{Title: "Sent", Body: "1.5 MON", TargetURL: "https://monsend.example"})
	require.NoError(t, err)

	assert.Equal(t, []string{"tok"}, got.Tokens)
	assert.Equal(t, "Sent", got.Title)
	_, err = uuid.Parse(got.NotificationID)
	assert.NoError(t, err)
}

func TestNotifierRateLimited(t *testing.T) {
	srv := hostServer(t, http.StatusOK, map[string][]string{"rateLimitedTokens": {"tok"}}, nil)
	err := NewNotifier(nil).Send(context.Background(), 1, NotificationDetails{URL: srv.URL, Token: "tok"}, Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrRateLimited)

	srv = hostServer(t, http.StatusTooManyRequests, nil, nil)
	err = NewNotifier(nil).Send(context.Background(), 1, NotificationDetails{URL: srv.URL, Token: "tok"}, Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestNotifierInvalidTokenIsDropped(t *testing.T) {
	ctx := context.Background()
	srv := hostServer(t, http.StatusOK, map[string][]string{"invalidTokens": {"tok"}}, nil)
	store := NewMemTokenStore()
	require.NoError(t, store.Set(ctx, 5, NotificationDetails{URL: srv.URL, Token: "tok"}))

	err := NewNotifier(store, WithNotifierLogger(quiet())).SendToUser(ctx, 5, Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, ok, _ := store.Get(ctx, 5)
	assert.False(t, ok)
}

func TestNotifierErrors(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, NewNotifier(nil).Send(ctx, 1, NotificationDetails{}, Notification{}), ErrNoToken)
	assert.ErrorIs(t, NewNotifier(NewMemTokenStore()).SendToUser(ctx, 1, Notification{}), ErrNoToken)

	srv := hostServer(t, http.StatusInternalServerError, nil, nil)
	err := NewNotifier(nil).Send(ctx, 1, NotificationDetails{URL: srv.URL, Token: "tok"}, Notification{})
	assert.ErrorContains(t, err, "HTTP 500")
}
