// Package frame is the host boundary of the mini app: the discovery
// manifest, the launch embed, webhook events and notification delivery.
package frame

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
)

// Config describes the mini app as published to the host. Image URLs may be
// relative to AppURL.
type Config struct {
	Name                  string   `json:"name"`
	AppURL                string   `json:"app_url"`
	IconURL               string   `json:"icon_url,omitempty"`
	ImageURL              string   `json:"image_url,omitempty"`
	SplashImageURL        string   `json:"splash_image_url,omitempty"`
	SplashBackgroundColor string   `json:"splash_background_color,omitempty"`
	ButtonTitle           string   `json:"button_title,omitempty"`
	Subtitle              string   `json:"subtitle,omitempty"`
	Description           string   `json:"description,omitempty"`
	PrimaryCategory       string   `json:"primary_category,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	OGTitle               string   `json:"og_title,omitempty"`
	OGDescription         string   `json:"og_description,omitempty"`

	AccountAssociation AccountAssociation `json:"account_association"`
}

// DefaultConfig returns the MONSEND listing rooted at appURL.
func DefaultConfig(appURL string) Config {
	return Config{
		Name:                  "MONSEND",
		AppURL:                strings.TrimRight(appURL, "/"),
		IconURL:               "/images/icon.png",
		ImageURL:              "/images/feed.png",
		SplashImageURL:        "/images/splash.png",
		SplashBackgroundColor: "#16162e",
		ButtonTitle:           "Launch MONSEND",
		Subtitle:              "send monad tokens on farcaster",
		Description:           "Easily send monad tokens from your farcaster wallet to another wallet",
		PrimaryCategory:       "finance",
		Tags:                  []string{"monad", "send", "tokens", "wallet"},
		OGTitle:               "MONSEND - Send on Farcaster",
		OGDescription:         "Send and receive MON tokens on Monad Testnet",
	}
}

// Abs resolves a path against AppURL. Absolute URLs pass through.
func (c Config) Abs(p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(c.AppURL, "/") + "/" + strings.TrimLeft(p, "/")
}

// WebhookURL is where the host posts lifecycle events.
func (c Config) WebhookURL() string { return c.Abs("/api/webhook") }

// Manifest is the document served at /.well-known/farcaster.json.
type Manifest struct {
	AccountAssociation AccountAssociation `json:"accountAssociation"`
	Frame              ManifestFrame      `json:"frame"`
}

// ManifestFrame is the "frame" object of the manifest.
type ManifestFrame struct {
	Version               string   `json:"version"`
	Name                  string   `json:"name"`
	IconURL               string   `json:"iconUrl"`
	HomeURL               string   `json:"homeUrl"`
	ImageURL              string   `json:"imageUrl"`
	SplashImageURL        string   `json:"splashImageUrl"`
	SplashBackgroundColor string   `json:"splashBackgroundColor"`
	WebhookURL            string   `json:"webhookUrl"`
	Subtitle              string   `json:"subtitle,omitempty"`
	Description           string   `json:"description,omitempty"`
	PrimaryCategory       string   `json:"primaryCategory,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	OGTitle               string   `json:"ogTitle,omitempty"`
	OGDescription         string   `json:"ogDescription,omitempty"`
}

// BuildManifest renders c as a manifest.
func BuildManifest(c Config) Manifest {
	return Manifest{
		AccountAssociation: c.AccountAssociation,
		Frame: ManifestFrame{
			Version:               "1",
			Name:                  c.Name,
			IconURL:               c.Abs(c.IconURL),
			HomeURL:               c.AppURL,
			ImageURL:              c.Abs(c.ImageURL),
			SplashImageURL:        c.Abs(c.SplashImageURL),
			SplashBackgroundColor: c.SplashBackgroundColor,
			WebhookURL:            c.WebhookURL(),
			Subtitle:              c.Subtitle,
			Description:           c.Description,
			PrimaryCategory:       c.PrimaryCategory,
			Tags:                  c.Tags,
			OGTitle:               c.OGTitle,
			OGDescription:         c.OGDescription,
		},
	}
}

// Embed is the JSON carried by the fc:frame meta tag.
type Embed struct {
	Version  string `json:"version"`
	ImageURL string `json:"imageUrl"`
	Button   Button `json:"button"`
}

// Button is the launch button of an Embed.
type Button struct {
	Title  string       `json:"title"`
	Action LaunchAction `json:"action"`
}

// LaunchAction opens the mini app.
type LaunchAction struct {
	Type                  string `json:"type"`
	Name                  string `json:"name"`
	URL                   string `json:"url"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
}

// BuildEmbed renders the launch embed for c.
func BuildEmbed(c Config) Embed {
	return Embed{
		Version:  "next",
		ImageURL: c.Abs(c.ImageURL),
		Button: Button{
			Title: c.ButtonTitle,
			Action: LaunchAction{
				Type:                  "launch_frame",
				Name:                  c.Name,
				URL:                   c.AppURL,
				SplashImageURL:        c.Abs(c.SplashImageURL),
				SplashBackgroundColor: c.SplashBackgroundColor,
			},
		},
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<meta property="og:title" content="{{.Name}}">
<meta property="og:description" content="{{.Description}}">
<meta name="fc:frame" content="{{.Embed}}">
</head>
<body>
<h1>{{.Name}}</h1>
<p>{{.Description}}</p>
</body>
</html>
`))

// RenderPage returns the HTML home page with the fc:frame tag.
func RenderPage(c Config) ([]byte, error) {
	embed, err := json.Marshal(BuildEmbed(c))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Name, Description, Embed string
	}{c.Name, c.OGDescription, string(embed)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
