package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Mohsinsiddi/monsend/internal/history"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: received, confirmed
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: sent, pending
	ColorError     = lipgloss.Color("#FF4444") // red: failed
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF")
	ColorMeta      = lipgloss.Color("#555555")
	ColorBorder    = lipgloss.Color("#1E3A5F")
	ColorBrand     = lipgloss.Color("#836EF9") // Monad purple
	ColorHighlight = lipgloss.Color("#F15BB5")
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorAddress).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleBrand   = lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleDanger = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorBrand).
			Bold(true).
			MarginBottom(1)

	StyleTabActive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(ColorBrand).
			Bold(true).
			Padding(0, 2)

	StyleTab = lipgloss.NewStyle().
			Foreground(ColorMeta).
			Padding(0, 2)

	StyleDim = lipgloss.NewStyle().Foreground(ColorMeta)
)

// Banner returns the monsend banner.
func Banner() string {
	art := `
  ███╗   ███╗ ██████╗ ███╗   ██╗███████╗███████╗███╗   ██╗██████╗
  ████╗ ████║██╔═══██╗████╗  ██║██╔════╝██╔════╝████╗  ██║██╔══██╗
  ██╔████╔██║██║   ██║██╔██╗ ██║███████╗█████╗  ██╔██╗ ██║██║  ██║
  ██║╚██╔╝██║██║   ██║██║╚██╗██║╚════██║██╔══╝  ██║╚██╗██║██║  ██║
  ██║ ╚═╝ ██║╚██████╔╝██║ ╚████║███████║███████╗██║ ╚████║██████╔╝
  ╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚══════╝╚══════╝╚═╝  ╚═══╝╚═════╝`

	tagline := StyleMeta.Render("     Send tokens on Monad Testnet")
	return StyleBrand.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a suggestion for the next command.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Brand formats a network or app name.
func Brand(s string) string { return StyleBrand.Render(s) }

// DangerBox frames content in a red border, used before signing.
func DangerBox(content string) string { return StyleDanger.Render(content) }

// Status renders a transaction status with its color and glyph.
func Status(s history.Status) string {
	switch s {
	case history.StatusConfirmed:
		return StyleSuccess.Render("✓ confirmed")
	case history.StatusFailed:
		return StyleError.Render("✗ failed")
	default:
		return StyleWarning.Render("… pending")
	}
}

// Direction renders a sent/received arrow.
func Direction(d history.Direction) string {
	if d == history.DirectionReceived {
		return StyleSuccess.Render("← in")
	}
	return StyleWarning.Render("→ out")
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
