package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/monsend/internal/token"
)

// ErrNothingToPick is returned by PickItem for an empty list.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string // primary text, e.g. token symbol
	SubLabel string // dimmed secondary text, e.g. balance
	Value    string // returned on selection
}

// TokenItems turns the token list into picker entries keyed by address.
func TokenItems(tokens []token.Token) []PickerItem {
	items := make([]PickerItem, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, PickerItem{
			Label:    t.Symbol,
			SubLabel: t.Balance + "  " + t.Name,
			Value:    t.Address,
		})
	}
	return items
}

// Picker is the bubbletea model behind PickItem.
type Picker struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

// NewPicker creates a picker over items.
func NewPicker(title string, items []PickerItem) Picker {
	return Picker{title: title, items: items}
}

// Selected returns the chosen item, if any.
func (m Picker) Selected() (PickerItem, bool) {
	if m.selected == nil {
		return PickerItem{}, false
	}
	return *m.selected, true
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.items)
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case "down", "j", "tab":
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "enter", " ":
		if n > 0 {
			item := m.items[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Picker) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(StyleTitle.Render("  "+m.title) + "\n\n")

	for i, item := range m.items {
		line := "    " + item.Label
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render("  ▸ " + item.Label)
			if item.SubLabel != "" {
				line += "  " + StyleMeta.Render(item.SubLabel)
			}
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs the picker and returns the selected item's Value. It returns
// ("", nil) when the user cancels.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}
	final, err := tea.NewProgram(NewPicker(title, items)).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	item, ok := final.(Picker).Selected()
	if !ok {
		return "", nil
	}
	return item.Value, nil
}
