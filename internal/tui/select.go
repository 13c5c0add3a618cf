// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookscout/internal/library"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a book.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped processing entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *library.Book
}

type bookItem struct {
	library.Book
}

func (i bookItem) Title() string {
	if i.PublicationYear == "" {
		return i.Book.Title
	}
	return fmt.Sprintf("%s (%s)", i.Book.Title, i.PublicationYear)
}

func (i bookItem) FilterValue() string {
	return i.Book.Title
}

func (i bookItem) Description() string {
	return i.Book.Description
}

// cardStyles draws each book with a bar on its left edge; the focused card's
// bar is highlighted.
type cardStyles struct {
	card    lipgloss.Style
	focused lipgloss.Style
	meta    lipgloss.Style
	title   lipgloss.Style
	credits lipgloss.Style
	desc    lipgloss.Style
}

func newCardStyles() cardStyles {
	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("240")).
		PaddingLeft(1)

	return cardStyles{
		card: card,
		focused: card.Copy().
			BorderForeground(lipgloss.Color("42")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("73")),
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		credits: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		desc:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243")),
	}
}

type bookDelegate struct {
	styles cardStyles
}

func (d bookDelegate) Height() int                         { return 4 }
func (d bookDelegate) Spacing() int                        { return 1 }
func (d bookDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	book, ok := item.(bookItem)
	if !ok {
		return
	}

	width := m.Width() - 3
	meta := fmt.Sprintf("ISBN %s · %s", book.ISBN, formatLoans(book.LoanCount))
	lines := []string{
		d.styles.title.Render(truncate(book.Title(), width)),
		d.styles.credits.Render(formatCredits(book.Book, width)),
		d.styles.meta.Render(truncate(meta, width)),
		d.styles.desc.Render(truncate(book.Description(), width)),
	}

	style := d.styles.card
	if idx == m.Index() {
		style = d.styles.focused
	}
	_, _ = io.WriteString(w, style.Render(strings.Join(lines, "\n")))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, items []bookItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	l := list.New(listItems, bookDelegate{styles: newCardStyles()}, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:   l,
		query:  query,
		result: SelectionResult{Action: ActionNone},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(bookItem); ok {
				book := selected.Book
				m.result = SelectionResult{Action: ActionSelected, Selection: &book}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("%d books found for: %s", len(m.list.Items()), m.query))
	keys := []string{
		keyCap.Render("↑↓") + " move",
		keyCap.Render("enter") + " holdings",
		keyCap.Render("s") + " skip",
		keyCap.Render("q") + " stop",
	}
	footer := footerStyle.Render(strings.Join(keys, "   "))
	return header + "\n" + m.list.View() + "\n" + footer
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			PaddingBottom(1)

	keyCap = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("250")).
		Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			PaddingTop(1).
			Foreground(lipgloss.Color("245"))
)

// Selectable keeps only books whose ISBN can be used for a holdings lookup.
func Selectable(books []library.Book) []library.Book {
	out := make([]library.Book, 0, len(books))
	for _, b := range books {
		if library.ValidISBN(b.ISBN) {
			out = append(out, b)
		}
	}
	return out
}

// Select lets the user pick one book from search results. A single candidate
// is selected without showing the UI.
func Select(query string, books []library.Book) (SelectionResult, error) {
	candidates := Selectable(books)
	switch len(candidates) {
	case 0:
		return SelectionResult{Action: ActionSkipped}, nil
	case 1:
		return SelectionResult{Action: ActionSelected, Selection: &candidates[0]}, nil
	}

	items := make([]bookItem, len(candidates))
	for i, b := range candidates {
		items[i] = bookItem{Book: b}
	}

	finalModel, err := runProgram(newModel(query, items))
	if err != nil {
		return SelectionResult{}, err
	}
	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}
	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// formatCredits joins author, publisher and year into one line
func formatCredits(b library.Book, availableWidth int) string {
	var parts []string
	for _, p := range []string{b.Author, b.Publisher, b.PublicationYear} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "No details available"
	}
	return truncate(strings.Join(parts, " | "), availableWidth)
}

func formatLoans(count int) string {
	switch {
	case count <= 0:
		return "no loan data"
	case count >= 1000:
		return fmt.Sprintf("%.1fK loans", float64(count)/1000)
	default:
		return fmt.Sprintf("%d loans", count)
	}
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
