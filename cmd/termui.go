package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ygunayer/bookcart/internal/book"
	"github.com/ztrue/tracerr"
)

// genreModel lets the user move through the genres with the arrow keys or type
// a name or number, the same answers the line prompt accepts.
type genreModel struct {
	genres  []book.Genre
	cursor  int
	input   string
	message string
	chosen  *book.Genre
	aborted bool
}

func newGenreModel(genres []book.Genre) genreModel {
	return genreModel{genres: genres}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A49FA5"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

func (m genreModel) Init() tea.Cmd {
	return nil
}

func (m genreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.genres)-1 {
			m.cursor++
		}
	case tea.KeyEsc:
		m.input = ""
		m.message = ""
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(keyMsg.Runes)
		m.message = ""
	}

	return m, nil
}

// submit resolves the typed answer, or the highlighted genre when nothing was typed.
func (m genreModel) submit() (tea.Model, tea.Cmd) {
	if len(m.genres) == 0 {
		m.aborted = true
		return m, tea.Quit
	}

	answer := strings.TrimSpace(m.input)
	if answer == "" {
		g := m.genres[m.cursor]
		m.chosen = &g
		return m, tea.Quit
	}

	g, ok := book.IsInputGenreValid(m.genres, answer)
	if !ok {
		m.message = book.RejectionMessage(m.genres, answer)
		m.input = ""
		return m, nil
	}
	m.chosen = &g
	return m, tea.Quit
}

func (m genreModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a genre"))
	b.WriteString("\n\n")

	for i, g := range m.genres {
		cursor := " "
		name := g.Name
		if m.cursor == i {
			cursor = ">"
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s [%d] %s\n", cursor, i+1, name)
	}

	fmt.Fprintf(&b, "\n> %s_\n", m.input)
	if m.message != "" {
		b.WriteString(warningStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + infoStyle.Render("Arrow keys to move, type a name or number, enter to select, ctrl+c to quit"))
	return b.String()
}

// runGenrePicker shows the genres in a terminal menu until one is chosen.
func runGenrePicker(ctx context.Context, genres []book.Genre) (book.Genre, error) {
	p := tea.NewProgram(newGenreModel(genres), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return book.Genre{}, tracerr.Wrap(err)
	}

	m := final.(genreModel)
	if m.aborted || m.chosen == nil {
		return book.Genre{}, book.ErrNoSelection
	}
	return *m.chosen, nil
}
