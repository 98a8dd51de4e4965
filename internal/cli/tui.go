package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/search"
	"github.com/opcmap/policymap/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse policies interactively",
		Long: `Browse policies interactively.

Type to fuzzy-filter, use the arrow keys to move, enter to open a policy and
esc to go back. q quits when the filter is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewBrowseModel(snap), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// BrowseModel - Interactive policy browser
// =============================================================================

// BrowseModel is the bubbletea model for the policy browser.
type BrowseModel struct {
	snap     *store.Snapshot
	filter   textinput.Model
	detail   viewport.Model
	renderer *glamour.TermRenderer

	Results    []record.Policy
	Cursor     int
	Offset     int
	Height     int
	Width      int
	ShowDetail bool
}

// NewBrowseModel creates a browser over snap with an empty filter.
func NewBrowseModel(snap *store.Snapshot) BrowseModel {
	ti := textinput.New()
	ti.Placeholder = "filter by name, city, issuer, tag..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Focus()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	return BrowseModel{
		snap:     snap,
		filter:   ti,
		detail:   viewport.New(80, 20),
		renderer: renderer,
		Results:  snap.Policies,
		Height:   15,
		Width:    80,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
		m.detail.Width = msg.Width
		m.detail.Height = msg.Height - 3
		return m, nil

	case tea.KeyMsg:
		if m.ShowDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "q":
		if m.filter.Value() == "" {
			return m, tea.Quit
		}
	case "up", "ctrl+p":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
		return m, nil
	case "down", "ctrl+n":
		if m.Cursor < len(m.Results)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
		return m, nil
	case "enter":
		if len(m.Results) == 0 {
			return m, nil
		}
		m.ShowDetail = true
		m.detail.SetContent(m.renderDetail(m.Results[m.Cursor]))
		m.detail.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	prev := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != prev {
		m.Results = search.Apply(m.snap.Policies, search.Query{Text: m.filter.Value()})
		m.Cursor, m.Offset = 0, 0
	}
	return m, cmd
}

func (m BrowseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q", "backspace":
		m.ShowDetail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// Selected returns the policy under the cursor.
func (m BrowseModel) Selected() (record.Policy, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Results) {
		return record.Policy{}, false
	}
	return m.Results[m.Cursor], true
}

func (m BrowseModel) renderDetail(p record.Policy) string {
	md := policyMarkdown(p, m.snap.ParksFor(p))
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m BrowseModel) View() string {
	if m.ShowDetail {
		return m.detail.View() + "\n" + listDimStyle.Render("↑/↓ scroll  esc back  ctrl+c quit")
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Policies"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ open  esc quit"))
	b.WriteString("\n\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.Results) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		b.WriteString("\n")
	}

	end := m.Offset + m.Height
	if end > len(m.Results) {
		end = len(m.Results)
	}
	nameWidth := m.Width - 40
	if nameWidth < 20 {
		nameWidth = 20
	}
	for i := m.Offset; i < end; i++ {
		p := &m.Results[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s%-*s  %-16s", cursor, nameWidth, truncate(p.Name, nameWidth), truncate(p.Location(), 16))
		b.WriteString(style.Render(line))
		b.WriteString(" ")
		b.WriteString(renderStatus(p.Status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Results)), len(m.Results))))

	return b.String()
}
