package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/store"
)

func browseSnapshot() *store.Snapshot {
	return &store.Snapshot{
		Policies: []record.Policy{
			{ID: "sz-a", City: "Shenzhen", Name: "Nanshan OPC subsidy", Status: record.StatusActive, Parks: []string{"park-1"}},
			{ID: "hz-a", City: "Hangzhou", Name: "Compute vouchers", Status: record.StatusUpcoming},
			{ID: "sh-a", City: "Shanghai", Name: "Robotics grants", Status: record.StatusExpired},
		},
		Parks: []record.Park{
			{ID: "park-1", Name: "Park One", City: "Shenzhen"},
		},
	}
}

func press(t *testing.T, m BrowseModel, keys ...string) (BrowseModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(BrowseModel)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestBrowseNavigation(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())

	m, _ = press(t, m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2 (clamped at last)", m.Cursor)
	}
	m, _ = press(t, m, "up", "up", "up")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
}

func TestBrowseScrollsWithCursor(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())
	m.Height = 2

	m, _ = press(t, m, "down", "down")
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1", m.Offset)
	}
	m, _ = press(t, m, "up", "up")
	if m.Offset != 0 {
		t.Errorf("Offset = %d, want 0", m.Offset)
	}
}

func TestBrowseFilter(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())
	m, _ = press(t, m, "down")

	m, _ = press(t, m, "v", "o", "u", "c")
	if len(m.Results) != 1 || m.Results[0].ID != "hz-a" {
		t.Fatalf("Results = %v, want [hz-a]", ids(m.Results))
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want reset to 0", m.Cursor)
	}

	m, _ = press(t, m, "z", "z", "z")
	if len(m.Results) != 0 {
		t.Errorf("Results = %v, want none", ids(m.Results))
	}
	if !strings.Contains(m.View(), "no matches") {
		t.Error("View() should say there are no matches")
	}
	if _, ok := m.Selected(); ok {
		t.Error("Selected() should report nothing on an empty list")
	}
}

func TestBrowseQuitKeys(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())

	if _, cmd := press(t, m, "q"); !isQuit(cmd) {
		t.Error("q with an empty filter should quit")
	}
	if _, cmd := press(t, m, "esc"); !isQuit(cmd) {
		t.Error("esc on the list should quit")
	}
	if _, cmd := press(t, m, "ctrl+c"); !isQuit(cmd) {
		t.Error("ctrl+c should quit")
	}

	typed, cmd := press(t, m, "s", "q")
	if isQuit(cmd) {
		t.Error("q while filtering should be typed, not quit")
	}
	if got := typed.filter.Value(); got != "sq" {
		t.Errorf("filter = %q, want %q", got, "sq")
	}
}

func TestBrowseDetail(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())

	m, _ = press(t, m, "enter")
	if !m.ShowDetail {
		t.Fatal("enter should open the detail pane")
	}
	if p, _ := m.Selected(); p.ID != "sz-a" {
		t.Errorf("Selected() = %q, want sz-a", p.ID)
	}

	m, cmd := press(t, m, "q")
	if isQuit(cmd) {
		t.Error("q in the detail pane should go back, not quit")
	}
	if m.ShowDetail {
		t.Error("q should close the detail pane")
	}

	m, _ = press(t, m, "enter", "esc")
	if m.ShowDetail {
		t.Error("esc should close the detail pane")
	}
}

func TestBrowseRenderDetailFallback(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())
	m.renderer = nil

	got := m.renderDetail(m.Results[0])
	if !strings.HasPrefix(got, "# Nanshan OPC subsidy") {
		t.Errorf("renderDetail() without a renderer should return raw Markdown, got:\n%s", got)
	}
	if !strings.Contains(got, "Park One") {
		t.Error("renderDetail() should list linked parks")
	}
}

func TestBrowseWindowSize(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(BrowseModel)
	if m.Width != 120 || m.Height != 33 {
		t.Errorf("size = %dx%d, want 120x33", m.Width, m.Height)
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})
	m = next.(BrowseModel)
	if m.Height != 5 {
		t.Errorf("Height = %d, want minimum 5", m.Height)
	}
}

func TestBrowseView(t *testing.T) {
	m := NewBrowseModel(browseSnapshot())
	view := m.View()

	for _, want := range []string{"Nanshan OPC subsidy", "Compute vouchers", "Robotics grants", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func ids(policies []record.Policy) []string {
	out := make([]string, len(policies))
	for i, p := range policies {
		out[i] = p.ID
	}
	return out
}
