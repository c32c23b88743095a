package console

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobdeck/internal/model"
)

// Lines per record in the list view (title + subtitle + blank separator).
const recordItemHeight = 3

const timeLayout = "2006-01-02 15:04 MST"

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// Resetter moves a failed or processing record back to pending.
type Resetter interface {
	Reset(ctx context.Context, id string) (model.JobRecord, error)
}

// resetDoneMsg is sent when an async reset completes.
type resetDoneMsg struct {
	rec model.JobRecord
	err error
}

type browserModel struct {
	status   model.Status
	records  []model.JobRecord
	list     viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool
	resetter Resetter

	view    viewState
	detail  viewport.Model
	notice  string
	failure string

	wantQuit bool
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detail.Width = m.width - 4
			m.detail.Height = m.height - 4
			m.detail.SetContent(m.renderDetail())
		}
		return m, nil

	case resetDoneMsg:
		if msg.err != nil {
			m.failure = fmt.Sprintf("reset failed: %v", msg.err)
			m.notice = ""
		} else {
			m.failure = ""
			m.notice = "re-queued as pending"
			m.replace(msg.rec)
		}
		m.detail.SetContent(m.renderDetail())
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browserModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m browserModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		rec := m.records[m.cursor]
		url := rec.Job.ApplyURL
		if url == "" {
			url = rec.Job.SourceURL
		}
		if url != "" {
			openURL(url)
		}
		return m, nil
	case "r":
		rec := m.records[m.cursor]
		if m.resetter != nil && resettable(rec.Status) {
			m.notice = "resetting..."
			m.failure = ""
			m.detail.SetContent(m.renderDetail())
			return m, m.resetCmd(rec.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m browserModel) resetCmd(id string) tea.Cmd {
	resetter := m.resetter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rec, err := resetter.Reset(ctx, id)
		return resetDoneMsg{rec: rec, err: err}
	}
}

func resettable(s model.Status) bool {
	return s == model.StatusFailed || s == model.StatusProcessing
}

func (m *browserModel) replace(rec model.JobRecord) {
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = rec
			return
		}
	}
}

func (m browserModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.records) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.notice = ""
	m.failure = ""
	m.detail = viewport.New(m.width-4, m.height-4)
	m.detail.SetContent(m.renderDetail())
	return m, nil
}

func (m *browserModel) ensureCursorVisible() {
	top := m.cursor * recordItemHeight
	bottom := top + recordItemHeight - 1

	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *browserModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.list = viewport.New(width, height)
		m.ready = true
	} else {
		m.list.Width = width
		m.list.Height = height
	}
	m.recalcContent()
}

func (m *browserModel) recalcContent() {
	m.list.SetContent(renderRecords(m.records, m.cursor))
}

func (m browserModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browserModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" %s (%d)", m.status, len(m.records)))
	pane := borderStyle.Width(m.list.Width).Render(m.list.View())
	statusBar := statusBarStyle.Width(m.width).Render(" ↑/↓ cursor  Enter detail  Esc back  q quit")
	return header + "\n" + pane + "\n" + statusBar
}

func (m browserModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Record")
	content := borderStyle.Width(m.width - 2).Render(m.detail.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.resetter != nil && len(m.records) > 0 && resettable(m.records[m.cursor].Status) {
		statusText = " o open URL  r reset  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m browserModel) renderDetail() string {
	if len(m.records) == 0 {
		return ""
	}
	rec := m.records[m.cursor]
	j := rec.Job
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	addTime := func(label string, t *time.Time) {
		if t != nil {
			addField(label, t.Local().Format(timeLayout))
		}
	}

	addField("Role", j.Role)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Source", j.SourceName)
	addField("Record ID", rec.ID)

	b.WriteByte('\n')
	addField("Status", string(rec.Status))
	addField("Retries", fmt.Sprintf("%d", rec.Retries))
	addTime("Ingested At", &rec.IngestedAt)
	addTime("Queued At", rec.QueuedAt)
	addTime("Started At", rec.StartedAt)
	addTime("Enriched At", rec.EnrichedAt)
	addTime("Failed At", rec.FailedAt)
	if rec.LastError != "" {
		addField("Last Error", errorStyle.Render(rec.LastError))
	}

	b.WriteByte('\n')
	addField("Apply URL", j.ApplyURL)
	addField("Source URL", j.SourceURL)

	if m.notice != "" {
		b.WriteByte('\n')
		b.WriteString(noticeStyle.Render("✓ "+m.notice) + "\n")
	}
	if m.failure != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.failure) + "\n")
	}

	if c := rec.Card; c != nil {
		wrapWidth := max(m.width-8, 20)
		label := "── Card "
		if c.Minimal {
			label = "── Card (minimal) "
		}
		b.WriteByte('\n')
		b.WriteString(dividerStyle.Render(label+strings.Repeat("─", max(wrapWidth-len(label), 3))) + "\n\n")
		addField("Logo", string(c.Meta.Logo))
		addField("Manager", personLine(c.Manager.Name, c.Manager.Title, c.Meta.Manager))
		addField("HR", personLine(c.HR.Name, c.HR.Title, c.Meta.HR))
		addField("HR Email", c.HR.Email)
		addField("Salary", c.Salary)
		addField("Team Size", c.TeamSize)
		if len(c.TechStack) > 0 {
			addField("Tech", strings.Join(c.TechStack, ", "))
		}
		if len(c.Culture) > 0 {
			addField("Culture", strings.Join(c.Culture, ", "))
		}
		for _, section := range []struct {
			name  string
			items []string
		}{{"Requirements", c.Requirements}, {"Benefits", c.Benefits}} {
			if len(section.items) == 0 {
				continue
			}
			b.WriteString("\n" + detailLabelStyle.Render(section.name) + "\n")
			for _, it := range section.items {
				b.WriteString("  • " + it + "\n")
			}
		}
	}

	return b.String()
}

func personLine(name, title string, src model.Source) string {
	if name == "" {
		return ""
	}
	s := name
	if title != "" {
		s += ", " + title
	}
	if src != "" {
		s += " (" + string(src) + ")"
	}
	return s
}

func renderRecords(recs []model.JobRecord, cursor int) string {
	if len(recs) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, r := range recs {
		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s · %s", r.Job.Role, r.Job.Company)))
		b.WriteByte('\n')

		sub := fmt.Sprintf("%s · %s · retries %d", r.Job.Location, r.Job.SourceName, r.Retries)
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(recs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// runBrowser launches the full-screen record browser. It returns
// wantQuit=true if the user pressed q/ctrl+c, false on esc back to the picker.
func runBrowser(status model.Status, recs []model.JobRecord, resetter Resetter) (bool, error) {
	m := browserModel{status: status, records: recs, resetter: resetter}

	result, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return result.(browserModel).wantQuit, nil
}
