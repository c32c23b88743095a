package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobdeck/internal/model"
)

type fakeResetter struct {
	calls []string
	err   error
}

func (f *fakeResetter) Reset(_ context.Context, id string) (model.JobRecord, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return model.JobRecord{}, f.err
	}
	return model.JobRecord{ID: id, Status: model.StatusPending, Job: model.NormalizedJob{Role: "Backend Engineer", Company: "Acme"}}, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newBrowser(r Resetter) browserModel {
	recs := []model.JobRecord{
		{ID: "a", Status: model.StatusFailed, Retries: 1, LastError: "proxycurl: HTTP 500", Job: model.NormalizedJob{Role: "Backend Engineer", Company: "Acme", Location: "Remote"}},
		{ID: "b", Status: model.StatusFailed, Retries: 2, Job: model.NormalizedJob{Role: "Designer", Company: "Globex", Location: "Berlin"}},
	}
	m := browserModel{status: model.StatusFailed, records: recs, resetter: r}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(browserModel)
}

func send(t *testing.T, m browserModel, msgs ...tea.Msg) (browserModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(browserModel)
	}
	return m, cmd
}

func TestBrowser_ListRendersRecords(t *testing.T) {
	m := newBrowser(nil)
	view := m.View()
	for _, want := range []string{"failed (2)", "Backend Engineer · Acme", "Designer · Globex"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestBrowser_DetailShowsLastError(t *testing.T) {
	m, _ := send(t, newBrowser(nil), key("enter"))
	if m.view != viewDetail {
		t.Fatal("enter did not open the detail view")
	}
	detail := m.renderDetail()
	if !strings.Contains(detail, "proxycurl: HTTP 500") {
		t.Errorf("detail missing last error:\n%s", detail)
	}

	m, _ = send(t, m, key("esc"))
	if m.view != viewList {
		t.Error("esc did not return to the list")
	}
}

func TestBrowser_ResetSelectedRecord(t *testing.T) {
	r := &fakeResetter{}
	m, cmd := send(t, newBrowser(r), key("down"), key("enter"), key("r"))
	if cmd == nil {
		t.Fatal("r returned no command")
	}

	msg := cmd()
	if len(r.calls) != 1 || r.calls[0] != "b" {
		t.Fatalf("reset calls = %v, want [b]", r.calls)
	}

	m, _ = send(t, m, msg)
	if m.records[1].Status != model.StatusPending {
		t.Errorf("record status = %s, want pending", m.records[1].Status)
	}
	if !strings.Contains(m.renderDetail(), "re-queued") {
		t.Error("detail missing reset notice")
	}
}

func TestBrowser_ResetFailureShown(t *testing.T) {
	r := &fakeResetter{err: errors.New("invalid transition")}
	m, cmd := send(t, newBrowser(r), key("enter"), key("r"))
	m, _ = send(t, m, cmd())

	if m.records[0].Status != model.StatusFailed {
		t.Errorf("status changed on failed reset: %s", m.records[0].Status)
	}
	if !strings.Contains(m.renderDetail(), "reset failed: invalid transition") {
		t.Error("detail missing reset error")
	}
}

func TestBrowser_ResetIgnoredForEnriched(t *testing.T) {
	r := &fakeResetter{}
	m := newBrowser(r)
	m.records[0].Status = model.StatusEnriched

	_, cmd := send(t, m, key("enter"), key("r"))
	if cmd != nil {
		t.Error("r on an enriched record should do nothing")
	}
}

func TestPicker_ChoosesStatus(t *testing.T) {
	var m tea.Model = pickerModel{counts: map[model.Status]int{model.StatusFailed: 3}, chosen: -1}
	for _, msg := range []tea.Msg{key("down"), key("down"), key("down"), key("down"), key("enter")} {
		m, _ = m.Update(msg)
	}
	final := m.(pickerModel)
	if got := model.AllStatuses[final.chosen]; got != model.StatusFailed {
		t.Errorf("chosen = %s, want failed", got)
	}
	if !strings.Contains(final.View(), "3") {
		t.Error("picker view missing count")
	}
}
