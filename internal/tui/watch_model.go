package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/repcue-sync/models"
)

const watchHotKeys = "s: sync  f: force sync  d: drain queue  c: copy device id  q: quit"

type watchModel struct {
	ctx     context.Context
	deps    Deps
	updates <-chan models.SyncStatus
	copy    func(string) error

	spinner spinner.Model
	status  models.SyncStatus
	last    *models.SyncResult
	busy    bool
	notice  string
	errMsg  string
}

func newWatchModel(ctx context.Context, deps Deps, updates <-chan models.SyncStatus, copyFn func(string) error) watchModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	if deps.Refresh <= 0 {
		deps.Refresh = defaultRefresh
	}

	return watchModel{
		ctx:     ctx,
		deps:    deps,
		updates: updates,
		copy:    copyFn,
		spinner: s,
		status:  deps.Engine.Status(ctx),
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.cmdWaitStatus(), m.cmdRefresh(), m.spinner.Tick)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.status = models.SyncStatus(msg)
		return m, m.cmdWaitStatus()

	case refreshMsg:
		m.status = m.deps.Engine.Status(m.ctx)
		return m, m.cmdScheduleRefresh()

	case syncDoneMsg:
		m.busy = false
		res := msg.result
		m.last = &res
		m.errMsg = ""
		switch {
		case res.Skipped:
			m.notice = "sync skipped"
		case res.Success:
			m.notice = fmt.Sprintf("synced: pushed=%d pulled=%d conflicts=%d", res.RecordsPushed, res.RecordsPulled, res.Conflicts)
		default:
			m.notice = ""
			m.errMsg = "sync failed: " + strings.Join(res.Errors, "; ")
		}
		return m, nil

	case drainDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = ""
			m.errMsg = "drain failed: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.notice = fmt.Sprintf("queue drained: sent=%d failed=%d dropped=%d", msg.result.Sent, msg.result.Failed, msg.result.Dropped)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.errMsg = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.notice = "device id copied"
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit

	case key.Matches(msg, keys.sync), key.Matches(msg, keys.force):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.notice = "syncing..."
		return m, m.cmdSync(key.Matches(msg, keys.force))

	case key.Matches(msg, keys.drain):
		if m.busy {
			return m, nil
		}
		if m.deps.Drain == nil {
			m.errMsg = "queue drain is not available"
			return m, nil
		}
		m.busy = true
		m.notice = "draining queue..."
		return m, m.cmdDrain()

	case key.Matches(msg, keys.copy):
		if strings.TrimSpace(m.deps.DeviceID) == "" {
			m.notice = "nothing to copy"
			return m, nil
		}
		return m, m.cmdCopy(m.deps.DeviceID)
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	owner := ""
	if m.deps.Owner != nil {
		owner = m.deps.Owner()
	}

	fmt.Fprintf(&b, "device:        %s\n", valueOrNA(m.deps.DeviceID))
	fmt.Fprintf(&b, "owner:         %s\n", valueOrNA(owner))
	if m.status.IsOnline {
		fmt.Fprintf(&b, "network:       %s\n", onlineStyle.Render("online"))
	} else {
		fmt.Fprintf(&b, "network:       %s\n", offlineStyle.Render("offline"))
	}
	if m.status.IsSyncing || m.busy {
		fmt.Fprintf(&b, "state:         %s working\n", m.spinner.View())
	} else {
		b.WriteString("state:         idle\n")
	}
	fmt.Fprintf(&b, "pending:       %d\n", m.status.PendingChanges)
	fmt.Fprintf(&b, "last sync:     %s\n", formatTime(m.status.LastSyncAt))
	fmt.Fprintf(&b, "last success:  %s", formatTime(m.status.LastSuccessAt))

	if m.last != nil {
		fmt.Fprintf(&b, "\n\nlast pass: tables=%d pushed=%d pulled=%d conflicts=%d",
			m.last.TablesProcessed, m.last.RecordsPushed, m.last.RecordsPulled, m.last.Conflicts)
	}

	if len(m.status.Errors) > 0 {
		b.WriteString("\n\n")
		b.WriteString(boxStyle.Render(strings.Join(m.status.Errors, "\n")))
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.notice)
	}
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}

	return renderPage("REPCUE SYNC", b.String(), watchHotKeys)
}

func (m watchModel) cmdWaitStatus() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return statusMsg(st)
	}
}

func (m watchModel) cmdRefresh() tea.Cmd {
	ctx, probe := m.ctx, m.deps.Probe
	return func() tea.Msg {
		if probe != nil {
			probe(ctx)
		}
		return refreshMsg{}
	}
}

func (m watchModel) cmdScheduleRefresh() tea.Cmd {
	ctx, probe := m.ctx, m.deps.Probe
	return tea.Tick(m.deps.Refresh, func(time.Time) tea.Msg {
		if probe != nil {
			probe(ctx)
		}
		return refreshMsg{}
	})
}

func (m watchModel) cmdSync(force bool) tea.Cmd {
	ctx, engine := m.ctx, m.deps.Engine
	return func() tea.Msg {
		return syncDoneMsg{result: engine.Sync(ctx, force)}
	}
}

func (m watchModel) cmdDrain() tea.Cmd {
	ctx, drain := m.ctx, m.deps.Drain
	return func() tea.Msg {
		res, err := drain(ctx)
		return drainDoneMsg{result: res, err: err}
	}
}

func (m watchModel) cmdCopy(text string) tea.Cmd {
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}
