// Package tui is the terminal front-end of the task lists. It maps mouse
// drags and key presses onto the list controllers and renders their views.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/tasks/internal/core/config"
	"github.com/colonyops/tasks/internal/core/logging"
	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/tasks"
)

// Lines above the list body: the title bar and the placeholder row.
const bodyTop = 2

// Options configures the terminal front-end.
type Options struct {
	// Scale converts terminal columns to swipe pointer units.
	Scale              float64
	RowHeight          int
	LongPress          time.Duration
	AutoscrollInterval time.Duration
	AutoscrollMargin   int
	// Watcher reports database writes from other processes. May be nil.
	Watcher *tasks.Watcher
}

// OptionsFromConfig derives front-end options from the gesture settings.
func OptionsFromConfig(cfg *config.Config, w *tasks.Watcher) Options {
	return Options{
		Scale:              cfg.PointerScale(),
		RowHeight:          cfg.Gestures.RowHeight,
		LongPress:          cfg.Gestures.LongPress,
		AutoscrollInterval: cfg.Gestures.AutoscrollInterval,
		AutoscrollMargin:   cfg.Gestures.AutoscrollMargin,
		Watcher:            w,
	}
}

func (o *Options) applyDefaults() {
	if o.Scale <= 0 {
		o.Scale = 10
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 1
	}
	if o.LongPress <= 0 {
		o.LongPress = 200 * time.Millisecond
	}
	if o.AutoscrollInterval <= 0 {
		o.AutoscrollInterval = 10 * time.Millisecond
	}
	if o.AutoscrollMargin <= 0 {
		o.AutoscrollMargin = 1
	}
}

// Model is the bubbletea model of the task lists.
type Model struct {
	ctx  context.Context
	app  *tasks.App
	opts Options
	log  zerolog.Logger

	keys   keyMap
	help   help.Model
	input  textinput.Model
	status *statusStack

	width  int
	height int
	cursor int
	ptr    pointer

	showHelp bool
	helpView string
}

// New creates the model. ctx scopes every write the model performs.
func New(ctx context.Context, app *tasks.App, opts Options) Model {
	opts.applyDefaults()

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "New item"

	return Model{
		ctx:    ctx,
		app:    app,
		opts:   opts,
		log:    logging.Component("tui"),
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  ti,
		status: &statusStack{},
	}
}

// Init starts watching the database for external writes.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return m.opts.Watcher.Start()
	}
	return nil
}

func (m Model) current() *tasks.Controller { return m.app.Current() }

// bodyHeight is the number of lines available to rows.
func (m Model) bodyHeight() int {
	return max(m.height-bodyTop-1, 1)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 1)
		m.current().ScrollBy(0, float64(m.bodyHeight()))
		if m.showHelp {
			m.helpView = renderHelp(m.keys, m.width)
		}
		return m, nil

	case tasks.StoreChangedMsg:
		if err := m.app.Refresh(m.ctx); err != nil {
			m.log.Warn().Err(err).Msg("refresh after external change")
		}
		m.clampCursor()
		var cmd tea.Cmd
		if m.opts.Watcher != nil {
			cmd = m.opts.Watcher.Start()
		}
		return m, cmd

	case statusTickMsg:
		m.status.tick(statusTickInterval)
		if !m.status.empty() {
			return m, scheduleStatusTick()
		}
		m.status.ticking = false
		return m, nil

	case longPressMsg:
		return m.handleLongPress(msg)

	case autoscrollMsg:
		return m.handleAutoscroll(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if _, editing := m.current().Editing(); editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// report turns a failed write into an error status line.
func (m *Model) report(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	m.log.Error().Err(err).Msg("operation failed")
	if errors.Is(err, task.ErrBusy) {
		return m.notify(statusError, "another process is writing; try again")
	}
	return m.notify(statusError, err.Error())
}

func (m *Model) notify(level statusLevel, message string) tea.Cmd {
	m.status.push(level, message)
	if m.status.ticking {
		return nil
	}
	m.status.ticking = true
	return scheduleStatusTick()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	c := m.current()
	if _, editing := c.Editing(); editing {
		switch {
		case key.Matches(msg, m.keys.Commit):
			return m.endEdit(true)
		case key.Matches(msg, m.keys.Cancel):
			return m.endEdit(false)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.ptr.mode != pointerIdle {
		return m, nil
	}

	rows := c.View().Rows
	var selected task.Row
	hasSelection := m.cursor >= 0 && m.cursor < len(rows)
	if hasSelection {
		selected = rows[m.cursor].Row
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView = renderHelp(m.keys, m.width)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Complete):
		if hasSelection {
			cmd := m.report(c.CompleteItem(m.ctx, selected.ID))
			m.follow(selected.ID)
			return m, cmd
		}

	case key.Matches(msg, m.keys.Delete):
		if hasSelection {
			cmd := m.report(c.DeleteItem(m.ctx, selected.ID))
			m.clampCursor()
			return m, cmd
		}

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		if hasSelection {
			to := m.cursor - 1
			if key.Matches(msg, m.keys.MoveDown) {
				to = m.cursor + 1
			}
			cmd := m.report(c.MoveItem(m.ctx, selected.ID, to))
			m.follow(selected.ID)
			return m, cmd
		}

	case key.Matches(msg, m.keys.New):
		m.cursor = 0
		m.ensureVisible(0)
		id, err := c.CreateAtHead(m.ctx)
		if err != nil {
			return m, m.report(err)
		}
		return m, m.startEdit(id)

	case key.Matches(msg, m.keys.Insert):
		m.ensureVisible(uncompletedCount(rows))
		id, err := c.InsertAtBoundary(m.ctx)
		if err != nil {
			return m, m.report(err)
		}
		return m, m.startEdit(id)

	case key.Matches(msg, m.keys.Edit):
		if hasSelection && c.BeginEdit(selected.ID) {
			return m, m.startEdit(selected.ID)
		}

	case key.Matches(msg, m.keys.Open):
		if !hasSelection {
			break
		}
		if m.app.Screen() == tasks.ScreenLists {
			return m, m.openList(selected.ID)
		}
		if c.BeginEdit(selected.ID) {
			return m, m.startEdit(selected.ID)
		}

	case key.Matches(msg, m.keys.Back):
		if m.app.Screen() == tasks.ScreenTasks {
			m.app.Back()
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.ClearCompleted):
		n, err := c.DeleteCompleted(m.ctx)
		m.clampCursor()
		if err != nil {
			return m, m.report(err)
		}
		if n > 0 {
			return m, m.notify(statusInfo, pluralize(n, "item")+" cleared")
		}
	}
	return m, nil
}

func (m *Model) openList(id string) tea.Cmd {
	if err := m.app.OpenList(m.ctx, id); err != nil {
		return m.report(err)
	}
	m.cursor = 0
	return nil
}

// startEdit focuses the text input on the row with the given ID. The
// controller must already be editing it.
func (m *Model) startEdit(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	m.follow(id)
	text := ""
	for _, r := range m.current().Rows() {
		if r.ID == id {
			text = r.Text
		}
	}
	m.input.SetValue(text)
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m Model) endEdit(commit bool) (tea.Model, tea.Cmd) {
	c := m.current()
	id, _ := c.Editing()
	var err error
	if commit {
		err = c.CommitEdit(m.ctx, m.input.Value())
	} else {
		err = c.CancelEdit(m.ctx)
	}
	m.input.Blur()
	m.input.Reset()
	m.follow(id)
	return m, m.report(err)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.ensureVisible(m.cursor)
}

func (m *Model) clampCursor() {
	n := len(m.current().Rows())
	m.cursor = max(0, min(m.cursor, n-1))
}

// follow moves the cursor to the row with the given ID, if it still exists.
func (m *Model) follow(id string) {
	for i, r := range m.current().View().Rows {
		if r.ID == id {
			m.cursor = i
			m.ensureVisible(i)
			return
		}
	}
	m.clampCursor()
}

// ensureVisible scrolls so that row i is inside the body.
func (m *Model) ensureVisible(i int) {
	c := m.current()
	h := m.bodyHeight()
	rh := m.opts.RowHeight
	top := int(c.Scroll())
	switch {
	case i*rh < top:
		c.ScrollBy(float64(i*rh-top), float64(h))
	case (i+1)*rh > top+h:
		c.ScrollBy(float64((i+1)*rh-top-h), float64(h))
	}
}

func uncompletedCount(rows []tasks.RowView) int {
	n := 0
	for _, r := range rows {
		if !r.Completed {
			n++
		}
	}
	return n
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpView)
	}

	c := m.current()
	v := c.View()

	title := v.Title
	if v.Kind == task.KindLists && title == "" {
		title = "Lists"
	}
	titleBar := styles.TitleStyle.Width(m.width).Render(title)

	h := m.bodyHeight()
	body := m.renderBody(v, h)

	if status := m.status.view(m.width); status != "" {
		tl := strings.Split(status, "\n")
		if len(tl) < len(body) {
			copy(body[len(body)-len(tl):], tl)
		}
	}

	parts := []string{titleBar, renderPlaceholder(v.Placeholder, m.width)}
	parts = append(parts, body...)
	parts = append(parts, m.footer(v))
	return strings.Join(parts, "\n")
}

// renderBody draws every row and returns the h lines under the scroll
// offset.
func (m Model) renderBody(v tasks.View, h int) []string {
	r := rowRender{
		width:  m.width,
		height: m.opts.RowHeight,
		scale:  m.opts.Scale,
		input:  m.input.View(),
	}

	var lines []string
	for i, rv := range v.Rows {
		r.cursor = i == m.cursor && !v.Editing && m.ptr.mode == pointerIdle
		lines = append(lines, strings.Split(r.render(rv), "\n")...)
	}

	start := max(0, min(int(v.Scroll), len(lines)))
	lines = lines[start:]
	out := make([]string, h)
	blank := strings.Repeat(" ", m.width)
	for i := range out {
		if i < len(lines) {
			out[i] = lines[i]
		} else {
			out[i] = blank
		}
	}
	return out
}

func (m Model) footer(v tasks.View) string {
	if v.Placeholder.FooterArmed {
		label := "Release to Clear Completed"
		if m.current().HasChild() {
			label = "Release to Open Last List"
		}
		return styles.FooterStyle.Bold(true).Render(label)
	}
	if v.Editing {
		return m.help.View(editKeyMap{m.keys})
	}
	return m.help.View(m.keys)
}
