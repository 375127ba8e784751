// Package tui is the interactive task page: filter controls, a search box,
// the task list, an add form and a delete confirmation, drawn with gocui.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

const (
	viewFilterStatus   = output.IDFilterStatus
	viewFilterPriority = output.IDFilterPriority
	viewSearch         = output.IDSearchQuery
	viewTasks          = output.IDTasksList
	viewForm           = output.IDAddTaskForm
	viewConfirm        = "confirm"
	viewFooter         = "footer"
)

// focusOrder is the Tab order of the page controls.
var focusOrder = []string{viewFilterStatus, viewFilterPriority, viewSearch, viewTasks}

type UI struct {
	ctx   context.Context
	gui   *gocui.Gui
	board *board.Board
	log   *log.Logger
	opts  output.Options

	// mu guards filter, tasks and selected, which loads touch off the UI loop.
	mu       sync.Mutex
	filter   service.Filter
	tasks    []service.Task
	selected int

	focus        string
	status       string
	form         *formState
	formEditor   *formEditor
	searchEditor *searchEditor
	confirm      *confirmState
}

type confirmState struct {
	id    int64
	title string
}

// Run opens the page over svc and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg *config.Config, svc service.Service) error {
	logger, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(ctx, svc, logger)
	ui.gui = gui

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		case <-stop:
		}
	}()

	ui.loadTasks()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

func newUI(ctx context.Context, svc service.Service, logger *log.Logger) *UI {
	ui := &UI{
		ctx:    ctx,
		log:    logger,
		focus:  viewTasks,
		filter: service.Filter{Status: service.StatusAll, Priority: service.PriorityAll},
	}
	ui.formEditor = &formEditor{ui: ui}
	ui.searchEditor = &searchEditor{ui: ui}
	ui.board = board.New(svc, ui, ui, board.WithLogger(logger))
	return ui
}

// openLog sends diagnostics to the log file when debugging; the terminal
// belongs to the page.
func openLog(cfg *config.Config) (*log.Logger, func(), error) {
	if cfg == nil || !cfg.Debug {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "taskboard: ", log.LstdFlags), func() { _ = f.Close() }, nil
}

// Filter implements board.FilterSource.
func (u *UI) Filter() service.Filter {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.filter
}

// ShowTasks implements board.View.
func (u *UI) ShowTasks(tasks []service.Task) {
	u.mu.Lock()
	u.tasks = tasks
	if u.selected >= len(tasks) {
		u.selected = len(tasks) - 1
	}
	if u.selected < 0 {
		u.selected = 0
	}
	u.mu.Unlock()

	if u.gui != nil {
		u.gui.Update(func(*gocui.Gui) error { return nil })
	}
}

// run performs action off the UI loop and then calls after on it.
// Without a gui (tests) both run inline.
func (u *UI) run(action func(ctx context.Context) error, after func(err error)) {
	if u.gui == nil {
		after(action(u.ctx))
		return
	}
	go func() {
		err := action(u.ctx)
		u.gui.Update(func(*gocui.Gui) error {
			after(err)
			return nil
		})
	}()
}

func (u *UI) loadTasks() {
	u.run(u.board.LoadTasks, func(err error) {
		if err != nil {
			u.status = "Error loading tasks: " + err.Error()
		}
	})
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quitUnlessTyping); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.openForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '/', gocui.ModNone, u.focusSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone, u.nextFocus); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyBacktab, gocui.ModNone, u.prevFocus); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'x', gocui.ModNone, u.toggleSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'd', gocui.ModNone, u.deleteSelected); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	for _, name := range []string{viewFilterStatus, viewFilterPriority} {
		if err := gui.SetKeybinding(name, gocui.KeyArrowRight, gocui.ModNone, u.nextFilterValue); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeySpace, gocui.ModNone, u.nextFilterValue); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowLeft, gocui.ModNone, u.prevFilterValue); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEnter, gocui.ModNone, u.leaveSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEsc, gocui.ModNone, u.leaveSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'y', gocui.ModNone, u.confirmYes); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEnter, gocui.ModNone, u.confirmYes); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'n', gocui.ModNone, u.confirmNo); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEsc, gocui.ModNone, u.confirmNo); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX < 20 || maxY < 8 {
		return nil
	}
	filter := u.Filter()

	quarter := maxX / 4
	statusView, err := gui.SetView(viewFilterStatus, 0, 0, quarter-1, 2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	statusView.Title = "Status"
	applyViewStyle(statusView, u.focus == viewFilterStatus)
	statusView.Clear()
	fmt.Fprintf(statusView, "< %s >", filter.Status)

	priorityView, err := gui.SetView(viewFilterPriority, quarter, 0, 2*quarter-1, 2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	priorityView.Title = "Priority"
	applyViewStyle(priorityView, u.focus == viewFilterPriority)
	priorityView.Clear()
	fmt.Fprintf(priorityView, "< %s >", filter.Priority)

	searchView, err := gui.SetView(viewSearch, 2*quarter, 0, maxX-1, 2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		searchView.Title = "Search (/)"
		searchView.Editable = true
		searchView.Editor = u.searchEditor
		u.searchEditor.render(searchView)
	}
	applyViewStyle(searchView, u.focus == viewSearch)

	footerY0 := max(maxY-3, 4)
	tasksY1 := max(footerY0-1, 4)
	tasksView, err := gui.SetView(viewTasks, 0, 3, maxX-1, tasksY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = "Tasks"
	tasksView.Wrap = false
	applyViewStyle(tasksView, u.focus == viewTasks)
	u.renderTasks(tasksView, tasksY1-4)

	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, maxY-1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.confirm != nil {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	switch {
	case u.confirm != nil:
		_, _ = gui.SetCurrentView(viewConfirm)
	case u.form != nil:
		_, _ = gui.SetCurrentView(viewForm)
	default:
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.form != nil || (u.confirm == nil && u.focus == viewSearch)
	return nil
}

// renderTasks draws the list, scrolled so the selected task is visible
// within height lines.
func (u *UI) renderTasks(view *gocui.View, height int) {
	view.Clear()
	u.mu.Lock()
	tasks, selected := u.tasks, u.selected
	u.mu.Unlock()

	line := writeTasks(view, tasks, selected, u.opts)
	if height > 0 && line+3 > height {
		view.SetOrigin(0, line+3-height)
	} else {
		view.SetOrigin(0, 0)
	}
}

// writeTasks writes the list with a marker on the selected task and returns
// the line the selected task starts on.
func writeTasks(w io.Writer, tasks []service.Task, selected int, opts output.Options) int {
	if len(tasks) == 0 {
		output.FormatTasks(w, tasks, opts)
		return 0
	}

	start, lines := 0, 0
	for i, task := range tasks {
		var buf strings.Builder
		output.FormatTask(&buf, task, opts)
		block := buf.String()

		prefix := " "
		if i == selected {
			prefix = ">"
			start = lines
		}
		fmt.Fprint(w, prefix+block)
		lines += strings.Count(block, "\n")
	}
	return start
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	hint := "x toggle | d delete | a add | / search | tab focus | ←→ change filter | r reload | q quit"
	if task, ok := u.selectedTask(); ok {
		hint = fmt.Sprintf("x %s | d %s | a add | / search | tab focus | ←→ change filter | r reload | q quit",
			output.ToggleLabel(task), output.DeleteLabel)
	}
	fmt.Fprintln(view, hint)
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(max(50, maxX/2), maxX-1)
	height := 5
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Add Task (enter save, esc cancel)"
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetViewOnTop(viewForm)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	x, y := u.form.render(view)
	view.SetCursor(x, y)
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := min(max(len(board.DeletePrompt)+4, 40), maxX-1)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Delete"
	view.Wrap = true
	view.FrameColor = gocui.ColorRed
	view.Clear()
	fmt.Fprintln(view, board.DeletePrompt)
	fmt.Fprintf(view, "%s  [y/N]", u.confirm.title)
	_, _ = gui.SetViewOnTop(viewConfirm)
	return nil
}

func (u *UI) selectedTask() (service.Task, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected < 0 || u.selected >= len(u.tasks) {
		return service.Task{}, false
	}
	return u.tasks[u.selected], true
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.confirm != nil
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) quitUnlessTyping(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() || u.focus == viewSearch {
		return nil
	}
	return u.quit(gui, view)
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus == viewSearch {
		return nil
	}
	u.status = ""
	u.loadTasks()
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected < len(u.tasks)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) nextFocus(_ *gocui.Gui, _ *gocui.View) error {
	return u.moveFocus(1)
}

func (u *UI) prevFocus(_ *gocui.Gui, _ *gocui.View) error {
	return u.moveFocus(-1)
}

func (u *UI) moveFocus(delta int) error {
	if u.inputActive() {
		return nil
	}
	u.focus = cycle(focusOrder, u.focus, delta)
	return nil
}

func (u *UI) focusSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.focus = viewSearch
	return nil
}

func (u *UI) leaveSearch(_ *gocui.Gui, _ *gocui.View) error {
	u.focus = viewTasks
	return nil
}

func (u *UI) nextFilterValue(_ *gocui.Gui, _ *gocui.View) error {
	return u.changeFilter(1)
}

func (u *UI) prevFilterValue(_ *gocui.Gui, _ *gocui.View) error {
	return u.changeFilter(-1)
}

// changeFilter steps the focused filter control and reloads the list.
func (u *UI) changeFilter(delta int) error {
	if u.inputActive() {
		return nil
	}
	u.mu.Lock()
	switch u.focus {
	case viewFilterStatus:
		u.filter.Status = cycle(service.Statuses, u.filter.Status, delta)
	case viewFilterPriority:
		u.filter.Priority = cycle(append([]string{service.PriorityAll}, priorityChoices()...), u.filter.Priority, delta)
	default:
		u.mu.Unlock()
		return nil
	}
	u.selected = 0
	u.mu.Unlock()

	u.loadTasks()
	return nil
}

// setSearch replaces the search text and reloads the list.
func (u *UI) setSearch(value string) {
	u.mu.Lock()
	if u.filter.Search == value {
		u.mu.Unlock()
		return
	}
	u.filter.Search = value
	u.selected = 0
	u.mu.Unlock()

	u.loadTasks()
}

func (u *UI) toggleSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	task, ok := u.selectedTask()
	if !ok {
		return nil
	}
	u.run(func(ctx context.Context) error {
		return u.board.ToggleTask(ctx, task.ID)
	}, func(err error) {
		u.report("toggling task", err)
	})
	return nil
}

func (u *UI) deleteSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	task, ok := u.selectedTask()
	if !ok {
		return nil
	}
	u.confirm = &confirmState{id: task.ID, title: task.Title}
	return nil
}

func (u *UI) confirmYes(gui *gocui.Gui, view *gocui.View) error {
	return u.answerConfirm(true)
}

func (u *UI) confirmNo(gui *gocui.Gui, view *gocui.View) error {
	return u.answerConfirm(false)
}

func (u *UI) answerConfirm(answer bool) error {
	if u.confirm == nil {
		return nil
	}
	id := u.confirm.id
	u.confirm = nil
	confirm := board.ConfirmFunc(func(string) bool { return answer })

	u.run(func(ctx context.Context) error {
		return u.board.DeleteTaskWith(ctx, id, confirm)
	}, func(err error) {
		if errors.Is(err, board.ErrDeclined) {
			u.status = "Delete cancelled"
			return
		}
		u.report("deleting task", err)
	})
	return nil
}

func (u *UI) openForm(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus == viewSearch {
		return nil
	}
	u.form = newFormState()
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
	}
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	u.form.next()
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	u.form.prev()
	u.renderForm(view)
	return nil
}

// submitForm creates the task. The form closes only once the board reset it;
// on failure it stays open with its values.
func (u *UI) submitForm(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	form := u.form
	submitted := &submittedForm{fields: form.values()}

	u.run(func(ctx context.Context) error {
		_, err := u.board.AddTask(ctx, submitted)
		return err
	}, func(err error) {
		if submitted.reset && u.form == form {
			u.form = nil
		}
		if errors.Is(err, board.ErrTitleRequired) {
			u.status = "Title is required"
			return
		}
		u.report("adding task", err)
	})
	return nil
}

// report sets the status line after a change. A failed reload after an
// applied change is not shown as a failed change.
func (u *UI) report(action string, err error) {
	switch {
	case errors.Is(err, board.ErrRefresh):
		u.status = "Saved, but " + err.Error()
	case err != nil:
		u.status = "Error " + action + ": " + err.Error()
	default:
		u.status = ""
	}
}

type formEditor struct {
	ui *UI
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	field := ui.form.current()

	if isPriorityField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cyclePriority(field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cyclePriority(field.Value, -1)
		}
		ui.renderForm(view)
		return true
	}

	field.Value = editText(field.Value, key, ch, mod)
	ui.renderForm(view)
	return true
}

type searchEditor struct {
	ui *UI
}

func (e *searchEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil {
		return false
	}
	switch key {
	case gocui.KeyTab, gocui.KeyBacktab, gocui.KeyEnter, gocui.KeyEsc, gocui.KeyCtrlC:
		return false
	}
	value := editText(ui.Filter().Search, key, ch, mod)
	ui.setSearch(value)
	if view != nil {
		e.render(view)
	}
	return true
}

func (e *searchEditor) render(view *gocui.View) {
	search := e.ui.Filter().Search
	view.Clear()
	fmt.Fprint(view, search)
	view.SetCursor(len([]rune(search)), 0)
}

// editText applies a single keystroke to a one-line value.
func editText(value string, key gocui.Key, ch rune, mod gocui.Modifier) string {
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(value)
		if len(runes) > 0 {
			value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		value += " "
	case gocui.KeyCtrlU:
		value = ""
	}
	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		value += string(ch)
	}
	return value
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
