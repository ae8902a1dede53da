// internal/tui/app.go
//
// This is the terminal front end for the campaign wizard. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The wizard itself never sees the terminal. The TUI lifts the interactive
// controls out of the active step's HTML fragment and plays user edits back
// through the step's event binder, exactly the way a browser event would
// arrive. Conditional visibility, validation markers, and row rebuilds all
// happen inside the fragment; the TUI just re-reads it after every dispatch.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/campaign"
	"github.com/webstepper/cyclewiz/internal/campaign/steps"
	"github.com/webstepper/cyclewiz/internal/config"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/logging"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/report"
	"github.com/webstepper/cyclewiz/internal/step"
	"github.com/webstepper/cyclewiz/internal/wizard"
	"github.com/webstepper/cyclewiz/plugins"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMenu   appState = iota // Opening menu with "New campaign", etc.
	stateWizard                 // Stepping through the wizard
	stateDone                   // Campaign assembled, summary on screen
)

const noticePollInterval = 500 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type noticeTickMsg struct{}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithStepRegistry overrides the step registry, letting tests inject stubs.
func WithStepRegistry(reg *step.Registry) AppOption {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// WithContext overrides the shared step context.
func WithContext(ctx *step.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL the state.
type App struct {
	state    appState
	cfg      *config.Config
	ctx      *step.Context
	registry *step.Registry
	wiz      *wizard.Wizard
	closeLog func()

	// UI components
	menu     list.Model
	input    textinput.Model
	editing  bool
	controls []control
	cursor   int

	issues  []step.Issue
	notices []report.Notice
	result  *campaign.Campaign

	statusMsg string
	err       error

	width  int
	height int
}

// menuItem implements list.Item for the opening menu.
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance rooted at the given project directory.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	if err := config.InitCyclewizDir(projectDir); err != nil {
		return nil, fmt.Errorf("tui: init project dir: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.New(projectDir, cfg.Verbose())
	if err != nil {
		return nil, err
	}

	store, err := persist.NewFileStore(cfg.StateDir())
	if err != nil {
		closeLog()
		return nil, err
	}
	bus := events.NewBus(events.BusWithLogger(busLogger{s: logger.Sugar()}))
	ctx := step.NewContext(store, bus, logger).WithDelays(cfg.AutosaveDelay(), cfg.ValidateDelay())

	defs, err := plugins.Discover(cfg.SchemasDir())
	if err != nil {
		closeLog()
		return nil, err
	}
	overrides, err := plugins.RowOverrides(defs)
	if err != nil {
		closeLog()
		return nil, err
	}
	registry, err := steps.RegistryWithOverrides(overrides)
	if err != nil {
		closeLog()
		return nil, err
	}

	app := &App{
		state:    stateMenu,
		cfg:      cfg,
		ctx:      ctx,
		registry: registry,
		closeLog: closeLog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	resumable := false
	if progress, ok, err := store.LoadProgress(); err == nil && ok {
		resumable = progress.CurrentStep != ""
	}
	app.menu = buildMenu(resumable)
	app.input = textinput.New()
	app.input.CharLimit = 200
	return app, nil
}

func buildMenu(resumable bool) list.Model {
	items := []list.Item{}
	if resumable {
		items = append(items, menuItem{title: "Resume campaign", desc: "Continue from the saved step"})
	}
	items = append(items,
		menuItem{title: "New campaign", desc: "Start the discount wizard from the first step"},
		menuItem{title: "Exit", desc: "Quit cyclewiz"},
	)
	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "cyclewiz"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	return menu
}

// busLogger adapts the zap logger to the bus's Printf contract.
type busLogger struct {
	s *zap.SugaredLogger
}

func (b busLogger) Printf(format string, args ...any) {
	b.s.Infof(format, args...)
}

// Run builds the App and blocks until the user quits.
func Run(projectDir string) error {
	app, err := NewApp(projectDir)
	if err != nil {
		return err
	}
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.scheduleNoticePoll()
}

func (a *App) scheduleNoticePoll() tea.Cmd {
	return tea.Tick(noticePollInterval, func(time.Time) tea.Msg {
		return noticeTickMsg{}
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.menu.SetSize(max(0, msg.Width-6), max(0, msg.Height-8))
		return a, nil

	case noticeTickMsg:
		a.drainNotices()
		if a.state == stateWizard {
			a.refreshControls()
		}
		return a, a.scheduleNoticePoll()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	if a.state == stateMenu {
		var cmd tea.Cmd
		a.menu, cmd = a.menu.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}
	switch a.state {
	case stateMenu:
		return a.handleMenuKey(msg)
	case stateWizard:
		return a.handleWizardKey(msg)
	case stateDone:
		if msg.String() == "q" || msg.String() == "enter" || msg.String() == "esc" {
			return a.quit()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a.quit()
	case "enter":
		item, ok := a.menu.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		switch item.title {
		case "Exit":
			return a.quit()
		case "New campaign":
			if err := a.resetState(); err != nil {
				a.err = err
				return a, nil
			}
			fallthrough
		default:
			if err := a.startWizard(); err != nil {
				a.err = err
				return a, nil
			}
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.menu, cmd = a.menu.Update(msg)
	return a, cmd
}

// resetState drops saved progress and step data so the wizard starts clean.
func (a *App) resetState() error {
	for _, name := range a.registry.Names() {
		if err := a.ctx.Persistence.SaveStepData(name, map[string]any{}); err != nil {
			return err
		}
	}
	return a.ctx.Persistence.SaveProgress(persist.Progress{})
}

func (a *App) startWizard() error {
	wiz, err := wizard.New(a.registry, a.ctx)
	if err != nil {
		return err
	}
	if err := wiz.Start(); err != nil {
		return err
	}
	a.wiz = wiz
	a.state = stateWizard
	a.issues = nil
	a.cursor = 0
	a.refreshControls()
	return nil
}

func (a *App) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editing {
		return a.handleEditKey(msg)
	}
	switch msg.String() {
	case "q", "esc":
		return a.quit()
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.controls)-1 {
			a.cursor++
		}
	case "enter":
		a.activateControl()
	case "left", "right":
		a.cycleSelect(msg.String() == "right")
	case " ":
		a.toggleCheckbox()
	case "ctrl+z":
		a.undo()
	case "ctrl+y":
		a.redo()
	case "n", "ctrl+n":
		a.next()
	case "b", "ctrl+b":
		a.back()
	case "f", "ctrl+f":
		a.finish()
	}
	return a, nil
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.commitEdit()
		return a, nil
	case "esc":
		a.editing = false
		a.input.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) activateControl() {
	if a.cursor >= len(a.controls) {
		return
	}
	ctrl := a.controls[a.cursor]
	if ctrl.disabled {
		a.statusMsg = "That control is disabled right now"
		return
	}
	switch {
	case ctrl.kind == controlButton:
		a.dispatch(&binding.Event{Type: ctrl.event, Target: ctrl.node})
	case ctrl.checkbox:
		a.toggleCheckbox()
	case len(ctrl.options) > 0:
		a.cycleSelect(true)
	default:
		a.editing = true
		a.input.SetValue(ctrl.value)
		a.input.Focus()
		a.input.CursorEnd()
	}
}

func (a *App) commitEdit() {
	a.editing = false
	a.input.Blur()
	if a.cursor >= len(a.controls) {
		return
	}
	ctrl := a.controls[a.cursor]
	setNodeValue(ctrl.node, a.input.Value())
	a.dispatch(&binding.Event{Type: ctrl.event, Target: ctrl.node, Value: a.input.Value()})
}

func (a *App) cycleSelect(forward bool) {
	if a.cursor >= len(a.controls) {
		return
	}
	ctrl := a.controls[a.cursor]
	if ctrl.kind != controlField || len(ctrl.options) == 0 || ctrl.disabled {
		return
	}
	idx := 0
	for i, opt := range ctrl.options {
		if opt == ctrl.value {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(ctrl.options)
	} else {
		idx = (idx - 1 + len(ctrl.options)) % len(ctrl.options)
	}
	setNodeValue(ctrl.node, ctrl.options[idx])
	a.dispatch(&binding.Event{Type: ctrl.event, Target: ctrl.node, Value: ctrl.options[idx]})
}

func (a *App) toggleCheckbox() {
	if a.cursor >= len(a.controls) {
		return
	}
	ctrl := a.controls[a.cursor]
	if !ctrl.checkbox || ctrl.disabled {
		return
	}
	next := "true"
	if ctrl.value == "true" {
		next = "false"
	}
	setNodeValue(ctrl.node, next)
	a.dispatch(&binding.Event{Type: ctrl.event, Target: ctrl.node, Value: next})
}

// dispatch routes one synthetic browser event into the active step and
// re-reads the fragment afterwards.
func (a *App) dispatch(ev *binding.Event) {
	active := a.activeStep()
	if active == nil {
		return
	}
	if n := active.Dispatch(ev); n == 0 {
		a.statusMsg = "Nothing handled that input"
	} else {
		a.statusMsg = ""
	}
	a.refreshControls()
}

func (a *App) undo() {
	active := a.activeStep()
	if active == nil {
		return
	}
	if ok, err := active.State().Undo(); err != nil {
		a.statusMsg = err.Error()
	} else if !ok {
		a.statusMsg = "Nothing to undo"
	} else {
		a.statusMsg = "Undid last change"
	}
	a.syncFromState()
	a.refreshControls()
}

func (a *App) redo() {
	active := a.activeStep()
	if active == nil {
		return
	}
	if ok, err := active.State().Redo(); err != nil {
		a.statusMsg = err.Error()
	} else if !ok {
		a.statusMsg = "Nothing to redo"
	} else {
		a.statusMsg = "Redid change"
	}
	a.syncFromState()
	a.refreshControls()
}

// syncFromState writes state values back into the named controls after an
// undo or redo restores a snapshot.
func (a *App) syncFromState() {
	active := a.activeStep()
	if active == nil {
		return
	}
	values := active.State().GetState()
	for _, ctrl := range a.controls {
		if ctrl.kind != controlField || ctrl.name == "" {
			continue
		}
		value, ok := values[ctrl.name]
		if !ok {
			continue
		}
		setNodeValue(ctrl.node, stringify(value))
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

func (a *App) next() {
	if a.wiz == nil {
		return
	}
	issues, err := a.wiz.Next()
	if err != nil {
		a.err = err
		return
	}
	a.issues = issues
	if len(issues) == 0 {
		a.cursor = 0
		a.statusMsg = ""
	}
	a.refreshControls()
}

func (a *App) back() {
	if a.wiz == nil {
		return
	}
	if err := a.wiz.Back(); err != nil {
		a.err = err
		return
	}
	a.issues = nil
	a.cursor = 0
	a.refreshControls()
}

func (a *App) finish() {
	if a.wiz == nil {
		return
	}
	built, issues, err := a.wiz.Finish()
	if err != nil {
		a.err = err
		return
	}
	a.issues = issues
	if len(issues) > 0 {
		a.refreshControls()
		return
	}
	a.result = built
	a.state = stateDone
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	if a.wiz != nil {
		_ = a.wiz.Close()
		a.wiz = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
	return a, tea.Quit
}

func (a *App) activeStep() *step.Base {
	if a.wiz == nil {
		return nil
	}
	return a.wiz.Current()
}

func (a *App) refreshControls() {
	active := a.activeStep()
	if active == nil {
		a.controls = nil
		return
	}
	a.controls = extractControls(active.Fragment())
	if a.cursor >= len(a.controls) {
		a.cursor = max(0, len(a.controls)-1)
	}
}

func (a *App) drainNotices() {
	queue, ok := a.ctx.Notifier.(*report.Queue)
	if !ok {
		return
	}
	if fresh := queue.Drain(); len(fresh) > 0 {
		a.notices = append(a.notices, fresh...)
		if len(a.notices) > 5 {
			a.notices = a.notices[len(a.notices)-5:]
		}
	}
}

// View renders the current screen.
func (a *App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateWizard:
		return a.viewWizard()
	case stateDone:
		return a.viewDone()
	}
	return ""
}

func (a *App) viewMenu() string {
	var b strings.Builder
	b.WriteString(a.menu.View())
	if a.err != nil {
		b.WriteString("\n" + errStyle.Render(a.err.Error()))
	}
	return b.String()
}

func (a *App) viewWizard() string {
	var b strings.Builder
	b.WriteString(a.viewBreadcrumb())
	b.WriteString("\n\n")

	for i, ctrl := range a.controls {
		marker := "  "
		if i == a.cursor {
			marker = cursorStyle.Render("> ")
		}
		line := a.renderControl(ctrl, i == a.cursor)
		b.WriteString(marker + line + "\n")
		if ctrl.errMsg != "" {
			b.WriteString("    " + errStyle.Render(ctrl.errMsg) + "\n")
		}
	}

	if len(a.issues) > 0 {
		b.WriteString("\n" + errStyle.Render("Fix before continuing:") + "\n")
		for _, issue := range a.issues {
			label := issue.Message
			if issue.Field != "" {
				label = issue.Field + ": " + label
			}
			b.WriteString("  " + errStyle.Render("• "+label) + "\n")
		}
	}

	for _, notice := range a.notices {
		style := dimStyle
		switch notice.Kind {
		case report.KindError:
			style = errStyle
		case report.KindWarning:
			style = warnStyle
		case report.KindSuccess:
			style = okStyle
		}
		b.WriteString("\n" + style.Render(notice.Message))
	}

	if a.statusMsg != "" {
		b.WriteString("\n" + dimStyle.Render(a.statusMsg))
	}
	if a.err != nil {
		b.WriteString("\n" + errStyle.Render(a.err.Error()))
	}

	help := "enter edit · ←/→ options · space toggle · n next · b back · f finish · ctrl+z undo · q quit"
	b.WriteString("\n\n" + dimStyle.Render(help) + "\n")
	return b.String()
}

func (a *App) viewBreadcrumb() string {
	if a.wiz == nil {
		return ""
	}
	parts := make([]string, 0, len(a.wiz.Steps()))
	for i, info := range a.wiz.Steps() {
		label := info.Title
		switch {
		case i == a.wiz.CurrentIndex():
			label = titleStyle.Render("[" + label + "]")
		case a.wiz.Completed(info.Name):
			label = stepDoneStyle.Render(label + " ✓")
		default:
			label = dimStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, dimStyle.Render(" → "))
}

func (a *App) renderControl(ctrl control, selected bool) string {
	switch ctrl.kind {
	case controlButton:
		label := "[ " + ctrl.label + " ]"
		if ctrl.disabled {
			return dimStyle.Render(label + " (disabled)")
		}
		return label
	default:
		value := ctrl.value
		if selected && a.editing {
			value = a.input.View()
		} else if ctrl.checkbox {
			if ctrl.value == "true" {
				value = "[x]"
			} else {
				value = "[ ]"
			}
		} else if len(ctrl.options) > 0 {
			value = "< " + value + " >"
		} else if value == "" {
			value = dimStyle.Render("(empty)")
		}
		line := fmt.Sprintf("%-24s %s", ctrl.label+":", value)
		if ctrl.disabled {
			return dimStyle.Render(line)
		}
		return line
	}
}

func (a *App) viewDone() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Campaign created") + "\n\n")
	if a.result != nil {
		b.WriteString(fmt.Sprintf("  Name:   %s\n", a.result.Name))
		b.WriteString(fmt.Sprintf("  Status: %s\n", a.result.StatusAt(time.Now())))
		b.WriteString(fmt.Sprintf("  Tiers:  %d\n", len(a.result.Tiers)))
		for _, tier := range a.result.Tiers {
			b.WriteString(fmt.Sprintf("    %d+ items: %s\n", tier.MinQuantity, formatTier(tier)))
		}
	}
	b.WriteString("\n" + dimStyle.Render("press q to exit") + "\n")
	return b.String()
}

func formatTier(tier campaign.DiscountTier) string {
	if tier.Type == campaign.DiscountFixed {
		return fmt.Sprintf("%.2f off", tier.Value)
	}
	return fmt.Sprintf("%.0f%% off", tier.Value)
}
