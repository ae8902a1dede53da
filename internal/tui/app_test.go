package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(t.TempDir())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { app.quit() })
	return app
}

func press(app *App, key tea.KeyMsg) {
	app.Update(key)
}

func pressRune(app *App, r rune) {
	press(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func typeText(app *App, text string) {
	press(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func enter(app *App) {
	press(app, tea.KeyMsg{Type: tea.KeyEnter})
}

func startWizard(t *testing.T, app *App) {
	t.Helper()
	enter(app)
	if app.state != stateWizard {
		t.Fatalf("expected wizard state after menu enter, err=%v", app.err)
	}
	if len(app.controls) == 0 {
		t.Fatalf("expected controls on the first step")
	}
}

func TestMenuEnterStartsWizard(t *testing.T) {
	app := newTestApp(t)
	startWizard(t, app)
	if got := app.wiz.Current().Name(); got != "basics" {
		t.Fatalf("expected basics step first, got %s", got)
	}
	if app.controls[0].name != "campaign_name" {
		t.Fatalf("expected campaign_name first, got %+v", app.controls[0])
	}
}

func TestEditingFieldWritesThroughState(t *testing.T) {
	app := newTestApp(t)
	startWizard(t, app)

	enter(app) // start editing campaign_name
	if !app.editing {
		t.Fatalf("expected editing mode")
	}
	typeText(app, "Summer Sale")
	enter(app) // commit

	got, ok := app.wiz.Current().State().Get("campaign_name")
	if !ok || got != "Summer Sale" {
		t.Fatalf("state campaign_name = %v (ok=%v)", got, ok)
	}
	if app.controls[0].value != "Summer Sale" {
		t.Fatalf("control not refreshed: %+v", app.controls[0])
	}
}

func TestUndoRestoresPreviousValue(t *testing.T) {
	app := newTestApp(t)
	startWizard(t, app)

	enter(app)
	typeText(app, "Summer")
	enter(app)
	enter(app)
	typeText(app, " Clearance")
	enter(app)

	got, _ := app.wiz.Current().State().Get("campaign_name")
	if got != "Summer Clearance" {
		t.Fatalf("setup state = %v", got)
	}

	press(app, tea.KeyMsg{Type: tea.KeyCtrlZ})
	got, _ = app.wiz.Current().State().Get("campaign_name")
	if got != "Summer" {
		t.Fatalf("after undo = %v", got)
	}
	if app.controls[0].value != "Summer" {
		t.Fatalf("control not synced after undo: %+v", app.controls[0])
	}

	press(app, tea.KeyMsg{Type: tea.KeyCtrlY})
	got, _ = app.wiz.Current().State().Get("campaign_name")
	if got != "Summer Clearance" {
		t.Fatalf("after redo = %v", got)
	}
}

func TestNextBlockedByValidation(t *testing.T) {
	app := newTestApp(t)
	startWizard(t, app)

	pressRune(app, 'n')
	if len(app.issues) == 0 {
		t.Fatalf("expected validation issues to block the empty step")
	}
	if app.wiz.CurrentIndex() != 0 {
		t.Fatalf("expected to stay on the first step, got %d", app.wiz.CurrentIndex())
	}
}

func TestNextAdvancesWhenValid(t *testing.T) {
	app := newTestApp(t)
	startWizard(t, app)

	enter(app)
	typeText(app, "Spring Promo")
	enter(app)

	pressRune(app, 'n')
	if len(app.issues) != 0 {
		t.Fatalf("unexpected issues: %+v", app.issues)
	}
	if got := app.wiz.Current().Name(); got != "schedule" {
		t.Fatalf("expected schedule step, got %s", got)
	}
	if !app.wiz.Completed("basics") {
		t.Fatalf("expected basics to be marked complete")
	}
}
