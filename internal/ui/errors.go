package ui

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"itd/internal/domain"
	"itd/internal/storage"
)

// Rerunner dispatches a single stored failure again. It returns nil when the
// test now passes.
type Rerunner interface {
	Rerun(ctx context.Context, failure domain.TestFailure) (*domain.TestFailure, error)
}

// ErrorViewer displays test failures in an interactive TUI
type ErrorViewer struct {
	storage  storage.Storage
	rerunner Rerunner
}

var _ Viewer = (*ErrorViewer)(nil)

// NewErrorViewer creates a new ErrorViewer. rerunner may be nil, which
// disables the rerun key.
func NewErrorViewer(st storage.Storage, rerunner Rerunner) *ErrorViewer {
	return &ErrorViewer{
		storage:  st,
		rerunner: rerunner,
	}
}

// ToggleResolved flips the resolved flag of the failure at index and persists the output
func (ev *ErrorViewer) ToggleResolved(results *domain.TestResultsOutput, index int) error {
	if index < 0 || index >= len(results.Details) {
		return fmt.Errorf("failure %d out of range", index)
	}
	results.Details[index].Resolved = !results.Details[index].Resolved
	return ev.storage.SaveOutput(results)
}

// Rerun dispatches the failure at index again. A passing test is marked
// resolved; a failing one has its messages replaced. The output is persisted.
func (ev *ErrorViewer) Rerun(ctx context.Context, results *domain.TestResultsOutput, index int) error {
	if ev.rerunner == nil {
		return fmt.Errorf("rerun not available")
	}
	if index < 0 || index >= len(results.Details) {
		return fmt.Errorf("failure %d out of range", index)
	}

	current := results.Details[index]
	updated, err := ev.rerunner.Rerun(ctx, current)
	if err != nil {
		return fmt.Errorf("rerun %s: %w", current.Key, err)
	}
	return ev.applyRerun(results, index, updated)
}

func (ev *ErrorViewer) applyRerun(results *domain.TestResultsOutput, index int, updated *domain.TestFailure) error {
	current := results.Details[index]
	if updated == nil {
		current.Resolved = true
		current.Messages = append(current.Messages, "passed on rerun")
	} else {
		updated.Index = current.Index
		updated.Key = current.Key
		updated.Description = current.Description
		current = *updated
	}
	results.Details[index] = current
	return ev.storage.SaveOutput(results)
}

// View displays test failures in an interactive TUI
func (ev *ErrorViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	// Create the application
	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	getListItemText := func(index int) string {
		failure := results.Details[index]
		if failure.Resolved {
			return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", failure.Index, failure.Key)
		}
		return fmt.Sprintf("[yellow]%d.[white] %s", failure.Index, failure.Key)
	}

	updateListItem := func(index int) {
		if index < 0 || index >= list.GetItemCount() {
			return
		}
		list.SetItemText(index, getListItemText(index), "")
	}

	for i := range results.Details {
		list.AddItem(getListItemText(i), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	// list on left (1/3), details on right (2/3)
	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	statusView := tview.NewTextView().
		SetDynamicColors(true)

	updateHeader := func() {
		keys := "Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit"
		if ev.rerunner != nil {
			keys = "Use ↑↓ to navigate, [yellow]R[white] to mark resolved, [yellow]X[white] to rerun, → to view details, Ctrl+C to exit"
		}
		headerView.SetText(fmt.Sprintf(" Test Failures (%d total, %d unresolved) | %s ",
			len(results.Details), countUnresolved(results.Details), keys))
	}
	updateHeader()

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(results.Details) {
			failure := results.Details[index]
			statsView.SetText(formatFailureStats(failure))
			detailsView.SetText(formatFailureDetails(failure))
		}
	}

	setStatus := func(err error) {
		if err != nil {
			statusView.SetText(fmt.Sprintf("[red]%s[white]", tview.Escape(err.Error())))
			return
		}
		statusView.SetText("")
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			index := list.GetCurrentItem()
			switch event.Rune() {
			case 'r', 'R':
				setStatus(ev.ToggleResolved(results, index))
			case 'x', 'X':
				if ev.rerunner == nil {
					return nil
				}
				statusView.SetText(fmt.Sprintf("[yellow]rerunning %s...[white]", tview.Escape(results.Details[index].Key)))
				failure := results.Details[index]
				go func() {
					updated, err := ev.rerunner.Rerun(context.Background(), failure)
					app.QueueUpdateDraw(func() {
						if err == nil {
							err = ev.applyRerun(results, index, updated)
						}
						setStatus(err)
						updateListItem(index)
						updateHeader()
						updateDetails()
					})
				}()
				return nil
			default:
				return event
			}
			updateListItem(index)
			updateHeader()
			updateDetails()
			return nil
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})

	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(statusView, 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

func countUnresolved(failures []domain.TestFailure) int {
	count := 0
	for _, f := range failures {
		if !f.Resolved {
			count++
		}
	}
	return count
}

// formatFailureDetails formats a test failure using tview color tags
func formatFailureDetails(failure domain.TestFailure) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.Key))
	if failure.Description != "" {
		fmt.Fprintf(w, "[cyan]Description: %s[white]\n", tview.Escape(failure.Description))
	}
	fmt.Fprintf(w, "[cyan]Exit code:\t%d[white]\n", failure.ExitCode)
	if failure.TimedOut {
		fmt.Fprintf(w, "[yellow]Timed out[white]\n")
	}
	fmt.Fprintf(w, "\n")

	if len(failure.Messages) > 0 {
		fmt.Fprintf(w, "[yellow]Failures:[white]\n")
		for _, msg := range failure.Messages {
			fmt.Fprintf(w, "  %s\n", tview.Escape(msg))
		}
		fmt.Fprintf(w, "\n")
	}

	if failure.Stderr != "" {
		lines := strings.Split(failure.Stderr, "\n")
		fmt.Fprintf(w, "[yellow]Stderr:[white]\n")
		for i, line := range lines {
			if i < 20 {
				fmt.Fprintf(w, "  %s\n", tview.Escape(line))
			}
		}
		if len(lines) > 20 {
			fmt.Fprintf(w, "  [gray]... and %d more lines[white]\n", len(lines)-20)
		}
	}

	w.Flush()
	return builder.String()
}

// formatFailureStats formats the stats header for a test failure
func formatFailureStats(failure domain.TestFailure) string {
	status := "[red]failing[white]"
	if failure.Resolved {
		status = "[green]resolved[white]"
	}
	return fmt.Sprintf("[cyan]index:[white] [yellow]%d[white]  [cyan]test:[white] [yellow]%s[white]  %s\n",
		failure.Index, tview.Escape(failure.Key), status)
}
