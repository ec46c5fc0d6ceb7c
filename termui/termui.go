// Package termui renders the pipeline's user-facing side effects in a
// terminal: notifications, blocking confirmation prompts, the navigation
// progress indicator, and the document title.
package termui

import (
	"sync"

	"github.com/pterm/pterm"

	apiclient "github.com/goliatone/go-apiclient"
)

// Notifier implements apiclient.Notifier on top of pterm prefix printers.
type Notifier struct{}

var _ apiclient.Notifier = Notifier{}

func (Notifier) Notify(kind apiclient.NotifyKind, message string) {
	switch kind {
	case apiclient.NotifyError:
		pterm.Error.Println(message)
	case apiclient.NotifyWarning:
		pterm.Warning.Println(message)
	case apiclient.NotifySuccess:
		pterm.Success.Println(message)
	default:
		pterm.Info.Println(message)
	}
}

// Confirm presents an interactive yes/no prompt. Non-interactive sessions
// get the default answer, which keeps scripted runs moving.
func (Notifier) Confirm(title, message string) bool {
	result, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(true).
		WithDefaultText(title + ": " + message).
		Show()
	if err != nil {
		return true
	}
	return result
}

// Progress drives a spinner for the duration of a route transition.
type Progress struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
}

var _ apiclient.Progress = (*Progress)(nil)

func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner != nil {
		return
	}
	if spinner, err := pterm.DefaultSpinner.Start("loading"); err == nil {
		p.spinner = spinner
	}
}

func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner == nil {
		return
	}
	_ = p.spinner.Stop()
	p.spinner = nil
}

// Title prints the document title as a section header on every transition.
type Title struct{}

var _ apiclient.TitleSink = Title{}

func (Title) SetTitle(title string) {
	pterm.DefaultSection.Println(title)
}
