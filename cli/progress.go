package cli

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
)

type progressSpinner interface {
	Stop() error
	Success(...any)
	Fail(...any)
	UpdateText(string)
}

type progressSpinnerFactory func(string) (progressSpinner, error)

var defaultSpinnerFactory progressSpinnerFactory = func(text string) (progressSpinner, error) {
	spinner, err := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithText(text).
		Start()
	if err != nil {
		return nil, err
	}
	return spinner, nil
}

// renderProgress shows how many views have been rendered on a spinner.
type renderProgress struct {
	spinner progressSpinner
	start   time.Time
}

func startRenderProgress(factory progressSpinnerFactory, total int) (*renderProgress, error) {
	spinner, err := factory(fmt.Sprintf("Rendering views (0/%d)", total))
	if err != nil {
		return nil, err
	}
	return &renderProgress{spinner: spinner, start: time.Now()}, nil
}

// Update matches scan.Options.Progress.
func (p *renderProgress) Update(done, total int) {
	p.spinner.UpdateText(fmt.Sprintf("Rendering views (%d/%d)", done, total))
}

// Finish stops the spinner with a final message that depends on err.
func (p *renderProgress) Finish(err error) {
	if err != nil {
		p.spinner.Fail(fmt.Sprintf("Scan failed: %v", err))
		return
	}
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.spinner.Success(fmt.Sprintf("Scan complete (%s)", elapsed))
}
