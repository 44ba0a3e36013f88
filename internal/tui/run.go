package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"qroute/internal/sampler"
)

// Run samples prog in the background while the dashboard is shown and
// returns the sampler's result. Quitting early cancels sampling.
func Run(ctx context.Context, prog *sampler.Program, opts sampler.Options, preview Input) (*sampler.Result, error) {
	return run(ctx, prog, opts, preview, tea.WithAltScreen())
}

func run(ctx context.Context, prog *sampler.Program, opts sampler.Options, preview Input, popts ...tea.ProgramOption) (*sampler.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan sampler.Progress, 64)
	opts.Progress = progress

	in := preview
	in.Progress = progress
	if in.Title == "" {
		in.Title = fmt.Sprintf("%s on %s", prog.Name, opts.Topology.Name())
	}
	p := tea.NewProgram(New(in), popts...)

	// outcome is read only here; the model learns of the result through
	// Send, which is a no-op once the program has exited.
	outcome := make(chan Done, 1)
	go func() {
		res, err := sampler.Run(ctx, prog, opts)
		close(progress)
		d := Done{Result: res, Err: err}
		outcome <- d
		p.Send(d)
	}()

	_, err := p.Run()
	cancel()
	d := <-outcome
	if err != nil {
		return nil, err
	}
	return d.Result, d.Err
}
