package commands

import (
	"context"
	"flag"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/tasks"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasktracker` (no args) and `tasktracker list --filter <mode>`.
type ListCmd struct {
	filter string
}

// SetFilter sets the filter mode (for testing).
func (c *ListCmd) SetFilter(mode string) {
	c.filter = mode
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "tasktracker list [--filter all|pending|completed]" }
func (c *ListCmd) NeedsBackend() bool { return true }
func (c *ListCmd) NeedsAuth() bool    { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	mode, err := tasks.ParseFilterMode(c.filter)
	if err != nil {
		p.Error(err.Error())
		return exitcode.UserError
	}
	if len(args) > 0 {
		p.Error("unexpected argument: " + args[0])
		return exitcode.UserError
	}

	board, code := openBoard(ctx, cfg, be, p)
	if board == nil {
		return code
	}
	if err := board.Load(ctx); err != nil {
		return exitFor(err)
	}
	board.OnFilterChange(mode)

	// Numbers are positions in the unfiltered list so that a number seen
	// under any filter can be passed to done, edit or rm.
	positions := make(map[string]int)
	for i, t := range board.All() {
		positions[t.ID] = i + 1
	}

	view := board.Tasks()
	if len(view) == 0 {
		p.Empty()
		return exitcode.Success
	}
	for _, t := range view {
		p.Task(positions[t.ID], t)
	}
	return exitcode.Success
}
