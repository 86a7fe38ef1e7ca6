package commands

import (
	"context"
	"flag"
	"io"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Flags left unset keep the task's
// current value.
type EditCmd struct {
	task     string
	priority string
}

// SetFields sets the flag values (for testing).
func (c *EditCmd) SetFields(task, priority string) {
	c.task = task
	c.priority = priority
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return []string{"update"} }
func (c *EditCmd) Synopsis() string   { return "Change a pending task" }
func (c *EditCmd) Usage() string      { return "tasktracker edit [--task <text>] [--priority <p>] <ref>" }
func (c *EditCmd) NeedsBackend() bool { return true }
func (c *EditCmd) NeedsAuth() bool    { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.task, "task", "", "")
	fs.StringVar(&c.task, "t", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	ref, code := parseRef(args, p)
	if code != exitcode.Success {
		return code
	}
	board, code := openBoard(ctx, cfg, be, p)
	if board == nil {
		return code
	}
	id, code := resolveRef(ctx, board, p, ref)
	if code != exitcode.Success {
		return code
	}

	// Opening the form loads the stored values; the flags overwrite them.
	if err := board.OnEdit(ctx, id); err != nil {
		return exitFor(err)
	}
	draft := board.Form().Draft()
	if c.task != "" {
		draft.Task = c.task
	}
	if c.priority != "" {
		draft.Priority = c.priority
	}
	return exitFor(board.OnUpdate(ctx, id, draft))
}
