package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
	"tasktracker/internal/tasks"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	priority string
}

// SetPriority sets the priority (for testing).
func (c *AddCmd) SetPriority(p string) {
	c.priority = p
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "tasktracker add --priority high|medium|low <task...>" }
func (c *AddCmd) NeedsBackend() bool { return true }
func (c *AddCmd) NeedsAuth() bool    { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, be, c.priority, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	priority string
}

func (c *CreateCmd) Name() string       { return "create" }
func (c *CreateCmd) Aliases() []string  { return nil }
func (c *CreateCmd) Synopsis() string   { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string      { return "tasktracker create --priority high|medium|low <task...>" }
func (c *CreateCmd) NeedsBackend() bool { return true }
func (c *CreateCmd) NeedsAuth() bool    { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, be, c.priority, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
// The draft goes through the form, so a blank label or a missing priority is
// reported as "Enter all details correctly!" without touching the store.
func runAdd(ctx context.Context, cfg *config.Config, be *service.Backend, priority string, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	board, code := openBoard(ctx, cfg, be, p)
	if board == nil {
		return code
	}
	if err := board.Load(ctx); err != nil {
		return exitFor(err)
	}

	err := board.OnCreate(ctx, tasks.Draft{
		Task:     strings.Join(args, " "),
		Priority: priority,
	})
	if err != nil {
		return exitFor(err)
	}
	return exitcode.Success
}
