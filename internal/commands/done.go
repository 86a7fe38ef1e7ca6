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
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return "tasktracker done <ref>" }
func (c *DoneCmd) NeedsBackend() bool { return true }
func (c *DoneCmd) NeedsAuth() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
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

	return exitFor(board.OnMarkComplete(ctx, id))
}
