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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "tasktracker rm <ref>" }
func (c *RmCmd) NeedsBackend() bool { return true }
func (c *RmCmd) NeedsAuth() bool    { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
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

	return exitFor(board.OnDelete(ctx, id))
}
