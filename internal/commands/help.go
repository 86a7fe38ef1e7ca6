package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "tasktracker help" }
func (c *HelpCmd) NeedsBackend() bool { return false }
func (c *HelpCmd) NeedsAuth() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

// writeHelp lists every command in reg with its usage line and aliases.
func writeHelp(w io.Writer, reg *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasktracker <command> [common flags] [args]")
	fmt.Fprintln(w, "  tasktracker              List all tasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range reg.All() {
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (also: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name(), line)
		fmt.Fprintf(w, "           %s\n", cmd.Usage())
	}
	fmt.Fprint(w, helpFooter)
}

const helpFooter = `
A <ref> is the number shown by list, or a task id.
The password may also be given in $TASKTRACKER_PASSWORD.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
