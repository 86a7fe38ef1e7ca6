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
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string   { return "Sign out and forget the stored session" }
func (c *LogoutCmd) Usage() string      { return "tasktracker logout" }
func (c *LogoutCmd) NeedsBackend() bool { return true }
func (c *LogoutCmd) NeedsAuth() bool    { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	sess, err := be.Sessions.CurrentSession(ctx)
	if err != nil {
		// An unreadable session file is still removed below.
		cfg.Log().Debug("reading session before sign out", "err", err)
	} else if sess == nil {
		p.Info("not logged in")
		return exitcode.Success
	}

	if err := be.Sessions.SignOut(ctx); err != nil {
		p.Error(err.Error())
		return exitcode.AuthError
	}
	p.Success("ok")
	return exitcode.Success
}

// WhoamiCmd prints the signed-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string      { return "tasktracker whoami" }
func (c *WhoamiCmd) NeedsBackend() bool { return true }
func (c *WhoamiCmd) NeedsAuth() bool    { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	sess, err := be.Sessions.CurrentSession(ctx)
	if err != nil {
		p.Error(err.Error())
		return exitFor(err)
	}
	if sess == nil {
		p.Error(NotSignedIn)
		return exitcode.AuthError
	}
	p.Session(*sess)
	return exitcode.Success
}
