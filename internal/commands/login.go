package commands

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/tasks"
)

// EnvPassword supplies the password when --password is not given.
const EnvPassword = "TASKTRACKER_PASSWORD"

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
	google   bool
}

// SetPassword sets the password flag (for testing).
func (c *LoginCmd) SetPassword(pw string) { c.password = pw }

// SetGoogle sets the google flag (for testing).
func (c *LoginCmd) SetGoogle(v bool) { c.google = v }

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string   { return "Sign in" }
func (c *LoginCmd) Usage() string      { return "tasktracker login [--password <pw>] <email> | login --google" }
func (c *LoginCmd) NeedsBackend() bool { return true }
func (c *LoginCmd) NeedsAuth() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.BoolVar(&c.google, "google", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	if c.google {
		if len(args) > 0 {
			p.Error("--google takes no email")
			return exitcode.UserError
		}
		// The browser URL goes to stderr so stdout stays clean.
		sess, err := be.Sessions.SignInWithGoogle(ctx, errOut)
		return signedIn(p, sess, err)
	}

	email, password, ok := credentials(args, c.password)
	if !ok {
		p.Error(tasks.MsgInvalid)
		return exitcode.UserError
	}
	sess, err := be.Sessions.SignIn(ctx, email, password)
	return signedIn(p, sess, err)
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	password string
}

// SetPassword sets the password flag (for testing).
func (c *SignupCmd) SetPassword(pw string) { c.password = pw }

func (c *SignupCmd) Name() string       { return "signup" }
func (c *SignupCmd) Aliases() []string  { return []string{"register"} }
func (c *SignupCmd) Synopsis() string   { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string      { return "tasktracker signup [--password <pw>] <email>" }
func (c *SignupCmd) NeedsBackend() bool { return true }
func (c *SignupCmd) NeedsAuth() bool    { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, be *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrinter(cfg, out, errOut)

	email, password, ok := credentials(args, c.password)
	if !ok {
		p.Error(tasks.MsgInvalid)
		return exitcode.UserError
	}
	sess, err := be.Sessions.SignUp(ctx, email, password)
	return signedIn(p, sess, err)
}

// credentials returns the email from args and the password from the flag or
// the environment. Both must be non-blank.
func credentials(args []string, password string) (string, string, bool) {
	if password == "" {
		password = os.Getenv(EnvPassword)
	}
	if len(args) != 1 {
		return "", "", false
	}
	email := strings.TrimSpace(args[0])
	if email == "" || strings.TrimSpace(password) == "" {
		return "", "", false
	}
	return email, password, true
}

func signedIn(p *output.Printer, sess service.Session, err error) int {
	if err != nil {
		p.Error(err.Error())
		if service.IsAuth(err) {
			return exitcode.AuthError
		}
		return exitcode.BackendError
	}
	p.Success("signed in as " + sess.Email)
	return exitcode.Success
}
