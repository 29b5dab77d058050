// Package shortctl implements the shortener admin CLI: it hashes and checks
// stored passwords and creates or updates accounts directly in the database.
package shortctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/shortener/internal/passwd"
	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/shared"
)

var (
	ErrUsage   = errors.New("usage")
	ErrNoMatch = errors.New("password does not match")
)

const usage = `usage: shortctl <command> [args] [server flags]

commands:
  hash              read a password and print its stored form
  verify <stored>   read a password and check it against a stored hash
  useradd           create an account
  passwd <name>     replace the password of an account
  help              show this text`

// UserAdmin is the part of the user service the CLI needs.
type UserAdmin interface {
	Register(ctx context.Context, username, email string, password []byte) (*models.User, error)
	SetPassword(ctx context.Context, username string, newPassword []byte) error
}

// Connector opens the user service lazily, so that hash and verify work
// without a database. The returned closer releases the connection.
type Connector func(ctx context.Context) (UserAdmin, io.Closer, error)

type App struct {
	in      *bufio.Reader
	out     io.Writer
	hasher  passwd.Hasher
	connect Connector
}

func NewApp(in io.Reader, out io.Writer, hasher passwd.Hasher, connect Connector) *App {
	return &App{in: bufio.NewReader(in), out: out, hasher: hasher, connect: connect}
}

// Run executes one command. args[0] is the command name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "hash":
		return a.hash()
	case "verify":
		if len(rest) != 1 {
			return fmt.Errorf("%w: verify <stored>", ErrUsage)
		}
		return a.verify(rest[0])
	case "useradd":
		return a.useradd(ctx)
	case "passwd":
		if len(rest) != 1 {
			return fmt.Errorf("%w: passwd <name>", ErrUsage)
		}
		return a.passwd(ctx, rest[0])
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) hash() error {
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	stored, err := a.hasher.Derive(pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, stored)
	return nil
}

func (a *App) verify(stored string) error {
	pw, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	ok, err := a.hasher.Verify(pw, stored)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "no match")
		return ErrNoMatch
	}
	fmt.Fprintln(a.out, "match")
	return nil
}

func (a *App) useradd(ctx context.Context) error {
	name, err := GetSimpleText(a.in, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	users, closer, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	u, err := users.Register(ctx, name, email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s (id=%d)\n", u.UserName, u.ID)
	return nil
}

func (a *App) passwd(ctx context.Context, name string) error {
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)

	users, closer, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := users.SetPassword(ctx, name, pw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "password updated for %s\n", name)
	return nil
}
