// Package cli implements the interactive command loop of the modus
// client: register, login, and the privileged post/image operations
// over the backend HTTP API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/modus/internal/client/api"
	"github.com/dmitrijs2005/modus/internal/client/config"
)

// backend is the slice of the API client the command loop needs.
type backend interface {
	Register(ctx context.Context, email, username, password string) error
	Login(ctx context.Context, email, password string) error
	CreatePost(ctx context.Context, metadata, content string) (string, error)
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
	DeleteImage(ctx context.Context, id string) error
	Token() string
}

type App struct {
	config  *config.Config
	backend backend
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config:  c,
		backend: api.New(c.ServerEndpointAddr, c.RequestTimeout),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.backend.Token() != ""
}

// Run reads commands until "exit" or EOF.
func (a *App) Run(ctx context.Context) {
	for {
		cmd, err := GetSimpleText(a.reader,
			"Commands: register, login, post, upload, delete, exit", a.out)
		if err != nil {
			return
		}

		switch cmd {
		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "post":
			a.post(ctx)
		case "upload":
			a.upload(ctx)
		case "delete":
			a.delete(ctx)
		case "exit":
			return
		default:
			fmt.Fprintf(a.out, "Unknown command: %s\n", cmd)
		}
	}
}

// report prints API failures in a user-facing form, listing every
// validation message on its own line.
func (a *App) report(err error) {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		for _, m := range ve.Messages {
			fmt.Fprintln(a.out, m)
		}
		return
	}
	fmt.Fprintln(a.out, err.Error())
}

func (a *App) register(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		return
	}
	username, err := GetSimpleText(a.reader, "Username:", a.out)
	if err != nil {
		return
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return
	}
	defer wipe(pw)

	if err := a.backend.Register(ctx, email, username, string(pw)); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Account created, you can log in now")
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		return
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return
	}
	defer wipe(pw)

	if err := a.backend.Login(ctx, email, string(pw)); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Logged in")
}

func (a *App) post(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Log in first")
		return
	}
	metadata, err := GetSimpleText(a.reader, "Metadata:", a.out)
	if err != nil {
		return
	}
	content, err := GetSimpleText(a.reader, "Content:", a.out)
	if err != nil {
		return
	}

	id, err := a.backend.CreatePost(ctx, metadata, content)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "Post stored with id %s\n", id)
}

func (a *App) upload(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Log in first")
		return
	}
	path, err := GetSimpleText(a.reader, "File path:", a.out)
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return
	}

	id, err := a.backend.UploadImage(ctx, path, data)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "File stored with id %s\n", id)
}

func (a *App) delete(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Log in first")
		return
	}
	id, err := GetSimpleText(a.reader, "File id:", a.out)
	if err != nil {
		return
	}

	if err := a.backend.DeleteImage(ctx, id); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "File deleted")
}
