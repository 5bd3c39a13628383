package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/modus/internal/client/api"
	"github.com/dmitrijs2005/modus/internal/client/config"
)

// fakeBackend records calls and plays back canned results.
type fakeBackend struct {
	token       string
	registerErr error
	loginErr    error
	postID      string

	registered [][3]string
	posted     [][2]string
	deleted    []string
}

func (f *fakeBackend) Register(_ context.Context, email, username, password string) error {
	f.registered = append(f.registered, [3]string{email, username, password})
	return f.registerErr
}

func (f *fakeBackend) Login(_ context.Context, email, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.token = "opaque"
	return nil
}

func (f *fakeBackend) CreatePost(_ context.Context, metadata, content string) (string, error) {
	f.posted = append(f.posted, [2]string{metadata, content})
	return f.postID, nil
}

func (f *fakeBackend) UploadImage(_ context.Context, filename string, data []byte) (string, error) {
	return "img-id", nil
}

func (f *fakeBackend) DeleteImage(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) Token() string { return f.token }

func newTestApp(backend backend, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config:  cfg,
		backend: backend,
		reader:  bufio.NewReader(strings.NewReader(input)),
		out:     out,
	}, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(fd int) ([]byte, error) { return []byte(pw), nil }
}

func TestRun_Register(t *testing.T) {
	stubPassword(t, "12345678")
	f := &fakeBackend{}
	app, out := newTestApp(f, "register\na@b.com\nalice\nexit\n")

	app.Run(context.Background())

	if len(f.registered) != 1 {
		t.Fatalf("registered calls: %d", len(f.registered))
	}
	if f.registered[0] != [3]string{"a@b.com", "alice", "12345678"} {
		t.Fatalf("register args: %v", f.registered[0])
	}
	if !strings.Contains(out.String(), "Account created") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_RegisterValidationMessages(t *testing.T) {
	stubPassword(t, "short")
	f := &fakeBackend{registerErr: &api.ValidationError{
		Messages: []string{"password should be greater than 8"},
	}}
	app, out := newTestApp(f, "register\na@b.com\nalice\nexit\n")

	app.Run(context.Background())

	if !strings.Contains(out.String(), "password should be greater than 8") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_PrivilegedRequiresLogin(t *testing.T) {
	f := &fakeBackend{}
	app, out := newTestApp(f, "post\nexit\n")

	app.Run(context.Background())

	if len(f.posted) != 0 {
		t.Fatal("post must not reach the backend before login")
	}
	if !strings.Contains(out.String(), "Log in first") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_LoginThenPost(t *testing.T) {
	stubPassword(t, "12345678")
	f := &fakeBackend{postID: "post-id"}
	app, out := newTestApp(f, "login\na@b.com\npost\nsome meta\nsome content\nexit\n")

	app.Run(context.Background())

	if len(f.posted) != 1 || f.posted[0] != [2]string{"some meta", "some content"} {
		t.Fatalf("posted: %v", f.posted)
	}
	if !strings.Contains(out.String(), "post-id") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_LoginFailure(t *testing.T) {
	stubPassword(t, "wrong")
	f := &fakeBackend{loginErr: api.ErrInvalidCredentials}
	app, out := newTestApp(f, "login\na@b.com\nexit\n")

	app.Run(context.Background())

	if f.Token() != "" {
		t.Fatal("token must stay empty")
	}
	if !strings.Contains(out.String(), "invalid credentials") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_DeleteImage(t *testing.T) {
	stubPassword(t, "12345678")
	f := &fakeBackend{}
	app, out := newTestApp(f, "login\na@b.com\ndelete\nd41d8cd98f00b204e9800998ecf8427e\nexit\n")

	app.Run(context.Background())

	if len(f.deleted) != 1 || f.deleted[0] != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("deleted: %v", f.deleted)
	}
	if !strings.Contains(out.String(), "File deleted") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	f := &fakeBackend{}
	app, out := newTestApp(f, "dance\nexit\n")

	app.Run(context.Background())

	if !strings.Contains(out.String(), "Unknown command: dance") {
		t.Fatalf("output: %q", out.String())
	}
}
