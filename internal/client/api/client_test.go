package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestRegister_OK(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"info":"created"}`))
	})

	if err := c.Register(context.Background(), "a@b.com", "a", "12345678"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if gotPath != "/api/register" {
		t.Fatalf("path: got %q", gotPath)
	}
	if gotBody["email"] != "a@b.com" || gotBody["username"] != "a" || gotBody["password"] != "12345678" {
		t.Fatalf("body: %v", gotBody)
	}
}

func TestRegister_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`["email is already taken"]`))
	})

	err := c.Register(context.Background(), "a@b.com", "a", "12345678")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Messages) != 1 || ve.Messages[0] != "email is already taken" {
		t.Fatalf("messages: %v", ve.Messages)
	}
}

func TestLogin_StoresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"opaque"}`))
	})

	if err := c.Login(context.Background(), "a@b.com", "12345678"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if c.Token() != "opaque" {
		t.Fatalf("token: got %q", c.Token())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// the server answers 200 for failed logins as well
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	})

	err := c.Login(context.Background(), "a@b.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if c.Token() != "" {
		t.Fatalf("token must stay empty, got %q", c.Token())
	}
}

func TestCreatePost_SendsToken(t *testing.T) {
	var gotToken string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/login" {
			_, _ = w.Write([]byte(`{"token":"opaque"}`))
			return
		}
		gotToken = r.Header.Get(tokenHeader)
		_, _ = w.Write([]byte(`{"id":"post-id"}`))
	})

	ctx := context.Background()
	if err := c.Login(ctx, "a@b.com", "12345678"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	id, err := c.CreatePost(ctx, "m", "c")
	if err != nil {
		t.Fatalf("CreatePost error: %v", err)
	}
	if id != "post-id" {
		t.Fatalf("id: got %q", id)
	}
	if gotToken != "opaque" {
		t.Fatalf("token header: got %q", gotToken)
	}
}

func TestCreatePost_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Token expired"}`))
	})

	_, err := c.CreatePost(context.Background(), "m", "c")
	var ua *ErrUnauthorized
	if !errors.As(err, &ua) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if ua.Reason != "Token expired" {
		t.Fatalf("reason: got %q", ua.Reason)
	}
}

func TestUploadImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm error: %v", err)
		}
		if _, _, err := r.FormFile("img"); err != nil {
			t.Errorf("missing img field: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"d41d8cd98f00b204e9800998ecf8427e"}`))
	})

	id, err := c.UploadImage(context.Background(), "pic.png", []byte("bytes"))
	if err != nil {
		t.Fatalf("UploadImage error: %v", err)
	}
	if id != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("id: got %q", id)
	}
}

func TestDeleteImage_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"blob missing"}`))
	})

	if err := c.DeleteImage(context.Background(), "abc"); err == nil {
		t.Fatal("expected error")
	}
}
