package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/modus/internal/common"
	"github.com/dmitrijs2005/modus/internal/validation"
)

// 32 MiB upload ceiling, same order as typical reverse-proxy limits
const maxUploadBytes = 32 << 20

// decodeBody parses a JSON object body. A syntactically broken body is
// a client error, reported with the parser's own message.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}
	if r.Body == nil {
		return body, true
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return nil, false
	}
	if len(raw) == 0 {
		return body, true
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return body, true
}

func fieldString(body map[string]any, name string) string {
	if s, ok := body[name].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", body[name])
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	v := validation.New(body)
	v.Validate("email").IsRequired().IsEmail().
		IsUnique(r.Context(), s.users.EmailLookup(), map[string]any{"email": v.Value()})
	v.Validate("username").IsRequired()
	v.Validate("password").IsRequired().MinSize(8)

	if err := v.Err(); err != nil {
		s.logger.Error(r.Context(), "uniqueness lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if v.Failed() {
		// the error list itself is the body, matching the client contract
		writeJSON(w, http.StatusBadRequest, v.Messages())
		return
	}

	_, err := s.users.Register(r.Context(),
		fieldString(body, "email"), fieldString(body, "username"), fieldString(body, "password"))
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"info": "created"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	v := validation.New(body)
	v.Validate("email").IsRequired().IsEmail()
	v.Validate("password").IsRequired()
	if v.Failed() {
		writeJSON(w, http.StatusBadRequest, v.Messages())
		return
	}

	user, err := s.users.Login(r.Context(), fieldString(body, "email"), fieldString(body, "password"))
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			// same status as success, so callers cannot probe for accounts
			writeError(w, http.StatusOK, "invalid credentials")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.codec.MintFor(user.Email)
	if err != nil {
		s.logger.Error(r.Context(), "token mint failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No files were uploaded.")
		return
	}

	file, _, err := r.FormFile("img")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No files were uploaded.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No files were uploaded.")
		return
	}

	id, err := s.images.Save(r.Context(), data)
	if err != nil {
		s.logger.Error(r.Context(), "image save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleImageDelete(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	v := validation.New(body)
	v.Validate("id").IsRequired().SizeOf(32).HasNoSpecialChar()
	if v.Failed() {
		writeJSON(w, http.StatusBadRequest, v.Messages())
		return
	}

	// deleting an unknown id is a server error, not a silent success
	if err := s.images.Delete(r.Context(), fieldString(body, "id")); err != nil {
		s.logger.Error(r.Context(), "image delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"info": "deleted"})
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	v := validation.New(body)
	v.Validate("metadata").IsRequired()
	v.Validate("content").IsRequired()
	if v.Failed() {
		writeJSON(w, http.StatusBadRequest, v.Messages())
		return
	}

	id, err := s.posts.Create(r.Context(), map[string]any{
		"metadata": body["metadata"],
		"content":  body["content"],
	})
	if err != nil {
		s.logger.Error(r.Context(), "post create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handlePostStub answers the read-side post routes, which are empty
// placeholders in the current client contract.
func (s *Server) handlePostStub(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRawGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := s.images.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.Error(r.Context(), "blob read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUnknownAPIRoute(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Unknown api route")
}

// handleShell serves the fixed application-shell body for any route
// outside /api, mirroring a single-page client deployment.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.shellBody))
}
