// Package httpapi wires the public HTTP surface: registration, login,
// the privileged image and post routes behind the authorization gate,
// raw blob serving, and the API/web fallbacks.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/modus/internal/logging"
	"github.com/dmitrijs2005/modus/internal/server/services"
	"github.com/dmitrijs2005/modus/internal/server/session"
)

// Server holds the handler dependencies and the listen address.
type Server struct {
	addr      string
	logger    logging.Logger
	codec     *session.Codec
	users     *services.UserService
	posts     *services.PostService
	images    *services.ImageService
	shellBody string
}

func NewServer(
	addr string,
	logger logging.Logger,
	codec *session.Codec,
	users *services.UserService,
	posts *services.PostService,
	images *services.ImageService,
	shellBody string,
) *Server {
	return &Server{
		addr:      addr,
		logger:    logger,
		codec:     codec,
		users:     users,
		posts:     posts,
		images:    images,
		shellBody: shellBody,
	}
}

// Routes builds the router. Unmatched /api paths answer 404 with
// {"error": "Unknown api route"} regardless of method; every other
// unmatched path gets the fixed application-shell body with status 200.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", TokenHeader},
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/register", s.handleRegister)
		api.Post("/login", s.handleLogin)

		api.Get("/post", s.handlePostStub)
		api.Get("/post/{id}", s.handlePostStub)
		api.Get("/post/{id}/edit", s.handlePostStub)

		api.Group(func(priv chi.Router) {
			priv.Use(s.authorize)
			priv.Post("/img", s.handleImageUpload)
			priv.Delete("/img", s.handleImageDelete)
			priv.Post("/post", s.handlePostCreate)
		})

		api.NotFound(s.handleUnknownAPIRoute)
		api.MethodNotAllowed(s.handleUnknownAPIRoute)
	})

	r.Get("/raw/{id}", s.handleRawGet)

	r.NotFound(s.handleShell)
	r.MethodNotAllowed(s.handleShell)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
