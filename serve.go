package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"loto-optimizer/internal/game"
	"loto-optimizer/internal/generator"
	"loto-optimizer/internal/telemetry"
)

const maxBodyBytes = 1 << 20

type server struct {
	catalog game.Catalog
	gen     *generator.Generator
	rec     *telemetry.Recorder
	log     logrus.FieldLogger
}

func newServer(catalog game.Catalog, log logrus.FieldLogger) *server {
	rec := telemetry.NewRecorder()
	return &server{
		catalog: catalog,
		gen:     generator.New(log, rec),
		rec:     rec,
		log:     log,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/generate", s.handleGenerate)
	r.Get("/games", s.handleGames)
	r.Method(http.MethodGet, "/metrics", s.rec.Handler())
	return r
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
		return
	}
	status, payload := respond(r.Context(), s.gen, s.rec, s.catalog, body)
	if status != http.StatusOK {
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     status,
		}).Warn("generate rejected")
	}
	writeJSON(w, status, payload)
}

func (s *server) handleGames(w http.ResponseWriter, _ *http.Request) {
	games := make([]game.Spec, 0, len(s.catalog))
	for _, name := range s.catalog.Names() {
		games = append(games, s.catalog[name])
	}
	writeJSON(w, http.StatusOK, games)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, addr, presets string, log *logrus.Logger) error {
	catalog, err := loadCatalog(presets)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(catalog, log).routes(),
		ReadHeaderTimeout: 5 * time.Second,
		// in-flight searches see ctx and stop early on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.WithField("addr", addr).Info("serving")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
