// Command manifestcored runs the manifest lifecycle service behind a small
// JSON HTTP API. Storage and archive backends are selected from the
// environment (see internal/core.OpenPersistentStore and
// internal/archive.Open).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manifestcore/internal/archive"
	"manifestcore/internal/core"
	"manifestcore/pkg/domain"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()
	if err := run(*addr); err != nil {
		log.Fatal(err)
	}
}

func run(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	arch, err := archive.Open(ctx)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	svc := core.NewService(store,
		core.WithLogger(stdLogger{log.Default()}),
		core.WithMetricsRecorder(metrics),
		core.WithArchive(arch),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	registerAPI(mux, svc)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("manifestcored listening on %s (storage=%s, archive=%s)",
			addr, os.Getenv("MANIFESTCORE_STORAGE_DRIVER"), arch.Driver())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func registerAPI(mux *http.ServeMux, svc *core.Service) {
	mux.HandleFunc("POST /api/manifests", func(w http.ResponseWriter, r *http.Request) {
		var input domain.Manifest
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, _, err := svc.CreateManifest(r.Context(), input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})
	mux.HandleFunc("GET /api/manifests", func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListManifests(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})
	mux.HandleFunc("GET /api/manifests/{id}", func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.GetManifest(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	mux.HandleFunc("GET /api/manifests/{id}/journey", func(w http.ResponseWriter, r *http.Request) {
		j, err := svc.Journey(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, j)
	})
	mux.HandleFunc("POST /api/manifests/{id}/seal", func(w http.ResponseWriter, r *http.Request) {
		var actor core.Actor
		if err := json.NewDecoder(r.Body).Decode(&actor); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m, _, err := svc.SealManifest(r.Context(), r.PathValue("id"), actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	mux.HandleFunc("POST /api/manifests/{id}/sign", func(w http.ResponseWriter, r *http.Request) {
		var ev core.SignatureEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m, _, err := svc.Sign(r.Context(), r.PathValue("id"), ev)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	mux.HandleFunc("DELETE /api/manifests/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.DeleteManifest(r.Context(), r.PathValue("id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/manifests/{id}/duplicate", func(w http.ResponseWriter, r *http.Request) {
		m, _, err := svc.DuplicateManifest(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		notFound  core.ErrNotFound
		valErr    *core.ValidationError
		authErr   *core.AuthorizationError
		stateErr  *core.StateError
		ruleViols domain.RuleViolationError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &valErr):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.As(err, &authErr):
		writeError(w, http.StatusForbidden, err)
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &ruleViols):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type stdLogger struct{ l *log.Logger }

func (s stdLogger) Debugf(format string, args ...any) { s.l.Printf("DEBUG "+format, args...) }
func (s stdLogger) Infof(format string, args ...any)  { s.l.Printf("INFO "+format, args...) }
func (s stdLogger) Warnf(format string, args ...any)  { s.l.Printf("WARN "+format, args...) }
func (s stdLogger) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }
