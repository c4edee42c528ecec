// Package web serves the HTTP control and status surface. The core engine
// does not depend on it; everything goes through the Controller interface.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/sa7bnb/repeater/pkg/repeater"
)

// Controller is the slice of the engine the web surface needs.
type Controller interface {
	Status() repeater.Status
	SetInputVolume(float64)
	SetOutputVolume(float64)
	SetIDEnabled(bool)
	SetIDInterval(time.Duration)
	Announce() error
}

type Server struct {
	ctrl   Controller
	srv    *http.Server
	logger zerolog.Logger
}

func NewServer(port int, ctrl Controller, logger zerolog.Logger) *Server {
	return &Server{
		ctrl:   ctrl,
		srv:    &http.Server{Addr: fmt.Sprintf(":%d", port)},
		logger: logger,
	}
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	s.srv.Handler = s.routes()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.srv.Addr).Msg("web interface starting")

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) routes() *httprouter.Router {
	handler := httprouter.New()

	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(dashboardHTML))
	})

	handler.GET("/api/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, s.ctrl.Status())
	})

	handler.POST("/api/volume", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Input  *float64 `json:"input"`
			Output *float64 `json:"output"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Input != nil {
			s.ctrl.SetInputVolume(*req.Input)
		}
		if req.Output != nil {
			s.ctrl.SetOutputVolume(*req.Output)
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	handler.POST("/api/id", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Enabled  *bool `json:"enabled"`
			Interval *int  `json:"interval"`
			Trigger  bool  `json:"trigger"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Enabled != nil {
			s.ctrl.SetIDEnabled(*req.Enabled)
		}
		if req.Interval != nil {
			s.ctrl.SetIDInterval(time.Duration(*req.Interval) * time.Second)
		}
		if req.Trigger {
			if err := s.ctrl.Announce(); err != nil {
				if errors.Is(err, repeater.ErrBusy) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusConflict)
					json.NewEncoder(w).Encode(map[string]string{"status": "busy"})
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return handler
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
