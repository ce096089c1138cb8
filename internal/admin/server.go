package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"remoteid-beacon/internal/hostapd"
)

// StatusSource reports the state of the reload controller.
type StatusSource interface {
	Status() hostapd.Status
}

// Server exposes the controller status over HTTP.
type Server struct {
	src StatusSource
	mux *http.ServeMux
}

func NewServer(src StatusSource) *Server {
	s := &Server{src: src, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/hostapd.conf", s.handleConf)
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.src.Status())
}

// handleConf returns the configuration file hostapd was last pointed at.
func (s *Server) handleConf(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.src.Status().ConfPath)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "no configuration rendered yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}
