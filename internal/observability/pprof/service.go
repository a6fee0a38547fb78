// Package pprof serves the daemon's debug endpoints: net/http/pprof, a
// liveness probe and a JSON status document. It binds loopback addresses
// only and has no authentication.
package pprof

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"time"

	logx "agentoast/pkg/logx"
)

const prefix = "/debug/pprof/"

var ErrNotLoopback = errors.New("debug server must bind a loopback address")

type Config struct {
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StatusFunc produces the document served at /status.
type StatusFunc func() any

type Service struct {
	cfg    Config
	status StatusFunc
	log    logx.Logger
}

func New(cfg Config, status StatusFunc, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	// Profiles block for their sampling window (30s by default).
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	return &Service{cfg: cfg, status: status, log: log.With(logx.String("comp", "debug"))}
}

// Listen binds the configured address.
func (s *Service) Listen() (net.Listener, error) {
	addr := strings.TrimSpace(s.cfg.Addr)
	if !isLoopbackAddr(addr) {
		return nil, fmt.Errorf("%w: %q", ErrNotLoopback, addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug listen %s: %w", addr, err)
	}
	return ln, nil
}

func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		var doc any
		if s.status != nil {
			doc = s.status()
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			s.log.Debug("status encode failed", logx.Err(err))
		}
	})
	mux.HandleFunc(prefix, hpprof.Index)
	mux.HandleFunc(prefix+"cmdline", hpprof.Cmdline)
	mux.HandleFunc(prefix+"profile", hpprof.Profile)
	mux.HandleFunc(prefix+"symbol", hpprof.Symbol)
	mux.HandleFunc(prefix+"trace", hpprof.Trace)
	return mux
}

// Serve runs the server on ln until ctx is canceled. A nil return means a
// clean shutdown.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(cctx)
		cancel()
	}()

	addr := ln.Addr().String()
	s.log.Info("debug server started", logx.String("addr", addr), logx.String("hint", "http://"+addr+"/status"))
	err := srv.Serve(ln)
	if ctx.Err() != nil || errors.Is(err, http.ErrServerClosed) {
		s.log.Info("debug server stopped")
		return nil
	}
	return err
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	h = strings.TrimSpace(h)
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
