package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grandcat/zeroconf"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
)

// zeroconfService is the mDNS service type dashboards browse for.
const zeroconfService = "_spectrumsnek._tcp"

// serverState is persisted to cache/state.json while the service runs, so
// CLI invocations and humans can see what a live daemon is bound to.
type serverState struct {
	Pid       int    `json:"pid"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	StartTime string `json:"startTime"`
}

/**
 * Server is the headless background service: the gin API plus LAN
 * advertisement, with graceful shutdown.
 */
type Server struct {
	cfg      *config.AppConfig
	registry *Registry
	httpSrv  *http.Server
	mdns     *zeroconf.Server
}

func NewServer(cfg *config.AppConfig, registry *Registry) *Server {
	return &Server{cfg: cfg, registry: registry}
}

// Registry exposes the tool registry for route registration.
func (s *Server) Registry() *Registry {
	return s.registry
}

/**
 * Run serves the API until the context is cancelled.
 * @param {*gin.Engine} engine - Router with all routes registered
 * @returns {error} Returns the listener error, nil on clean shutdown
 * @description
 * - Advertises the service over mDNS while it is up (best-effort; a host
 *   without multicast still serves fine)
 * - On cancellation: stop advertising, shut the listener down with a
 *   grace period, then stop any running tools
 */
func (s *Server) Run(ctx context.Context, engine *gin.Engine) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{Addr: addr, Handler: engine}

	hostname, _ := os.Hostname()
	mdns, err := zeroconf.Register("SpectrumSnek ("+hostname+")",
		zeroconfService, "local.", s.cfg.Server.Port,
		[]string{"path=/api/v1/status"}, nil)
	if err != nil {
		logger.Warnf("mDNS advertisement unavailable: %v", err)
	} else {
		s.mdns = mdns
	}

	if err := s.saveState(); err != nil {
		logger.Warnf("Failed to save server state: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Service listening on %s", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.cleanup()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP shutdown: %v", err)
	}
	s.cleanup()
	logger.Info("Service stopped")
	return nil
}

func (s *Server) cleanup() {
	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	s.registry.StopAll()
	os.Remove(s.statePath())
}

func (s *Server) statePath() string {
	return filepath.Join(s.cfg.Directory.Cache, "state.json")
}

func (s *Server) saveState() error {
	state := serverState{
		Pid:       os.Getpid(),
		Host:      s.cfg.Server.Host,
		Port:      s.cfg.Server.Port,
		StartTime: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.cfg.Directory.Cache, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.statePath(), data, 0644)
}
