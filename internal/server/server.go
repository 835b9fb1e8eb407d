package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sysmon/internal/config"
	"sysmon/internal/controllers"
	"sysmon/internal/middleware"
	"sysmon/internal/panels"
	"sysmon/internal/routes"
	"sysmon/internal/services"
	"sysmon/internal/ui"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server wires the shared system-info handle, the widget stack and the HTTP front end
type Server struct {
	cfg       *config.Config
	Engine    *gin.Engine
	Loop      *ui.Loop
	Stack     *ui.Stack
	Hub       *services.WebSocketHub
	SysInfo   *services.SystemInfo
	DiskPanel *panels.DiskPanel
}

// New assembles the application. Panels are built before the UI loop starts,
// so no other goroutine can touch the widgets yet.
func New(ctx context.Context, cfg *config.Config, source services.DiskSource) *Server {
	s := &Server{
		cfg:   cfg,
		Loop:  ui.NewLoop(64),
		Stack: ui.NewStack(),
		Hub:   services.NewWebSocketHub(),
	}

	s.SysInfo = services.NewSystemInfo(ctx, source)
	s.DiskPanel = panels.CreateDiskPanel(s.SysInfo, s.Stack)
	s.DiskPanel.SetPollTimeout(cfg.Disks.PollTimeout)

	// runs on the UI goroutine, so rendering here is safe
	s.Loop.SetOnIdle(func() {
		s.Hub.PublishPanels(s.Stack.Render())
	})

	s.Engine = s.newEngine()
	return s
}

func (s *Server) newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(s.cfg.Security.AllowedOrigins))
	r.Use(middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(s.cfg.Security.AllowedIPs)))
	r.Use(middleware.RateLimitMiddleware(middleware.NewGeneralRateLimiter()))

	panelController := controllers.NewPanelController(s.Loop, s.Stack)
	// one click budget per IP across HTTP and websocket
	clicks := middleware.NewClickRateLimiter()
	wsController := controllers.NewWebSocketController(s.Hub, panelController, s.cfg.Auth.Enabled,
		s.cfg.Security.AllowedOrigins, clicks)

	routes.RegisterPanelRoutes(r, panelController, s.cfg.Auth.Enabled, clicks)
	routes.RegisterWebSocketRoutes(r, wsController)
	return r
}

// Run serves HTTP and runs the UI loop until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	log := logrus.WithField("component", "server")

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.Loop.Run(loopCtx)
	defer s.Hub.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", s.cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
