package bootstrap

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mat-portal/internal/events"
	"mat-portal/internal/shared/config"
	"mat-portal/internal/shared/server"
	"mat-portal/internal/shared/server/middleware"
	"mat-portal/internal/summary"
	"mat-portal/internal/wizard"
)

const (
	eventBuffer    = 32
	minJanitorTick = time.Second
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	Hub           *events.Hub
	SessionsRepo  wizard.Repo
	WizardService *wizard.Service
	WizardHandler *wizard.Handler
	UploadLimiter *middleware.RateLimiter
}

// Build wires repositories, services, handlers and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.PortalName) == "" {
		cfg.PortalName = "MAT"
	}

	hub := events.NewHub(eventBuffer)
	repo := wizard.NewMemoryRepo(cfg.SessionTTL, nil)
	svc := wizard.NewService(wizard.Options{
		Repo: repo,
		Hub:  hub,
		Portal: summary.Portal{
			Name:        cfg.PortalName,
			NotifyEmail: cfg.NotifyEmail,
			SenderEmail: cfg.SenderEmail,
			Location:    cfg.Location(),
		},
		Defaults: wizard.Defaults{
			Name:  cfg.DefaultName,
			Email: cfg.DefaultEmail,
		},
		SubmitDelay: cfg.SubmitDelay,
		AlertTTL:    cfg.AlertTTL,
	})
	svc.StartJanitor(janitorInterval(cfg.SessionTTL))

	app := &App{
		Config:        cfg,
		Hub:           hub,
		SessionsRepo:  repo,
		WizardService: svc,
		WizardHandler: wizard.NewHandler(svc, cfg.CORSAllowOrigin),
		UploadLimiter: middleware.NewRateLimiter(nil),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		WizardHandler: app.WizardHandler,
		UploadLimiter: app.UploadLimiter,
	})
	return app, nil
}

// Close stops background work and ends open event streams.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.WizardService.Close()
	a.Hub.Close()
}

func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	interval := ttl / 4
	if interval < minJanitorTick {
		interval = minJanitorTick
	}
	return interval
}
