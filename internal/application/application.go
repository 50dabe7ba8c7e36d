package application

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/proxy-bootstrap/internal/config"
	"github.com/eugenenazirov/proxy-bootstrap/internal/launch"
	"github.com/eugenenazirov/proxy-bootstrap/internal/render"
)

// App encapsulates the bootstrap dependencies.
type App struct {
	cfg      config.Config
	renderer *render.Renderer
	launcher launch.Launcher
	logger   *zap.Logger
}

// Option configures App.
type Option func(*App)

// WithLauncher overrides the server launcher (primarily for tests).
func WithLauncher(l launch.Launcher) Option {
	return func(a *App) {
		a.launcher = l
	}
}

// New initializes the application from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{
		cfg:      cfg,
		renderer: render.New(cfg.Root, logger),
		launcher: launch.New(logger, cfg.Supervise),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run renders every target and then hands off to the server. Nothing is
// launched if any step fails. With exec-style launching, a successful Run
// does not return.
func (a *App) Run() error {
	reports, err := a.renderer.Render(a.cfg.Targets, a.cfg.Env)
	if err != nil {
		return err
	}

	written := 0
	for _, report := range reports {
		if report.Written {
			written++
		}
		a.logger.Info("config rendered",
			zap.String("path", report.Path),
			zap.Int("replacements", report.Total()),
			zap.Bool("written", report.Written),
		)
	}
	a.logger.Info("rendering complete",
		zap.Int("targets", len(reports)),
		zap.Int("written", written),
	)

	if a.cfg.Check {
		if err := a.renderer.Check(a.cfg.Targets); err != nil {
			return err
		}
	}

	if a.cfg.NoLaunch {
		a.logger.Info("launch skipped", zap.String("command", strings.Join(a.cfg.Launch, " ")))
		return nil
	}

	return a.launcher.Launch(a.cfg.Launch, a.cfg.Env.Environ())
}
