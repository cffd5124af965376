package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/BibFinder/internal/config"
	"github.com/GoArmGo/BibFinder/internal/core/ports"
)

// closer ресурс, который нужно закрыть при остановке
type closer struct {
	name  string
	close func() error
}

type App struct {
	Config   *config.Config
	logger   *slog.Logger
	router   http.Handler
	detector bibDetector
	consumer ports.BibDetectionConsumer
	closers  []closer
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	router http.Handler,
	detector bibDetector,
	consumer ports.BibDetectionConsumer,
) *App {
	return &App{
		Config:   cfg,
		logger:   logger,
		router:   router,
		detector: detector,
		consumer: consumer,
	}
}

// OnShutdown регистрирует ресурс; закрываются в обратном порядке
func (a *App) OnShutdown(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case "server":
		err = runServer(ctx, a.Config, a.router, a.logger)
	case "worker":
		err = runWorker(ctx, a.detector, a.consumer, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error("failed to close resource", "resource", c.name, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("ошибка закрытия %s: %w", c.name, err)
			}
			continue
		}
		a.logger.Info("resource closed", "resource", c.name)
	}
	a.closers = nil
	return firstErr
}
