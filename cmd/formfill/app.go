package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/formfill/internal/config"
	"github.com/JaimeStill/formfill/internal/driver"
	"github.com/JaimeStill/formfill/internal/infrastructure"
	"github.com/JaimeStill/formfill/workflow"
)

var errNotReady = errors.New("subsystems not ready")

// App wires configuration, infrastructure, and the workflow engine for
// one CLI invocation.
type App struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	engine *workflow.Engine
}

func NewApp(cfg *config.Config) (*App, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := workflow.New(infra.Runtime(), workflow.Config{
		Timeout:        cfg.Workflow.RunTimeoutDuration(),
		MaxConcurrency: cfg.Workflow.MaxConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow init failed: %w", err)
	}

	infra.Logger.Info(
		"formfill initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"run_timeout", cfg.Workflow.RunTimeout,
	)

	return &App{cfg: cfg, infra: infra, engine: engine}, nil
}

func (a *App) Start() error {
	if err := a.infra.Start(); err != nil {
		return err
	}
	if err := a.infra.Lifecycle.WaitForStartup(); err != nil {
		return err
	}
	a.infra.Logger.Info("all subsystems ready", "ready", a.infra.Lifecycle.Ready())
	return nil
}

// Fill runs the workflow with reviewer answering review requests.
func (a *App) Fill(ctx context.Context, resume, form string, reviewer driver.Reviewer) (string, error) {
	if !a.infra.Lifecycle.Ready() {
		return "", errNotReady
	}
	return driver.Fill(ctx, a.engine, resume, form, reviewer, a.infra.Logger)
}

// Save uploads the filled form to document storage under key.
func (a *App) Save(ctx context.Context, key, form string) error {
	if err := a.infra.Documents.Upload(ctx, key, strings.NewReader(form), "text/markdown"); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	a.infra.Logger.InfoContext(ctx, "filled form saved", "key", key)
	return nil
}

func (a *App) Shutdown(timeout time.Duration) error {
	a.infra.Logger.Info("initiating shutdown")
	return a.infra.Lifecycle.Shutdown(timeout)
}
