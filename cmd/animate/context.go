package main

import (
	"context"
	"sync"

	"animator/internal/app"
	"animator/internal/infra"
)

type commandContext struct {
	verbose *bool

	configOnce sync.Once
	config     *infra.Config
	configErr  error

	build func(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*app.Services, error)
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose, build: app.Build}
}

func (c *commandContext) ensureConfig() (*infra.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = infra.LoadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *infra.Config) infra.Logger {
	verbose := c.verbose != nil && *c.verbose
	return infra.NewCLILogger(cfg.AppEnv, verbose).With().Str("cmd", "animate").Logger()
}
