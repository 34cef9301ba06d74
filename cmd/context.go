package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/lingua-backend/internal/app"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     app.Config
	configErr  error

	logOnce sync.Once
	log     *logger.Logger
	logErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (app.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = app.LoadConfig(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*logger.Logger, error) {
	c.logOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logger.New(cfg.LogMode)
		if c.logErr != nil {
			c.logErr = fmt.Errorf("init logger: %w", c.logErr)
		}
	})
	return c.log, c.logErr
}

// openStore connects to the database for one-shot commands.
func (c *commandContext) openStore(migrate bool) (*app.Store, *logger.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := c.logger()
	if err != nil {
		return nil, nil, err
	}
	store, err := app.OpenStore(log, cfg, migrate)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store, log, nil
}

func (c *commandContext) close() {
	if c.log != nil {
		c.log.Sync()
	}
}
