package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"linguaflow/internal/syncclient"
)

type commandContext struct {
	configFlag *string
	serverFlag *string
	tokenFlag  *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *syncclient.ClientConfig
	configErr  error
}

func newCommandContext(configFlag, serverFlag, tokenFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		tokenFlag:  tokenFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureConfig() (*syncclient.ClientConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := syncclient.LoadClientConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
			cfg.APIURL = strings.TrimSpace(*c.serverFlag)
		}
		if c.tokenFlag != nil && strings.TrimSpace(*c.tokenFlag) != "" {
			cfg.Token = strings.TrimSpace(*c.tokenFlag)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) client() (*syncclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return syncclient.New(cfg.APIURL, cfg.Token), nil
}

// resolveProjectID takes the optional positional project-id argument, falling
// back to the current project stored by `linguaflow login` or a prior run.
func (c *commandContext) resolveProjectID(args []string) (int64, error) {
	if len(args) > 0 {
		id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid project id %q", args[0])
		}
		return id, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return 0, err
	}
	if cfg.CurrentProject <= 0 {
		return 0, fmt.Errorf("no project selected; pass a project id or set current_project in the client config")
	}
	return cfg.CurrentProject, nil
}
