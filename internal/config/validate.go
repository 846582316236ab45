package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateWebhooks(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.WorkerCount <= 0 {
		return errors.New("workflow.worker_count must be positive")
	}
	if c.Workflow.MaxRetries <= 0 {
		return errors.New("workflow.max_retries must be positive")
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.Providers.OpenAI.Enabled && strings.TrimSpace(c.Providers.OpenAI.APIKey) == "" {
		return errors.New("providers.openai.api_key must be set when providers.openai.enabled is true (or set OPENAI_API_KEY)")
	}
	if c.Providers.Gemini.Enabled && strings.TrimSpace(c.Providers.Gemini.APIKey) == "" {
		return errors.New("providers.gemini.api_key must be set when providers.gemini.enabled is true (or set GEMINI_API_KEY)")
	}
	return nil
}

func (c *Config) validateWebhooks() error {
	for _, endpoint := range c.Webhooks.Endpoints {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("webhooks.endpoints: %q is not a valid URL", endpoint)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
