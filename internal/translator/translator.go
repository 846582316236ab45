package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"linguaflow/internal/config"
	"linguaflow/internal/logging"
)

// Request carries one unit of machine translation work.
type Request struct {
	SourceText     string
	SourceLanguage string
	TargetLanguage string
	ProjectName    string
}

// Translator produces a target-language rendition of the source text.
// Implementations wrap one provider; the Chain sequences them.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function into a Translator, mainly for tests.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, req Request) (string, error)
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) Translate(ctx context.Context, req Request) (string, error) {
	return f.Fn(ctx, req)
}

// ErrNoProviders is returned when translation is requested but no provider
// is configured or every breaker is open.
var ErrNoProviders = errors.New("no translation providers available")

// Chain tries providers in order until one succeeds. Each call runs under a
// per-provider timeout and behind a circuit breaker, so a dead provider
// fails fast instead of burning the timeout on every queue item.
type Chain struct {
	providers []Translator
	breakers  map[string]*gobreaker.CircuitBreaker
	timeout   time.Duration
	logger    *slog.Logger
}

// NewChain builds a fallback chain over the given providers.
func NewChain(timeout time.Duration, logger *slog.Logger, providers ...Translator) *Chain {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(providers))
	for _, p := range providers {
		breakers[p.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    p.Name(),
			Timeout: time.Minute,
		})
	}
	return &Chain{
		providers: providers,
		breakers:  breakers,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "translator"),
	}
}

// NewFromConfig assembles the provider chain described by the configuration.
// Providers appear in fixed priority order: OpenAI first, then Gemini.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Chain, error) {
	var providers []Translator
	if cfg.Providers.OpenAI.Enabled {
		providers = append(providers, NewOpenAI(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.Model))
	}
	if cfg.Providers.Gemini.Enabled {
		gemini, err := NewGemini(ctx, cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("configure gemini: %w", err)
		}
		providers = append(providers, gemini)
	}
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	return NewChain(timeout, logger, providers...), nil
}

// Translate walks the chain and returns the first successful result. The
// last provider's error is returned when every provider fails.
func (c *Chain) Translate(ctx context.Context, req Request) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for _, provider := range c.providers {
		breaker := c.breakers[provider.Name()]
		result, err := breaker.Execute(func() (any, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return provider.Translate(callCtx, req)
		})
		if err == nil {
			return result.(string), nil
		}
		lastErr = err
		c.logger.Warn("provider failed, trying next",
			logging.String("provider", provider.Name()),
			logging.String("target", req.TargetLanguage),
			logging.Error(err))
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

// Providers reports the configured provider names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

func prompt(req Request) string {
	context := ""
	if req.ProjectName != "" {
		context = fmt.Sprintf(" The text belongs to the software project %q.", req.ProjectName)
	}
	return fmt.Sprintf(
		"You are a professional software localization translator. Translate the user's text from %s to %s.%s Preserve placeholders such as {name} or %%s exactly. Reply with the translation only, no explanations.",
		req.SourceLanguage, req.TargetLanguage, context)
}
