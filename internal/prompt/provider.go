package prompt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dailybright/internal/config"
	"dailybright/internal/middleware"
	"dailybright/internal/models"
	"dailybright/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Result is a chosen prompt and where it came from.
type Result struct {
	Text   string
	Source models.DailyPromptSource
	Tags   models.StringSet
}

// Generated reports whether the text came from the generator.
func (r Result) Generated() bool {
	return r.Source == models.DailyPromptSourceAI
}

// Provider chooses a prompt for a date. Implementations never fail: the
// catalog is always available as a last resort.
type Provider interface {
	Prompt(ctx context.Context, date time.Time, recent []string) Result
}

// Request is the input to a TextGenerator.
type Request struct {
	Date   time.Time
	Recent []string
}

// TextGenerator produces raw prompt text from an external service.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrNoCredential is returned when a generator is needed but not configured.
var ErrNoCredential = errors.New("text generation credential not configured")

// Deterministic always serves the catalog entry for the date.
type Deterministic struct {
	catalog *Catalog
}

// NewDeterministic returns a provider over catalog.
func NewDeterministic(catalog *Catalog) *Deterministic {
	return &Deterministic{catalog: catalog}
}

// Prompt implements Provider.
func (d *Deterministic) Prompt(ctx context.Context, date time.Time, _ []string) Result {
	res := catalogResult(d.catalog, date)
	observability.PromptsServed.WithLabelValues(string(res.Source)).Inc()
	return res
}

// Generated asks a TextGenerator first and falls back to the catalog on any
// error, timeout or output that breaks the length and emoji limits.
type Generated struct {
	generator TextGenerator
	catalog   *Catalog
	timeout   time.Duration
}

// NewGenerated returns a provider calling generator with a per-call timeout.
func NewGenerated(generator TextGenerator, catalog *Catalog, timeout time.Duration) *Generated {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Generated{generator: generator, catalog: catalog, timeout: timeout}
}

// Prompt implements Provider.
func (g *Generated) Prompt(ctx context.Context, date time.Time, recent []string) Result {
	span, ctx := observability.StartSpan(ctx, "prompt.generate",
		attribute.String("prompt.date", models.FormatDate(date)),
		attribute.Int("prompt.recent_count", len(recent)),
	)
	defer span.End()

	text, err := g.generate(ctx, date, recent)
	if err != nil {
		reason := failureReason(err)
		observability.PromptGenerationFailures.WithLabelValues(reason).Inc()
		middleware.Logger.WarnContext(ctx, "prompt generation failed, using catalog",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		span.AddAttributes(attribute.String("prompt.fallback_reason", reason))

		res := catalogResult(g.catalog, date)
		observability.PromptsServed.WithLabelValues(string(res.Source)).Inc()
		return res
	}

	span.AddAttributes(attribute.String("prompt.source", string(models.DailyPromptSourceAI)))
	observability.PromptsServed.WithLabelValues(string(models.DailyPromptSourceAI)).Inc()
	return Result{
		Text:   text,
		Source: models.DailyPromptSourceAI,
		Tags:   models.NewStringSet(models.TagDaily, models.TagGenerated, models.TagAI),
	}
}

func (g *Generated) generate(ctx context.Context, date time.Time, recent []string) (text string, err error) {
	if g.generator == nil {
		return "", ErrNoCredential
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.New("generator panicked")
		}
	}()

	raw, err := g.generator.Generate(ctx, Request{Date: date, Recent: recent})
	if err != nil {
		return "", err
	}
	text = Sanitize(raw)
	if err := Validate(text); err != nil {
		return "", err
	}
	return text, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyOutput):
		return "empty"
	case errors.Is(err, ErrWordCount), errors.Is(err, ErrTooManyEmojis):
		return "invalid_output"
	default:
		return "upstream_error"
	}
}

func catalogResult(c *Catalog, date time.Time) Result {
	entry := c.ForDate(date)
	return Result{
		Text:   entry.Text,
		Source: models.DailyPromptSourceCatalog,
		Tags:   entry.SeedTags(),
	}
}

// NewProvider builds the provider selected by PROMPT_STRATEGY. With the
// generated strategy and no API key the provider still works, serving the
// catalog and counting each call as a no_credential fallback.
func NewProvider(ctx context.Context, cfg *config.Config, catalog *Catalog) (Provider, error) {
	switch cfg.PromptStrategy {
	case config.PromptStrategyGenerated:
		var gen TextGenerator
		if cfg.GenAIAPIKey != "" {
			g, err := NewGenAIGenerator(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
			if err != nil {
				return nil, err
			}
			gen = g
		}
		return NewGenerated(gen, catalog, cfg.GenAITimeout()), nil
	default:
		return NewDeterministic(catalog), nil
	}
}

// LoadCatalog returns the catalog from PROMPT_CATALOG_FILE or the built-in one.
func LoadCatalog(cfg *config.Config) (*Catalog, error) {
	if cfg.PromptCatalogFile == "" {
		return DefaultCatalog(), nil
	}
	return LoadCatalogFile(cfg.PromptCatalogFile)
}
