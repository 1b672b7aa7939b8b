// Package pipeline runs one deck request through conversion, outline
// generation, template loading and validation, layout resolution and slide
// assembly. Stages run strictly one after another.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/markup"
	"github.com/ElSrJuez/notare/internal/metrics"
	"github.com/ElSrJuez/notare/internal/outline"
	"github.com/ElSrJuez/notare/internal/slides"
	"github.com/ElSrJuez/notare/internal/template"
	"github.com/ElSrJuez/notare/internal/tracing"
)

// Stage names used for spans and metrics.
const (
	StageConvert   = "convert"
	StageGenerate  = "generate"
	StageLoad      = "load_template"
	StageValidate  = "validate"
	StageResolve   = "resolve"
	StageAssemble  = "assemble"
	StageSerialize = "serialize"
)

// ProviderFactory builds the provider for one request's settings.
type ProviderFactory func(ctx context.Context, settings outline.Settings) (outline.Provider, error)

// Request is one deck generation request.
type Request struct {
	Settings outline.Settings
	Document string
	Format   markup.Format
	// Template holds uploaded template bytes; nil selects the default template.
	Template []byte
}

// Result is a serialized deck with the template report.
type Result struct {
	Deck        []byte
	Report      template.Report
	Outline     outline.Outline
	Slides      []slides.SlideSummary
	Resolutions []template.Resolution
}

type Pipeline struct {
	converter *markup.Converter
	providers ProviderFactory
	store     *template.Store
	assembler *slides.Assembler
}

func New(providers ProviderFactory, store *template.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		converter: markup.NewConverter(),
		providers: providers,
		store:     store,
		assembler: slides.NewAssembler(log),
	}
}

// Generate produces a deck. Settings and template size are checked before
// any conversion or network call. The loaded template is closed on every
// return path.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := template.CheckSize(int64(len(req.Template))); err != nil {
		return nil, err
	}
	provider, err := p.providers(ctx, req.Settings)
	if err != nil {
		return nil, err
	}

	o, err := p.outline(ctx, provider, req.Document, req.Format)
	if err != nil {
		return nil, err
	}

	var tpl *template.Template
	err = p.stage(ctx, StageLoad, func(ctx context.Context) error {
		var loadErr error
		tpl, loadErr = p.store.Load(ctx, req.Template)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := tpl.Close(); cerr != nil {
			logger.FromContext(ctx).Warn("release template", zap.Error(cerr))
		}
	}()

	report := p.validate(ctx, tpl)

	var title, content template.Resolution
	_ = p.stage(ctx, StageResolve, func(context.Context) error {
		title = template.Resolve(tpl, template.RoleTitle)
		content = template.Resolve(tpl, template.RoleContent)
		return nil
	})

	var built *slides.Result
	err = p.stage(ctx, StageAssemble, func(context.Context) error {
		var buildErr error
		built, buildErr = p.assembler.Build(o, tpl, title.Layout, content.Layout)
		return buildErr
	})
	if err != nil {
		return nil, err
	}

	var data []byte
	err = p.stage(ctx, StageSerialize, func(context.Context) error {
		var saveErr error
		data, saveErr = built.Deck.Bytes()
		return saveErr
	})
	if err != nil {
		return nil, fmt.Errorf("serialize presentation: %w", err)
	}

	logger.FromContext(ctx).Info("deck generated",
		zap.String("provider", provider.Name()),
		zap.String("template_source", tpl.Source),
		zap.String("template_summary", string(report.Summary)),
		zap.String("title_layout", title.Layout.Name),
		zap.String("title_step", string(title.Step)),
		zap.String("content_layout", content.Layout.Name),
		zap.String("content_step", string(content.Step)),
		zap.Int("slides", len(built.Slides)),
		zap.Int("bytes", len(data)),
	)

	return &Result{
		Deck:        data,
		Report:      report,
		Outline:     o,
		Slides:      built.Slides,
		Resolutions: []template.Resolution{title, content},
	}, nil
}

// Outline converts document and asks the provider built from settings for
// an outline, without touching any template.
func (p *Pipeline) Outline(ctx context.Context, settings outline.Settings, document string, format markup.Format) (outline.Outline, error) {
	provider, err := p.providers(ctx, settings)
	if err != nil {
		return outline.Outline{}, err
	}
	return p.outline(ctx, provider, document, format)
}

// ValidateTemplate loads data, or the default template when nil, and
// reports on its layouts.
func (p *Pipeline) ValidateTemplate(ctx context.Context, data []byte) (template.Report, error) {
	var tpl *template.Template
	err := p.stage(ctx, StageLoad, func(ctx context.Context) error {
		var loadErr error
		tpl, loadErr = p.store.Load(ctx, data)
		return loadErr
	})
	if err != nil {
		return template.Report{}, err
	}
	defer func() { _ = tpl.Close() }()
	return p.validate(ctx, tpl), nil
}

func (p *Pipeline) outline(ctx context.Context, provider outline.Provider, document string, format markup.Format) (outline.Outline, error) {
	var marked string
	_ = p.stage(ctx, StageConvert, func(context.Context) error {
		marked = p.converter.Convert(document, format)
		return nil
	})

	var o outline.Outline
	err := p.stage(ctx, StageGenerate, func(ctx context.Context) error {
		var genErr error
		o, genErr = provider.GenerateOutline(ctx, marked)
		return genErr
	})
	return o, err
}

func (p *Pipeline) validate(ctx context.Context, tpl *template.Template) template.Report {
	var report template.Report
	_ = p.stage(ctx, StageValidate, func(context.Context) error {
		report = template.Validate(tpl)
		return nil
	})
	metrics.RecordTemplateValidation(string(report.Summary))
	return report
}

// stage runs fn inside a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracing.Start(ctx, "pipeline."+name)
	defer span.End()
	span.SetAttributes(attribute.String("notare.stage", name))

	started := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordStage(name, status, time.Since(started))
	return err
}
