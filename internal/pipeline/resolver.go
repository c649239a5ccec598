package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/sources"
	"github.com/ppiankov/estlookup/internal/util"
)

// Resolver dispatches a request to exactly one source and folds every
// failure into a not-found result.
type Resolver struct {
	registry *sources.Registry
}

// NewResolver creates a resolver over an existing registry
func NewResolver(registry *sources.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// NewResolverFromConfig wires the default sources onto fetcher
func NewResolverFromConfig(cfg *model.Config, fetcher *Fetcher) *Resolver {
	deps := sources.Dependencies{
		Fetcher: fetcher,
		Tables:  sources.NewTableStore(cfg.Cache.LocalTable),
	}
	if cfg.Sources.MarkupScrape.RespectRobots {
		deps.Robots = util.NewRobotsChecker(cfg.HTTP.BrowserUserAgent, fetcher.Client())
	}
	return NewResolver(sources.NewDefaultRegistry(deps, cfg))
}

// Sources lists the selectors this resolver answers
func (r *Resolver) Sources() []model.Source {
	return r.registry.Names()
}

// ResolveQuery parses inbound query parameters and resolves them.
// The only error is an unknown source selector.
func (r *Resolver) ResolveQuery(ctx context.Context, q url.Values) (model.Result, error) {
	req, err := model.RequestFromQuery(q)
	if err != nil {
		return model.Result{}, err
	}
	return r.Resolve(ctx, req), nil
}

// Resolve runs the selected source. Errors and panics become
// {found:false, error}; a source never yields both or neither outcome.
func (r *Resolver) Resolve(ctx context.Context, req model.LookupRequest) (res model.Result) {
	start := time.Now()
	logger := zap.L().With(
		zap.String("source", string(req.Source)),
		zap.String("est", req.EstablishmentCode),
		zap.String("prefix", req.Prefix),
	)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("source panicked", zap.Any("panic", p))
			res = model.Failed(eris.New(fmt.Sprint(p)))
		}
		logger.Debug("resolved",
			zap.Bool("found", res.Found),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	src, ok := r.registry.Find(req.Source)
	if !ok {
		return model.Failed(eris.Wrapf(model.ErrUnknownSource, "source %q", req.Source))
	}

	result, err := src.Resolve(ctx, req)
	if err != nil {
		logger.Warn("lookup failed", zap.Error(err))
		return model.Failed(err)
	}
	if !result.Valid() {
		return model.Failed(eris.Errorf("%s: found result without data", req.Source))
	}
	return result
}
