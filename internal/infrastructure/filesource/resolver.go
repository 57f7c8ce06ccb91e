package filesource

import (
	"context"
	"fmt"
	"log/slog"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Strategy enumerates candidate files for one kind of source.
type Strategy interface {
	Kind() domain.SourceKind
	Files(ctx context.Context, location string) ([]domain.CandidateFile, error)
}

// Resolver implements FileResolver by dispatching on the source kind.
type Resolver struct {
	strategies map[domain.SourceKind]Strategy
	logger     *slog.Logger
}

var _ ports.FileResolver = (*Resolver)(nil)

// NewResolver registers strategies; a later strategy for the same kind replaces the earlier one.
func NewResolver(log *slog.Logger, strategies ...Strategy) *Resolver {
	r := &Resolver{strategies: map[domain.SourceKind]Strategy{}, logger: log}
	for _, s := range strategies {
		r.strategies[s.Kind()] = s
	}
	return r
}

// NewDefaultResolver wires every built-in strategy.
func NewDefaultResolver(log *slog.Logger) *Resolver {
	return NewResolver(log, NewLocalStrategy(log))
}

// Resolve returns the candidate files for source in a stable order.
func (r *Resolver) Resolve(ctx context.Context, source domain.Source) ([]domain.CandidateFile, error) {
	strategy, ok := r.strategies[source.Kind]
	if !ok {
		return nil, fmt.Errorf("source %d (%s): %w", source.ID, source.Kind, ports.ErrUnsupportedSourceKind)
	}

	r.debug("resolve source", "source_id", source.ID, "kind", source.Kind, "location", source.Location)

	files, err := strategy.Files(ctx, source.Location)
	if err != nil {
		return nil, fmt.Errorf("resolve source %d: %w", source.ID, err)
	}

	r.debug("resolved candidate files", "source_id", source.ID, "count", len(files))
	return files, nil
}

func (r *Resolver) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
