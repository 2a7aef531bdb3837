// Package partlinker generates and incrementally maintains KiCad symbol
// library files from structured part records, driven by declarative
// per-category templates. Only symbols that actually changed are
// rewritten; everything else in the destination files is left alone.
package partlinker

import (
	"context"
	"fmt"

	"github.com/dbx-solutions/partlinker/pkg/parts"
	"github.com/dbx-solutions/partlinker/pkg/reconcile"
	"github.com/dbx-solutions/partlinker/pkg/templates"
)

// Fetcher supplies the part records to reconcile. The Part-DB API client
// is the production implementation; tests inject fixtures.
type Fetcher interface {
	// FetchParts returns the part records to generate symbols for.
	FetchParts(ctx context.Context) ([]*parts.Part, error)
}

// Linker drives the full generation pipeline over one template set and
// one output directory.
type Linker interface {
	// Compare fetches parts and computes the pending changes without
	// touching any file.
	Compare(ctx context.Context) (*reconcile.Changeset, error)

	// Apply writes a changeset produced by the most recent Compare,
	// possibly narrowed with Select.
	Apply(cs *reconcile.Changeset) error

	// Generate runs Compare and applies every detected change.
	Generate(ctx context.Context) (*reconcile.Changeset, error)

	// Templates returns the loaded template set.
	Templates() *templates.Set
}

// linker is the internal implementation of the Linker interface.
type linker struct {
	config    *config
	templates *templates.Set
	engine    *reconcile.Engine
	fetcher   Fetcher
}

// New creates a new Linker instance with the given options.
func New(opts ...Option) (Linker, error) {
	l := &linker{config: defaultConfig()}

	if err := l.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	if l.config.fetcher == nil {
		return nil, fmt.Errorf("a part fetcher is required")
	}
	l.fetcher = l.config.fetcher

	if l.config.templateSet != nil {
		l.templates = l.config.templateSet
	} else {
		set, err := templates.Load(l.config.templatesFile)
		if err != nil {
			return nil, fmt.Errorf("loading templates: %w", err)
		}
		l.templates = set
	}

	l.engine = reconcile.New(l.templates, l.config.outputDir)
	return l, nil
}

// options applies the given options to the linker configuration.
func (l *linker) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(l.config); err != nil {
			return err
		}
	}
	return nil
}

// Compare fetches parts and computes the pending changes.
func (l *linker) Compare(ctx context.Context) (*reconcile.Changeset, error) {
	records, err := l.fetcher.FetchParts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching parts: %w", err)
	}
	return l.engine.Compare(ctx, records)
}

// Apply writes a changeset from the most recent Compare.
func (l *linker) Apply(cs *reconcile.Changeset) error {
	return l.engine.Commit(cs)
}

// Generate runs Compare and applies every detected change.
func (l *linker) Generate(ctx context.Context) (*reconcile.Changeset, error) {
	cs, err := l.Compare(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.Apply(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Templates returns the loaded template set.
func (l *linker) Templates() *templates.Set {
	return l.templates
}
