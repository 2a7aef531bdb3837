package reconcile

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/library"
	"github.com/dbx-solutions/partlinker/pkg/logging"
	"github.com/dbx-solutions/partlinker/pkg/parts"
	"github.com/dbx-solutions/partlinker/pkg/symbol"
	"github.com/dbx-solutions/partlinker/pkg/templates"
)

// Engine compares desired symbols against library files in one output
// directory and commits a selected subset of the differences. An Engine
// is single-run: Compare builds the per-file plan that a following Commit
// consumes, and each Compare starts the plan over. It is not safe for
// concurrent use, and two engines sharing an output directory are not
// coordinated.
type Engine struct {
	templates *templates.Set
	outputDir string
	plans     map[string]*filePlan
}

// filePlan is the full desired state for one library file, in emission
// order, alongside what the file currently holds.
type filePlan struct {
	file     string
	category string
	symbols  []plannedSymbol
	existing map[string]string
}

type plannedSymbol struct {
	name        string
	part        string
	text        string
	existing    string
	hasExisting bool
}

// New creates an engine over a template set and an output directory.
func New(set *templates.Set, outputDir string) *Engine {
	return &Engine{
		templates: set,
		outputDir: outputDir,
		plans:     make(map[string]*filePlan),
	}
}

// Compare renders the desired symbol for every part and classifies it
// against the stored library blocks. Parts whose category matches no
// template are skipped with a diagnostic; a part that fails to render is
// logged and excluded without aborting the batch. Each library file is
// parsed at most once per run. Two parts collapsing to the same symbol
// name in one file is a blocking error.
func (e *Engine) Compare(ctx context.Context, records []*parts.Part) (*Changeset, error) {
	e.plans = make(map[string]*filePlan)

	grouped, order := groupByCategory(records)

	changesets := make(map[string]*LibraryChangeset)
	for _, category := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		catCtx := logging.WithCategory(ctx, category)

		tpl := e.templates.Match(category)
		if tpl == nil {
			logging.Ctx(catCtx).Info().
				Int("parts", len(grouped[category])).
				Msg("no template matches category, skipping")
			continue
		}

		file := library.FileName(category)
		plan, err := e.planFor(file, category)
		if err != nil {
			return nil, err
		}
		cs := changesets[file]
		if cs == nil {
			cs = &LibraryChangeset{File: file, Category: category}
			changesets[file] = cs
		}

		libCtx := logging.WithLibrary(catCtx, file)
		logging.Ctx(libCtx).Debug().
			Str("template", tpl.Name).
			Int("parts", len(grouped[category])).
			Msg("generating symbols")

		for _, part := range grouped[category] {
			partCtx := logging.WithPart(libCtx, part.Name)

			name, text, err := symbol.Render(part, tpl)
			if err != nil {
				logging.Ctx(partCtx).Err(errors.NewRenderError(part.Name, err)).
					Msg("skipping part")
				continue
			}

			if plan.contains(name) {
				return nil, &errors.DuplicateSymbolError{Library: file, Symbol: name}
			}

			existing, ok := plan.existing[name]
			plan.symbols = append(plan.symbols, plannedSymbol{
				name:        name,
				part:        part.Name,
				text:        text,
				existing:    existing,
				hasExisting: ok,
			})

			change := SymbolChange{
				Library:  file,
				Symbol:   name,
				Part:     part.Name,
				Existing: existing,
				New:      text,
			}
			symCtx := logging.WithSymbol(partCtx, name)
			switch {
			case !ok:
				change.Type = ChangeTypeAdd
				cs.Added = append(cs.Added, change)
				logging.Ctx(symCtx).Debug().Msg("symbol not in library, will add")
			case !library.Equal(existing, text):
				change.Type = ChangeTypeUpdate
				cs.Updated = append(cs.Updated, change)
				logging.Ctx(symCtx).Debug().Msg("symbol text changed, will update")
			}
		}
	}

	libraries := make([]*LibraryChangeset, 0, len(changesets))
	for _, cs := range changesets {
		libraries = append(libraries, cs)
	}
	sort.Slice(libraries, func(i, j int) bool { return libraries[i].File < libraries[j].File })

	result := &Changeset{Libraries: libraries, Summary: calculateSummary(libraries)}
	logging.Ctx(ctx).Info().
		Int("additions", result.Summary.SymbolsAdded).
		Int("updates", result.Summary.SymbolsUpdated).
		Int("libraries", result.Summary.LibrariesTouched).
		Msg("comparison complete")
	return result, nil
}

// planFor returns the plan for a library file, parsing the stored file on
// first use. Distinct category paths sharing a tail land in one file and
// one plan.
func (e *Engine) planFor(file, category string) (*filePlan, error) {
	if plan, ok := e.plans[file]; ok {
		return plan, nil
	}
	existing, err := library.ParseFile(filepath.Join(e.outputDir, file))
	if err != nil {
		return nil, errors.WrapIO("read", filepath.Join(e.outputDir, file), err)
	}
	plan := &filePlan{
		file:     file,
		category: category,
		existing: existing,
	}
	e.plans[file] = plan
	return plan, nil
}

func (p *filePlan) contains(name string) bool {
	for _, s := range p.symbols {
		if s.name == name {
			return true
		}
	}
	return false
}

// groupByCategory buckets parts by full category path, preserving both
// the first-seen category order and the part order within a category.
func groupByCategory(records []*parts.Part) (map[string][]*parts.Part, []string) {
	grouped := make(map[string][]*parts.Part)
	var order []string
	for _, part := range records {
		category := part.CategoryPath()
		if _, ok := grouped[category]; !ok {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], part)
	}
	return grouped, order
}
