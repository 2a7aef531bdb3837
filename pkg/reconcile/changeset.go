// Package reconcile compares desired symbol libraries against what is on
// disk and applies a selected subset of the differences.
package reconcile

import (
	"fmt"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a symbol not present in the library file.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a symbol whose rendered text differs
	// from the stored block beyond whitespace.
	ChangeTypeUpdate ChangeType = "update"
)

// SymbolChange represents one pending change to one symbol.
type SymbolChange struct {
	Library  string     // Library file name the symbol belongs to
	Symbol   string     // Symbol name
	Part     string     // Source part name
	Existing string     // Stored block text, empty for additions
	New      string     // Freshly rendered block text
	Type     ChangeType // Type of change
}

// LibraryChangeset represents all pending changes to one library file.
type LibraryChangeset struct {
	File     string         // Library file name
	Category string         // Full category path the file serves
	Added    []SymbolChange // Symbols not yet in the file
	Updated  []SymbolChange // Symbols whose text changed
}

// HasChanges returns true if the library changeset contains any changes.
func (l *LibraryChangeset) HasChanges() bool {
	return len(l.Added) > 0 || len(l.Updated) > 0
}

// Changeset represents all pending changes detected in one comparison run.
type Changeset struct {
	Libraries []*LibraryChangeset // Per-file changes, ordered by file name
	Summary   ChangesetSummary    // Summary statistics
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	SymbolsAdded     int
	SymbolsUpdated   int
	LibrariesTouched int
	TotalChanges     int
}

// calculateSummary computes the summary for a set of library changesets.
func calculateSummary(libraries []*LibraryChangeset) ChangesetSummary {
	summary := ChangesetSummary{}
	for _, lib := range libraries {
		if !lib.HasChanges() {
			continue
		}
		summary.LibrariesTouched++
		summary.SymbolsAdded += len(lib.Added)
		summary.SymbolsUpdated += len(lib.Updated)
	}
	summary.TotalChanges = summary.SymbolsAdded + summary.SymbolsUpdated
	return summary
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// Changes returns every pending change across all libraries, additions
// before updates within each file.
func (c *Changeset) Changes() []SymbolChange {
	var all []SymbolChange
	for _, lib := range c.Libraries {
		all = append(all, lib.Added...)
		all = append(all, lib.Updated...)
	}
	return all
}

// Select returns a changeset reduced to the named symbols. An empty name
// list selects everything. Unknown names are ignored.
func (c *Changeset) Select(symbols []string) *Changeset {
	if len(symbols) == 0 {
		return c
	}
	wanted := make(map[string]bool, len(symbols))
	for _, name := range symbols {
		wanted[name] = true
	}

	var libraries []*LibraryChangeset
	for _, lib := range c.Libraries {
		filtered := &LibraryChangeset{File: lib.File, Category: lib.Category}
		for _, change := range lib.Added {
			if wanted[change.Symbol] {
				filtered.Added = append(filtered.Added, change)
			}
		}
		for _, change := range lib.Updated {
			if wanted[change.Symbol] {
				filtered.Updated = append(filtered.Updated, change)
			}
		}
		if filtered.HasChanges() {
			libraries = append(libraries, filtered)
		}
	}
	return &Changeset{Libraries: libraries, Summary: calculateSummary(libraries)}
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	for _, lib := range c.Libraries {
		if !lib.HasChanges() {
			continue
		}
		libParts := []string{}
		if len(lib.Added) > 0 {
			libParts = append(libParts, fmt.Sprintf("%d added", len(lib.Added)))
		}
		if len(lib.Updated) > 0 {
			libParts = append(libParts, fmt.Sprintf("%d updated", len(lib.Updated)))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", lib.File, strings.Join(libParts, ", ")))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, "; "), c.Summary.TotalChanges)
}
