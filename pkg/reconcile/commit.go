package reconcile

import (
	"os"
	"path/filepath"

	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/library"
	"github.com/dbx-solutions/partlinker/pkg/logging"
)

// Commit writes the changes in cs to the output directory. Only files
// with at least one selected change are rewritten; everything else on
// disk is left alone. Within a rewritten file, selected symbols get their
// fresh text, unselected symbols that already exist keep their stored
// block verbatim, unselected additions are omitted, and stored symbols no
// longer desired are dropped. Each file lands via a temp file and rename
// so readers never observe a half-written library.
//
// cs must come from this engine's most recent Compare (possibly narrowed
// by Select).
func (e *Engine) Commit(cs *Changeset) error {
	if cs.IsEmpty() {
		logging.Info().Msg("nothing to commit")
		return nil
	}

	if err := os.MkdirAll(e.outputDir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", e.outputDir, err)
	}

	for _, lib := range cs.Libraries {
		if !lib.HasChanges() {
			continue
		}
		plan, ok := e.plans[lib.File]
		if !ok {
			return errors.NewValidationError("changeset", lib.File, "changeset does not match the last comparison")
		}

		selected := make(map[string]bool, len(lib.Added)+len(lib.Updated))
		for _, change := range lib.Added {
			selected[change.Symbol] = true
		}
		for _, change := range lib.Updated {
			selected[change.Symbol] = true
		}

		var blocks []string
		for _, sym := range plan.symbols {
			switch {
			case selected[sym.name]:
				blocks = append(blocks, sym.text)
			case sym.hasExisting:
				blocks = append(blocks, sym.existing)
			}
		}

		path := filepath.Join(e.outputDir, lib.File)
		if err := writeAtomic(path, library.Compose(blocks)); err != nil {
			return err
		}

		logging.Info().
			Str("library", lib.File).
			Int("added", len(lib.Added)).
			Int("updated", len(lib.Updated)).
			Int("symbols", len(blocks)).
			Msg("library written")
	}

	return nil
}

// writeAtomic writes content to path through a temp file in the same
// directory, so the rename is atomic on the same filesystem.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		os.Remove(tmpName)
		return errors.WrapIO("write", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.WrapIO("write", path, err)
	}
	return nil
}
