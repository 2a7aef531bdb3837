package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dbx-solutions/partlinker"
	"github.com/dbx-solutions/partlinker/internal/sources/partdb"
	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/reconcile"
)

// NewGenerateCommand creates the generate command.
func (a *App) NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate KiCad symbol libraries from Part-DB",
		Long: `Generate fetches parts from the Part-DB API, renders a symbol for each
part from the template catalog, and writes one .kicad_sym file per
category into the output directory.

Only added or changed symbols are written. Files whose symbols are all
up to date are left untouched, so manual edits to unrelated symbols in
the same directory survive a regeneration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun := mustGetBool(cmd, "dry-run")
			watch := mustGetBool(cmd, "watch")
			selected, err := cmd.Flags().GetStringSlice("select")
			if err != nil {
				return err
			}

			if watch {
				if dryRun {
					return errors.NewValidationError("watch", true, "cannot be combined with --dry-run")
				}
				return a.watchAndGenerate(cmd, selected)
			}

			linker, err := a.newLinker(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
			defer cancel()

			return a.runGeneration(ctx, cmd, linker, dryRun, selected)
		},
	}

	cmd.Flags().Bool("dry-run", false, "compute and print the pending changes without writing any file")
	cmd.Flags().Bool("watch", false, "re-run generation whenever the template file changes")
	cmd.Flags().StringSlice("select", nil, "apply only the named symbols (default: all)")
	cmd.Flags().String("templates", "", "template file (default "+constants.DefaultTemplateFile+")")
	cmd.Flags().String("output", "", "library output directory (default "+constants.DefaultOutputDir+")")
	cmd.Flags().String("after-date", "", "only include parts created after this date (YYYY-MM-DD)")

	return cmd
}

// newLinker builds a Linker wired to the Part-DB API from config and flags.
func (a *App) newLinker(cmd *cobra.Command) (partlinker.Linker, error) {
	cfg := a.config

	templatesFile := mustGetString(cmd, "templates")
	if templatesFile == "" {
		templatesFile = cfg.TemplatesFile
	}
	outputDir := mustGetString(cmd, "output")
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	afterDate := mustGetString(cmd, "after-date")
	if afterDate == "" {
		afterDate = cfg.AfterDate
	}

	if cfg.APIURL == "" {
		return nil, errors.NewConfigError("partdb", "PARTDB_API_URL is not set", nil)
	}

	client := partdb.NewClient(cfg.APIURL, cfg.APIToken, afterDate)

	return partlinker.New(
		partlinker.WithTemplatesFile(templatesFile),
		partlinker.WithOutputDir(outputDir),
		partlinker.WithFetcher(client),
	)
}

// runGeneration performs one compare/apply cycle and prints the result.
func (a *App) runGeneration(ctx context.Context, cmd *cobra.Command, linker partlinker.Linker, dryRun bool, selected []string) error {
	changeset, err := linker.Compare(ctx)
	if err != nil {
		return err
	}

	if len(selected) > 0 {
		changeset = changeset.Select(selected)
	}

	if changeset.IsEmpty() {
		cmd.Println("All symbol libraries are up to date.")
		return nil
	}

	a.printSummary(cmd, changeset)

	if dryRun {
		cmd.Println("\nDry run: no files were written.")
		return nil
	}

	if err := linker.Apply(changeset); err != nil {
		return err
	}

	cmd.Printf("\nWrote %d symbol(s) across %d library file(s).\n",
		changeset.Summary.TotalChanges, changeset.Summary.LibrariesTouched)
	return nil
}

// watchAndGenerate runs generation once, then re-runs it every time the
// template file is written. Blocks until the context is cancelled.
func (a *App) watchAndGenerate(cmd *cobra.Command, selected []string) error {
	ctx := cmd.Context()

	run := func() {
		// Rebuild the linker each cycle so template edits are picked up.
		linker, err := a.newLinker(cmd)
		if err != nil {
			a.logger.Error().Err(err).Msg("Failed to reload templates")
			return
		}
		if err := a.runGeneration(ctx, cmd, linker, false, selected); err != nil {
			a.logger.Error().Err(err).Msg("Generation failed")
		}
	}

	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapResource("create", "watcher", "", err)
	}
	defer watcher.Close()

	templatesFile := mustGetString(cmd, "templates")
	if templatesFile == "" {
		templatesFile = a.config.TemplatesFile
	}

	// Watch the parent directory: editors replace files via rename, which
	// drops a direct file watch.
	dir := filepath.Dir(templatesFile)
	if err := watcher.Add(dir); err != nil {
		return errors.WrapIO("watch", dir, err)
	}

	target := filepath.Clean(templatesFile)
	a.logger.Info().Str("file", target).Msg("Watching template file for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				a.logger.Info().Str("file", target).Msg("Template file changed, regenerating")
				run()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// printSummary prints a human-readable per-library change summary.
func (a *App) printSummary(cmd *cobra.Command, changeset *reconcile.Changeset) {
	titler := cases.Title(language.English)

	for _, lib := range changeset.Libraries {
		if !lib.HasChanges() {
			continue
		}

		name := strings.TrimSuffix(filepath.Base(lib.File), constants.LibraryFileExtension)
		heading := titler.String(strings.ReplaceAll(name, "_", " "))
		cmd.Printf("%s (%s):\n", heading, lib.File)

		for _, change := range lib.Added {
			cmd.Printf("  + %s\n", change.Symbol)
		}
		for _, change := range lib.Updated {
			cmd.Printf("  ~ %s\n", change.Symbol)
		}
	}

	cmd.Printf("\n%d to add, %d to update across %d library file(s)\n",
		changeset.Summary.SymbolsAdded, changeset.Summary.SymbolsUpdated, changeset.Summary.LibrariesTouched)
}
