package partlinker

import (
	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/templates"
)

// config holds the linker configuration assembled from options.
type config struct {
	templatesFile string
	templateSet   *templates.Set
	outputDir     string
	fetcher       Fetcher
}

// defaultConfig returns the baseline configuration.
func defaultConfig() *config {
	return &config{
		templatesFile: constants.DefaultTemplateFile,
		outputDir:     constants.DefaultOutputDir,
	}
}

// Option is a function that configures a Linker instance.
type Option func(*config) error

// WithTemplatesFile configures the YAML template file to load.
func WithTemplatesFile(path string) Option {
	return func(c *config) error {
		c.templatesFile = path
		return nil
	}
}

// WithTemplates configures an already-loaded template set, bypassing the
// template file.
func WithTemplates(set *templates.Set) Option {
	return func(c *config) error {
		c.templateSet = set
		return nil
	}
}

// WithOutputDir configures the directory the library files are written to.
func WithOutputDir(dir string) Option {
	return func(c *config) error {
		c.outputDir = dir
		return nil
	}
}

// WithFetcher configures the part record source.
func WithFetcher(f Fetcher) Option {
	return func(c *config) error {
		c.fetcher = f
		return nil
	}
}
