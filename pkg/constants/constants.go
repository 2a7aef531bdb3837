// Package constants provides shared constants used throughout the partlinker codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the Part-DB API
	DefaultHTTPTimeout = 30 * time.Second

	// ParameterFetchTimeout is the timeout for fetching a single parameter detail
	ParameterFetchTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// API paging constants for the Part-DB hydra collections
const (
	// DefaultPageSize is the number of items requested per collection page
	DefaultPageSize = 500

	// CategoryPageSize is the number of categories requested per page during sync
	CategoryPageSize = 500

	// PartPageSize is the number of parts requested per page during sync
	PartPageSize = 100
)

// Library file constants
const (
	// LibraryFileExtension is the file extension for generated symbol libraries
	LibraryFileExtension = ".kicad_sym"

	// DefaultTemplateFile is the template file used when none is configured
	DefaultTemplateFile = "templates.yaml"

	// DefaultOutputDir is the library output directory used when none is configured
	DefaultOutputDir = "kicad_libs"

	// DefaultAfterDate is the creation-date filter used when none is configured,
	// effectively selecting every part in the database
	DefaultAfterDate = "1970-01-01"
)
