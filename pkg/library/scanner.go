// Package library reads and writes .kicad_sym library files: a tolerant
// top-level symbol block scanner, whitespace-insensitive block comparison,
// and the file naming and wrapper conventions.
package library

import (
	"os"
	"regexp"
	"strings"

	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/logging"
)

// symbolOpenRe finds candidate symbol block openings. The balance of the
// block is resolved by paren counting, not by grammar.
var symbolOpenRe = regexp.MustCompile(`\(\s*symbol\s+"(.*?)"`)

// ParseFile scans a library file and returns its top-level symbol blocks
// keyed by symbol name, each block the exact byte range from the opening
// paren through its balanced close. A missing file is an empty library,
// not an error.
func ParseFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	logging.Debug().Str("file", path).Msg("parsing existing library")
	symbols := Parse(string(data), path)
	logging.Debug().Str("file", path).Int("symbols", len(symbols)).Msg("parsed existing library")
	return symbols, nil
}

// Parse scans library content for top-level symbol blocks. Candidate
// openings inside an already-extracted block are nested sub-units and are
// skipped, so parsing re-emitted output finds exactly the names that were
// written. An opening whose close is never balanced is logged and omitted;
// everything else in the file still parses.
func Parse(content, file string) map[string]string {
	symbols := make(map[string]string)
	consumedEnd := -1

	for _, loc := range symbolOpenRe.FindAllStringSubmatchIndex(content, -1) {
		start := loc[0]
		if start < consumedEnd {
			continue
		}
		name := content[loc[2]:loc[3]]

		end := MatchingParen(content, start)
		if end == -1 {
			logging.Warn().
				Str("file", file).
				Str("symbol", name).
				Msg("unbalanced symbol block, skipping")
			continue
		}
		symbols[name] = content[start : end+1]
		consumedEnd = end + 1
	}
	return symbols
}

// MatchingParen returns the index of the parenthesis closing the one at
// start, counting depth while ignoring parens inside double-quoted
// strings (with backslash escapes). Returns -1 when the text ends before
// the block balances.
func MatchingParen(text string, start int) int {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '"':
			if i == start || text[i-1] != '\\' {
				inString = !inString
			}
		case '(':
			if !inString {
				depth++
			}
		case ')':
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// FileName maps a category path to its library file name: the last
// " → " segment with spaces replaced by underscores.
func FileName(categoryPath string) string {
	segments := strings.Split(categoryPath, " → ")
	tail := segments[len(segments)-1]
	return strings.ReplaceAll(tail, " ", "_") + constants.LibraryFileExtension
}
