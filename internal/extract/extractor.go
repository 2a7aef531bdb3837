// Package extract pulls a reusable template out of an existing KiCad
// symbol library: the symbol's options, its property lines with the value
// replaced by the {VALUE} placeholder, and its graphics and pin blocks.
// The output is a YAML snippet ready to paste into the template file.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/library"
)

// option blocks copied verbatim into symbol_options when present.
var optionNames = []string{"pin_numbers", "pin_names", "exclude_from_sim"}

var (
	childBlockRe  = regexp.MustCompile(`\(\s*(pin|symbol)\s+`)
	propertyRe    = regexp.MustCompile(`\(\s*property\s+`)
	propNameRe    = regexp.MustCompile(`\(\s*property\s+"(.*?)"`)
	quotedValueRe = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
)

// Property is one extracted property template in source order.
type Property struct {
	Name     string
	Template string
}

// Template is everything extracted from one symbol.
type Template struct {
	Symbol     string
	Options    string
	Properties []Property
	Blocks     []string
}

// FromFile extracts the named symbol's template from a library file.
func FromFile(path, symbolName string) (*Template, error) {
	symbols, err := library.ParseFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	block, ok := symbols[symbolName]
	if !ok {
		return nil, &errors.ParseError{
			Format:  "kicad_sym",
			File:    path,
			Symbol:  symbolName,
			Message: "symbol not found (names are case-sensitive)",
		}
	}
	return FromBlock(symbolName, block), nil
}

// FromBlock extracts a template from one already-isolated symbol block.
func FromBlock(symbolName, block string) *Template {
	return &Template{
		Symbol:     symbolName,
		Options:    extractOptions(block),
		Properties: extractProperties(block),
		Blocks:     extractChildBlocks(symbolName, block),
	}
}

// extractOptions collects the known option blocks, each collapsed to one
// line, in their canonical order.
func extractOptions(block string) string {
	var options []string
	for _, name := range optionNames {
		re := regexp.MustCompile(`\(\s*` + name + `\s+`)
		loc := re.FindStringIndex(block)
		if loc == nil {
			continue
		}
		end := library.MatchingParen(block, loc[0])
		if end == -1 {
			continue
		}
		options = append(options, library.Normalize(block[loc[0]:end+1]))
	}
	return strings.Join(options, " ")
}

// extractChildBlocks collects the symbol's pin definitions and its child
// graphics sub-units. Matches inside an already-captured block are
// skipped; the enclosing symbol itself is recognized by name and skipped
// too.
func extractChildBlocks(symbolName, block string) []string {
	var blocks []string
	consumedEnd := -1
	for _, loc := range childBlockRe.FindAllStringSubmatchIndex(block, -1) {
		start := loc[0]
		if start < consumedEnd {
			continue
		}
		end := library.MatchingParen(block, start)
		if end == -1 {
			continue
		}
		child := block[start : end+1]

		token := block[loc[2]:loc[3]]
		if token == "symbol" {
			firstLine, _, _ := strings.Cut(child, "\n")
			if !strings.Contains(firstLine, `"`+symbolName+`_`) {
				// The enclosing definition itself; descend into it.
				continue
			}
		}

		blocks = append(blocks, reindent(child))
		consumedEnd = end + 1
	}
	return blocks
}

// reindent keeps the block's first line and gives every following line a
// uniform two-space indent.
func reindent(block string) string {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	out := []string{lines[0]}
	for _, line := range lines[1:] {
		out = append(out, "  "+strings.TrimSpace(line))
	}
	return strings.Join(out, "\n")
}

// extractProperties turns each property line into a template with the
// stored value replaced by {VALUE}.
func extractProperties(block string) []Property {
	var props []Property
	for _, loc := range propertyRe.FindAllStringIndex(block, -1) {
		end := library.MatchingParen(block, loc[0])
		if end == -1 {
			continue
		}
		prop := block[loc[0] : end+1]

		name := propNameRe.FindStringSubmatch(prop)
		if name == nil {
			continue
		}

		// The first quoted string is the name, the second is the value.
		quotes := quotedValueRe.FindAllStringIndex(prop, 2)
		if len(quotes) < 2 {
			continue
		}
		templated := prop[:quotes[1][0]] + `"{VALUE}"` + prop[quotes[1][1]:]
		props = append(props, Property{
			Name:     name[1],
			Template: library.Normalize(templated),
		})
	}
	return props
}

// YAML renders the extracted template as a snippet for the template file.
// Field mappings are emitted as a starting point for hand editing.
func (t *Template) YAML() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Replace the category name below with the exact name from your Part-DB.\n")
	fmt.Fprintf(&b, "%q: # <-- RENAME THIS\n", t.Symbol+"_Category")
	b.WriteString("  field_mapping:\n")
	b.WriteString("    \"Reference\": \"'R?'\" # <-- EDIT THIS AS NEEDED\n")
	b.WriteString("    \"Value\": \"value\"\n")
	b.WriteString("    \"Footprint\": \"footprint.name\"\n")
	b.WriteString("    \"Datasheet\": \"manufacturer_product_url\"\n")

	if t.Options != "" {
		fmt.Fprintf(&b, "  symbol_options: '%s'\n", t.Options)
	}

	if len(t.Properties) > 0 {
		b.WriteString("  property_templates:\n")
		for _, prop := range t.Properties {
			fmt.Fprintf(&b, "    %q: '%s'\n", prop.Name, prop.Template)
		}
	}

	b.WriteString("  symbol_template: |\n")
	for _, block := range t.Blocks {
		for _, line := range strings.Split(block, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
