package library

import "strings"

// Wrapper lines for every emitted library file. The generator tag is the
// stable identity KiCad shows for files this tool owns.
const (
	fileHeader = `(kicad_symbol_lib (version 20211014) (generator partdb_linker)`
	fileFooter = `)`
)

// Compose assembles a complete library file from symbol blocks in the
// given order. Each block is written as-is followed by a newline, so
// untouched blocks survive byte-identical across rewrites.
func Compose(blocks []string) string {
	var b strings.Builder
	b.WriteString(fileHeader)
	b.WriteString("\n")
	for _, block := range blocks {
		b.WriteString(block)
		b.WriteString("\n")
	}
	b.WriteString(fileFooter)
	b.WriteString("\n")
	return b.String()
}
