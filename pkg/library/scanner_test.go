package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLibrary = `(kicad_symbol_lib (version 20211014) (generator partdb_linker)
  (symbol "LM358" (in_bom yes) (on_board yes)
    (property "Reference" "U" (at 0 0 0) (effects (font (size 1.27 1.27))))
    (symbol "LM358_1_1"
      (pin passive line (at -10.16 1.27 0) (length 2.54)
        (name "IN+" (effects (font (size 1.27 1.27))))
        (number "1" (effects (font (size 1.27 1.27))))
      )
    )
  )
  (symbol "NE5532" (in_bom yes) (on_board yes)
    (property "Value" "NE5532" (at 0 0 0) (effects (font (size 1.27 1.27))))
  )
)
`

func TestParseTopLevelBlocksOnly(t *testing.T) {
	symbols := Parse(sampleLibrary, "test.kicad_sym")

	require.Len(t, symbols, 2)
	assert.Contains(t, symbols, "LM358")
	assert.Contains(t, symbols, "NE5532")
	// The nested sub-unit stays inside its parent, not as its own entry.
	assert.NotContains(t, symbols, "LM358_1_1")
	assert.Contains(t, symbols["LM358"], `(symbol "LM358_1_1"`)
}

func TestParseExtractsExactBytes(t *testing.T) {
	symbols := Parse(sampleLibrary, "test.kicad_sym")

	block := symbols["NE5532"]
	assert.True(t, strings.HasPrefix(block, `(symbol "NE5532"`))
	assert.True(t, strings.HasSuffix(block, ")"))
	// The extracted range is a verbatim substring of the file.
	assert.Contains(t, sampleLibrary, block)
}

func TestParseHandlesParensInsideStrings(t *testing.T) {
	content := `(symbol "OP(amp)" (in_bom yes)
  (property "Description" "Dual (low noise) op-amp :)" (at 0 0 0))
)`
	symbols := Parse(content, "t")
	require.Len(t, symbols, 1)
	assert.Equal(t, content, symbols["OP(amp)"])
}

func TestParseHandlesEscapedQuotes(t *testing.T) {
	content := `(symbol "X" (property "Note" "say \"hi\" (quietly)") )`
	symbols := Parse(content, "t")
	require.Len(t, symbols, 1)
	assert.Equal(t, content, symbols["X"])
}

func TestParseSkipsUnbalancedBlock(t *testing.T) {
	content := `(symbol "GOOD" (in_bom yes) )
(symbol "TRUNCATED" (in_bom yes`
	symbols := Parse(content, "t")
	require.Len(t, symbols, 1)
	assert.Contains(t, symbols, "GOOD")
}

func TestParseFileMissingIsEmptyLibrary(t *testing.T) {
	symbols, err := ParseFile(filepath.Join(t.TempDir(), "nope.kicad_sym"))
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestParseFileReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.kicad_sym")
	require.NoError(t, os.WriteFile(path, []byte(sampleLibrary), 0o644))

	symbols, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, symbols, 2)
}

func TestMatchingParen(t *testing.T) {
	s := `(a (b "unbalanced ) in string" c) d)`
	end := MatchingParen(s, 0)
	assert.Equal(t, len(s)-1, end)

	assert.Equal(t, -1, MatchingParen("(never closed", 0))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Pin_Headers.kicad_sym", FileName("Connectors → Pin Headers"))
	assert.Equal(t, "OpAmp.kicad_sym", FileName("OpAmp"))
	assert.Equal(t, "Uncategorized.kicad_sym", FileName("Uncategorized"))
}

func TestComposeRoundTrip(t *testing.T) {
	blocks := []string{
		"  (symbol \"A\" (in_bom yes) (on_board yes)\n  )",
		"  (symbol \"B\" (in_bom yes) (on_board yes)\n  )",
	}
	content := Compose(blocks)

	assert.True(t, strings.HasPrefix(content, "(kicad_symbol_lib (version 20211014) (generator partdb_linker)\n"))
	assert.True(t, strings.HasSuffix(content, ")\n"))

	symbols := Parse(content, "t")
	require.Len(t, symbols, 2)
	// Parsed blocks start at the opening paren; the surrounding layout is
	// Compose's concern.
	assert.Equal(t, strings.TrimLeft(blocks[0], " "), symbols["A"])
	assert.Equal(t, strings.TrimLeft(blocks[1], " "), symbols["B"])
}

func TestNormalizeAndEqual(t *testing.T) {
	a := "(symbol \"X\"\n    (property \"V\" \"1\"))"
	b := "(symbol \"X\" (property \"V\" \"1\"))"
	assert.Equal(t, Normalize(a), Normalize(b))
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, "(symbol \"X\" (property \"V\" \"2\"))"))
}
