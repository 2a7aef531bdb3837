package symbol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbx-solutions/partlinker/pkg/parts"
	"github.com/dbx-solutions/partlinker/pkg/templates"
)

func opAmpTemplate() *templates.Template {
	return &templates.Template{
		Name:                "opamps",
		AppliesToCategories: []string{"OpAmp"},
		FieldMapping: []templates.Mapping{
			{Field: "Reference", Source: "'U'"},
			{Field: "Value", Source: "name"},
			{Field: "Footprint", Source: "footprint.name"},
			{Field: "Manufacturer Partnumber", Source: "name"},
			{Field: "Description", Source: "description"},
		},
		SymbolGenerator: "IC_Box",
		PowerPinNames:   []string{"VCC", "GND"},
	}
}

func TestRenderICBox(t *testing.T) {
	p := testPart()
	tpl := opAmpTemplate()

	name, text, err := Render(p, tpl)
	require.NoError(t, err)
	assert.Equal(t, "LM358", name)

	lines := strings.Split(text, "\n")
	assert.Equal(t, `  (symbol "LM358"  (in_bom yes) (on_board yes)`, lines[0])
	assert.Equal(t, "  )", lines[len(lines)-1])

	// Computed placements around the unit A body (top 5.08, left -7.62).
	assert.Contains(t, text, `    (property "Reference" "U" (at -7.62 6.35 0) (effects (font (size 1.27 1.27)) (justify left)) )`)
	assert.Contains(t, text, `    (property "Manufacturer Partnumber" "LM358" (at -7.62 -6.35 0) (effects (font (size 1.27 1.27)) (justify left)) )`)
	assert.Contains(t, text, `    (property "Description" "Dual operational amplifier" (at -7.62 -8.89 0) (effects (font (size 1.27 1.27)) (justify left)) )`)

	// Unmatched properties render hidden at the origin.
	assert.Contains(t, text, `    (property "Value" "LM358" (at 0 0 0) (effects (font (size 1.27 1.27)) (hide yes)) )`)
	assert.Contains(t, text, `    (property "Footprint" "SOIC-8" (at 0 0 0) (effects (font (size 1.27 1.27)) (hide yes)) )`)

	// Uncovered parameters are appended; "Pin Description" drove the
	// generator and still shows up as a property.
	assert.Contains(t, text, `(property "Voltage" "32 V"`)
	assert.Contains(t, text, `(property "Pin Description"`)

	// Two units from the power pin split.
	assert.Contains(t, text, `(symbol "LM358_1_1"`)
	assert.Contains(t, text, `(symbol "LM358_2_1"`)
}

func TestRenderConfiguredFontSizeSurvives(t *testing.T) {
	tpl := opAmpTemplate()
	tpl.PropertyTemplates = map[string]string{
		"Reference": `(property "Reference" "{VALUE}" (at 12 34 0) (effects (font (size 2.54 2.54))))`,
	}

	_, text, err := Render(testPart(), tpl)
	require.NoError(t, err)

	// Position is recomputed, font size is kept from the pattern.
	assert.Contains(t, text, `    (property "Reference" "U" (at -7.62 6.35 0) (effects (font (size 2.54 2.54)) (justify left)) )`)
	assert.NotContains(t, text, "(at 12 34 0)")
}

func TestRenderPropertyTemplateSubstitution(t *testing.T) {
	tpl := &templates.Template{
		Name: "resistors",
		FieldMapping: []templates.Mapping{
			{Field: "Value", Source: "name"},
		},
		PropertyTemplates: map[string]string{
			"Value": "(property \"Value\" \"{VALUE}\"\n    (at 0   2.54 0)\n    (effects (font (size 1.27 1.27))))",
		},
		SymbolTemplate: "(symbol \"R_0_1\"\n  (rectangle (start -1.016 2.54) (end 1.016 -2.54))\n)",
	}
	p := &parts.Part{Name: "R 10k"}

	name, text, err := Render(p, tpl)
	require.NoError(t, err)
	assert.Equal(t, "R_10k", name, "spaces become underscores")

	// Internal whitespace and newlines collapse to single spaces before
	// the value substitutes in.
	assert.Contains(t, text, `    (property "Value" "R 10k" (at 0 2.54 0) (effects (font (size 1.27 1.27))))`)
}

func TestRenderStaticTemplatePrefixRename(t *testing.T) {
	tpl := &templates.Template{
		Name:          "opamp_fixed",
		SymbolOptions: "(pin_names (offset 0.254))",
		SymbolTemplate: strings.Join([]string{
			`(symbol "OPAMP_0_1"`,
			`  (polyline (pts (xy -5.08 5.08) (xy 5.08 0) (xy -5.08 -5.08)))`,
			`)`,
			``,
			`(symbol "OPAMP_1_1"`,
			`  (pin input line (at -7.62 2.54 0) (length 2.54))`,
			`)`,
		}, "\n"),
	}

	name, text, err := Render(&parts.Part{Name: "NE5532"}, tpl)
	require.NoError(t, err)
	assert.Equal(t, "NE5532", name)

	assert.Equal(t, `  (symbol "NE5532" (pin_names (offset 0.254)) (in_bom yes) (on_board yes)`,
		strings.Split(text, "\n")[0])
	assert.Contains(t, text, `  (symbol "NE5532_0_1"`)
	assert.Contains(t, text, `  (symbol "NE5532_1_1"`)
	assert.NotContains(t, text, "OPAMP")

	// Template lines are re-indented two extra spaces; blank lines drop.
	assert.Contains(t, text, "\n    (polyline")
	assert.NotContains(t, text, "\n\n")
}

func TestRenderPlaceholderWhenNoGenerator(t *testing.T) {
	tpl := &templates.Template{Name: "bare"}

	name, text, err := Render(&parts.Part{Name: "Mystery Part"}, tpl)
	require.NoError(t, err)
	assert.Equal(t, "Mystery_Part", name)

	want := strings.Join([]string{
		`  (symbol "Mystery_Part" (in_bom yes) (on_board yes)`,
		`    (text "No template found for Mystery_Part" (at 0 0 0) (effects (font (size 1.27 1.27))))`,
		`  )`,
	}, "\n")
	assert.Equal(t, want, text)
}

func TestRenderNilInputs(t *testing.T) {
	_, _, err := Render(nil, &templates.Template{})
	assert.Error(t, err)
	_, _, err = Render(&parts.Part{Name: "x"}, nil)
	assert.Error(t, err)
}

func TestRenderDeterministic(t *testing.T) {
	p := testPart()
	tpl := opAmpTemplate()

	_, first, err := Render(p, tpl)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, again, err := Render(p, tpl)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPropertiesOrderAndFallback(t *testing.T) {
	p := &parts.Part{
		Name: "X1",
		Parameters: map[string]string{
			"Tolerance": "1%",
			"Rating":    "",
			"Altitude":  "2000 m",
		},
	}
	tpl := &templates.Template{
		FieldMapping: []templates.Mapping{
			{Field: "Reference", Source: "'J'"},
			{Field: "Tolerance", Source: "no.such.path"},
			{Field: "Missing", Source: "also_missing"},
		},
	}

	props := Properties(p, tpl)
	require.Len(t, props, 4)

	// Mapping order first.
	assert.Equal(t, Property{Name: "Reference", Value: "J"}, props[0])
	// Dead path falls back to the parameter named like the field.
	assert.Equal(t, Property{Name: "Tolerance", Value: "1%"}, props[1])
	// Nothing resolvable still keeps its slot, empty.
	assert.Equal(t, Property{Name: "Missing", Value: ""}, props[2])
	// Uncovered non-empty parameters follow in sorted order; covered and
	// empty ones are skipped.
	assert.Equal(t, Property{Name: "Altitude", Value: "2000 m"}, props[3])
}
