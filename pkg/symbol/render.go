package symbol

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dbx-solutions/partlinker/pkg/errors"
	"github.com/dbx-solutions/partlinker/pkg/parts"
	"github.com/dbx-solutions/partlinker/pkg/templates"
)

const valuePlaceholder = "{VALUE}"

var (
	fontSizeRe       = regexp.MustCompile(`\(size\s+([\d.]+)\s+([\d.]+)\)`)
	templatePrefixRe = regexp.MustCompile(`\(symbol\s+"(.*?)(?:_\d+_\d+)"`)
)

// Property is one resolved symbol property in render order.
type Property struct {
	Name  string
	Value string
}

// Properties builds the full ordered property set for a part under a
// template: field_mapping entries resolve first (a single-quoted source is
// a literal; a path that resolves empty falls back to a parameter named
// like the target field), then every parameter not already covered is
// appended in sorted name order.
func Properties(p *parts.Part, tpl *templates.Template) []Property {
	var props []Property
	covered := make(map[string]bool)

	for _, m := range tpl.FieldMapping {
		var value string
		if templates.IsLiteral(m.Source) {
			value = templates.Literal(m.Source)
		} else {
			value = Resolve(p, m.Source)
			if value == "" {
				// Schema drift fallback: a parameter named like the
				// target field itself.
				value = Resolve(p, m.Field)
			}
		}
		props = append(props, Property{Name: m.Field, Value: value})
		covered[m.Field] = true
	}

	for _, name := range p.ParameterNames() {
		if covered[name] || p.Parameters[name] == "" {
			continue
		}
		props = append(props, Property{Name: name, Value: Resolve(p, name)})
	}

	return props
}

// Render produces one complete symbol block for a part under a template.
// It returns the symbol name (the part name with spaces replaced) and the
// exact block text; the same inputs always produce byte-identical output.
func Render(p *parts.Part, tpl *templates.Template) (string, string, error) {
	if p == nil || tpl == nil {
		return "", "", errors.NewValidationError("template", tpl, "part and template are required")
	}

	symbolName := strings.ReplaceAll(p.Name, " ", "_")
	props := Properties(p, tpl)

	switch tpl.Kind() {
	case templates.GeneratorICBox:
		pinCSV := Resolve(p, "Pin Description")
		blocks, geo := BuildICBox(symbolName, pinCSV, tpl.PowerPinNames)
		return symbolName, renderDynamic(symbolName, tpl, props, blocks, geo), nil

	case templates.GeneratorConnector:
		blocks, geo := BuildConnector(symbolName, p)
		return symbolName, renderDynamic(symbolName, tpl, props, blocks, geo), nil

	case templates.GeneratorStatic:
		return symbolName, renderStatic(symbolName, tpl, props), nil

	default:
		return symbolName, renderPlaceholder(symbolName), nil
	}
}

// renderDynamic assembles an IC box or connector block. Reference,
// Manufacturer Partnumber and Description get computed positions derived
// from the body box (above, below, further below); a configured font size
// survives, the configured position does not. All other properties render
// as configured.
func renderDynamic(symbolName string, tpl *templates.Template, props []Property, blocks string, geo Geometry) string {
	boxLeft := geo.BoxLeft
	boxTop := geo.BoxTop
	boxBottom := -boxTop

	refX, refY := boxLeft, boxTop+1.27
	mpnX, mpnY := boxLeft, boxBottom-1.27
	descX, descY := boxLeft, mpnY-2.54

	var lines []string
	lines = append(lines, fmt.Sprintf("  (symbol %q %s (in_bom yes) (on_board yes)", symbolName, tpl.SymbolOptions))

	for _, prop := range props {
		fontSize := extractFontSize(tpl.PropertyTemplate(prop.Name))

		switch prop.Name {
		case "Reference":
			lines = append(lines, computedPropertyLine(prop, refX, refY, fontSize))
		case "Manufacturer Partnumber":
			lines = append(lines, computedPropertyLine(prop, mpnX, mpnY, fontSize))
		case "Description":
			lines = append(lines, computedPropertyLine(prop, descX, descY, fontSize))
		default:
			lines = append(lines, configuredPropertyLine(prop, tpl))
		}
	}

	if blocks != "" {
		lines = append(lines, "  "+blocks)
	}
	lines = append(lines, "  )")
	return strings.Join(lines, "\n")
}

// renderStatic assembles a block from the template's literal graphics and
// pins, renaming the template's original symbol prefix to this part's.
func renderStatic(symbolName string, tpl *templates.Template, props []Property) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("  (symbol %q %s (in_bom yes) (on_board yes)", symbolName, tpl.SymbolOptions))

	for _, prop := range props {
		lines = append(lines, configuredPropertyLine(prop, tpl))
	}

	raw := tpl.SymbolTemplate
	if m := templatePrefixRe.FindStringSubmatch(raw); m != nil {
		raw = strings.ReplaceAll(raw, m[1], symbolName)
	}
	var indented []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indented = append(indented, "  "+line)
	}
	lines = append(lines, strings.Join(indented, "\n"))

	lines = append(lines, "  )")
	return strings.Join(lines, "\n")
}

// renderPlaceholder emits a visible diagnostic body for parts whose
// template declares neither graphics nor a generator. The text shows up
// in the schematic editor instead of failing silently.
func renderPlaceholder(symbolName string) string {
	return strings.Join([]string{
		fmt.Sprintf("  (symbol %q (in_bom yes) (on_board yes)", symbolName),
		fmt.Sprintf("    (text \"No template found for %s\" (at 0 0 0) (effects (font (size 1.27 1.27))))", symbolName),
		"  )",
	}, "\n")
}

// computedPropertyLine renders one specially-placed property at a
// geometry-derived position, left-justified.
func computedPropertyLine(prop Property, x, y float64, fontSize string) string {
	return fmt.Sprintf("    (property %q %q (at %.2f %.2f 0) (effects (font %s) (justify left)) )",
		prop.Name, prop.Value, x, y, fontSize)
}

// configuredPropertyLine renders a property from its configured pattern,
// or hidden at the origin when no pattern exists.
func configuredPropertyLine(prop Property, tpl *templates.Template) string {
	if pattern := tpl.PropertyTemplate(prop.Name); pattern != "" {
		clean := strings.Join(strings.Fields(pattern), " ")
		return "    " + strings.ReplaceAll(clean, valuePlaceholder, prop.Value)
	}
	return fmt.Sprintf("    (property %q %q (at 0 0 0) (effects (font (size 1.27 1.27)) (hide yes)) )",
		prop.Name, prop.Value)
}

// extractFontSize pulls a configured font size out of a property pattern,
// defaulting to the standard 1.27 text size.
func extractFontSize(pattern string) string {
	if m := fontSizeRe.FindStringSubmatch(pattern); m != nil {
		return fmt.Sprintf("(size %s %s)", m[1], m[2])
	}
	return "(size 1.27 1.27)"
}
