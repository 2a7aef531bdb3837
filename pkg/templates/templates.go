// Package templates loads and matches the per-category symbol templates.
// Templates are declared in a YAML file keyed by template name; declaration
// order is significant because the first template whose category rule
// matches a part wins.
package templates

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/dbx-solutions/partlinker/pkg/errors"
)

// Generator identifies how a template produces symbol graphics and pins.
type Generator string

const (
	// GeneratorNone means the template has neither graphics nor a dynamic
	// generator; rendering emits a visible diagnostic placeholder.
	GeneratorNone Generator = "none"
	// GeneratorStatic means the template carries literal graphics/pins text.
	GeneratorStatic Generator = "static"
	// GeneratorICBox is the dynamic two-unit IC box generator.
	GeneratorICBox Generator = "ic_box"
	// GeneratorConnector is the dynamic connector generator.
	GeneratorConnector Generator = "connector"
)

// Mapping is one ordered field_mapping entry: target property name to a
// source path or single-quoted literal.
type Mapping struct {
	Field  string
	Source string
}

// Template is the declarative per-category configuration mapping part data
// to rendered properties and symbol geometry.
type Template struct {
	Name                string
	AppliesToCategories []string
	FieldMapping        []Mapping
	PropertyTemplates   map[string]string
	SymbolGenerator     string
	PowerPinNames       []string
	SymbolOptions       string
	SymbolTemplate      string
}

// Kind derives the generator kind from the declared fields.
func (t *Template) Kind() Generator {
	switch t.SymbolGenerator {
	case "IC_Box":
		return GeneratorICBox
	case "Connector":
		return GeneratorConnector
	}
	if t.SymbolTemplate != "" {
		return GeneratorStatic
	}
	return GeneratorNone
}

// PropertyTemplate returns the render pattern for the named property, or
// "" when none is configured.
func (t *Template) PropertyTemplate(name string) string {
	if t.PropertyTemplates == nil {
		return ""
	}
	return t.PropertyTemplates[name]
}

// Set is an ordered collection of templates.
type Set struct {
	templates []*Template
}

// Templates returns the templates in declaration order.
func (s *Set) Templates() []*Template {
	return s.templates
}

// Len returns the number of templates in the set.
func (s *Set) Len() int {
	return len(s.templates)
}

// Add appends a template to the set, preserving declaration order.
func (s *Set) Add(t *Template) {
	s.templates = append(s.templates, t)
}

// Match returns the first template in declaration order for which any
// declared category string is a case-insensitive suffix of the part's full
// category path. Returns nil when nothing matches.
func (s *Set) Match(categoryPath string) *Template {
	path := strings.ToLower(strings.TrimSpace(categoryPath))
	for _, t := range s.templates {
		for _, cat := range t.AppliesToCategories {
			if strings.HasSuffix(path, strings.ToLower(strings.TrimSpace(cat))) {
				return t
			}
		}
	}
	return nil
}

// Load reads a template set from a YAML file. The file maps template names
// to template bodies; both the top-level order and the field_mapping order
// are preserved.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError("templates", fmt.Sprintf("template file not found: %s", path), err)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return set, nil
}

// Parse decodes a template set from YAML bytes.
func Parse(data []byte) (*Set, error) {
	var doc yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, errors.New("template file is empty or invalid")
	}

	set := &Set{}
	for _, item := range doc {
		name := fmt.Sprintf("%v", item.Key)
		body, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("template %q: expected a mapping, got %T", name, item.Value)
		}
		t, err := decodeTemplate(name, body)
		if err != nil {
			return nil, err
		}
		set.Add(t)
	}
	return set, nil
}

func decodeTemplate(name string, body yaml.MapSlice) (*Template, error) {
	t := &Template{Name: name}
	for _, item := range body {
		key := fmt.Sprintf("%v", item.Key)
		switch key {
		case "applies_to_categories":
			cats, err := asStringSlice(item.Value)
			if err != nil {
				return nil, fmt.Errorf("template %q: applies_to_categories: %w", name, err)
			}
			t.AppliesToCategories = cats
		case "field_mapping":
			fm, ok := item.Value.(yaml.MapSlice)
			if !ok {
				return nil, fmt.Errorf("template %q: field_mapping: expected a mapping, got %T", name, item.Value)
			}
			for _, entry := range fm {
				t.FieldMapping = append(t.FieldMapping, Mapping{
					Field:  fmt.Sprintf("%v", entry.Key),
					Source: fmt.Sprintf("%v", entry.Value),
				})
			}
		case "property_templates":
			pt, ok := item.Value.(yaml.MapSlice)
			if !ok {
				return nil, fmt.Errorf("template %q: property_templates: expected a mapping, got %T", name, item.Value)
			}
			t.PropertyTemplates = make(map[string]string, len(pt))
			for _, entry := range pt {
				t.PropertyTemplates[fmt.Sprintf("%v", entry.Key)] = fmt.Sprintf("%v", entry.Value)
			}
		case "symbol_generator":
			t.SymbolGenerator = fmt.Sprintf("%v", item.Value)
		case "power_pin_names":
			names, err := asStringSlice(item.Value)
			if err != nil {
				return nil, fmt.Errorf("template %q: power_pin_names: %w", name, err)
			}
			t.PowerPinNames = names
		case "symbol_options":
			t.SymbolOptions = fmt.Sprintf("%v", item.Value)
		case "symbol_template":
			t.SymbolTemplate = fmt.Sprintf("%v", item.Value)
		}
		// Unknown keys are ignored so template files can carry annotations.
	}
	return t, nil
}

func asStringSlice(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence, got %T", v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out, nil
}

// IsLiteral reports whether a field_mapping source is a single-quoted
// literal constant rather than a resolution path.
func IsLiteral(source string) bool {
	return len(source) >= 2 && strings.HasPrefix(source, "'") && strings.HasSuffix(source, "'")
}

// Literal strips the surrounding quotes from a literal source.
func Literal(source string) string {
	return strings.Trim(source, "'")
}
