// Package parts defines the part record data model consumed by the symbol
// generation core. Records are produced by an external fetch collaborator
// (the Part-DB API client) and are read-only to the core.
package parts

import (
	"sort"
	"strconv"
)

// Part is one inventory part record: fixed attributes plus a free-form
// parameter bag keyed by parameter name.
type Part struct {
	ID                     int           `json:"id"`
	Name                   string        `json:"name"`
	Description            string        `json:"description"`
	Category               *Category     `json:"category"`
	Footprint              *Footprint    `json:"footprint"`
	Manufacturer           *Manufacturer `json:"manufacturer"`
	ManufacturerProductURL string        `json:"manufacturer_product_url"`
	AddedDate              string        `json:"addedDate"`

	// Parameters is the dynamic name→value bag. Values are already the
	// human-readable text form ("-" when the source value was empty).
	Parameters map[string]string `json:"-"`
}

// Category is the part's position in the inventory classification tree.
type Category struct {
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

// Footprint is the physical land pattern reference.
type Footprint struct {
	Name string `json:"name"`
}

// Manufacturer is the producing vendor reference.
type Manufacturer struct {
	Name string `json:"name"`
}

// CategoryPath returns the part's full category path, falling back to the
// bare category name, or "Uncategorized" when no category is set.
func (p *Part) CategoryPath() string {
	if p.Category == nil {
		return "Uncategorized"
	}
	if p.Category.FullPath != "" {
		return p.Category.FullPath
	}
	if p.Category.Name != "" {
		return p.Category.Name
	}
	return "Uncategorized"
}

// ParameterNames returns the parameter bag keys in sorted order, giving
// deterministic iteration where the bag feeds rendered output.
func (p *Part) ParameterNames() []string {
	names := make([]string, 0, len(p.Parameters))
	for name := range p.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field looks up a fixed attribute by its wire name. Nested objects are
// returned as values that themselves implement Field, so a dotted path can
// walk them hop by hop.
func (p *Part) Field(name string) (any, bool) {
	switch name {
	case "id":
		return strconv.Itoa(p.ID), true
	case "name":
		return p.Name, true
	case "description":
		return p.Description, true
	case "category":
		if p.Category == nil {
			return nil, false
		}
		return p.Category, true
	case "footprint":
		if p.Footprint == nil {
			return nil, false
		}
		return p.Footprint, true
	case "manufacturer":
		if p.Manufacturer == nil {
			return nil, false
		}
		return p.Manufacturer, true
	case "manufacturer_product_url":
		return p.ManufacturerProductURL, true
	case "addedDate":
		return p.AddedDate, true
	case "parameters":
		return parameterBag(p.Parameters), true
	default:
		return nil, false
	}
}

// parameterBag exposes the dynamic parameter map through the same Field
// interface as the typed attributes, so a dotted path like
// "parameters.Voltage" can walk into the bag.
type parameterBag map[string]string

// Field looks up a parameter by name.
func (b parameterBag) Field(name string) (any, bool) {
	v, ok := b[name]
	return v, ok
}

// Field looks up a category attribute by its wire name.
func (c *Category) Field(name string) (any, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "full_path":
		return c.FullPath, true
	default:
		return nil, false
	}
}

// Field looks up a footprint attribute by its wire name.
func (f *Footprint) Field(name string) (any, bool) {
	if name == "name" {
		return f.Name, true
	}
	return nil, false
}

// Field looks up a manufacturer attribute by its wire name.
func (m *Manufacturer) Field(name string) (any, bool) {
	if name == "name" {
		return m.Name, true
	}
	return nil, false
}
