// Package symbol turns part records and templates into rendered KiCad
// symbol blocks: value resolution, pin geometry layout, and text rendering.
package symbol

import (
	"strings"
	"unicode"

	"github.com/dbx-solutions/partlinker/pkg/parts"
)

// fielder is implemented by part records and their nested references,
// giving the resolver typed attribute access without reflection.
type fielder interface {
	Field(name string) (any, bool)
}

// Resolve looks up a named value on a part record.
//
// A dotted path walks successive hops, each hop being a fixed attribute of
// the current object; the "parameters" attribute exposes the parameter bag,
// so "parameters.Voltage" reads the bag entry exactly as named. A plain
// path first checks fixed attributes, then the
// parameter bag verbatim, then the bag again with the path's first letter
// capitalized (schema drift between template files and the inventory is
// common enough that the second attempt earns its keep). Anything that
// fails to resolve yields the empty string, never an error.
func Resolve(p *parts.Part, path string) string {
	if p == nil || path == "" {
		return ""
	}

	if strings.Contains(path, ".") {
		return resolveDotted(p, path)
	}

	if v, ok := p.Field(path); ok {
		if s, isString := v.(string); isString {
			return s
		}
	}
	if v, ok := p.Parameters[path]; ok {
		return v
	}
	if v, ok := p.Parameters[capitalize(path)]; ok {
		return v
	}
	return ""
}

func resolveDotted(p *parts.Part, path string) string {
	var current any = p
	for _, hop := range strings.Split(path, ".") {
		f, ok := current.(fielder)
		if !ok {
			return ""
		}
		next, ok := f.Field(hop)
		if !ok {
			return ""
		}
		current = next
	}
	if s, ok := current.(string); ok {
		return s
	}
	return ""
}

// capitalize upper-cases the first letter and lower-cases the rest,
// matching how parameter names drift between "value" and "Value".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
