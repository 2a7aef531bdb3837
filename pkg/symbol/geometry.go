package symbol

import (
	"fmt"
	"math"
	"strings"
)

// Schematic layout constants, in KiCad design units (mm).
const (
	// GridSpacing is the fixed schematic pitch every pin aligns to.
	GridSpacing = 2.54

	// PinLength is one grid unit.
	PinLength = 2.54

	// ICBoxWidth is the fixed body width of a generated IC box.
	ICBoxWidth = 15.24
)

// Minimum body heights in grid units. Unit A gets room for the reference
// text, the power unit can be tighter.
const (
	minGridsUnitA = 3
	minGridsUnitB = 2
)

// PinSpec is one pin: its ordinal number (as printed) and its name.
type PinSpec struct {
	Number string
	Name   string
}

// Geometry describes the generated body box, symmetric about the origin.
// BoxTop is positive, BoxLeft negative.
type Geometry struct {
	BoxTop  float64
	BoxLeft float64
}

// SplitPinCSV parses a comma-separated pin name list into ordered pin
// specs. Pins are numbered 1-based in list order; empty entries are
// skipped but still consume no number.
func SplitPinCSV(csv string) []PinSpec {
	var pins []PinSpec
	number := 1
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		pins = append(pins, PinSpec{Number: fmt.Sprintf("%d", number), Name: name})
		number++
	}
	return pins
}

// PartitionPins splits pins into main and power groups by case-insensitive
// name membership in powerNames. Both groups preserve the original
// relative order, and together they cover the input exactly.
func PartitionPins(pins []PinSpec, powerNames []string) (main, power []PinSpec) {
	upper := powerNameSet(powerNames)
	for _, pin := range pins {
		if upper[strings.ToUpper(pin.Name)] {
			power = append(power, pin)
		} else {
			main = append(main, pin)
		}
	}
	return main, power
}

func powerNameSet(powerNames []string) map[string]bool {
	set := make(map[string]bool, len(powerNames))
	for _, name := range powerNames {
		set[strings.ToUpper(name)] = true
	}
	return set
}

// BuildICBox generates the dynamic sub-unit blocks for an IC box symbol
// from a comma-separated pin description. When both main and power pins
// are present, two units are emitted: Unit A carries the main pins and
// Unit B the power pins. Otherwise all pins land in Unit A and no Unit B
// exists. The returned geometry is Unit A's, which positions the
// specially-placed properties.
func BuildICBox(symbolName, pinCSV string, powerNames []string) (string, Geometry) {
	pins := SplitPinCSV(pinCSV)
	mainPins, powerPins := PartitionPins(pins, powerNames)

	hasUnitB := len(mainPins) > 0 && len(powerPins) > 0
	unitAPins := mainPins
	if !hasUnitB {
		// At most one group is non-empty here; zero pins still yields a
		// minimum-size body.
		unitAPins = append(append([]PinSpec{}, mainPins...), powerPins...)
	}

	upper := powerNameSet(powerNames)
	blocks := []string{}

	unitA, geo := buildICUnit(symbolName, 1, unitAPins, upper)
	blocks = append(blocks, unitA)
	if hasUnitB {
		unitB, _ := buildICUnit(symbolName, 2, powerPins, upper)
		blocks = append(blocks, unitB)
	}

	return strings.Join(blocks, "\n"), geo
}

// buildICUnit renders one sub-unit: the body rectangle plus pins split
// across the left and right edges, vertically centered on the grid.
func buildICUnit(prefix string, unit int, pins []PinSpec, powerUpper map[string]bool) (string, Geometry) {
	totalPins := len(pins)
	leftCount := int(math.Ceil(float64(totalPins) / 2.0))
	rightCount := totalPins / 2

	minGrids := minGridsUnitA
	if unit != 1 {
		minGrids = minGridsUnitB
	}
	heightPins := max(leftCount, rightCount)
	heightGrids := max(minGrids, heightPins-1)
	boxHeight := float64(heightGrids)*GridSpacing + GridSpacing

	top := boxHeight / 2.0
	bottom := -top
	left := -ICBoxWidth / 2.0
	right := ICBoxWidth / 2.0
	geo := Geometry{BoxTop: top, BoxLeft: left}

	pinXLeft := left - PinLength
	pinXRight := right + PinLength

	var b strings.Builder
	fmt.Fprintf(&b, "    (symbol \"%s_%d_1\"\n", prefix, unit)
	fmt.Fprintf(&b, "      (rectangle (start %.2f %.2f) (end %.2f %.2f)\n", left, top, right, bottom)
	b.WriteString("        (stroke (width 0.254) (type default)) (fill (type background))\n")
	b.WriteString("      )\n")

	startYLeft := float64(leftCount-1) * GridSpacing / 2.0
	startYRight := float64(rightCount-1) * GridSpacing / 2.0

	pinIndex := 0
	for i := 0; i < leftCount; i++ {
		pin := pins[pinIndex]
		pinIndex++
		y := startYLeft - float64(i)*GridSpacing
		writeICPin(&b, pin, pinXLeft, y, 0, powerUpper)
	}
	for i := 0; i < rightCount; i++ {
		pin := pins[pinIndex]
		pinIndex++
		y := startYRight - float64(i)*GridSpacing
		writeICPin(&b, pin, pinXRight, y, 180, powerUpper)
	}

	b.WriteString("    )")
	return b.String(), geo
}

func writeICPin(b *strings.Builder, pin PinSpec, x, y float64, angle int, powerUpper map[string]bool) {
	pinType := "passive"
	if powerUpper[strings.ToUpper(pin.Name)] {
		pinType = "power_in"
	}
	fmt.Fprintf(b, "      (pin %s line (at %.2f %.2f %d) (length %.2f)\n", pinType, x, y, angle, PinLength)
	fmt.Fprintf(b, "        (name %q (effects (font (size 1.27 1.27))))\n", pin.Name)
	fmt.Fprintf(b, "        (number %q (effects (font (size 1.27 1.27))))\n", pin.Number)
	b.WriteString("      )\n")
}
