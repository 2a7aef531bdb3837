package symbol

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPinCSV(t *testing.T) {
	pins := SplitPinCSV(" IN+ , IN- ,, OUT ")
	require.Len(t, pins, 3)
	assert.Equal(t, PinSpec{Number: "1", Name: "IN+"}, pins[0])
	assert.Equal(t, PinSpec{Number: "2", Name: "IN-"}, pins[1])
	assert.Equal(t, PinSpec{Number: "3", Name: "OUT"}, pins[2])

	assert.Empty(t, SplitPinCSV(""))
	assert.Empty(t, SplitPinCSV(" , ,"))
}

func TestPartitionPinsCoversInputExactly(t *testing.T) {
	pins := SplitPinCSV("IN1+,IN1-,OUT1,VCC,GND")
	main, power := PartitionPins(pins, []string{"vcc", "gnd"})

	assert.Equal(t, len(pins), len(main)+len(power))
	assert.Equal(t, []string{"IN1+", "IN1-", "OUT1"}, pinNames(main))
	assert.Equal(t, []string{"VCC", "GND"}, pinNames(power))

	// Membership is case-insensitive in both directions.
	main, power = PartitionPins(SplitPinCSV("a,Vcc"), []string{"VCC"})
	assert.Equal(t, []string{"a"}, pinNames(main))
	assert.Equal(t, []string{"Vcc"}, pinNames(power))
}

func pinNames(pins []PinSpec) []string {
	names := make([]string, 0, len(pins))
	for _, p := range pins {
		names = append(names, p.Name)
	}
	return names
}

func TestBuildICBoxTwoUnits(t *testing.T) {
	// LM358-style: 8 pins, 2 power.
	csv := "OUT1,IN1-,IN1+,GND,IN2+,IN2-,OUT2,VCC"
	blocks, geo := BuildICBox("LM358", csv, []string{"VCC", "GND"})

	assert.Contains(t, blocks, `(symbol "LM358_1_1"`)
	assert.Contains(t, blocks, `(symbol "LM358_2_1"`)

	// Unit A holds the 6 main pins: 3 left, 3 right → 2 height grids,
	// clamped up to the unit A minimum of 3 → box height 4 grids.
	assert.InDelta(t, 2.0*GridSpacing, geo.BoxTop, 1e-9)
	assert.InDelta(t, -ICBoxWidth/2.0, geo.BoxLeft, 1e-9)

	// Power pins land in unit B as power_in, main pins stay passive.
	unitB := blocks[strings.Index(blocks, `(symbol "LM358_2_1"`):]
	assert.Contains(t, unitB, `(pin power_in line`)
	assert.Contains(t, unitB, `(name "VCC"`)
	assert.Contains(t, unitB, `(name "GND"`)
	assert.NotContains(t, unitB, `(name "OUT1"`)

	// Pin numbers are positional from the original list.
	assert.Contains(t, blocks, `(number "1"`)
	assert.Contains(t, blocks, `(number "8"`)
}

func TestBuildICBoxSingleUnitWhenNoPowerPins(t *testing.T) {
	blocks, _ := BuildICBox("U1", "A,B,C,D", nil)
	assert.Contains(t, blocks, `(symbol "U1_1_1"`)
	assert.NotContains(t, blocks, `(symbol "U1_2_1"`)
}

func TestBuildICBoxSingleUnitWhenAllPowerPins(t *testing.T) {
	// All pins are power pins: no main group, so everything stays in
	// unit A rather than producing an empty body.
	blocks, _ := BuildICBox("U1", "VCC,GND", []string{"VCC", "GND"})
	assert.Contains(t, blocks, `(symbol "U1_1_1"`)
	assert.NotContains(t, blocks, `(symbol "U1_2_1"`)
	assert.Contains(t, blocks, `(pin power_in line`)
}

func TestBuildICBoxPinPlacement(t *testing.T) {
	// 4 pins: 2 left at angle 0, 2 right at angle 180, one grid apart,
	// centered about y=0.
	blocks, geo := BuildICBox("U1", "A,B,C,D", nil)

	left := geo.BoxLeft - PinLength
	right := -geo.BoxLeft + PinLength
	assert.Contains(t, blocks, fmt.Sprintf("(pin passive line (at %.2f %.2f 0)", left, GridSpacing/2))
	assert.Contains(t, blocks, fmt.Sprintf("(pin passive line (at %.2f %.2f 0)", left, -GridSpacing/2))
	assert.Contains(t, blocks, fmt.Sprintf("(pin passive line (at %.2f %.2f 180)", right, GridSpacing/2))
	assert.Contains(t, blocks, fmt.Sprintf("(pin passive line (at %.2f %.2f 180)", right, -GridSpacing/2))
}

func TestICBoxHeightMonotonicity(t *testing.T) {
	// Adding pins never shrinks the body.
	prevTop := 0.0
	names := []string{}
	for i := 1; i <= 20; i++ {
		names = append(names, fmt.Sprintf("P%d", i))
		_, geo := BuildICBox("U1", strings.Join(names, ","), nil)
		assert.GreaterOrEqual(t, geo.BoxTop, prevTop, "height shrank at %d pins", i)
		prevTop = geo.BoxTop
	}
}

func TestICBoxMinimumBodyWithZeroPins(t *testing.T) {
	blocks, geo := BuildICBox("U1", "", nil)
	assert.Contains(t, blocks, `(symbol "U1_1_1"`)
	assert.Contains(t, blocks, "(rectangle")
	// Unit A minimum: 3 grids + 1 → top at 2 grids.
	assert.InDelta(t, 2.0*GridSpacing, geo.BoxTop, 1e-9)
}
