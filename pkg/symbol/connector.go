package symbol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dbx-solutions/partlinker/pkg/parts"
)

// Connector body widths: narrow for a single pin column, wider when pins
// sit on both edges.
const (
	connectorSingleRowWidth = 3.81
	connectorMultiRowWidth  = 7.62
)

const connectorStroke = "(stroke (width 0.2) (type default)) (fill (type none))"

// BuildConnector generates the dynamic sub-unit block for a connector
// symbol. Row count and pins-per-row come from the part's parameters with
// a fallback chain: explicit "Pins per Row", else derived from the total
// pin count; both clamp to a minimum of 1. Pins are numbered per the
// "Pin Annotation" style: "row" (default) numbers the left column
// top-to-bottom then the right, "line" interleaves left/right per
// physical row and is only honored for multi-row connectors. A "Gender"
// parameter adds a per-pin male/female contact overlay.
func BuildConnector(symbolName string, p *parts.Part) (string, Geometry) {
	numRows := parsePinCount(Resolve(p, "Number of Rows"), 1)
	pinsPerRow := parsePinCount(Resolve(p, "Pins per Row"), 0)

	if pinsPerRow == 0 {
		totalStr := Resolve(p, "Number of Pins")
		if totalStr == "" {
			totalStr = Resolve(p, "Pin Count")
		}
		if total := parsePinCount(totalStr, 0); total > 0 {
			if numRows > 1 {
				pinsPerRow = int(math.Ceil(float64(total) / float64(numRows)))
			} else {
				pinsPerRow = total
			}
		}
	}
	if pinsPerRow <= 0 {
		pinsPerRow = 1
	}
	if numRows <= 0 {
		numRows = 1
	}

	gender := strings.ToLower(Resolve(p, "Gender"))

	boxWidth := connectorSingleRowWidth
	if numRows > 1 {
		boxWidth = connectorMultiRowWidth
	}

	leftCount := pinsPerRow
	rightCount := 0
	if numRows > 1 {
		rightCount = pinsPerRow
	}

	heightPins := max(leftCount, rightCount)
	heightGrids := max(2, heightPins-1)
	boxHeight := float64(heightGrids)*GridSpacing + GridSpacing

	top := boxHeight / 2.0
	bottom := -top
	left := -boxWidth / 2.0
	right := boxWidth / 2.0
	geo := Geometry{BoxTop: top, BoxLeft: left}

	pinXLeft := left - PinLength
	pinXRight := right + PinLength

	var b strings.Builder
	fmt.Fprintf(&b, "    (symbol \"%s_1_1\"\n", symbolName)
	fmt.Fprintf(&b, "      (rectangle (start %.2f %.2f) (end %.2f %.2f)\n", left, top, right, bottom)
	b.WriteString("        (stroke (width 0.254) (type default)) (fill (type background))\n")
	b.WriteString("      )\n")

	startYLeft := float64(leftCount-1) * GridSpacing / 2.0
	startYRight := float64(rightCount-1) * GridSpacing / 2.0

	annotation := strings.ToLower(Resolve(p, "Pin Annotation"))
	lineNumbering := numRows > 1 && annotation == "line"

	number := 1
	if lineNumbering {
		for i := 0; i < pinsPerRow; i++ {
			y := startYLeft - float64(i)*GridSpacing
			writeConnectorPin(&b, number, pinXLeft, y, 0)
			writeGenderOverlay(&b, gender, left, y, false)
			number++

			if rightCount > 0 {
				y = startYRight - float64(i)*GridSpacing
				writeConnectorPin(&b, number, pinXRight, y, 180)
				writeGenderOverlay(&b, gender, right, y, true)
				number++
			}
		}
	} else {
		for i := 0; i < leftCount; i++ {
			y := startYLeft - float64(i)*GridSpacing
			writeConnectorPin(&b, number, pinXLeft, y, 0)
			writeGenderOverlay(&b, gender, left, y, false)
			number++
		}
		for i := 0; i < rightCount; i++ {
			y := startYRight - float64(i)*GridSpacing
			writeConnectorPin(&b, number, pinXRight, y, 180)
			writeGenderOverlay(&b, gender, right, y, true)
			number++
		}
	}

	b.WriteString("    )")
	return b.String(), geo
}

// parsePinCount parses a numeric parameter value, returning fallback for
// empty or malformed input.
func parsePinCount(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// writeConnectorPin renders one passive pin whose name equals its number;
// the name is hidden so only the number shows next to the body.
func writeConnectorPin(b *strings.Builder, number int, x, y float64, angle int) {
	n := strconv.Itoa(number)
	fmt.Fprintf(b, "      (pin passive line (at %.2f %.2f %d) (length %.2f)\n", x, y, angle, PinLength)
	fmt.Fprintf(b, "        (name %q (effects (font (size 1.27 1.27)) (hide yes)))\n", n)
	fmt.Fprintf(b, "        (number %q (effects (font (size 1.27 1.27))))\n", n)
	b.WriteString("      )\n")
}

// writeGenderOverlay draws the contact glyph inside the body: a straight
// segment for male contacts, a short segment plus a quarter arc for
// female, mirrored between the left and right edges.
func writeGenderOverlay(b *strings.Builder, gender string, edgeX, y float64, mirrored bool) {
	dir := 1.0
	if mirrored {
		dir = -1.0
	}
	switch gender {
	case "male":
		fmt.Fprintf(b, "      (polyline (pts (xy %.2f %.2f) (xy %.2f %.2f)) %s)\n",
			edgeX, y, edgeX+dir*2.54, y, connectorStroke)
	case "female":
		fmt.Fprintf(b, "      (polyline (pts (xy %.2f %.2f) (xy %.2f %.2f)) %s)\n",
			edgeX, y, edgeX+dir*1.905, y, connectorStroke)
		fmt.Fprintf(b, "      (arc (start %.2f %.2f) (mid %.2f %.2f) (end %.2f %.2f) %s)\n",
			edgeX+dir*2.54, y+dir*0.635, edgeX+dir*1.905, y, edgeX+dir*2.54, y-dir*0.635, connectorStroke)
	}
}
