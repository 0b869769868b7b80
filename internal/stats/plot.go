package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " ┤ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	brailleBase         = 0x2800
)

var colorPalette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
}

// Each terminal cell holds a 2x4 braille dot grid.
var brailleDots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// PlotSeries renders the series as a braille line chart on a shared vertical scale.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	lo, hi := seriesRange(series)
	if hi-lo < 1e-9 {
		lo -= 0.5
		hi += 0.5
	}

	dotsY := height * 4
	layers := make([][][]uint8, len(series))
	for si, s := range series {
		cells := makeCells(height, width)
		points := resampleSeries(s.Values, width)
		prevX, prevY := -1, -1
		for i, v := range points {
			x := i * 2
			y := valueToDot(v, lo, hi, dotsY)
			if prevX < 0 {
				setDot(cells, x, y)
			} else {
				drawLine(prevX, prevY, x, y, func(px, py int) {
					setDot(cells, px, py)
				})
			}
			prevX, prevY = x, y
		}
		layers[si] = cells
	}

	useColor := shouldUseColor(w, forceColor)
	labels := axisLabels(lo, hi, height)
	labelWidth := 0
	for _, l := range labels {
		if lw := runewidth.StringWidth(l); lw > labelWidth {
			labelWidth = lw
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for y := 0; y < height; y++ {
		b.WriteString(runewidth.FillLeft(labels[y], labelWidth))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := mergeCell(layers, x, y)
			ch := rune(brailleBase + int(mask))
			if mask == 0 {
				ch = ' '
			}
			if useColor && owner >= 0 {
				b.WriteString(colorPalette[owner%len(colorPalette)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
			} else {
				b.WriteRune(ch)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(legend(series, useColor))
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - runewidth.StringWidth(axisSeparator) - 8
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func seriesRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.2f", hi)
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.2f", lo)
	}
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.2f", (lo+hi)/2)
	}
	return labels
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if cy < 0 || cy >= len(cells) || cx < 0 || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDots[y%4][x%2]
}

// mergeCell ORs the dots of every layer; the first layer with dots owns the color.
func mergeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range layers {
		m := cells[y][x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

func valueToDot(v, lo, hi float64, dots int) int {
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	if row < 0 {
		return 0
	}
	if row >= dots {
		return dots - 1
	}
	return row
}

// resampleSeries stretches or averages values onto width columns.
func resampleSeries(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == 1:
		for i := range out {
			out[i] = values[0]
		}
	case n > width:
		for i := range out {
			start := i * n / width
			end := (i + 1) * n / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(maxInt(width-1, 1))
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s", rune(brailleBase+0xFF), s.Name)
		if useColor {
			label = colorPalette[i%len(colorPalette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
