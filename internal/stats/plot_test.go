package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") || !strings.Contains(out, "A") || !strings.Contains(out, "B") {
		t.Fatalf("expected legend in output: %q", out)
	}
	if !strings.Contains(out, "4.00") || !strings.Contains(out, "1.00") {
		t.Fatalf("expected shared axis range labels: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for a buffer writer")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), lines)
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "A"}}, 10, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotSeriesForcedColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "A", Values: []float64{3, 2, 1}}}, 10, 3, true); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[36m") {
		t.Fatalf("expected color codes when forced")
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(80); got <= minPlotWidth || got >= 80 {
		t.Fatalf("unexpected width %d for 80 columns", got)
	}
}

func TestResampleSeries(t *testing.T) {
	up := resampleSeries([]float64{0, 10}, 5)
	want := []float64{0, 2.5, 5, 7.5, 10}
	for i := range want {
		if up[i] != want[i] {
			t.Fatalf("upsample: got %v, want %v", up, want)
		}
	}
	down := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if down[0] != 2 || down[1] != 6 {
		t.Fatalf("downsample: got %v", down)
	}
}
