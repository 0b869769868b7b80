// Package stats renders reports and learning curves for a training run.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/trainforge/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// BestEpoch returns the 1-based epoch holding the lowest (or highest) value.
// Ties resolve to the earliest epoch. It returns 0 for an empty slice.
func BestEpoch(values []float64, lowest bool) (int, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	best := 0
	for i, v := range values {
		if (lowest && v < values[best]) || (!lowest && v > values[best]) {
			best = i
		}
	}
	return best + 1, values[best]
}

// GeneralizationGap is the final validation loss minus the final training loss.
func GeneralizationGap(series model.MetricsSeries) float64 {
	if len(series.TrainLoss) == 0 || len(series.ValLoss) == 0 {
		return 0
	}
	return series.ValLoss[len(series.ValLoss)-1] - series.TrainLoss[len(series.TrainLoss)-1]
}

// RenderSummary prints the run summary followed by derived highlights.
func RenderSummary(w io.Writer, summary model.Summary, series model.MetricsSeries) error {
	if summary.TotalEpochs == 0 {
		_, err := fmt.Fprintln(w, "No epochs recorded.")
		return err
	}
	rows := [][]string{
		{"Epochs", fmt.Sprintf("%d", summary.TotalEpochs)},
		{"Final accuracy", fmt.Sprintf("%.4f", summary.FinalAccuracy)},
		{"Final loss", fmt.Sprintf("%.4f", summary.FinalLoss)},
	}
	if series.Len() > 0 {
		valEpoch, valBest := BestEpoch(series.ValLoss, true)
		accEpoch, accBest := BestEpoch(series.Accuracy, false)
		rows = append(rows,
			[]string{"Best val loss", fmt.Sprintf("%.4f (epoch %d)", valBest, valEpoch)},
			[]string{"Best accuracy", fmt.Sprintf("%.4f (epoch %d)", accBest, accEpoch)},
			[]string{"Generalization gap", fmt.Sprintf("%+.4f", GeneralizationGap(series))},
			[]string{"Accuracy trend", Sparkline(series.Accuracy)},
		)
	}
	lines := append([]string{"Summary"}, formatTable([]string{"Metric", "Value"}, rows, nil)...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderEpochTable prints one row per epoch.
func RenderEpochTable(w io.Writer, series model.MetricsSeries) error {
	if series.Len() == 0 {
		_, err := fmt.Fprintln(w, "No epochs recorded.")
		return err
	}
	headers, rows := EpochRows(series)
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true}
	lines := append([]string{"Per-Epoch"}, formatTable(headers, rows, rightAlign)...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// EpochRows formats the series as table headers and rows.
func EpochRows(series model.MetricsSeries) ([]string, [][]string) {
	headers := []string{"Epoch", "Loss", "Val Loss", "Accuracy"}
	rows := make([][]string, 0, series.Len())
	for i := 0; i < series.Len(); i++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", series.TrainLoss[i]),
			fmt.Sprintf("%.4f", series.ValLoss[i]),
			fmt.Sprintf("%.4f", series.Accuracy[i]),
		})
	}
	return headers, rows
}

// RenderCurves plots smoothed loss and accuracy curves.
func RenderCurves(w io.Writer, series model.MetricsSeries, window, totalWidth, height int, useColor bool) error {
	if series.Len() == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	if err := PlotSeries(w, "Loss", []Series{
		{Name: "train", Values: MovingAverage(series.TrainLoss, window)},
		{Name: "val", Values: MovingAverage(series.ValLoss, window)},
	}, width, height, useColor); err != nil {
		return err
	}
	return PlotSeries(w, "Accuracy", []Series{
		{Name: "accuracy", Values: MovingAverage(series.Accuracy, window)},
	}, width, height, useColor)
}

// RenderReport prints the summary, the curves and the per-epoch table.
func RenderReport(w io.Writer, summary model.Summary, series model.MetricsSeries, window, totalWidth int) error {
	if err := RenderSummary(w, summary, series); err != nil {
		return err
	}
	if err := RenderCurves(w, series, window, totalWidth, defaultPlotHeight, false); err != nil {
		return err
	}
	return RenderEpochTable(w, series)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
