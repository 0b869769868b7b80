// Package artifacts writes and reads the files produced by a training run.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/verte-zerg/trainforge/internal/model"
)

// File names under the output directory.
const (
	MetricsFile = "metrics.json"
	ModelFile   = "model.pt"
	SummaryFile = "summary.json"
)

// ModelPlaceholder stands in for trained weights.
const ModelPlaceholder = "FAKE_MODEL_WEIGHTS_v1.0"

// ErrEmptySeries is returned when a summary is requested for a run with no epochs.
var ErrEmptySeries = errors.New("metrics series is empty")

// Paths lists the files written by Write.
type Paths struct {
	Metrics string
	Model   string
	Summary string
}

// Write creates dir if needed and stores the metrics, the model placeholder and
// the summary, in that order. Files written before a failure are left in place.
func Write(dir string, series model.MetricsSeries, out io.Writer) (Paths, error) {
	if dir == "" {
		return Paths{}, fmt.Errorf("output directory is empty")
	}
	summary, err := Summarize(series)
	if err != nil {
		return Paths{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	paths := Paths{
		Metrics: filepath.Join(dir, MetricsFile),
		Model:   filepath.Join(dir, ModelFile),
		Summary: filepath.Join(dir, SummaryFile),
	}

	if err := writeJSON(paths.Metrics, series); err != nil {
		return paths, err
	}
	if err := report(out, "\nMetrics saved to %s\n", paths.Metrics); err != nil {
		return paths, err
	}

	if err := writeFileAtomic(paths.Model, []byte(ModelPlaceholder)); err != nil {
		return paths, err
	}
	if err := report(out, "Model saved to %s\n", paths.Model); err != nil {
		return paths, err
	}

	if err := writeJSON(paths.Summary, summary); err != nil {
		return paths, err
	}
	if err := report(out, "Summary saved to %s\n", paths.Summary); err != nil {
		return paths, err
	}
	return paths, nil
}

// Summarize derives the summary record from the last epoch of series.
func Summarize(series model.MetricsSeries) (model.Summary, error) {
	n := series.Len()
	if n == 0 || len(series.TrainLoss) == 0 {
		return model.Summary{}, ErrEmptySeries
	}
	return model.Summary{
		FinalAccuracy: series.Accuracy[n-1],
		FinalLoss:     series.TrainLoss[len(series.TrainLoss)-1],
		TotalEpochs:   n,
	}, nil
}

// LoadMetrics reads metrics.json from dir.
func LoadMetrics(dir string) (model.MetricsSeries, error) {
	var series model.MetricsSeries
	if err := readJSON(filepath.Join(dir, MetricsFile), &series); err != nil {
		return model.MetricsSeries{}, err
	}
	if !series.Aligned() {
		return model.MetricsSeries{}, fmt.Errorf("metrics in %s have mismatched lengths: train_loss=%d val_loss=%d accuracy=%d",
			dir, len(series.TrainLoss), len(series.ValLoss), len(series.Accuracy))
	}
	return series, nil
}

// LoadSummary reads summary.json from dir.
func LoadSummary(dir string) (model.Summary, error) {
	var summary model.Summary
	if err := readJSON(filepath.Join(dir, SummaryFile), &summary); err != nil {
		return model.Summary{}, err
	}
	return summary, nil
}

// Load reads both the metrics and the summary of a finished run.
func Load(dir string) (model.MetricsSeries, model.Summary, error) {
	series, err := LoadMetrics(dir)
	if err != nil {
		return model.MetricsSeries{}, model.Summary{}, err
	}
	summary, err := LoadSummary(dir)
	if err != nil {
		return model.MetricsSeries{}, model.Summary{}, err
	}
	return series, summary, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func report(out io.Writer, format, path string) error {
	if out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(out, format, path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
