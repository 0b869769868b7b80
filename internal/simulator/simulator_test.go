package simulator

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/trainforge/internal/model"
)

func TestRunSeriesLengthAndBounds(t *testing.T) {
	for _, epochs := range []int{1, 2, 3, 10, 57} {
		t.Run(fmt.Sprintf("epochs=%d", epochs), func(t *testing.T) {
			var out bytes.Buffer
			sim := NewSeeded(int64(epochs), &out)
			series, err := sim.Run(model.Config{Epochs: epochs})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(series.TrainLoss) != epochs || len(series.ValLoss) != epochs || len(series.Accuracy) != epochs {
				t.Fatalf("expected %d values per series, got %d/%d/%d",
					epochs, len(series.TrainLoss), len(series.ValLoss), len(series.Accuracy))
			}
			for i := 0; i < epochs; i++ {
				e := float64(i + 1)
				if v := series.TrainLoss[i]; v < 2.0/e-0.1 || v > 2.0/e+0.1 {
					t.Fatalf("train loss %f out of range at epoch %d", v, i+1)
				}
				if v := series.ValLoss[i]; v < 2.2/e-0.1 || v > 2.2/e+0.1 {
					t.Fatalf("val loss %f out of range at epoch %d", v, i+1)
				}
				if v := series.Accuracy[i]; v > 0.99 {
					t.Fatalf("accuracy %f above cap at epoch %d", v, i+1)
				}
			}
		})
	}
}

func TestRunMatchesInjectedSource(t *testing.T) {
	const seed = 42
	series, err := NewSeeded(seed, &bytes.Buffer{}).Run(model.Config{Epochs: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ref := rand.New(rand.NewSource(seed))
	u := func(lo, hi float64) float64 { return lo + ref.Float64()*(hi-lo) }
	for i := 0; i < 3; i++ {
		e := float64(i + 1)
		train := 2.0/e + u(-0.1, 0.1)
		val := 2.2/e + u(-0.1, 0.1)
		acc := math.Min(0.99, 0.5+(e/3)*0.4+u(-0.02, 0.02))
		if series.TrainLoss[i] != train || series.ValLoss[i] != val || series.Accuracy[i] != acc {
			t.Fatalf("epoch %d: got (%f, %f, %f), want (%f, %f, %f)",
				i+1, series.TrainLoss[i], series.ValLoss[i], series.Accuracy[i], train, val, acc)
		}
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	a, err := NewSeeded(7, &bytes.Buffer{}).Run(model.Config{Epochs: 5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := NewSeeded(7, &bytes.Buffer{}).Run(model.Config{Epochs: 5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := range a.Accuracy {
		if a.TrainLoss[i] != b.TrainLoss[i] || a.ValLoss[i] != b.ValLoss[i] || a.Accuracy[i] != b.Accuracy[i] {
			t.Fatalf("runs diverged at epoch %d", i+1)
		}
	}
}

func TestRunProgressLines(t *testing.T) {
	var out bytes.Buffer
	series, err := NewSeeded(1, &out).Run(model.Config{Epochs: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 progress lines, got %d: %q", len(lines), out.String())
	}
	want := fmt.Sprintf("Epoch 2/3 - loss: %.4f - val_loss: %.4f - accuracy: %.4f",
		series.TrainLoss[1], series.ValLoss[1], series.Accuracy[1])
	if lines[1] != want {
		t.Fatalf("unexpected line: %q, want %q", lines[1], want)
	}
	if !strings.HasPrefix(lines[0], "Epoch 1/3 ") || !strings.HasPrefix(lines[2], "Epoch 3/3 ") {
		t.Fatalf("unexpected epoch ordering: %q", lines)
	}
}

func TestRunRejectsNonPositiveEpochs(t *testing.T) {
	for _, epochs := range []int{0, -3} {
		var out bytes.Buffer
		_, err := NewSeeded(1, &out).Run(model.Config{Epochs: epochs})
		if !errors.Is(err, ErrInvalidEpochs) {
			t.Fatalf("epochs=%d: expected ErrInvalidEpochs, got %v", epochs, err)
		}
		if out.Len() != 0 {
			t.Fatalf("epochs=%d: expected no output, got %q", epochs, out.String())
		}
	}
}

func TestRunDelay(t *testing.T) {
	var slept []time.Duration
	sleep := func(d time.Duration) { slept = append(slept, d) }

	_, err := NewSeeded(1, &bytes.Buffer{}, WithDelay(500*time.Millisecond), WithSleep(sleep)).Run(model.Config{Epochs: 4})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(slept) != 4 {
		t.Fatalf("expected 4 pauses, got %d", len(slept))
	}
	for _, d := range slept {
		if d != 500*time.Millisecond {
			t.Fatalf("unexpected pause %v", d)
		}
	}

	slept = nil
	if _, err := NewSeeded(1, &bytes.Buffer{}, WithSleep(sleep)).Run(model.Config{Epochs: 4}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no pauses without delay, got %d", len(slept))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestRunReportsWriteFailure(t *testing.T) {
	if _, err := NewSeeded(1, failingWriter{}).Run(model.Config{Epochs: 2}); err == nil {
		t.Fatalf("expected write error")
	}
}
