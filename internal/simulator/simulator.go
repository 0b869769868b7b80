// Package simulator fabricates training metrics for a fake run.
package simulator

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/trainforge/internal/model"
)

const (
	trainLossScale = 2.0
	valLossScale   = 2.2
	lossNoise      = 0.1
	accuracyBase   = 0.5
	accuracyGain   = 0.4
	accuracyNoise  = 0.02
	accuracyCap    = 0.99
)

// ErrInvalidEpochs is returned when a run is requested with fewer than one epoch.
var ErrInvalidEpochs = errors.New("epochs must be >= 1")

// Simulator produces a metrics series epoch by epoch.
type Simulator struct {
	rnd   *rand.Rand
	out   io.Writer
	delay time.Duration
	sleep func(time.Duration)
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithDelay pauses for d before each epoch. Zero disables the pause.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.delay = d
	}
}

// WithSleep replaces time.Sleep.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// New returns a Simulator drawing noise from rnd and printing progress to out.
func New(rnd *rand.Rand, out io.Writer, opts ...Option) *Simulator {
	s := &Simulator{
		rnd:   rnd,
		out:   out,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSeeded returns a Simulator with a private random source seeded with seed.
func NewSeeded(seed int64, out io.Writer, opts ...Option) *Simulator {
	return New(rand.New(rand.NewSource(seed)), out, opts...)
}

// Run simulates cfg.Epochs epochs and returns the collected metrics.
func (s *Simulator) Run(cfg model.Config) (model.MetricsSeries, error) {
	if cfg.Epochs < 1 {
		return model.MetricsSeries{}, fmt.Errorf("%w (got %d)", ErrInvalidEpochs, cfg.Epochs)
	}
	series := model.MetricsSeries{
		TrainLoss: make([]float64, 0, cfg.Epochs),
		ValLoss:   make([]float64, 0, cfg.Epochs),
		Accuracy:  make([]float64, 0, cfg.Epochs),
	}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if s.delay > 0 {
			s.sleep(s.delay)
		}
		trainLoss, valLoss, acc := s.step(epoch, cfg.Epochs)
		series.TrainLoss = append(series.TrainLoss, trainLoss)
		series.ValLoss = append(series.ValLoss, valLoss)
		series.Accuracy = append(series.Accuracy, acc)

		if _, err := fmt.Fprintf(s.out, "Epoch %d/%d - loss: %.4f - val_loss: %.4f - accuracy: %.4f\n",
			epoch, cfg.Epochs, trainLoss, valLoss, acc); err != nil {
			return model.MetricsSeries{}, fmt.Errorf("failed to write progress: %w", err)
		}
	}
	return series, nil
}

func (s *Simulator) step(epoch, total int) (trainLoss, valLoss, acc float64) {
	e := float64(epoch)
	trainLoss = trainLossScale/e + s.uniform(-lossNoise, lossNoise)
	valLoss = valLossScale/e + s.uniform(-lossNoise, lossNoise)
	acc = math.Min(accuracyCap, accuracyBase+(e/float64(total))*accuracyGain+s.uniform(-accuracyNoise, accuracyNoise))
	return trainLoss, valLoss, acc
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}
