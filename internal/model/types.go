// Package model defines shared data structures.
package model

import "time"

// Config defines the settings of a simulated training run.
type Config struct {
	Epochs       int
	LearningRate float64
	BatchSize    int
	OutputDir    string
	Delay        time.Duration
	Seed         int64
}

// MetricsSeries holds per-epoch metrics. Index i is epoch i+1 in every slice.
type MetricsSeries struct {
	TrainLoss []float64 `json:"train_loss"`
	ValLoss   []float64 `json:"val_loss"`
	Accuracy  []float64 `json:"accuracy"`
}

// Len returns the number of recorded epochs.
func (s MetricsSeries) Len() int {
	return len(s.Accuracy)
}

// Aligned reports whether all three series have the same length.
func (s MetricsSeries) Aligned() bool {
	return len(s.TrainLoss) == len(s.Accuracy) && len(s.ValLoss) == len(s.Accuracy)
}

// Summary captures the final state of a run.
type Summary struct {
	FinalAccuracy float64 `json:"final_accuracy"`
	FinalLoss     float64 `json:"final_loss"`
	TotalEpochs   int     `json:"total_epochs"`
}
