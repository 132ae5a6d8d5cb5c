package pipeline

// StaticPredictor predicts every branch the same way, as configured at
// startup. There is no history table: the prediction never changes.
type StaticPredictor struct {
	predictTaken bool
}

// NewStaticPredictor creates a predictor with the given fixed verdict.
func NewStaticPredictor(predictTaken bool) *StaticPredictor {
	return &StaticPredictor{predictTaken: predictTaken}
}

// Predict returns the configured verdict.
func (p *StaticPredictor) Predict() bool {
	return p.predictTaken
}
