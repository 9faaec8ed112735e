package recorder

import "BreakoutSentinel/internal/model"

// Recorder persists emitted signals for later analysis.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	Close() error
}

// NoopRecorder discards everything. Used when signal history is
// disabled in the config.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.Signal) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
