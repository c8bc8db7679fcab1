package shared

// DocumentRecorder receives document lifecycle signals for metrics.
type DocumentRecorder interface {
	Created(kind string)
	Reused(kind string)
	Transitioned(kind, to string)
}

// NopRecorder discards every signal.
type NopRecorder struct{}

func (NopRecorder) Created(string)              {}
func (NopRecorder) Reused(string)               {}
func (NopRecorder) Transitioned(string, string) {}
