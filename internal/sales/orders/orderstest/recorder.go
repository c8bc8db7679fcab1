package orderstest

import "sync"

// Recorder counts document lifecycle signals by kind.
type Recorder struct {
	mu          sync.Mutex
	created     map[string]int
	reused      map[string]int
	transitions map[string]int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{created: map[string]int{}, reused: map[string]int{}, transitions: map[string]int{}}
}

func (r *Recorder) Created(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind]++
}

func (r *Recorder) Reused(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reused[kind]++
}

func (r *Recorder) Transitioned(kind, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[kind+":"+to]++
}

// CreatedCount returns how many documents of kind were created.
func (r *Recorder) CreatedCount(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created[kind]
}

// ReusedCount returns how many generation calls returned an existing document.
func (r *Recorder) ReusedCount(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reused[kind]
}
