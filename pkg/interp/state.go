package interp

// MaxRetrievalErrors caps how many "failed retrieving file" lines a run shows.
const MaxRetrievalErrors = 50

// RunState is the mutable state of one subprocess run. A fresh value is used
// for every run and only one goroutine touches it.
type RunState struct {
	// Total is the number of packages in the transaction, 0 while unknown.
	Total int
	// Counter is the 1-based position of the next package acted upon.
	Counter int
	// ErrorRetries counts "failed retrieving file" lines seen so far.
	ErrorRetries int

	NumberedProgress bool
	Style            ProgressStyle

	emitted map[string]struct{}
}

// NewRunState returns the state for a new run.
func NewRunState(numbered bool, style ProgressStyle) *RunState {
	return &RunState{
		Counter:          1,
		NumberedProgress: numbered,
		Style:            style,
		emitted:          make(map[string]struct{}),
	}
}

func (s *RunState) setTotal(n int) {
	s.Total = n
	if n > 0 {
		s.Counter = 1
	}
}

func (s *RunState) resetCounter() {
	s.Counter = 1
}

// takeCounter returns the counter value to display and advances it, never past Total.
func (s *RunState) takeCounter() int {
	n := s.Counter
	if s.Counter < s.Total {
		s.Counter++
	}
	return n
}

func (s *RunState) seen(text string) bool {
	_, ok := s.emitted[text]
	return ok
}

func (s *RunState) markSeen(text string) {
	if s.emitted == nil {
		s.emitted = make(map[string]struct{})
	}
	s.emitted[text] = struct{}{}
}

// Emitted returns how many distinct payloads have been shown in this run.
func (s *RunState) Emitted() int {
	return len(s.emitted)
}
