package quiz

// Timing selects which clock is authoritative for an attempt.
type Timing string

const (
	// TimingCountdown counts down from the time limit and auto-submits at zero.
	TimingCountdown Timing = "countdown"
	// TimingStopwatch counts elapsed time with no limit.
	TimingStopwatch Timing = "stopwatch"
)

// Policy holds the per-deployment rules of an attempt.
type Policy struct {
	Timing               Timing
	SecondsPerQuestion   int
	Penalty              float64 // subtracted for each wrong answer
	ShuffleOptions       bool
	ReshuffleOnReattempt bool
	Autosave             bool  // persist progress after every change
	Seed                 int64 // fixed shuffle seed, 0 for time-based
}

// DefaultPolicy is a one-minute-per-question countdown with quarter-mark negative marking.
func DefaultPolicy() Policy {
	return Policy{
		Timing:             TimingCountdown,
		SecondsPerQuestion: 60,
		Penalty:            0.25,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Timing != TimingStopwatch {
		p.Timing = TimingCountdown
	}
	if p.SecondsPerQuestion <= 0 {
		p.SecondsPerQuestion = 60
	}
	if p.Penalty < 0 {
		p.Penalty = 0
	}
	return p
}

// TimeLimit returns the countdown budget for n questions.
func (p Policy) TimeLimit(n int) int {
	return n * p.withDefaults().SecondsPerQuestion
}
