// Package run implements the mastery run: which question is shown next, how
// answers move per-question streaks, and when a run is over.
package run

import (
	"errors"
	"math/rand/v2"

	"github.com/vytor/quizflash/internal/models"
)

const (
	DefaultThreshold = 2
	MaxThreshold     = 5
)

// ErrEmptyRun is returned by Start when no questions are configured.
var ErrEmptyRun = errors.New("no questions configured for this run")

// Rand is the source of every random draw the engine makes.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// RunQuestion is a question taking part in the current run.
type RunQuestion struct {
	Question models.Question `json:"question"`
	Streak   int             `json:"streak"`
}

// State is everything an Engine knows about its run. Current indexes
// Selected, -1 when nothing is presented.
type State struct {
	Phase          Phase
	Selected       []RunQuestion
	Threshold      int
	Current        int
	Answered       bool
	AnsweredCount  int
	CorrectTotal   int
	IncorrectTotal int
	Cycle          int
	CycleSize      int
	CycleAnswered  int
}

// Feedback is returned for a scored answer so callers need not re-derive it.
type Feedback struct {
	Chosen        int    `json:"chosen"`
	Correct       bool   `json:"correct"`
	CorrectIndex  int    `json:"correct_index"`
	CorrectOption string `json:"correct_option"`
	Streak        int    `json:"streak"`
	Mastered      bool   `json:"mastered"`
	Ended         bool   `json:"ended"`
	CycleComplete bool   `json:"cycle_complete"`
}

type Option func(*Engine)

// WithRand sets the random source used for shuffling and drawing.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithCycling makes the run start a new cycle instead of ending once every
// selected question is mastered.
func WithCycling(enabled bool) Option {
	return func(e *Engine) {
		e.cycling = enabled
	}
}

// WithThresholdBounds sets the threshold used when none is requested and the
// largest threshold accepted.
func WithThresholdBounds(def, max int) Option {
	return func(e *Engine) {
		if max >= 1 {
			e.maxThreshold = max
		}
		if def >= 1 {
			e.defaultThreshold = def
		}
		if e.defaultThreshold > e.maxThreshold {
			e.defaultThreshold = e.maxThreshold
		}
	}
}

// Engine drives one run. It is not safe for concurrent use.
type Engine struct {
	rng              Rand
	cycling          bool
	defaultThreshold int
	maxThreshold     int
	state            State
}

func New(opts ...Option) *Engine {
	e := &Engine{
		defaultThreshold: DefaultThreshold,
		maxThreshold:     MaxThreshold,
		state:            State{Phase: PhaseIdle, Current: -1},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// Configure discards any previous run and selects count distinct questions of
// b in random order. It never activates the run.
func (e *Engine) Configure(b models.Bank, count, threshold int) {
	e.state = State{
		Phase:     PhaseConfiguring,
		Threshold: e.clampThreshold(threshold),
		Current:   -1,
	}
	if len(b) == 0 {
		return
	}

	count = clampCount(count, len(b))
	perm := e.permutation(len(b))
	selected := make([]RunQuestion, count)
	for i := 0; i < count; i++ {
		selected[i] = RunQuestion{Question: b[perm[i]].Clone()}
	}
	e.state.Selected = selected
}

// Start begins the configured run from scratch and presents its first question.
func (e *Engine) Start() error {
	s := &e.state
	if len(s.Selected) == 0 {
		return ErrEmptyRun
	}
	for i := range s.Selected {
		s.Selected[i].Streak = 0
	}
	s.Phase = PhaseActive
	s.Current = -1
	s.Answered = false
	s.AnsweredCount = 0
	s.CorrectTotal = 0
	s.IncorrectTotal = 0
	s.Cycle = 1
	s.CycleSize = len(s.Selected)
	s.CycleAnswered = 0

	e.advance()
	return nil
}

// Next presents the next question. While the current question is still
// unanswered it is returned again. The second result is false once the run
// is not active, including when this call ended it.
func (e *Engine) Next() (RunQuestion, bool) {
	s := &e.state
	if s.Phase != PhaseActive {
		return RunQuestion{}, false
	}
	if s.Current >= 0 && !s.Answered {
		return s.Selected[s.Current], true
	}
	return e.advance()
}

// Current returns the question on screen, if any.
func (e *Engine) Current() (RunQuestion, bool) {
	s := &e.state
	if s.Phase != PhaseActive || s.Current < 0 {
		return RunQuestion{}, false
	}
	return s.Selected[s.Current], true
}

// Submit scores an answer to the current question. It is ignored, reporting
// false, when the run is not active, nothing is presented, or the current
// question was already answered.
func (e *Engine) Submit(index int) (Feedback, bool) {
	s := &e.state
	if s.Phase != PhaseActive || s.Current < 0 || s.Answered {
		return Feedback{}, false
	}

	rq := &s.Selected[s.Current]
	correct := index == rq.Question.CorrectIndex
	if correct {
		rq.Streak++
		s.CorrectTotal++
	} else {
		rq.Streak = 0
		s.IncorrectTotal++
	}
	s.Answered = true
	s.AnsweredCount++
	s.CycleAnswered++

	fb := Feedback{
		Chosen:        index,
		Correct:       correct,
		CorrectIndex:  rq.Question.CorrectIndex,
		CorrectOption: rq.Question.CorrectOption(),
		Streak:        rq.Streak,
		Mastered:      rq.Streak >= s.Threshold,
	}

	if e.activeCount() == 0 {
		if e.cycling {
			fb.CycleComplete = true
		} else {
			e.end()
			fb.Ended = true
		}
	}
	return fb, true
}

// Cancel abandons an active run and returns what it had achieved. It is a
// no-op outside the active phase.
func (e *Engine) Cancel() (Summary, bool) {
	if e.state.Phase != PhaseActive {
		return Summary{}, false
	}
	sum := e.Summary()
	sum.Phase = PhaseCancelled
	e.state = State{
		Phase:     PhaseCancelled,
		Threshold: e.state.Threshold,
		Current:   -1,
	}
	return sum, true
}

// Reset drops everything and returns to idle, as when a new bank replaces the
// one the run was drawn from.
func (e *Engine) Reset() {
	e.state = State{Phase: PhaseIdle, Current: -1}
}

func (e *Engine) Phase() Phase { return e.state.Phase }

func (e *Engine) Threshold() int { return e.state.Threshold }

func (e *Engine) Cycling() bool { return e.cycling }

// Selected is the number of questions in the configured run.
func (e *Engine) Selected() int { return len(e.state.Selected) }

// Snapshot returns a copy of the state that shares no memory with the engine.
func (e *Engine) Snapshot() State {
	s := e.state
	if s.Selected != nil {
		s.Selected = make([]RunQuestion, len(e.state.Selected))
		for i, rq := range e.state.Selected {
			s.Selected[i] = RunQuestion{Question: rq.Question.Clone(), Streak: rq.Streak}
		}
	}
	return s
}

// advance draws uniformly from the questions still below threshold.
func (e *Engine) advance() (RunQuestion, bool) {
	s := &e.state
	active := e.activeIndexes()
	if len(active) == 0 {
		if !e.cycling {
			e.end()
			return RunQuestion{}, false
		}
		e.newCycle()
		active = e.activeIndexes()
	}

	s.Current = active[e.rng.IntN(len(active))]
	s.Answered = false
	return s.Selected[s.Current], true
}

func (e *Engine) newCycle() {
	s := &e.state
	for i := range s.Selected {
		s.Selected[i].Streak = 0
	}
	s.Cycle++
	s.CycleSize = len(s.Selected)
	s.CycleAnswered = 0
}

func (e *Engine) end() {
	e.state.Phase = PhaseEnded
	e.state.Current = -1
	e.state.Answered = false
}

func (e *Engine) activeIndexes() []int {
	s := &e.state
	out := make([]int, 0, len(s.Selected))
	for i, rq := range s.Selected {
		if rq.Streak < s.Threshold {
			out = append(out, i)
		}
	}
	return out
}

func (e *Engine) activeCount() int {
	n := 0
	for _, rq := range e.state.Selected {
		if rq.Streak < e.state.Threshold {
			n++
		}
	}
	return n
}

// permutation is a Fisher-Yates shuffle of 0..n-1.
func (e *Engine) permutation(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := e.rng.IntN(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func (e *Engine) clampThreshold(t int) int {
	switch {
	case t == 0:
		return e.defaultThreshold
	case t < 1:
		return 1
	case t > e.maxThreshold:
		return e.maxThreshold
	}
	return t
}

func clampCount(count, n int) int {
	if count < 1 {
		return 1
	}
	if count > n {
		return n
	}
	return count
}
