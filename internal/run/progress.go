package run

// Progress is a read-only projection of the run state.
type Progress struct {
	Phase         Phase   `json:"phase"`
	Answered      int     `json:"answered"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	Mastered      int     `json:"mastered"`
	Threshold     int     `json:"threshold"`
	Completion    float64 `json:"completion"`
	Cycle         int     `json:"cycle"`
	CycleSize     int     `json:"cycle_size"`
	CycleAnswered int     `json:"cycle_answered"`
}

// Summary describes a run for the results screen and the run history.
type Summary struct {
	Phase     Phase   `json:"phase"`
	Total     int     `json:"total"`
	Threshold int     `json:"threshold"`
	Answered  int     `json:"answered"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Mastered  int     `json:"mastered"`
	Cycles    int     `json:"cycles"`
	Accuracy  float64 `json:"accuracy"`
}

func (e *Engine) Progress() Progress {
	s := &e.state
	total := len(s.Selected)
	active := e.activeCount()

	return Progress{
		Phase:         s.Phase,
		Answered:      s.AnsweredCount,
		Correct:       s.CorrectTotal,
		Incorrect:     s.IncorrectTotal,
		Total:         total,
		Active:        active,
		Mastered:      total - active,
		Threshold:     s.Threshold,
		Completion:    e.completion(),
		Cycle:         s.Cycle,
		CycleSize:     s.CycleSize,
		CycleAnswered: s.CycleAnswered,
	}
}

func (e *Engine) Summary() Summary {
	p := e.Progress()
	sum := Summary{
		Phase:     p.Phase,
		Total:     p.Total,
		Threshold: p.Threshold,
		Answered:  p.Answered,
		Correct:   p.Correct,
		Incorrect: p.Incorrect,
		Mastered:  p.Mastered,
		Cycles:    p.Cycle,
	}
	if p.Answered > 0 {
		sum.Accuracy = float64(p.Correct) / float64(p.Answered)
	}
	return sum
}

// completion weighs every question by its streak, capped at the threshold.
func (e *Engine) completion() float64 {
	s := &e.state
	if len(s.Selected) == 0 || s.Threshold <= 0 {
		return 0
	}
	sum := 0
	for _, rq := range s.Selected {
		sum += min(rq.Streak, s.Threshold)
	}
	f := float64(sum) / float64(len(s.Selected)*s.Threshold)
	return max(0, min(f, 1))
}
