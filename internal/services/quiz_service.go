package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"sync"
	"time"

	"github.com/vytor/quizflash/internal/bank"
	"github.com/vytor/quizflash/internal/errors"
	"github.com/vytor/quizflash/internal/jobs"
	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
	"github.com/vytor/quizflash/internal/run"
)

// QuizService handles question bank loading and the runs drawn from it.
// State is kept per browser session.
type QuizService interface {
	LoadBank(ctx context.Context, sessionID string, upload bank.Upload) (*BankView, error)
	StartRun(ctx context.Context, sessionID string, count, threshold int) (*RunView, error)
	Answer(ctx context.Context, sessionID string, index int) (*AnswerView, error)
	Next(ctx context.Context, sessionID string) (*RunView, error)
	CancelRun(ctx context.Context, sessionID string) (*RunView, error)
	Current(ctx context.Context, sessionID string) (*RunView, error)
	History(ctx context.Context, sessionID string, query HistoryQuery) (*HistoryPage, error)
	StoredBank(ctx context.Context, sessionID string, id int64) (*models.StoredBank, error)
}

// WholeBank asks StartRun for every question of the loaded bank.
const WholeBank = math.MaxInt

// QuizSettings tunes validation and run behaviour.
type QuizSettings struct {
	MaxUploadBytes   int64
	Policy           bank.Policy
	DefaultThreshold int
	MaxThreshold     int
	Cycling          bool

	// SessionIdleTimeout and MaxSessions bound the in-memory session table.
	// Zero selects the defaults.
	SessionIdleTimeout time.Duration
	MaxSessions        int

	// NewRand, when set, supplies the random source of each new session.
	NewRand func() run.Rand
}

// BankView describes the bank currently loaded for a session.
type BankView struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	QuestionCount int       `json:"question_count"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// QuestionView is a presented question without its answer.
type QuestionView struct {
	ID      int64    `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"answers"`
	Streak  int      `json:"streak"`
}

// RunView is everything the page needs to render a session.
type RunView struct {
	Phase     run.Phase     `json:"phase"`
	Progress  run.Progress  `json:"progress"`
	Bank      *BankView     `json:"bank,omitempty"`
	Question  *QuestionView `json:"question,omitempty"`
	Answered  bool          `json:"answered"`
	Cycling   bool          `json:"cycling"`
	CanLoad   bool          `json:"can_load"`
	CanStart  bool          `json:"can_start"`
	CanAnswer bool          `json:"can_answer"`
	CanNext   bool          `json:"can_next"`
	CanCancel bool          `json:"can_cancel"`
	Summary   *run.Summary  `json:"summary,omitempty"`
}

// HistoryQuery selects a page of a session's finished runs. Outcome and
// BankID narrow the page when set.
type HistoryQuery struct {
	Limit   int
	Offset  int
	Outcome string
	BankID  int64
}

// HistoryEntry is a finished run as listed to the page.
type HistoryEntry struct {
	models.RunSummary
	Accuracy float64 `json:"accuracy"`
}

// HistoryPage is one page of finished runs and the number matching overall.
type HistoryPage struct {
	Runs   []HistoryEntry `json:"runs"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// AnswerView is the result of an answer submission. Accepted is false when the
// submission was ignored because no question was awaiting an answer.
type AnswerView struct {
	Accepted bool          `json:"accepted"`
	Feedback *run.Feedback `json:"feedback,omitempty"`
	Run      RunView       `json:"run"`
}

type quizSession struct {
	mu        sync.Mutex
	engine    *run.Engine
	bank      models.Bank
	bankView  *BankView
	startedAt time.Time
	last      *run.Summary
	restored  bool
	lastSeen  time.Time // guarded by quizService.mu
}

type quizService struct {
	loader   bank.Loader
	banks    repository.BankRepository
	runs     repository.RunRepository
	queue    jobs.JobQueue
	settings QuizSettings
	now      func() time.Time

	idleTimeout time.Duration
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*quizSession
	swept    time.Time
}

// NewQuizService creates a new QuizService
func NewQuizService(
	banks repository.BankRepository,
	runs repository.RunRepository,
	queue jobs.JobQueue,
	settings QuizSettings,
) QuizService {
	s := &quizService{
		loader:      bank.NewLoader(settings.MaxUploadBytes, settings.Policy),
		banks:       banks,
		runs:        runs,
		queue:       queue,
		settings:    settings,
		now:         time.Now,
		idleTimeout: settings.SessionIdleTimeout,
		maxSessions: settings.MaxSessions,
		sessions:    make(map[string]*quizSession),
	}
	if s.idleTimeout <= 0 {
		s.idleTimeout = DefaultSessionIdleTimeout
	}
	if s.maxSessions < 1 {
		s.maxSessions = DefaultMaxSessions
	}
	return s
}

func (s *quizService) LoadBank(ctx context.Context, sessionID string, upload bank.Upload) (*BankView, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading question bank: filename=%s, size=%d", upload.Filename, upload.Size)

	b, err := s.loader.Load(upload)
	if err != nil {
		log.Warn("question bank rejected: %v", err)
		return nil, bankError(err)
	}

	view := &BankView{
		Filename:      upload.Filename,
		QuestionCount: len(b),
		LoadedAt:      s.now().UTC(),
	}
	view.ID = s.storeBank(ctx, sessionID, b, view)

	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sum, ok := sess.engine.Cancel(); ok {
		log.Info("discarding active run for new bank")
		s.record(ctx, sessionID, sess, sum)
	}
	sess.engine.Reset()
	sess.bank = b
	sess.bankView = view
	sess.last = nil
	sess.restored = true

	log.Info("question bank loaded: id=%d, questions=%d", view.ID, view.QuestionCount)
	return view, nil
}

// storeBank keeps a copy of a loaded bank. The bank is usable even when this
// fails, so errors are only logged.
func (s *quizService) storeBank(ctx context.Context, sessionID string, b models.Bank, view *BankView) int64 {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(b)
	if err != nil {
		log.Warn("failed to encode question bank: %v", err)
		return 0
	}
	id, err := s.banks.Insert(ctx, models.StoredBank{
		SessionID:     sessionID,
		Filename:      view.Filename,
		QuestionCount: view.QuestionCount,
		Payload:       string(payload),
		LoadedAt:      view.LoadedAt,
	})
	if err != nil {
		log.Warn("failed to store question bank: %v", err)
		return 0
	}
	return id
}

func (s *quizService) StartRun(ctx context.Context, sessionID string, count, threshold int) (*RunView, error) {
	log := logger.FromContext(ctx)

	// A session with a bank is always held by find.
	sess := s.find(ctx, sessionID)
	defer sess.mu.Unlock()
	if len(sess.bank) == 0 {
		return nil, errors.NewEmptyRunError(run.ErrEmptyRun)
	}

	if sum, ok := sess.engine.Cancel(); ok {
		log.Info("restarting: cancelling active run")
		s.record(ctx, sessionID, sess, sum)
	}

	sess.engine.Configure(sess.bank, count, threshold)
	if err := sess.engine.Start(); err != nil {
		return nil, errors.NewEmptyRunError(err)
	}
	sess.startedAt = s.now().UTC()
	sess.last = nil

	log.Info("run started: questions=%d, threshold=%d", sess.engine.Selected(), sess.engine.Threshold())
	return s.view(sess), nil
}

func (s *quizService) Answer(ctx context.Context, sessionID string, index int) (*AnswerView, error) {
	log := logger.FromContext(ctx)

	sess := s.find(ctx, sessionID)
	defer sess.mu.Unlock()

	fb, ok := sess.engine.Submit(index)
	if !ok {
		log.Debug("answer ignored: phase=%s", sess.engine.Phase())
		return &AnswerView{Run: *s.view(sess)}, nil
	}
	log.Debug("answer scored: chosen=%d, correct=%t, streak=%d", fb.Chosen, fb.Correct, fb.Streak)

	if fb.Ended {
		sum := sess.engine.Summary()
		sess.last = &sum
		log.Info("run ended: answered=%d, accuracy=%.2f", sum.Answered, sum.Accuracy)
		s.record(ctx, sessionID, sess, sum)
	} else if fb.CycleComplete {
		log.Info("cycle %d complete", sess.engine.Progress().Cycle)
	}
	return &AnswerView{Accepted: true, Feedback: &fb, Run: *s.view(sess)}, nil
}

func (s *quizService) Next(ctx context.Context, sessionID string) (*RunView, error) {
	sess := s.find(ctx, sessionID)
	defer sess.mu.Unlock()

	wasActive := sess.engine.Phase() == run.PhaseActive
	if _, ok := sess.engine.Next(); !ok && wasActive && sess.engine.Phase() == run.PhaseEnded {
		sum := sess.engine.Summary()
		sess.last = &sum
		s.record(ctx, sessionID, sess, sum)
	}
	return s.view(sess), nil
}

func (s *quizService) CancelRun(ctx context.Context, sessionID string) (*RunView, error) {
	sess := s.find(ctx, sessionID)
	defer sess.mu.Unlock()

	if sum, ok := sess.engine.Cancel(); ok {
		logger.FromContext(ctx).Info("run cancelled: answered=%d", sum.Answered)
		sess.last = &sum
		s.record(ctx, sessionID, sess, sum)
	}
	return s.view(sess), nil
}

func (s *quizService) Current(ctx context.Context, sessionID string) (*RunView, error) {
	sess := s.find(ctx, sessionID)
	defer sess.mu.Unlock()

	return s.view(sess), nil
}

// restore reloads the last bank stored for a session that has none in memory,
// as after a restart. It is attempted once per session.
func (s *quizService) restore(ctx context.Context, sessionID string, sess *quizSession) {
	if sess.restored || sess.bank != nil {
		return
	}
	sess.restored = true
	log := logger.FromContext(ctx)

	stored, err := s.banks.LatestForSession(ctx, sessionID)
	if err != nil {
		log.Warn("failed to look up stored bank: %v", err)
		return
	}
	if stored == nil {
		return
	}
	b, err := bank.Parse([]byte(stored.Payload), s.settings.Policy)
	if err != nil {
		log.Warn("stored bank %d no longer validates: %v", stored.ID, err)
		return
	}

	sess.bank = b
	sess.bankView = &BankView{
		ID:            stored.ID,
		Filename:      stored.Filename,
		QuestionCount: len(b),
		LoadedAt:      stored.LoadedAt,
	}
	log.Info("restored question bank: id=%d, questions=%d", stored.ID, len(b))
}

func (s *quizService) History(ctx context.Context, sessionID string, q HistoryQuery) (*HistoryPage, error) {
	log := logger.FromContext(ctx)

	filter := models.RunFilter{
		SessionID: sessionID,
		BankID:    q.BankID,
		Outcome:   q.Outcome,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	summaries, err := s.runs.ListSummaries(ctx, filter)
	if err != nil {
		log.Error("failed to list run summaries: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.runs.CountSummaries(ctx, filter)
	if err != nil {
		log.Error("failed to count run summaries: %v", err)
		return nil, errors.NewInternalError(err)
	}

	page := &HistoryPage{
		Runs:   make([]HistoryEntry, 0, len(summaries)),
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	for _, sum := range summaries {
		page.Runs = append(page.Runs, HistoryEntry{RunSummary: sum, Accuracy: sum.Accuracy()})
	}
	return page, nil
}

// StoredBank returns a bank previously stored for sessionID. Banks of other
// sessions are reported as missing.
func (s *quizService) StoredBank(ctx context.Context, sessionID string, id int64) (*models.StoredBank, error) {
	stored, err := s.banks.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get stored bank: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if stored == nil || stored.SessionID != sessionID {
		return nil, errors.NewNotFoundError("bank", id)
	}
	return stored, nil
}

// record hands a finished run to the recorder queue. Failures never affect the
// session.
func (s *quizService) record(ctx context.Context, sessionID string, sess *quizSession, sum run.Summary) {
	outcome := models.OutcomeEnded
	if sum.Phase == run.PhaseCancelled {
		outcome = models.OutcomeCancelled
	}
	var bankID int64
	if sess.bankView != nil {
		bankID = sess.bankView.ID
	}

	summary := models.RunSummary{
		SessionID:      sessionID,
		BankID:         bankID,
		Outcome:        outcome,
		TotalQuestions: sum.Total,
		Threshold:      sum.Threshold,
		Answered:       sum.Answered,
		Correct:        sum.Correct,
		Incorrect:      sum.Incorrect,
		Mastered:       sum.Mastered,
		Cycles:         sum.Cycles,
		StartedAt:      sess.startedAt,
		FinishedAt:     s.now().UTC(),
	}
	if err := s.queue.EnqueueRunSummary(summary); err != nil {
		logger.FromContext(ctx).Warn("failed to enqueue run summary: %v", err)
	}
}

func (s *quizService) view(sess *quizSession) *RunView {
	e := sess.engine
	st := e.Snapshot()
	phase := st.Phase

	v := &RunView{
		Phase:    phase,
		Progress: e.Progress(),
		Bank:     sess.bankView,
		Answered: st.Answered,
		Cycling:  e.Cycling(),
		CanLoad:  true,
		CanStart: len(sess.bank) > 0 && phase != run.PhaseActive,
	}
	if phase == run.PhaseActive && st.Current >= 0 {
		rq := st.Selected[st.Current]
		v.Question = &QuestionView{
			ID:      rq.Question.ID,
			Prompt:  rq.Question.Prompt,
			Options: rq.Question.Options,
			Streak:  rq.Streak,
		}
		v.CanAnswer = !st.Answered
		v.CanNext = st.Answered
	}
	v.CanCancel = phase == run.PhaseActive
	if phase.Terminal() {
		v.Summary = sess.last
	}
	return v
}

func bankError(err error) error {
	var be *bank.Error
	if !stderrors.As(err, &be) {
		return errors.NewInternalError(err)
	}
	switch be.Kind {
	case bank.KindFormat:
		return errors.NewFormatError(be)
	case bank.KindSchema:
		return errors.NewSchemaError(be)
	case bank.KindCapacity:
		return errors.NewCapacityError(be)
	case bank.KindIO:
		return errors.NewIOError(be)
	}
	return errors.NewInternalError(err)
}
