package forum

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/push"
	"github.com/zhouzirui/qa-forum/frontend/internal/service/session"
)

// MsgUnknownStatus is shown when a status change names no known status.
const MsgUnknownStatus = "Unknown status."

// API is the part of the forum backend the synchronizer needs.
type API interface {
	ListQuestions(ctx context.Context) ([]forum.Question, error)
	CreateQuestion(ctx context.Context, message string) (forum.Question, error)
	CreateReply(ctx context.Context, questionID forum.ID, message string) (forum.Reply, error)
	UpdateStatus(ctx context.Context, questionID forum.ID, status forum.Status) error
}

// StatusGate decides whether the current user may change question status.
type StatusGate func(user *account.User) bool

// SessionGate allows status changes for any logged-in user.
func SessionGate(user *account.User) bool { return user != nil }

// Options configures a Synchronizer. Zero values are usable: no push
// channel, session gate, no metrics.
type Options struct {
	Push    *push.Options
	Gate    StatusGate
	Metrics *metrics.Metrics
}

// View is an immutable copy of what the forum page shows.
type View struct {
	Questions      []forum.Question `json:"questions"`
	Loading        bool             `json:"loading"`
	Error          string           `json:"error,omitempty"`
	Connection     string           `json:"connection"`
	ConnectionLost bool             `json:"connection_lost"`
}

// Synchronizer owns the sorted question list and merges the snapshot,
// push events and local writes into it. All mutations happen under mu;
// network calls never do.
type Synchronizer struct {
	api      API
	sessions session.Store
	gate     StatusGate
	channel  *push.Channel
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu        sync.Mutex
	questions []forum.Question
	loading   bool
	early     map[forum.ID]forum.Question
	errMsg    string
	drafts    map[forum.ID]string
	conn      push.State
	connLost  bool
	subs      map[int]chan struct{}
	nextSubID int
}

// NewSynchronizer wires the synchronizer to the backend and session store.
func NewSynchronizer(api API, sessions session.Store, opts Options) *Synchronizer {
	gate := opts.Gate
	if gate == nil {
		gate = SessionGate
	}
	s := &Synchronizer{
		api:      api,
		sessions: sessions,
		gate:     gate,
		metrics:  opts.Metrics,
		log:      logger.Component("sync"),
		drafts:   make(map[forum.ID]string),
		subs:     make(map[int]chan struct{}),
		conn:     push.State{Phase: push.PhaseConnecting},
	}
	if opts.Push != nil {
		s.channel = push.NewChannel(*opts.Push, s, opts.Metrics)
	}
	return s
}

// Run activates the synchronizer: it loads the snapshot and follows the
// push channel until ctx is cancelled. A lost push channel is reported
// through the view; Run keeps serving until teardown.
func (s *Synchronizer) Run(ctx context.Context) error {
	if s.channel == nil {
		_ = s.LoadSnapshot(ctx)
		<-ctx.Done()
		return nil
	}

	// Events that arrive before the snapshot request must not be lost.
	s.beginLoad()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.channel.Run(ctx)
	}()

	_ = s.LoadSnapshot(ctx)

	err := <-errCh
	if errors.Is(err, push.ErrConnectionLost) {
		<-ctx.Done()
		return nil
	}
	return err
}

// LoadSnapshot replaces the list with the backend's full set. On failure
// the list is left as it is and the error slot is set.
func (s *Synchronizer) LoadSnapshot(ctx context.Context) error {
	s.beginLoad()
	s.notify()

	questions, err := s.api.ListQuestions(ctx)

	s.mu.Lock()
	s.loading = false
	early := s.early
	s.early = nil
	if err != nil {
		s.errMsg = forum.MsgLoadFailed
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("snapshot load failed")
		s.notify()
		return err
	}

	merged := make([]forum.Question, 0, len(questions)+len(early))
	for _, q := range questions {
		merged = upsert(merged, q.Clone())
	}
	// Events that raced the snapshot request are at least as fresh as it.
	for _, q := range early {
		merged = upsert(merged, q)
	}
	forum.Sort(merged)
	s.questions = merged
	count := len(merged)
	s.mu.Unlock()

	s.log.Info().Int("questions", count).Int("raced_events", len(early)).Msg("snapshot loaded")
	s.observeSize(count)
	s.notify()
	return nil
}

func (s *Synchronizer) beginLoad() {
	s.mu.Lock()
	s.loading = true
	if s.early == nil {
		s.early = make(map[forum.ID]forum.Question)
	}
	s.mu.Unlock()
}

// ApplyPush merges one pushed question: replaced in place when its id is
// known, inserted otherwise. It reports whether the list grew.
func (s *Synchronizer) ApplyPush(q forum.Question) bool {
	q = q.Clone()

	s.mu.Lock()
	before := len(s.questions)
	s.questions = upsert(s.questions, q)
	if s.early != nil {
		s.early[q.ID] = q
	}
	forum.Sort(s.questions)
	count := len(s.questions)
	s.mu.Unlock()

	inserted := count > before
	if s.metrics != nil {
		result := "replaced"
		if inserted {
			result = "inserted"
		}
		s.metrics.PushEvents.WithLabelValues(result).Inc()
	}
	s.observeSize(count)
	s.notify()
	return inserted
}

// HandleFrame implements push.Listener.
func (s *Synchronizer) HandleFrame(data []byte) error {
	q, err := forum.DecodeQuestion(data)
	if err != nil {
		return err
	}
	s.ApplyPush(q)
	return nil
}

// ConnectionChanged implements push.Listener.
func (s *Synchronizer) ConnectionChanged(state push.State) {
	s.mu.Lock()
	s.conn = state
	if state.Lost {
		s.connLost = true
	}
	s.mu.Unlock()

	if state.Lost {
		s.log.Error().Int("retries", state.Retries).Msg("live updates lost")
	}
	s.notify()
}

// SubmitQuestion creates a question and shows it immediately.
func (s *Synchronizer) SubmitQuestion(ctx context.Context, text string) (forum.Question, error) {
	s.setError("")
	if strings.TrimSpace(text) == "" {
		err := forum.Validation(forum.MsgBlankQuestion)
		s.setError(err.Message)
		return forum.Question{}, err
	}

	q, err := s.api.CreateQuestion(ctx, text)
	if err != nil {
		s.setError(forum.UserMessage(err, forum.MsgSubmitFailed))
		return forum.Question{}, err
	}

	s.mu.Lock()
	// A push for the same id may already be here; it is at least as fresh
	// as the create response, so only a novel id is inserted.
	if indexOf(s.questions, q.ID) < 0 {
		s.questions = append([]forum.Question{q.Clone()}, s.questions...)
		if s.early != nil {
			if _, seen := s.early[q.ID]; !seen {
				s.early[q.ID] = q.Clone()
			}
		}
		forum.Sort(s.questions)
	}
	count := len(s.questions)
	s.mu.Unlock()

	s.log.Info().Str("question_id", string(q.ID)).Msg("question submitted")
	s.observeSize(count)
	s.notify()
	return q, nil
}

// SetReplyDraft stores the unsent reply text for a question.
func (s *Synchronizer) SetReplyDraft(questionID forum.ID, text string) {
	s.mu.Lock()
	if text == "" {
		delete(s.drafts, questionID)
	} else {
		s.drafts[questionID] = text
	}
	s.mu.Unlock()
	s.notify()
}

// ReplyDraft returns the unsent reply text for a question.
func (s *Synchronizer) ReplyDraft(questionID forum.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[questionID]
}

// SubmitReplyDraft sends the stored draft for a question.
func (s *Synchronizer) SubmitReplyDraft(ctx context.Context, questionID forum.ID) error {
	return s.SubmitReply(ctx, questionID, s.ReplyDraft(questionID))
}

// SubmitReply posts a reply. The list is not touched: the reply shows up
// with the next push event or snapshot for that question.
func (s *Synchronizer) SubmitReply(ctx context.Context, questionID forum.ID, text string) error {
	s.setError("")
	if strings.TrimSpace(text) == "" {
		err := forum.Validation(forum.MsgBlankReply)
		s.setError(err.Message)
		return err
	}

	if _, err := s.api.CreateReply(ctx, questionID, text); err != nil {
		s.setError(forum.UserMessage(err, forum.MsgReplyFailed))
		return err
	}

	s.mu.Lock()
	delete(s.drafts, questionID)
	s.mu.Unlock()

	s.log.Info().Str("question_id", string(questionID)).Msg("reply submitted")
	s.notify()
	return nil
}

// SetStatus asks the backend to change a question's status. Without an
// allowed session it does nothing at all. The list changes only when the
// push channel delivers the update.
func (s *Synchronizer) SetStatus(ctx context.Context, questionID forum.ID, status forum.Status) error {
	user, err := s.sessions.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session unreadable, treating as guest")
		user = nil
	}
	if !s.gate(user) {
		return nil
	}

	s.setError("")
	if !status.Valid() {
		err := forum.Validation(MsgUnknownStatus)
		s.setError(err.Message)
		return err
	}

	if err := s.api.UpdateStatus(ctx, questionID, status); err != nil {
		s.setError(forum.UserMessage(err, forum.MsgStatusFailed))
		return err
	}
	s.log.Info().Str("question_id", string(questionID)).Str("status", string(status)).Msg("status change requested")
	return nil
}

// DismissError clears the error slot.
func (s *Synchronizer) DismissError() {
	s.setError("")
}

// View returns a copy of the current state.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]forum.Question, len(s.questions))
	for i, q := range s.questions {
		questions[i] = q.Clone()
	}
	return View{
		Questions:      questions,
		Loading:        s.loading,
		Error:          s.errMsg,
		Connection:     s.conn.Phase.String(),
		ConnectionLost: s.connLost,
	}
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; read View to get the state. Call cancel when done.
func (s *Synchronizer) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Synchronizer) setError(msg string) {
	s.mu.Lock()
	changed := s.errMsg != msg
	s.errMsg = msg
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Synchronizer) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Synchronizer) observeSize(n int) {
	if s.metrics != nil {
		s.metrics.Questions.Set(float64(n))
	}
}

func indexOf(questions []forum.Question, id forum.ID) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}

// upsert replaces the entry with q's id or appends q. It never creates a
// second entry for an id.
func upsert(questions []forum.Question, q forum.Question) []forum.Question {
	if idx := indexOf(questions, q.ID); idx >= 0 {
		questions[idx] = q
		return questions
	}
	return append(questions, q)
}
