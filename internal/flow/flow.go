// Package flow drives a conversation turn against the backend: intent
// parse, optional clarification round, generation, and the bookkeeping
// around stored conversations. It is UI-agnostic so the same controller
// serves the one-shot CLI and the interactive chat.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/session"
)

// ErrStale reports that the conversation was reset while a turn was in
// flight; the response belongs to an abandoned turn and must be discarded.
var ErrStale = errors.New("turn superseded by a newer conversation")

// confidenceThreshold is the intent confidence below which a clarification
// round is attempted even when the backend did not ask for one.
const confidenceThreshold = 0.85

// maxTitleLen caps the conversation title derived from the first message.
const maxTitleLen = 50

// Backend is the slice of the API client the controller needs.
type Backend interface {
	ParseIntent(ctx context.Context, userInput, sessionID string, history []api.HistoryEntry) (*api.IntentResult, error)
	Questions(ctx context.Context, sessionID, intentID string) ([]api.Question, error)
	AnswerQuestion(ctx context.Context, sessionID, questionText, answer string) error
	Generate(ctx context.Context, sessionID string, opts api.GenerateOptions) (*api.GenerateResult, error)
	SubmitFeedback(ctx context.Context, sessionID, feedbackText, sentiment, promptHistoryID string) error
	CreateConversation(ctx context.Context, title string) (*api.Conversation, error)
	RenameConversation(ctx context.Context, id, title string) (*api.Conversation, error)
	CreateMessage(ctx context.Context, conversationID, role, content string, metadata api.MessageMetadata) (*api.Message, error)
}

// Recorder mirrors finished messages into a local store. Recording is best
// effort; failures are logged, never surfaced.
type Recorder interface {
	Record(ctx context.Context, conversationID, role, content string, metadata api.MessageMetadata) error
}

// GenSettings are the generation preferences applied to every turn.
type GenSettings struct {
	Quality      string
	Specificity  string
	InternetMode bool
	Model        string
}

// TurnKind tells the caller what a turn produced.
type TurnKind int

const (
	// TurnQuestions means a clarification round is open; the caller must
	// collect answers via Answer until a TurnGenerated comes back.
	TurnQuestions TurnKind = iota
	// TurnGenerated means the assistant response is ready.
	TurnGenerated
)

// Turn is the outcome of Send or Answer.
type Turn struct {
	Kind TurnKind

	// Question is the clarifying question to show next. Index and Total
	// describe its position in the round.
	Question *api.Question
	Index    int
	Total    int

	// Result is set when Kind is TurnGenerated.
	Result *api.GenerateResult
}

// Controller owns one conversation's state and runs turns against the
// backend. Methods are safe for concurrent use; a Reset during an in-flight
// turn makes that turn finish with ErrStale.
type Controller struct {
	backend  Backend
	logger   *slog.Logger
	settings GenSettings
	recorder Recorder

	mu            sync.Mutex
	state         *session.State
	store         *session.Store
	authenticated bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore persists the session id and goal across runs.
func WithStore(store *session.Store) Option {
	return func(c *Controller) { c.store = store }
}

// WithRecorder mirrors finished messages into a local transcript store.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithAuthenticated marks the session as belonging to a logged-in user, so
// conversations are created and messages persisted server-side.
func WithAuthenticated(v bool) Option {
	return func(c *Controller) { c.authenticated = v }
}

// New creates a Controller. The persisted session id, when present in the
// store, is adopted so the backend context carries over.
func New(backend Backend, logger *slog.Logger, settings GenSettings, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		logger:   logger,
		settings: settings,
		state:    session.NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil {
		c.state.SessionID = c.store.SessionID()
	}
	return c
}

// Settings returns the current generation settings.
func (c *Controller) Settings() GenSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings replaces the generation settings for subsequent turns.
func (c *Controller) UpdateSettings(s GenSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// SessionID returns the backend session id, empty before the first turn.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SessionID
}

// ConversationID returns the stored conversation id, empty for anonymous
// sessions or before the first turn.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ConversationID
}

// History returns a copy of the in-memory transcript.
func (c *Controller) History() []api.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.state.History)
}

// Reset abandons the conversation: local state is cleared, the persisted
// session id dropped, and any in-flight turn is invalidated.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
	if c.store != nil {
		if err := c.store.ClearSession(); err != nil {
			c.logger.Warn("clearing persisted session", "error", err)
		}
	}
}

// TitleFor derives a conversation title from the first message: the first
// 50 characters, with an ellipsis when truncated.
func TitleFor(message string) string {
	runes := []rune(message)
	if len(runes) <= maxTitleLen {
		return message
	}
	return string(runes[:maxTitleLen]) + "..."
}

// Send runs one turn for a new user message. It returns either the opening
// question of a clarification round or the generated response; in both
// cases exactly one generation happens per user message.
func (c *Controller) Send(ctx context.Context, message string) (*Turn, error) {
	c.mu.Lock()
	turn := c.state.Turn
	sessionID := c.state.SessionID
	history := slices.Clone(c.state.History)
	first := c.state.FirstTurn()
	c.mu.Unlock()

	intent, err := c.backend.ParseIntent(ctx, message, sessionID, history)
	if err != nil {
		return nil, fmt.Errorf("parsing intent: %w", err)
	}

	c.mu.Lock()
	if c.state.Turn != turn {
		c.mu.Unlock()
		return nil, ErrStale
	}
	if c.state.SessionID == "" {
		c.state.SessionID = intent.SessionID
		if c.store != nil {
			if err := c.store.SetSessionID(intent.SessionID); err != nil {
				c.logger.Warn("persisting session id", "error", err)
			}
		}
	}
	sessionID = c.state.SessionID
	c.state.AppendUser(message)
	conversationID := c.state.ConversationID
	needConversation := c.authenticated && first && conversationID == ""
	c.mu.Unlock()

	if needConversation {
		c.openConversation(ctx, turn, message)
	} else if conversationID != "" {
		if _, err := c.backend.CreateMessage(ctx, conversationID, "user", message, api.MessageMetadata{}); err != nil {
			c.logger.Warn("persisting user message", "error", err)
		}
	}
	c.record(ctx, "user", message, api.MessageMetadata{})

	if c.needsClarification(first, intent) {
		questions, err := c.backend.Questions(ctx, sessionID, intent.Intent.ID)
		if err != nil {
			// A failed question fetch never blocks the turn.
			c.logger.Warn("fetching clarifying questions", "error", err)
		} else if len(questions) > 0 {
			c.mu.Lock()
			if c.state.Turn != turn {
				c.mu.Unlock()
				return nil, ErrStale
			}
			c.state.PendingQuestions = questions
			c.state.Cursor = 0
			c.mu.Unlock()
			return &Turn{
				Kind:     TurnQuestions,
				Question: &questions[0],
				Index:    0,
				Total:    len(questions),
			}, nil
		}
	}

	return c.generate(ctx, turn)
}

// Answer resolves the current clarifying question. An empty answer falls
// back to the question's default, and skips the question entirely when
// there is none. When the round is finished the response is generated.
func (c *Controller) Answer(ctx context.Context, answer string) (*Turn, error) {
	c.mu.Lock()
	turn := c.state.Turn
	sessionID := c.state.SessionID
	q := c.state.CurrentQuestion()
	if q == nil {
		c.mu.Unlock()
		return nil, errors.New("no clarifying question pending")
	}
	question := *q
	c.mu.Unlock()

	if answer == "" {
		answer = question.Default
	}
	if answer != "" {
		if err := c.backend.AnswerQuestion(ctx, sessionID, question.Text, answer); err != nil {
			return nil, fmt.Errorf("answering question: %w", err)
		}
	}

	c.mu.Lock()
	if c.state.Turn != turn {
		c.mu.Unlock()
		return nil, ErrStale
	}
	c.state.Answer(answer)
	next := c.state.CurrentQuestion()
	index := c.state.Cursor
	total := len(c.state.PendingQuestions)
	c.mu.Unlock()

	if next != nil {
		return &Turn{Kind: TurnQuestions, Question: next, Index: index, Total: total}, nil
	}
	return c.generate(ctx, turn)
}

// Feedback attaches sentiment to the most recent generation.
func (c *Controller) Feedback(ctx context.Context, text, sentiment string) error {
	c.mu.Lock()
	sessionID := c.state.SessionID
	historyID := c.state.LastPromptHistoryID
	c.mu.Unlock()

	if sessionID == "" {
		return errors.New("no session to attach feedback to")
	}
	if err := c.backend.SubmitFeedback(ctx, sessionID, text, sentiment, historyID); err != nil {
		return fmt.Errorf("submitting feedback: %w", err)
	}
	return nil
}

// needsClarification decides whether to open a clarification round. The
// backend's own flag is honored, and weak classifications trigger a round
// on their own: a first turn, an incomplete or unspecific intent, or low
// confidence.
func (c *Controller) needsClarification(first bool, res *api.IntentResult) bool {
	return first ||
		res.NeedsClarification ||
		res.Intent.Completeness != "COMPLETE" ||
		res.Intent.Specificity != "HIGH" ||
		res.Intent.Confidence < confidenceThreshold
}

func (c *Controller) generate(ctx context.Context, turn int) (*Turn, error) {
	c.mu.Lock()
	sessionID := c.state.SessionID
	settings := c.settings
	c.mu.Unlock()

	result, err := c.backend.Generate(ctx, sessionID, api.GenerateOptions{
		Quality:          settings.Quality,
		InternetMode:     settings.InternetMode,
		SpecificityLevel: settings.Specificity,
		PreferredModel:   settings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	c.mu.Lock()
	if c.state.Turn != turn {
		c.mu.Unlock()
		return nil, ErrStale
	}
	c.state.AppendAssistant(result.Response)
	c.state.LastPromptHistoryID = result.PromptHistoryID
	c.state.ClearQuestions()
	conversationID := c.state.ConversationID
	userTurns := 0
	var firstUser string
	for _, h := range c.state.History {
		if h.Role == "user" {
			userTurns++
			if firstUser == "" {
				firstUser = h.Content
			}
		}
	}
	c.mu.Unlock()

	metadata := api.MessageMetadata{
		ModelUsed:       result.ModelUsed,
		TokensUsed:      result.TokensUsed,
		PromptHistoryID: result.PromptHistoryID,
		References:      result.References,
	}
	if conversationID != "" {
		if _, err := c.backend.CreateMessage(ctx, conversationID, "assistant", result.Response, metadata); err != nil {
			c.logger.Warn("persisting assistant message", "error", err)
		}
		// The title settles after the first completed exchange.
		if userTurns == 1 && firstUser != "" {
			if _, err := c.backend.RenameConversation(ctx, conversationID, TitleFor(firstUser)); err != nil {
				c.logger.Warn("renaming conversation", "error", err)
			}
		}
	}
	c.record(ctx, "assistant", result.Response, metadata)

	return &Turn{Kind: TurnGenerated, Result: result}, nil
}

// openConversation creates the stored conversation for a first message and
// mirrors the message into it. Failures degrade to an anonymous-style
// session.
func (c *Controller) openConversation(ctx context.Context, turn int, message string) {
	conv, err := c.backend.CreateConversation(ctx, TitleFor(message))
	if err != nil {
		c.logger.Warn("creating conversation", "error", err)
		return
	}

	c.mu.Lock()
	if c.state.Turn != turn {
		c.mu.Unlock()
		return
	}
	c.state.ConversationID = conv.ID
	c.mu.Unlock()

	if _, err := c.backend.CreateMessage(ctx, conv.ID, "user", message, api.MessageMetadata{}); err != nil {
		c.logger.Warn("persisting user message", "error", err)
	}
}

func (c *Controller) record(ctx context.Context, role, content string, metadata api.MessageMetadata) {
	if c.recorder == nil {
		return
	}
	c.mu.Lock()
	conversationID := c.state.ConversationID
	sessionID := c.state.SessionID
	c.mu.Unlock()

	key := conversationID
	if key == "" {
		key = sessionID
	}
	if err := c.recorder.Record(ctx, key, role, content, metadata); err != nil {
		c.logger.Warn("recording transcript", "error", err)
	}
}
