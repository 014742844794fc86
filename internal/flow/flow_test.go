package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/session"
)

// fakeBackend scripts backend behavior and records calls.
type fakeBackend struct {
	intent      *api.IntentResult
	intentErr   error
	questions   []api.Question
	questionErr error
	result      *api.GenerateResult
	generateErr error

	parseCalls    int
	questionCalls int
	generateCalls int
	answers       []string
	feedbacks     []string
	created       []string
	renamed       []string
	messages      []string

	// onParse runs mid-call, before ParseIntent returns. Tests use it to
	// reset the controller while a turn is in flight.
	onParse func()
}

func (f *fakeBackend) ParseIntent(ctx context.Context, userInput, sessionID string, history []api.HistoryEntry) (*api.IntentResult, error) {
	f.parseCalls++
	if f.onParse != nil {
		f.onParse()
	}
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return f.intent, nil
}

func (f *fakeBackend) Questions(ctx context.Context, sessionID, intentID string) ([]api.Question, error) {
	f.questionCalls++
	return f.questions, f.questionErr
}

func (f *fakeBackend) AnswerQuestion(ctx context.Context, sessionID, questionText, answer string) error {
	f.answers = append(f.answers, questionText+"="+answer)
	return nil
}

func (f *fakeBackend) Generate(ctx context.Context, sessionID string, opts api.GenerateOptions) (*api.GenerateResult, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.result, nil
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, sessionID, feedbackText, sentiment, promptHistoryID string) error {
	f.feedbacks = append(f.feedbacks, sentiment+":"+promptHistoryID)
	return nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, title string) (*api.Conversation, error) {
	f.created = append(f.created, title)
	return &api.Conversation{ID: "conv-1", Title: title}, nil
}

func (f *fakeBackend) RenameConversation(ctx context.Context, id, title string) (*api.Conversation, error) {
	f.renamed = append(f.renamed, title)
	return &api.Conversation{ID: id, Title: title}, nil
}

func (f *fakeBackend) CreateMessage(ctx context.Context, conversationID, role, content string, metadata api.MessageMetadata) (*api.Message, error) {
	f.messages = append(f.messages, role+":"+content)
	return &api.Message{ID: "m1", Conversation: conversationID, Role: role, Content: content}, nil
}

func completeIntent() *api.IntentResult {
	return &api.IntentResult{
		SessionID: "sess-1",
		Intent: api.Intent{
			ID:           "int-1",
			Completeness: "COMPLETE",
			Specificity:  "HIGH",
			Confidence:   0.95,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(b Backend, opts ...Option) *Controller {
	return New(b, testLogger(), GenSettings{Quality: "balanced", Specificity: "간결"}, opts...)
}

func TestSendFirstTurnAsksQuestions(t *testing.T) {
	// Even a complete intent opens a clarification round on the very first
	// turn.
	b := &fakeBackend{
		intent: completeIntent(),
		questions: []api.Question{
			{Text: "q1"},
			{Text: "q2", Options: []string{"a", "b"}},
		},
		result: &api.GenerateResult{Response: "answer", PromptHistoryID: "ph-1"},
	}
	c := newController(b)

	turn, err := c.Send(context.Background(), "write a crawler")
	require.NoError(t, err)
	require.Equal(t, TurnQuestions, turn.Kind)
	assert.Equal(t, "q1", turn.Question.Text)
	assert.Equal(t, 2, turn.Total)
	assert.Equal(t, 0, b.generateCalls)
	assert.Equal(t, "sess-1", c.SessionID())

	turn, err = c.Answer(context.Background(), "Python")
	require.NoError(t, err)
	require.Equal(t, TurnQuestions, turn.Kind)
	assert.Equal(t, "q2", turn.Question.Text)

	turn, err = c.Answer(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, TurnGenerated, turn.Kind)
	assert.Equal(t, "answer", turn.Result.Response)
	assert.Equal(t, 1, b.generateCalls)
	assert.Equal(t, []string{"q1=Python", "q2=a"}, b.answers)
}

func TestSendCompleteIntentSkipsQuestionsAfterFirstTurn(t *testing.T) {
	b := &fakeBackend{
		intent: completeIntent(),
		result: &api.GenerateResult{Response: "r1"},
	}
	c := newController(b)

	// First turn always consults the question endpoint; no questions come
	// back, so it generates straight away.
	turn, err := c.Send(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, TurnGenerated, turn.Kind)
	assert.Equal(t, 1, b.questionCalls)
	assert.Equal(t, 1, b.generateCalls)

	// Second turn with a complete, confident intent skips clarification.
	turn, err = c.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, TurnGenerated, turn.Kind)
	assert.Equal(t, 1, b.questionCalls)
	assert.Equal(t, 2, b.generateCalls)
}

func TestClarificationTriggers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*api.IntentResult)
	}{
		{"backend flag", func(r *api.IntentResult) { r.NeedsClarification = true }},
		{"incomplete", func(r *api.IntentResult) { r.Intent.Completeness = "PARTIAL" }},
		{"unspecific", func(r *api.IntentResult) { r.Intent.Specificity = "MEDIUM" }},
		{"low confidence", func(r *api.IntentResult) { r.Intent.Confidence = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := completeIntent()
			tt.mutate(intent)
			b := &fakeBackend{
				intent: intent,
				result: &api.GenerateResult{Response: "r"},
			}
			c := newController(b)

			// Burn the first turn so only the mutated field triggers.
			_, err := c.Send(context.Background(), "warmup")
			require.NoError(t, err)
			calls := b.questionCalls

			_, err = c.Send(context.Background(), "follow-up")
			require.NoError(t, err)
			assert.Equal(t, calls+1, b.questionCalls, "expected a clarification attempt")
		})
	}
}

func TestQuestionFetchFailureDegradesToGenerate(t *testing.T) {
	b := &fakeBackend{
		intent:      completeIntent(),
		questionErr: errors.New("boom"),
		result:      &api.GenerateResult{Response: "still works"},
	}
	c := newController(b)

	turn, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, TurnGenerated, turn.Kind)
	assert.Equal(t, "still works", turn.Result.Response)
	assert.Equal(t, 1, b.generateCalls)
}

func TestAnswerEmptyUsesDefaultOrSkips(t *testing.T) {
	b := &fakeBackend{
		intent: completeIntent(),
		questions: []api.Question{
			{Text: "with default", Default: "간결"},
			{Text: "no default"},
		},
		result: &api.GenerateResult{Response: "done"},
	}
	c := newController(b)

	_, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)

	_, err = c.Answer(context.Background(), "")
	require.NoError(t, err)
	turn, err := c.Answer(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, TurnGenerated, turn.Kind)
	// The defaulted answer was submitted; the skipped one was not.
	assert.Equal(t, []string{"with default=간결"}, b.answers)
}

func TestSessionIDPersistedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := session.NewStore(path)

	b := &fakeBackend{intent: completeIntent(), result: &api.GenerateResult{Response: "r"}}
	c := newController(b, WithStore(store))

	_, err := c.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", session.NewStore(path).SessionID())

	// A fresh controller adopts the persisted session.
	c2 := newController(b, WithStore(session.NewStore(path)))
	assert.Equal(t, "sess-1", c2.SessionID())
}

func TestResetDiscardsInFlightTurn(t *testing.T) {
	b := &fakeBackend{intent: completeIntent(), result: &api.GenerateResult{Response: "r"}}
	c := newController(b)
	b.onParse = func() { c.Reset() }

	_, err := c.Send(context.Background(), "hello")
	require.ErrorIs(t, err, ErrStale)
	assert.Equal(t, 0, b.generateCalls, "stale turn must not generate")
	assert.Empty(t, c.History())
}

func TestAuthenticatedConversationLifecycle(t *testing.T) {
	long := strings.Repeat("x", 60)

	b := &fakeBackend{intent: completeIntent(), result: &api.GenerateResult{
		Response:        "resp",
		PromptHistoryID: "ph-9",
		ModelUsed:       "gpt-test",
	}}
	c := newController(b, WithAuthenticated(true))

	_, err := c.Send(context.Background(), long)
	require.NoError(t, err)

	wantTitle := long[:50] + "..."
	require.Equal(t, []string{wantTitle}, b.created)
	assert.Equal(t, "conv-1", c.ConversationID())
	assert.Equal(t, []string{wantTitle}, b.renamed)
	assert.Equal(t, []string{"user:" + long, "assistant:resp"}, b.messages)

	// Later turns append to the same conversation without renaming again.
	_, err = c.Send(context.Background(), "more")
	require.NoError(t, err)
	assert.Len(t, b.created, 1)
	assert.Len(t, b.renamed, 1)
	assert.Equal(t, "user:more", b.messages[2])
}

func TestAnonymousSessionSkipsConversation(t *testing.T) {
	b := &fakeBackend{intent: completeIntent(), result: &api.GenerateResult{Response: "r"}}
	c := newController(b)

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, b.created)
	assert.Empty(t, b.messages)
	assert.Empty(t, c.ConversationID())
}

func TestFeedbackTargetsLastGeneration(t *testing.T) {
	b := &fakeBackend{intent: completeIntent(), result: &api.GenerateResult{
		Response:        "r",
		PromptHistoryID: "ph-42",
	}}
	c := newController(b)

	require.Error(t, c.Feedback(context.Background(), "great", api.SentimentPositive),
		"feedback before any turn must fail")

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)

	require.NoError(t, c.Feedback(context.Background(), "great", api.SentimentPositive))
	assert.Equal(t, []string{"positive:ph-42"}, b.feedbacks)
}

func TestTitleFor(t *testing.T) {
	assert.Equal(t, "short", TitleFor("short"))

	long := "가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라마바사아자차카타파하가나다라마바사아자차"
	got := TitleFor(long + "추가")
	assert.Equal(t, 53, len([]rune(got)))
	assert.Equal(t, "...", got[len(got)-3:])
}
