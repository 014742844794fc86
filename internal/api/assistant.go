package api

import (
	"context"
	"time"
)

// Quality levels accepted by the generate endpoint.
const (
	QualityLow      = "low"
	QualityBalanced = "balanced"
	QualityHigh     = "high"
)

// Specificity levels accepted by the generate endpoint. The wire values are
// the backend's Korean labels; these constants keep call sites readable.
const (
	SpecificityShortest = "짧음"
	SpecificityConcise  = "간결"
	SpecificityNormal   = "보통"
	SpecificityDetailed = "구체적"
	SpecificityMaximal  = "매우 구체적"
)

// Sentiment values accepted by the feedback endpoint.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// HistoryEntry is one turn of prior conversation sent with an intent parse.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the backend's classification of a user input.
type Intent struct {
	ID              string   `json:"id"`
	CognitiveGoal   string   `json:"cognitive_goal"`
	Specificity     string   `json:"specificity"`  // LOW | MEDIUM | HIGH
	Completeness    string   `json:"completeness"` // INCOMPLETE | PARTIAL | COMPLETE
	PrimaryEntities []string `json:"primary_entities"`
	Constraints     []string `json:"constraints"`
	Confidence      float64  `json:"confidence"`
}

// IntentResult is the response of an intent parse: the classification, the
// (possibly new) session id, and the backend's own clarification flag.
type IntentResult struct {
	SessionID          string `json:"session_id"`
	Intent             Intent `json:"intent"`
	NeedsClarification bool   `json:"needs_clarification"`
}

type parseIntentRequest struct {
	UserInput string         `json:"user_input"`
	SessionID string         `json:"session_id,omitempty"`
	History   []HistoryEntry `json:"history"`
}

// ParseIntent classifies raw user input. An empty sessionID asks the
// backend to open a new session; the returned session id must be used for
// every subsequent call in the turn.
func (c *Client) ParseIntent(ctx context.Context, userInput, sessionID string, history []HistoryEntry) (*IntentResult, error) {
	if history == nil {
		history = []HistoryEntry{}
	}
	var out IntentResult
	err := c.post(ctx, "/intent/parse/", parseIntentRequest{
		UserInput: userInput,
		SessionID: sessionID,
		History:   history,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Question is a clarifying question supplied by the backend.
type Question struct {
	Text      string   `json:"text"`
	Priority  int      `json:"priority"`
	Rationale string   `json:"rationale"`
	Options   []string `json:"options,omitempty"`
	Default   string   `json:"default,omitempty"`
}

type questionsRequest struct {
	SessionID string `json:"session_id"`
	IntentID  string `json:"intent_id,omitempty"`
}

// Questions fetches the pending clarifying questions for a session.
func (c *Client) Questions(ctx context.Context, sessionID, intentID string) ([]Question, error) {
	var out struct {
		SessionID string     `json:"session_id"`
		Questions []Question `json:"questions"`
	}
	if err := c.post(ctx, "/context/questions/", questionsRequest{SessionID: sessionID, IntentID: intentID}, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

type answerRequest struct {
	SessionID    string `json:"session_id"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
}

// AnswerQuestion submits the answer to one clarifying question.
func (c *Client) AnswerQuestion(ctx context.Context, sessionID, questionText, answer string) error {
	return c.post(ctx, "/context/answer/", answerRequest{
		SessionID:    sessionID,
		QuestionText: questionText,
		Answer:       answer,
	}, nil)
}

type synthesizeRequest struct {
	SessionID    string `json:"session_id"`
	UserInput    string `json:"user_input,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// SynthesizedPrompt is the backend's assembled prompt for a session.
type SynthesizedPrompt struct {
	SessionID         string `json:"session_id"`
	SynthesizedPrompt string `json:"synthesized_prompt"`
	EstimatedTokens   int    `json:"estimated_tokens"`
}

// SynthesizePrompt asks the backend to assemble the optimized prompt from
// the session's accumulated context.
func (c *Client) SynthesizePrompt(ctx context.Context, sessionID, userInput, outputFormat string) (*SynthesizedPrompt, error) {
	var out SynthesizedPrompt
	err := c.post(ctx, "/prompt/synthesize/", synthesizeRequest{
		SessionID:    sessionID,
		UserInput:    userInput,
		OutputFormat: outputFormat,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Reference is one web citation attached to an internet-mode response.
type Reference struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"relevance_score,omitempty"`
}

// GenerateOptions tunes a generate call. Zero values are omitted from the
// request so backend defaults apply.
type GenerateOptions struct {
	Quality          string   `json:"quality,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
	UserInput        string   `json:"user_input,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxTokens        int      `json:"max_tokens,omitempty"`
	InternetMode     bool     `json:"internet_mode"`
	SpecificityLevel string   `json:"specificity_level,omitempty"`
	PreferredModel   string   `json:"preferred_model,omitempty"`
}

type generateRequest struct {
	SessionID string `json:"session_id"`
	GenerateOptions
}

// GenerateResult is a completed generation: the response text, citation
// list, and the usage metadata needed to attach feedback later.
type GenerateResult struct {
	SessionID       string      `json:"session_id"`
	PromptHistoryID string      `json:"prompt_history_id"`
	ModelUsed       string      `json:"model_used"`
	Provider        string      `json:"provider"`
	Response        string      `json:"response"`
	TokensUsed      int         `json:"tokens_used"`
	QualityLevel    string      `json:"quality_level"`
	References      []Reference `json:"references"`
}

// Generate produces the assistant response for a session.
func (c *Client) Generate(ctx context.Context, sessionID string, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Quality == "" {
		opts.Quality = QualityBalanced
	}
	var out GenerateResult
	if err := c.post(ctx, "/llm/generate/", generateRequest{SessionID: sessionID, GenerateOptions: opts}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type feedbackRequest struct {
	SessionID       string `json:"session_id"`
	FeedbackText    string `json:"feedback_text"`
	Sentiment       string `json:"sentiment"`
	PromptHistoryID string `json:"prompt_history_id,omitempty"`
}

// SubmitFeedback attaches feedback to a session, optionally targeting one
// generation by its prompt-history id.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID, feedbackText, sentiment, promptHistoryID string) error {
	if sentiment == "" {
		sentiment = SentimentNeutral
	}
	return c.post(ctx, "/feedback/", feedbackRequest{
		SessionID:       sessionID,
		FeedbackText:    feedbackText,
		Sentiment:       sentiment,
		PromptHistoryID: promptHistoryID,
	}, nil)
}

// Session is the backend's accumulated context for one session.
type Session struct {
	ID              string         `json:"id"`
	Role            string         `json:"role"`
	Task            string         `json:"task"`
	Context         map[string]any `json:"context"`
	Constraints     []string       `json:"constraints"`
	UserPreferences map[string]any `json:"user_preferences"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// GetSession fetches a session's stored context.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	if err := c.get(ctx, "/sessions/"+sessionID+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionSummary is the aggregate view of a session.
type SessionSummary struct {
	SessionID          string         `json:"session_id"`
	Role               string         `json:"role"`
	Task               string         `json:"task"`
	ContextSize        int            `json:"context_size"`
	ConstraintsCount   int            `json:"constraints_count"`
	IntentsCount       int            `json:"intents_count"`
	PromptHistoryCount int            `json:"prompt_history_count"`
	FeedbacksCount     int            `json:"feedbacks_count"`
	UserPreferences    map[string]any `json:"user_preferences"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// GetSessionSummary fetches the aggregate summary for a session.
func (c *Client) GetSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	var out SessionSummary
	if err := c.get(ctx, "/sessions/"+sessionID+"/summary/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetGoal records the user's stated goal on a session.
func (c *Client) SetGoal(ctx context.Context, sessionID, goal string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/set_goal/", map[string]string{"goal": goal}, nil)
}

// PromptHistoryEntry is one stored generation for a session.
type PromptHistoryEntry struct {
	ID                string    `json:"id"`
	OriginalPrompt    string    `json:"original_prompt"`
	SynthesizedPrompt string    `json:"synthesized_prompt"`
	ModelUsed         string    `json:"model_used"`
	Provider          string    `json:"provider"`
	Response          string    `json:"response"`
	TokensUsed        int       `json:"tokens_used"`
	QualityLevel      string    `json:"quality_level"`
	CreatedAt         time.Time `json:"created_at"`
}

// PromptHistory lists the stored generations for a session.
func (c *Client) PromptHistory(ctx context.Context, sessionID string) ([]PromptHistoryEntry, error) {
	var out listEnvelope[PromptHistoryEntry]
	if err := c.get(ctx, "/prompt-history/?session_id="+sessionID, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
