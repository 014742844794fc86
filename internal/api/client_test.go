package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockBackend returns an httptest.Server and a Client pointed at it.
func mockBackend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithCredentials(StaticCredentials("test-token")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestCSRFHeaderOnMutations(t *testing.T) {
	var gotToken string
	var gotMethod string
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-CSRFToken")
		gotMethod = r.Method
		writeJSON(w, http.StatusOK, `{}`)
	})

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotToken != "test-token" {
		t.Errorf("X-CSRFToken = %q, want %q", gotToken, "test-token")
	}

	_, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if gotToken != "" {
		t.Errorf("X-CSRFToken on GET = %q, want empty", gotToken)
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		ct     string
		body   string
		want   string
		unauth bool
	}{
		{
			name:   "error key",
			status: http.StatusBadRequest,
			ct:     "application/json",
			body:   `{"error": "invalid session"}`,
			want:   "invalid session",
		},
		{
			name:   "detail key",
			status: http.StatusNotFound,
			ct:     "application/json",
			body:   `{"detail": "Not found."}`,
			want:   "Not found.",
		},
		{
			name:   "message key",
			status: http.StatusBadRequest,
			ct:     "application/json",
			body:   `{"message": "something went wrong"}`,
			want:   "something went wrong",
		},
		{
			name:   "non_field_errors wins over message",
			status: http.StatusBadRequest,
			ct:     "application/json",
			body:   `{"message": "ignored", "non_field_errors": ["Unable to log in with provided credentials."]}`,
			want:   "Unable to log in with provided credentials.",
		},
		{
			name:   "field errors",
			status: http.StatusBadRequest,
			ct:     "application/json",
			body:   `{"username": ["This field is required."], "email": ["Enter a valid email address."]}`,
			want:   "HTTP 400 (email: Enter a valid email address.; username: This field is required.)",
		},
		{
			name:   "non-JSON body",
			status: http.StatusBadGateway,
			ct:     "text/html",
			body:   "<html>\n<body>Bad Gateway</body>\n</html>",
			want:   "server error: <html>",
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			ct:     "application/json",
			body:   `{"detail": "Authentication credentials were not provided."}`,
			want:   "Authentication credentials were not provided.",
			unauth: true,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			ct:     "application/json",
			body:   `{"detail": "CSRF Failed"}`,
			want:   "CSRF Failed",
			unauth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.ct)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Conversation(context.Background(), "c1")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if got := errors.Is(err, ErrUnauthorized); got != tt.unauth {
				t.Errorf("errors.Is(ErrUnauthorized) = %v, want %v", got, tt.unauth)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is not *Error: %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

func TestNonJSONSuccessRejected(t *testing.T) {
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>login page</html>")
	})

	_, err := c.Conversations(context.Background())
	if err == nil {
		t.Fatal("expected error for non-JSON 200, got nil")
	}
	want := "server returned non-JSON response: <html>login page</html>"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestMeAnonymous(t *testing.T) {
	t.Run("401 response", func(t *testing.T) {
		_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"detail": "not logged in"}`)
		})
		u, err := c.Me(context.Background())
		if err != nil {
			t.Fatalf("Me: %v", err)
		}
		if u != nil {
			t.Errorf("user = %+v, want nil", u)
		}
	})

	t.Run("message-only 200", func(t *testing.T) {
		_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"message": "anonymous session"}`)
		})
		u, err := c.Me(context.Background())
		if err != nil {
			t.Fatalf("Me: %v", err)
		}
		if u != nil {
			t.Errorf("user = %+v, want nil", u)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"id": "u1", "username": "kim", "email": "kim@example.com"}`)
		})
		u, err := c.Me(context.Background())
		if err != nil {
			t.Fatalf("Me: %v", err)
		}
		if u == nil || u.Username != "kim" {
			t.Errorf("user = %+v, want username=kim", u)
		}
	})
}

func TestListEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id": "c1", "title": "first"}, {"id": "c2", "title": "second"}]`},
		{"paginated", `{"count": 2, "results": [{"id": "c1", "title": "first"}, {"id": "c2", "title": "second"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			convs, err := c.Conversations(context.Background())
			if err != nil {
				t.Fatalf("Conversations: %v", err)
			}
			if len(convs) != 2 {
				t.Fatalf("len = %d, want 2", len(convs))
			}
			if convs[0].ID != "c1" || convs[1].Title != "second" {
				t.Errorf("conversations = %+v", convs)
			}
		})
	}
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	var sawCookie bool
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login/":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s3cret", Path: "/"})
			writeJSON(w, http.StatusOK, `{"user": {"id": "u1", "username": "kim"}}`)
		default:
			if ck, err := r.Cookie("sessionid"); err == nil && ck.Value == "s3cret" {
				sawCookie = true
			}
			writeJSON(w, http.StatusOK, `[]`)
		}
	})

	if _, err := c.Login(context.Background(), "kim", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.Conversations(context.Background()); err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if !sawCookie {
		t.Error("session cookie not sent on subsequent request")
	}
}

func TestGenerateDefaults(t *testing.T) {
	var got map[string]any
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, `{"session_id": "s1", "response": "hello", "model_used": "gpt-test"}`)
	})

	res, err := c.Generate(context.Background(), "s1", GenerateOptions{UserInput: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Response != "hello" {
		t.Errorf("response = %q, want %q", res.Response, "hello")
	}
	if got["quality"] != QualityBalanced {
		t.Errorf("quality = %v, want %q", got["quality"], QualityBalanced)
	}
	if got["session_id"] != "s1" {
		t.Errorf("session_id = %v, want s1", got["session_id"])
	}
}

func TestParseIntentSendsEmptyHistory(t *testing.T) {
	var raw map[string]json.RawMessage
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		writeJSON(w, http.StatusOK, `{"session_id": "s9", "intent": {"completeness": "COMPLETE", "specificity": "HIGH", "confidence": 0.95}}`)
	})

	res, err := c.ParseIntent(context.Background(), "write a poem", "", nil)
	if err != nil {
		t.Fatalf("ParseIntent: %v", err)
	}
	if res.SessionID != "s9" {
		t.Errorf("session_id = %q, want s9", res.SessionID)
	}
	if string(raw["history"]) != "[]" {
		t.Errorf("history = %s, want []", raw["history"])
	}
	if _, ok := raw["session_id"]; ok {
		t.Error("empty session_id should be omitted from request")
	}
}

func TestSessionInspection(t *testing.T) {
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions/s1/":
			writeJSON(w, http.StatusOK, `{"id": "s1", "role": "developer", "task": "build a crawler", "constraints": ["python"]}`)
		case "/sessions/s1/summary/":
			writeJSON(w, http.StatusOK, `{"session_id": "s1", "task": "build a crawler", "context_size": 4, "prompt_history_count": 2}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail": "not found"}`)
		}
	})

	sess, err := c.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Task != "build a crawler" {
		t.Errorf("task = %q, want %q", sess.Task, "build a crawler")
	}
	if len(sess.Constraints) != 1 || sess.Constraints[0] != "python" {
		t.Errorf("constraints = %v, want [python]", sess.Constraints)
	}

	summary, err := c.GetSessionSummary(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSessionSummary: %v", err)
	}
	if summary.ContextSize != 4 {
		t.Errorf("context_size = %d, want 4", summary.ContextSize)
	}
	if summary.PromptHistoryCount != 2 {
		t.Errorf("prompt_history_count = %d, want 2", summary.PromptHistoryCount)
	}
}

func TestSynthesizePrompt(t *testing.T) {
	var got map[string]any
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prompt/synthesize/" {
			t.Errorf("path = %q, want /prompt/synthesize/", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, `{"session_id": "s1", "synthesized_prompt": "You are a developer...", "estimated_tokens": 120}`)
	})

	res, err := c.SynthesizePrompt(context.Background(), "s1", "crawler", "markdown")
	if err != nil {
		t.Fatalf("SynthesizePrompt: %v", err)
	}
	if res.SynthesizedPrompt != "You are a developer..." {
		t.Errorf("prompt = %q", res.SynthesizedPrompt)
	}
	if res.EstimatedTokens != 120 {
		t.Errorf("estimated_tokens = %d, want 120", res.EstimatedTokens)
	}
	if got["output_format"] != "markdown" {
		t.Errorf("output_format = %v, want markdown", got["output_format"])
	}
}

func TestPromptHistory(t *testing.T) {
	_, c := mockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("session_id"); got != "s1" {
			t.Errorf("session_id query = %q, want s1", got)
		}
		writeJSON(w, http.StatusOK, `{"results": [{"id": "ph-1", "response": "first"}, {"id": "ph-2", "response": "second"}]}`)
	})

	entries, err := c.PromptHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("PromptHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[1].ID != "ph-2" {
		t.Errorf("entries[1].ID = %q, want ph-2", entries[1].ID)
	}
}
