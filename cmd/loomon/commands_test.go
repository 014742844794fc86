package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/flow"
)

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestReadAnswer(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	q := &api.Question{
		Text:    "언어는?",
		Options: []string{"Python", "Go", "Rust"},
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"numeric picks option", "2\n", "Go"},
		{"out of range kept verbatim", "9\n", "9"},
		{"free text", "Zig\n", "Zig"},
		{"empty line", "\n", ""},
		{"whitespace trimmed", "  1  \n", "Python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			got, err := readAnswer(reader, q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractAttachment_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello attachment"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := extractAttachment(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello attachment" {
		t.Errorf("text = %q, want %q", text, "hello attachment")
	}
}

func TestExtractAttachment_Missing(t *testing.T) {
	_, err := extractAttachment(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPaymentStatusLabel(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	tests := []struct {
		status string
		want   string
	}{
		{"pending", "입금 대기"},
		{"deposit_confirmed", "입금 확인 중"},
		{"approved", "승인됨"},
		{"rejected", "거절됨"},
		{"weird", "weird"},
	}
	for _, tt := range tests {
		if got := paymentStatusLabel(tt.status); got != tt.want {
			t.Errorf("paymentStatusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestActiveLabel(t *testing.T) {
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	if got := activeLabel(true); got != "활성" {
		t.Errorf("activeLabel(true) = %q, want 활성", got)
	}
	if got := activeLabel(false); got != "비활성" {
		t.Errorf("activeLabel(false) = %q, want 비활성", got)
	}
}

func TestFormatQuestion(t *testing.T) {
	m := chatModel{selectedOption: 1}
	turn := &flow.Turn{
		Kind:  flow.TurnQuestions,
		Index: 0,
		Total: 3,
		Question: &api.Question{
			Text:      "어떤 프레임워크를 쓰시나요?",
			Rationale: "생성 정확도를 높입니다",
			Options:   []string{"Django", "FastAPI"},
			Default:   "Django",
		},
	}

	out := m.formatQuestion(turn)
	if !strings.Contains(out, "질문 1/3") {
		t.Errorf("missing question counter in %q", out)
	}
	if !strings.Contains(out, "💡 생성 정확도를 높입니다") {
		t.Errorf("missing rationale in %q", out)
	}
	if !strings.Contains(out, "→ **2. FastAPI**") {
		t.Errorf("selected option not highlighted in %q", out)
	}
	if !strings.Contains(out, "기본값: Django") {
		t.Errorf("missing default hint in %q", out)
	}
}

func TestFormatQuestion_CounterStartsAtOne(t *testing.T) {
	m := chatModel{}
	turn := &flow.Turn{
		Kind:     flow.TurnQuestions,
		Index:    1,
		Total:    2,
		Question: &api.Question{Text: "범위는?"},
	}

	if out := m.formatQuestion(turn); !strings.Contains(out, "질문 2/2") {
		t.Errorf("second question should show 질문 2/2, got %q", out)
	}
}

func TestChatUpdate_StaleTurnDiscarded(t *testing.T) {
	m := chatModel{isLoading: true}

	next, _ := m.Update(errorMsg(fmt.Errorf("sending message: %w", flow.ErrStale)))
	got := next.(chatModel)
	if got.err != nil {
		t.Errorf("stale turn must be dropped silently, got error %v", got.err)
	}
	if got.isLoading {
		t.Error("loading indicator should stop after a stale turn")
	}

	next, _ = m.Update(errorMsg(errors.New("backend down")))
	got = next.(chatModel)
	if got.err == nil {
		t.Error("real errors must stay visible")
	}
}

func TestSafeRenderMarkdown_NilRenderer(t *testing.T) {
	m := chatModel{}
	content := "plain **bold** text"
	if got := m.safeRenderMarkdown(content); got != content {
		t.Errorf("nil renderer should pass content through, got %q", got)
	}
}

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  interface {
			ValidateArgs([]string) error
		}
		args    []string
		wantErr bool
	}{
		{"ask requires a message", askCmd, nil, true},
		{"ask accepts words", askCmd, []string{"hello", "world"}, false},
		{"rename requires id and title", conversationsRenameCmd, []string{"id-only"}, true},
		{"export takes one id", exportCmd, []string{"a", "b"}, true},
		{"subscription change takes one plan", subscriptionChangeCmd, []string{"pro"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.ValidateArgs(tt.args)
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
