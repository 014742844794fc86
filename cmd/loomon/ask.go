package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/cobra"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/flow"
	"github.com/loomonai/loomon/internal/render"
)

var askCmd = &cobra.Command{
	Use:   "ask <message...>",
	Short: "Ask the assistant a question",
	Long: `Ask the assistant a question and print the response.

Clarifying questions, when the backend has any, are asked on stdin before
the response is generated. Answer with the option number, free text, or an
empty line to accept the default / skip.

Examples:
  loomon ask "파이썬으로 웹 크롤러 만들기"
  loomon ask --internet "latest Go release changes"
  loomon ask --attach report.pdf "summarize this document"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		if attach, _ := cmd.Flags().GetString("attach"); attach != "" {
			text, err := extractAttachment(attach)
			if err != nil {
				return err
			}
			message = fmt.Sprintf("%s\n\n[첨부: %s]\n%s", message, filepath.Base(attach), text)
		}

		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if newSession, _ := cmd.Flags().GetBool("new"); newSession {
			sess.controller.Reset()
		}
		applyGenFlags(cmd, sess.controller)

		turn, err := sess.controller.Send(cmd.Context(), message)
		if err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)
		for turn.Kind == flow.TurnQuestions {
			fmt.Fprintln(os.Stderr, render.QuestionCard(*turn.Question, turn.Index, turn.Total))
			answer, err := readAnswer(reader, turn.Question)
			if err != nil {
				return err
			}
			turn, err = sess.controller.Answer(cmd.Context(), answer)
			if err != nil {
				return err
			}
		}

		printResponse(turn.Result, sess.controller.Settings())
		return nil
	},
}

// readAnswer collects one clarification answer. A numeric reply picks the
// matching option; an empty reply accepts the default or skips.
func readAnswer(reader *bufio.Reader, q *api.Question) (string, error) {
	fmt.Fprint(os.Stderr, "> ")
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.TrimSpace(line)

	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1], nil
	}
	return answer, nil
}

func printResponse(result *api.GenerateResult, settings flow.GenSettings) {
	fmt.Println(render.FormatANSI(result.Response))

	if refs := render.References(result.References); refs != "" {
		fmt.Println()
		fmt.Println(refs)
	}

	info := fmt.Sprintf("모델: %s | 토큰: %d", result.ModelUsed, result.TokensUsed)
	if settings.InternetMode {
		info += " | 🌐 인터넷 검색 사용"
	}
	info += " | 구체성: " + settings.Specificity
	fmt.Fprintln(os.Stderr, colorize(colorCyan, info))
}

// applyGenFlags overlays command-line generation flags on the configured
// defaults.
func applyGenFlags(cmd *cobra.Command, c *flow.Controller) {
	settings := c.Settings()
	if cmd.Flags().Changed("quality") {
		settings.Quality, _ = cmd.Flags().GetString("quality")
	}
	if cmd.Flags().Changed("specificity") {
		settings.Specificity, _ = cmd.Flags().GetString("specificity")
	}
	if cmd.Flags().Changed("internet") {
		settings.InternetMode, _ = cmd.Flags().GetBool("internet")
	}
	if cmd.Flags().Changed("model") {
		settings.Model, _ = cmd.Flags().GetString("model")
	}
	c.UpdateSettings(settings)
}

// extractAttachment reads an attachment into prompt text. PDF files are
// extracted page by page; anything else is read as plain text.
func extractAttachment(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, r, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening pdf %s: %w", path, err)
		}
		defer f.Close()

		plain, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("extracting pdf text: %w", err)
		}
		data, err := io.ReadAll(plain)
		if err != nil {
			return "", fmt.Errorf("reading pdf text: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading attachment: %w", err)
	}
	return string(data), nil
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <text...>",
	Short: "Attach feedback to the most recent response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		sentiment, _ := cmd.Flags().GetString("sentiment")
		switch sentiment {
		case api.SentimentPositive, api.SentimentNeutral, api.SentimentNegative:
		default:
			return fmt.Errorf("invalid sentiment %q (positive, neutral, negative)", sentiment)
		}

		if err := sess.controller.Feedback(cmd.Context(), strings.Join(args, " "), sentiment); err != nil {
			return err
		}
		printSuccess("Feedback recorded")
		return nil
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal <text...>",
	Short: "State a goal for the session",
	Long: `State a goal for the session. The goal seeds the backend's context for
subsequent prompts and is remembered across runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")

		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		// The goal rides through an intent parse so a session exists even
		// before the first real question.
		sessionID := sess.controller.SessionID()
		if sessionID == "" {
			intent, err := sess.client.ParseIntent(cmd.Context(), "목표: "+goal, "", nil)
			if err != nil {
				return err
			}
			sessionID = intent.SessionID
			if err := sess.store.SetSessionID(sessionID); err != nil {
				printWarning("Could not persist session: %v", err)
			}
		}
		if sessionID != "" {
			if err := sess.client.SetGoal(cmd.Context(), sessionID, goal); err != nil {
				return err
			}
		}
		if err := sess.store.SetGoal(goal); err != nil {
			return err
		}
		if err := sess.store.MarkOnboardingSeen(); err != nil {
			return err
		}
		printSuccess("Goal saved")
		return nil
	},
}

func init() {
	askCmd.Flags().String("attach", "", "attach a file (PDF or plain text) to the message")
	askCmd.Flags().Bool("new", false, "start a fresh conversation")
	askCmd.Flags().String("quality", "", "generation quality: low, balanced, high")
	askCmd.Flags().String("specificity", "", "response specificity level")
	askCmd.Flags().Bool("internet", false, "enable internet search with references")
	askCmd.Flags().String("model", "", "preferred model")
	feedbackCmd.Flags().String("sentiment", api.SentimentNeutral, "positive, neutral, or negative")
}
