// Package answer turns N questions plus retrieved context into N answers
// while minimizing calls to the rate-limited model: one batched call first,
// then paced per-question calls with bounded retries when the batch fails.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"docqa/internal/llm"
	"docqa/internal/models"
)

// ContextProvider supplies the retrieved context for the generation step.
// BatchContext covers all questions at once; QuestionContext is the
// per-question context used on the fallback path.
type ContextProvider interface {
	BatchContext() string
	QuestionContext(i int) string
}

// Backoff computes exponential retry delays.
type Backoff struct {
	Initial time.Duration
	Factor  float64
	Max     time.Duration
}

func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Factor)
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Sleeper waits for d or until ctx is done. Injectable so tests can simulate
// retries without real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config tunes the orchestrator. Zero values get working defaults.
type Config struct {
	MaxRetries    int           // retries per question on the fallback path
	Backoff       Backoff       // retry delays for retryable errors
	QuestionDelay time.Duration // spacing between fallback calls
	Sleep         Sleeper
}

// Orchestrator owns the batch-then-fallback state machine for one request.
// Retry state never outlives a call to Answer.
type Orchestrator struct {
	client  llm.Client
	retries int
	backoff Backoff
	pacer   *rate.Limiter
	sleep   Sleeper
}

func New(client llm.Client, cfg Config) *Orchestrator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = Backoff{Initial: time.Second, Factor: 2, Max: 10 * time.Second}
	}
	if cfg.QuestionDelay <= 0 {
		cfg.QuestionDelay = 3 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = defaultSleep
	}
	return &Orchestrator{
		client:  client,
		retries: cfg.MaxRetries,
		backoff: cfg.Backoff,
		pacer:   rate.NewLimiter(rate.Every(cfg.QuestionDelay), 1),
		sleep:   cfg.Sleep,
	}
}

// Answer produces exactly one answer per question, in input order. Questions
// whose generation fails carry models.AnswerUnavailable instead of being
// dropped; one failing question never aborts its siblings.
func (o *Orchestrator) Answer(ctx context.Context, questions []string, contexts ContextProvider) []models.QuestionAnswer {
	if len(questions) == 0 {
		return nil
	}

	answers := make([]models.QuestionAnswer, len(questions))
	for i, q := range questions {
		answers[i] = models.QuestionAnswer{Question: q, Answer: models.AnswerUnavailable}
	}

	if texts, ok := o.tryBatch(ctx, questions, contexts.BatchContext()); ok {
		for i := range answers {
			answers[i].Answer = texts[i]
		}
		return answers
	}

	log.Warn().Int("questions", len(questions)).Msg("batch generation failed, falling back to per-question calls")

	for i, q := range questions {
		// cooperative early exit: remaining questions keep the marked
		// answer once cancellation is observed
		if err := o.pacer.Wait(ctx); err != nil {
			log.Warn().Err(err).Int("question", i).Msg("cancelled before question call")
			break
		}
		text, err := o.askOne(ctx, q, contexts.QuestionContext(i))
		if err != nil {
			log.Error().Err(err).Int("question", i).Msg("question generation failed")
			continue
		}
		answers[i].Answer = text
	}
	return answers
}

// tryBatch issues the single batched call and parses it. Any failure
// (transport, rate limit, or parse) sends the caller to the fallback path.
func (o *Orchestrator) tryBatch(ctx context.Context, questions []string, batchContext string) ([]string, bool) {
	var labeled strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&labeled, "Q%d: %s\n", i+1, q)
	}
	prompt := fmt.Sprintf(models.BatchPromptTemplate, batchContext, labeled.String())

	resp, err := o.client.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("batch completion failed")
		return nil, false
	}

	texts, ok := parseBatch(resp, len(questions))
	if !ok {
		log.Warn().Int("expected", len(questions)).Msg("batch response did not parse into labeled answers")
	}
	return texts, ok
}

var answerLabelRe = regexp.MustCompile(`^\s*A(\d+)\s*[:.)\-]\s*(.*)$`)

// parseBatch splits a batched completion into exactly n labeled answers.
// Unlabeled lines continue the previous answer. Missing or empty segments
// fail the whole parse.
func parseBatch(text string, n int) ([]string, bool) {
	answers := make([]string, n+1)
	current := 0
	for _, line := range strings.Split(text, "\n") {
		if m := answerLabelRe.FindStringSubmatch(line); m != nil {
			idx, _ := strconv.Atoi(m[1])
			if idx < 1 || idx > n {
				current = 0
				continue
			}
			current = idx
			answers[current] = strings.TrimSpace(m[2])
			continue
		}
		if current != 0 && strings.TrimSpace(line) != "" {
			answers[current] = strings.TrimSpace(answers[current] + " " + strings.TrimSpace(line))
		}
	}

	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if strings.TrimSpace(answers[i]) == "" {
			return nil, false
		}
		out = append(out, strings.TrimSpace(answers[i]))
	}
	return out, true
}

// askOne runs one question with bounded retries. Only rate-limit and
// transient failures are retried; fatal errors mark the question
// immediately.
func (o *Orchestrator) askOne(ctx context.Context, question, questionContext string) (string, error) {
	prompt := fmt.Sprintf(models.SinglePromptTemplate, questionContext, question)

	var lastErr error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, o.backoff.Delay(attempt-1)); err != nil {
				return "", err
			}
		}
		text, err := o.client.Complete(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		lastErr = err
		if !llm.Retryable(err) {
			return "", err
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("retryable model failure")
	}
	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}
