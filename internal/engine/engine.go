// File path: internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/common/telemetry"
	"github.com/causewaylabs/causeway/internal/index"
	"github.com/causewaylabs/causeway/internal/llm"
)

// State names the step a query last reached. Every chat terminates in
// CANDIDATES_EMPTY, ANSWERED, or GENERATION_FAILED.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateRouted           State = "ROUTED"
	StateCandidatesEmpty  State = "CANDIDATES_EMPTY"
	StateAssembled        State = "ASSEMBLED"
	StateGenerating       State = "GENERATING"
	StateAnswered         State = "ANSWERED"
	StateGenerationFailed State = "GENERATION_FAILED"
)

const defaultGenerationTimeout = 35 * time.Second

// Engine answers questions about the corpus: it routes a query to a retrieval
// path, assembles grounded context, and hands the prompt to the provider.
type Engine struct {
	index    *index.Manager
	provider llm.Provider
	timeout  time.Duration
}

// Options tunes engine behavior; zero values fall back to defaults.
type Options struct {
	GenerationTimeout time.Duration
}

func New(mgr *index.Manager, provider llm.Provider, opts Options) *Engine {
	timeout := opts.GenerationTimeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &Engine{index: mgr, provider: provider, timeout: timeout}
}

// ChatRequest is one user question. Hint optionally widens or narrows the
// similarity retrieval; the conversation token is passed through untouched
// and minted when absent.
type ChatRequest struct {
	Query             string
	ConversationToken string
	Hint              int
}

// ChatResult is the structured answer. Field names follow the public wire
// format of the chat endpoint.
type ChatResult struct {
	Answer            string   `json:"response"`
	Sources           []Source `json:"sources"`
	ConversationToken string   `json:"conversation_id"`
	Query             string   `json:"query"`
	RetrievedCount    int      `json:"retrieved_count"`
	State             State    `json:"-"`
}

// Chat runs the per-query state machine. Failures degrade to well-formed
// answers; the error return is reserved for programming errors, so callers
// can treat every result as servable.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	logger := common.Logger()
	query := strings.TrimSpace(req.Query)
	token := strings.TrimSpace(req.ConversationToken)
	if token == "" {
		token = uuid.NewString()
	}
	result := ChatResult{
		ConversationToken: token,
		Query:             query,
		Sources:           []Source{},
		State:             StateReceived,
	}

	route := e.route(query, req.Hint)
	result.State = StateRouted
	telemetry.RecordQuery(string(route.Mode))
	logger.Debug("engine: query routed", "mode", route.Mode, "candidates", len(route.Candidates))

	if len(route.Candidates) == 0 {
		result.State = StateCandidatesEmpty
		result.Answer = noInformationAnswer
		return result, nil
	}

	contextText := AssembleContext(route.Candidates)
	result.Sources = AssembleSources(route.Candidates)
	result.RetrievedCount = len(route.Candidates)
	result.State = StateAssembled

	result.State = StateGenerating
	started := time.Now()
	answer, err := e.generate(ctx, query, contextText)
	telemetry.RecordGeneration(err != nil, time.Since(started))
	if err != nil {
		logger.Warn("engine: generation failed, serving degraded answer", "mode", route.Mode, "error", err)
		result.State = StateGenerationFailed
		result.Answer = degradedAnswer
		return result, nil
	}

	result.State = StateAnswered
	result.Answer = answer
	return result, nil
}

// generate calls the provider on its own goroutine under a detached timer:
// an abandoned caller cannot cancel the call mid-flight, and no call ever
// outlives the bound.
func (e *Engine) generate(ctx context.Context, query, contextText string) (string, error) {
	if e.provider == nil {
		return "", llm.ErrUnavailable
	}
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := e.provider.Generate(genCtx, systemPrompt, userPrompt(query, contextText), llm.DefaultMaxTokens)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-genCtx.Done():
		return "", fmt.Errorf("%w: %v", llm.ErrTimeout, genCtx.Err())
	}
}

// Search exposes raw similarity results for the search endpoint.
func (e *Engine) Search(query string, k int) []index.Result {
	if e == nil {
		return nil
	}
	return e.index.Search(query, k)
}

// Stats summarizes the engine for the system stats endpoint.
type Stats struct {
	Index    index.Status `json:"index"`
	Provider string       `json:"provider"`
	Status   string       `json:"status"`
}

func (e *Engine) Stats() Stats {
	st := e.index.Status()
	status := "no_data"
	if st.Documents > 0 {
		status = "operational"
	}
	provider := ""
	if e.provider != nil {
		provider = e.provider.Name()
	}
	return Stats{Index: st, Provider: provider, Status: status}
}

// Health reports whether the index is serving and the provider answers a
// trivial prompt.
func (e *Engine) Health(ctx context.Context) bool {
	if e == nil || !e.index.Ready() {
		return false
	}
	if e.provider == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := e.provider.Generate(ctx, "", healthPrompt, 200)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(out), "healthy")
}
