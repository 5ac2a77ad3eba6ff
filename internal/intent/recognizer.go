package intent

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"superterm/internal/logging"
	"superterm/internal/nlp"
)

// =============================================================================
// RECOGNITION ENGINE
// =============================================================================
// Engine turns free text into an Intent. Construction does all the
// expensive work (pattern compilation, pipeline probe); Recognize itself
// is stateless and safe for concurrent use.

// ForceFallbackEnv disables the NLP pipeline when set to a non-empty
// value, leaving only the regex scorer active. Useful in constrained
// environments and in tests.
const ForceFallbackEnv = "SUPERTERM_FORCE_FALLBACK"

var (
	pipelineOnce sync.Once
	pipelineInst nlp.Pipeline
	// pipelineDown latches true when the pipeline cannot be built or
	// proves unusable at runtime. It is never reset: a session that
	// downgrades stays downgraded.
	pipelineDown atomic.Bool
)

// sharedPipeline builds the process-wide NLP pipeline exactly once.
// Returns nil when the pipeline is disabled or permanently downgraded.
func sharedPipeline() nlp.Pipeline {
	pipelineOnce.Do(func() {
		if os.Getenv(ForceFallbackEnv) != "" {
			logging.Perception("NLP pipeline disabled via %s; using fallback scorer", ForceFallbackEnv)
			pipelineDown.Store(true)
			return
		}
		p, err := nlp.NewProsePipeline()
		if err != nil {
			logging.PerceptionWarn("NLP pipeline unavailable, downgrading to fallback scorer: %v", err)
			pipelineDown.Store(true)
			return
		}
		pipelineInst = p
	})
	if pipelineDown.Load() {
		return nil
	}
	return pipelineInst
}

// Engine recognizes intents from natural-language input.
type Engine struct {
	lib      *Library
	fallback *fallbackScorer

	// pipe overrides the shared pipeline when set via WithPipeline.
	pipe         nlp.Pipeline
	fallbackOnly bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithPipeline substitutes a specific annotation pipeline, bypassing the
// shared one and its downgrade latch.
func WithPipeline(p nlp.Pipeline) Option {
	return func(e *Engine) { e.pipe = p }
}

// WithFallbackOnly disables linguistic matching entirely.
func WithFallbackOnly() Option {
	return func(e *Engine) { e.fallbackOnly = true }
}

// WithLibrary substitutes a custom pattern library.
func WithLibrary(lib *Library) Option {
	return func(e *Engine) { e.lib = lib }
}

// NewEngine builds a recognition engine around the default pattern
// library. A malformed library is a construction error, never a silent
// partial engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.lib == nil {
		lib, err := NewLibrary()
		if err != nil {
			return nil, fmt.Errorf("intent engine: %w", err)
		}
		e.lib = lib
	}
	e.fallback = &fallbackScorer{lib: e.lib}
	return e, nil
}

// Recognize classifies one line of input. It always returns a usable
// Intent: unclassifiable input comes back as UNKNOWN with confidence 0,
// never as an error.
func (e *Engine) Recognize(text string) Intent {
	intent := Intent{
		Type:          ActionUnknown,
		Parameters:    map[string]string{},
		OriginalInput: text,
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return intent
	}

	best := candidate{}
	if pipe := e.activePipeline(); pipe != nil {
		m := &linguisticMatcher{lib: e.lib, pipe: pipe}
		c, err := m.classify(trimmed)
		if err != nil {
			logging.PerceptionWarn("linguistic match failed for %q: %v", trimmed, err)
			if e.pipe == nil {
				// The shared pipeline broke at runtime; stop offering it.
				pipelineDown.Store(true)
			}
		} else {
			best = c
		}
	}
	if best.action == "" {
		if fb := e.fallback.classify(trimmed); fb.action != "" {
			fb.annotation = best.annotation
			best = fb
		}
	}
	if best.action == "" {
		logging.PerceptionDebug("no intent matched %q", trimmed)
		return intent
	}

	target, params := extract(best.action, trimmed, best.annotation)
	logging.Extraction("action=%s target=%q params=%v", best.action, target, params)
	intent.Type = best.action
	intent.Confidence = best.score
	intent.Target = target
	intent.Parameters = params
	logging.Perception("recognized %s (%.2f) target=%q from %q",
		best.action, best.score, target, trimmed)
	return intent
}

func (e *Engine) activePipeline() nlp.Pipeline {
	if e.fallbackOnly {
		return nil
	}
	if e.pipe != nil {
		return e.pipe
	}
	return sharedPipeline()
}
