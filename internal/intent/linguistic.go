package intent

import (
	"fmt"
	"math"
	"strings"

	"superterm/internal/nlp"
)

// =============================================================================
// LINGUISTIC MATCHER
// =============================================================================
// Primary classification path. Input is annotated by the NLP pipeline,
// token patterns are matched against the annotation, and the winning
// action is scored by span coverage: matched span length over total
// token count. Coverage scores are capped below certainty so downstream
// gating always has headroom.

const (
	// linguisticCap bounds every span-coverage score.
	linguisticCap = 0.9
	// chatLinguisticCap bounds conversational matches, which are weaker
	// evidence than a verb-led command.
	chatLinguisticCap = 0.65
)

type linguisticMatcher struct {
	lib  *Library
	pipe nlp.Pipeline
}

// classify runs every token pattern over the annotated input and returns
// the best-scoring action. Ties on score resolve to the action registered
// first. A pipeline failure is returned to the caller, which downgrades
// to the fallback scorer.
func (m *linguisticMatcher) classify(text string) (c candidate, err error) {
	// Pipeline internals may panic on degenerate input; treat that as a
	// classification failure rather than taking the process down.
	defer func() {
		if r := recover(); r != nil {
			c = candidate{}
			err = fmt.Errorf("linguistic matcher: pipeline panic: %v", r)
		}
	}()

	ann, err := m.pipe.Annotate(text)
	if err != nil {
		return candidate{}, fmt.Errorf("linguistic matcher: annotate: %w", err)
	}
	if len(ann.Tokens) == 0 {
		return candidate{}, nil
	}

	best := candidate{}
	total := float64(len(ann.Tokens))
	for _, action := range m.lib.order {
		set := m.lib.sets[action]
		for _, tp := range set.tokenPatterns {
			span := matchSpan(ann.Tokens, tp)
			if span == 0 {
				continue
			}
			score := math.Min(float64(span)/total, linguisticCap)
			if action == ActionChat {
				score = math.Min(score, chatLinguisticCap)
			}
			// Strictly greater: earlier-registered actions keep ties.
			if score > best.score {
				best = candidate{action: action, score: score, annotation: ann}
			}
		}
	}
	if best.action == "" {
		// Questions that fit no pattern are still conversation, not
		// noise: a wh-word, a modal addressed at the assistant, or a
		// trailing question mark routes to chat instead of unknown.
		if questionCue(ann.Tokens, text) {
			return candidate{action: ActionChat, score: chatLinguisticCap, annotation: ann}, nil
		}
		return candidate{annotation: ann}, nil
	}
	return best, nil
}

// interrogativeWords bias unmatched questions toward chat.
var interrogativeWords = map[string]bool{
	"what": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "which": true, "can": true, "could": true, "would": true,
}

// questionCue reports whether the input reads as a question: it ends
// with a question mark or carries an interrogative token anywhere.
func questionCue(toks []nlp.Token, text string) bool {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return true
	}
	for _, tok := range toks {
		if interrogativeWords[tok.Lower] {
			return true
		}
	}
	return false
}

// candidate is an intermediate classification result before parameter
// extraction and intent assembly.
type candidate struct {
	action     Action
	score      float64
	annotation *nlp.Annotation
}
