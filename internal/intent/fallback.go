package intent

import (
	"math"
	"regexp"
	"strings"
)

// =============================================================================
// FALLBACK SCORER
// =============================================================================
// Regex-only classification path used when the NLP pipeline is
// unavailable or the linguistic matcher found nothing. Scores by match
// coverage: match length over input length, capped below the linguistic
// ceiling so a pipeline-backed result always outranks a regex guess at
// equal coverage.

const (
	// fallbackCap bounds every regex coverage score.
	fallbackCap = 0.8
	// chatFallbackCap bounds conversational regex matches.
	chatFallbackCap = 0.5
)

type fallbackScorer struct {
	lib *Library
}

// classify scores the input against every fallback regex and returns the
// best-coverage action, with registration order breaking exact ties.
// Input that matches nothing comes back as the zero candidate.
func (s *fallbackScorer) classify(text string) candidate {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return candidate{}
	}

	best := candidate{}
	total := float64(len(trimmed))
	for _, action := range s.lib.order {
		set := s.lib.sets[action]
		for _, re := range set.fallback {
			loc := re.FindStringIndex(trimmed)
			if loc == nil {
				continue
			}
			score := math.Min(float64(loc[1]-loc[0])/total, fallbackCap)
			if action == ActionChat {
				score = math.Min(score, chatFallbackCap)
			}
			if score > best.score {
				best = candidate{action: action, score: score}
			}
		}
	}
	if best.action == "" {
		// A question mark or a leading interrogative word routes an
		// otherwise unmatched input to chat rather than unknown.
		if strings.Contains(trimmed, "?") || leadingInterrogative(trimmed) {
			return candidate{action: ActionChat, score: chatFallbackCap}
		}
	}
	return best
}

// leadingInterrogative reports whether the input opens with a wh-word
// or modal.
func leadingInterrogative(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	return interrogativeWords[strings.Trim(fields[0], `.,!?"'`)]
}

// firstGroup returns the trimmed first capture group of re in text, or
// "" when re does not match. Shared by parameter extraction.
func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
