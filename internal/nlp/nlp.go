// Package nlp provides the token annotation layer consumed by the intent
// engine. A Pipeline turns raw input into annotated tokens (lowercase text,
// lemma, part-of-speech tag, dependency label) plus named entity spans.
// The default implementation is backed by prose; Lex provides a cheap
// lexical tokenization used when no pipeline is available.
package nlp

import (
	"strings"
	"unicode"
)

// Token is a single annotated token.
type Token struct {
	Text  string // raw token text
	Lower string // lowercase form
	Lemma string // base form (rule-based)
	Tag   string // Penn Treebank tag ("" for lexical tokens)
	POS   string // coarse class: NOUN, VERB, ADJ, ADV, PRON, OTHER
	Dep   string // dependency label; only "pobj" is produced
}

// Entity is a named span detected in the input.
type Entity struct {
	Text  string
	Label string
	Start int // byte offset into the original input
	End   int
}

// Annotation is the full analysis of one input string.
type Annotation struct {
	Tokens   []Token
	Entities []Entity
}

// Pipeline produces annotations for raw input. Implementations must be
// safe for concurrent use; construction is the only expensive phase.
type Pipeline interface {
	Annotate(text string) (*Annotation, error)
}

// prepositions whose following object becomes a "pobj" token.
var prepositions = map[string]bool{
	"in": true, "from": true, "under": true, "into": true, "inside": true,
}

// irregularLemmas covers the verb forms pattern matching cares about.
var irregularLemmas = map[string]string{
	"is": "be", "are": "be", "was": "be", "were": "be", "am": "be", "be": "be", "been": "be",
	"has": "have", "had": "have", "have": "have",
	"does": "do", "did": "do", "done": "do",
	"ran": "run", "running": "run",
	"found": "find", "made": "make", "got": "get", "gave": "give",
	"shown": "show", "showed": "show",
}

// Lemma returns a rule-based base form for a lowercase word. It handles
// the irregular verbs in the pattern vocabulary and common suffixes.
func Lemma(lower string) string {
	if l, ok := irregularLemmas[lower]; ok {
		return l
	}
	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 4:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "sses"):
		return lower[:len(lower)-2]
	case strings.HasSuffix(lower, "ing") && len(lower) > 5:
		stem := lower[:len(lower)-3]
		if len(stem) > 2 && stem[len(stem)-1] == stem[len(stem)-2] {
			stem = stem[:len(stem)-1]
		}
		return stem
	case strings.HasSuffix(lower, "ed") && len(lower) > 4:
		return lower[:len(lower)-2]
	case strings.HasSuffix(lower, "s") && len(lower) > 3 &&
		!strings.HasSuffix(lower, "ss") && !strings.HasSuffix(lower, "us"):
		return lower[:len(lower)-1]
	}
	return lower
}

// CoarsePOS collapses a Penn Treebank tag into a coarse class.
func CoarsePOS(tag string) string {
	switch {
	case strings.HasPrefix(tag, "NN"):
		return "NOUN"
	case strings.HasPrefix(tag, "VB"):
		return "VERB"
	case strings.HasPrefix(tag, "JJ"):
		return "ADJ"
	case strings.HasPrefix(tag, "RB"):
		return "ADV"
	case tag == "PRP" || tag == "PRP$" || tag == "WP" || tag == "WDT":
		return "PRON"
	default:
		return "OTHER"
	}
}

// Lex splits text into tokens without any model: whitespace-separated
// words, with leading/trailing punctuation broken into their own tokens
// so "?" and quotes survive as match cues. File-like tokens keep their
// internal dots, underscores and hyphens intact.
func Lex(text string) []Token {
	var toks []Token
	for _, field := range strings.Fields(text) {
		head, core, tail := splitPunct(field)
		for _, p := range head {
			toks = append(toks, newToken(string(p)))
		}
		if core != "" {
			toks = append(toks, newToken(core))
		}
		for _, p := range tail {
			toks = append(toks, newToken(string(p)))
		}
	}
	labelObjects(toks)
	return toks
}

// Annotate wraps Lex in the Pipeline shape so the extractor can run the
// same code path with or without a linguistic backend.
type LexicalPipeline struct{}

func (LexicalPipeline) Annotate(text string) (*Annotation, error) {
	return &Annotation{Tokens: Lex(text)}, nil
}

func newToken(text string) Token {
	lower := strings.ToLower(text)
	return Token{
		Text:  text,
		Lower: lower,
		Lemma: Lemma(lower),
	}
}

// labelObjects marks the first word following a preposition as its object.
func labelObjects(toks []Token) {
	for i := 1; i < len(toks); i++ {
		if prepositions[toks[i-1].Lower] && isWord(toks[i].Text) {
			toks[i].Dep = "pobj"
		}
	}
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// splitPunct separates leading and trailing punctuation from a field.
// Internal punctuation (dots in filenames, underscores, hyphens) is kept.
func splitPunct(field string) (head, core, tail string) {
	runes := []rune(field)
	start, end := 0, len(runes)
	for start < end && isBoundaryPunct(runes[start]) {
		start++
	}
	for end > start && isBoundaryPunct(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func isBoundaryPunct(r rune) bool {
	switch r {
	case '?', '!', ',', ';', ':', '"', '\'', '(', ')', '[', ']', '`':
		return true
	}
	// a bare trailing period is sentence punctuation, but we cannot tell
	// it apart from an extension dot here, so dots are never stripped
	return false
}
