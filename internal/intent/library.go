package intent

import (
	"fmt"
	"regexp"

	"superterm/internal/nlp"
)

// =============================================================================
// PATTERN LIBRARY
// =============================================================================
// The library is built once at engine construction and never mutated
// afterwards, so recognition calls share it without locking. A malformed
// pattern definition is an authoring bug and fails construction loudly.

// TokenConstraint matches a single annotated token. All set conditions
// must hold; a constraint with no conditions is a wildcard. Op controls
// repetition: 0 means exactly one token, '?' zero or one, '*' zero or
// more, '+' one or more.
type TokenConstraint struct {
	Lower string   // exact lowercase text
	In    []string // lowercase text membership
	Lemma []string // lemma membership
	Regex string   // regular expression tested against the raw token text
	Op    byte

	re *regexp.Regexp // compiled from Regex at library build time
}

func (c *TokenConstraint) matches(tok nlp.Token) bool {
	if c.Lower != "" && tok.Lower != c.Lower {
		return false
	}
	if len(c.In) > 0 && !containsString(c.In, tok.Lower) {
		return false
	}
	if len(c.Lemma) > 0 && !containsString(c.Lemma, tok.Lemma) {
		return false
	}
	if c.re != nil && !c.re.MatchString(tok.Text) {
		return false
	}
	return true
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// TokenPattern is an ordered sequence of token constraints for the
// linguistic matcher.
type TokenPattern []TokenConstraint

// Definition declares the patterns for one action kind: token-sequence
// templates for the linguistic matcher and regular expressions for the
// fallback scorer.
type Definition struct {
	Action        Action
	TokenPatterns []TokenPattern
	Fallback      []string
}

type patternSet struct {
	action        Action
	tokenPatterns []TokenPattern
	fallback      []*regexp.Regexp
}

// Library is the static, read-only table of match rules keyed by action
// kind. Order within an action kind carries no priority; priority is
// resolved by scoring, with registration order breaking exact ties.
type Library struct {
	order []Action
	sets  map[Action]*patternSet
}

// NewLibrary builds the default pattern library. It returns an error if
// any pattern definition is malformed; callers must treat that as fatal.
func NewLibrary() (*Library, error) {
	return buildLibrary(defaultDefinitions())
}

func buildLibrary(defs []Definition) (*Library, error) {
	byAction := make(map[Action]*patternSet, len(defs))
	for _, def := range defs {
		if !def.Action.Valid() || def.Action == ActionUnknown {
			return nil, fmt.Errorf("pattern library: unknown action kind %q", def.Action)
		}
		if _, dup := byAction[def.Action]; dup {
			return nil, fmt.Errorf("pattern library: duplicate definition for %q", def.Action)
		}
		if len(def.TokenPatterns) == 0 && len(def.Fallback) == 0 {
			return nil, fmt.Errorf("pattern library: %q has no patterns", def.Action)
		}

		set := &patternSet{action: def.Action}
		for pi, tp := range def.TokenPatterns {
			if len(tp) == 0 {
				return nil, fmt.Errorf("pattern library: %q token pattern %d is empty", def.Action, pi)
			}
			compiled := make(TokenPattern, len(tp))
			copy(compiled, tp)
			for ci := range compiled {
				c := &compiled[ci]
				switch c.Op {
				case 0, '?', '*', '+':
				default:
					return nil, fmt.Errorf("pattern library: %q token pattern %d has invalid op %q",
						def.Action, pi, string(c.Op))
				}
				if c.Regex != "" {
					re, err := regexp.Compile(c.Regex)
					if err != nil {
						return nil, fmt.Errorf("pattern library: %q token regex %q: %w", def.Action, c.Regex, err)
					}
					c.re = re
				}
			}
			set.tokenPatterns = append(set.tokenPatterns, compiled)
		}
		for _, expr := range def.Fallback {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("pattern library: %q fallback regex %q: %w", def.Action, expr, err)
			}
			set.fallback = append(set.fallback, re)
		}
		byAction[def.Action] = set
	}

	lib := &Library{sets: byAction}
	for _, a := range registrationOrder {
		if _, ok := byAction[a]; ok {
			lib.order = append(lib.order, a)
		}
	}
	return lib, nil
}

// defaultDefinitions is the full trigger vocabulary. Synonym sets and
// shapes follow the terminal's command surface; interrogative forms are
// deliberately routed to chat, not help. Fallback expressions match the
// trigger head plus a bounded argument tail, never the whole input, so
// coverage scoring still discriminates on input length.
func defaultDefinitions() []Definition {
	return []Definition{
		{
			Action: ActionList,
			TokenPatterns: []TokenPattern{
				{{In: []string{"list", "ls", "dir"}}, {Op: '*'}},
				{{In: []string{"show", "display", "get"}}, {Lower: "me"}, {Op: '*'}},
				{{Lower: "what"}, {Lemma: []string{"be", "have"}}, {Op: '*'}, {In: []string{"file", "files", "script", "scripts", "available"}}},
			},
			Fallback: []string{
				`^(?:list|ls|dir)\b(?:\s+\S+){0,2}`,
				`^(?:show|display|get)\s+me\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionRun,
			TokenPatterns: []TokenPattern{
				{{In: []string{"run", "execute", "launch", "start"}}, {Op: '*'}},
				{{Lower: "use"}, {Op: '*'}, {In: []string{"script", "program", "tool"}}},
				{{In: []string{"python", "py", "bash", "sh"}}, {Regex: `(?i).+\.(?:py|sh)$`}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:run|execute|launch|start)\b(?:\s+\S+){0,2}`,
				`^(?:python|bash)\s+\S+(?:\s+\S+)?`,
			},
		},
		{
			Action: ActionSearch,
			TokenPatterns: []TokenPattern{
				{{In: []string{"search", "find", "locate", "grep"}}, {Op: '*'}},
				{{Lower: "look"}, {Lower: "for"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:search|find|locate|grep)\b(?:\s+\S+){0,3}`,
				`^look\s+for\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionHelp,
			TokenPatterns: []TokenPattern{
				{{Lower: "help"}, {Op: '*'}},
				{{In: []string{"manual", "usage", "instructions"}}, {Op: '*'}},
				{{Lower: "how"}, {Lower: "to"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:help|manual|guide|usage|instructions)\b(?:\s+\S+)?`,
				`^how\s+to\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionExit,
			TokenPatterns: []TokenPattern{
				{{In: []string{"exit", "quit", "bye", "goodbye"}}},
				{{Lower: "close"}, {Lower: "terminal"}},
				{{Lower: "end"}, {Lower: "session"}},
			},
			Fallback: []string{
				`^(?:exit|quit|bye|goodbye)\s*[.!]?\s*$`,
				`^(?:close\s+terminal|end\s+session)$`,
			},
		},
		{
			Action: ActionCreate,
			TokenPatterns: []TokenPattern{
				{{In: []string{"create", "make", "touch"}}, {Op: '*'}},
				{{Lower: "new"}, {Op: '+'}},
				{{Lower: "add"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:create|make|new|touch|add)\b(?:\s+\S+){0,3}`,
			},
		},
		{
			Action: ActionDelete,
			TokenPatterns: []TokenPattern{
				{{In: []string{"delete", "remove", "rm", "trash", "erase"}}, {Op: '*'}},
				{{Lower: "get"}, {Lower: "rid"}, {Lower: "of"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:delete|remove|rm|trash|erase)\b(?:\s+\S+){0,2}`,
				`^get\s+rid\s+of\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionOrganize,
			TokenPatterns: []TokenPattern{
				{{In: []string{"organize", "organise", "sort", "arrange", "categorize"}}, {Op: '*'}},
				{{In: []string{"clean", "tidy"}}, {Lower: "up"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:organize|organise|sort|arrange|categorize)\b(?:\s+\S+){0,3}`,
				`^(?:clean|tidy)\s+up\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionShow,
			TokenPatterns: []TokenPattern{
				{{In: []string{"show", "display", "open", "view", "cat"}}, {Op: '*'}},
				{{Lower: "read"}, {Op: '*'}, {In: []string{"file", "content", "contents"}}},
			},
			Fallback: []string{
				`^(?:show|display|open|view|cat)\b(?:\s+\S+){0,2}`,
				`^read\b(?:\s+\S+){0,2}\s+(?:file|content|contents)\b`,
			},
		},
		{
			Action: ActionPreview,
			TokenPatterns: []TokenPattern{
				{{In: []string{"preview", "peek"}}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:preview|peek)\b(?:\s+\S+){0,2}`,
			},
		},
		{
			Action: ActionRename,
			TokenPatterns: []TokenPattern{
				{{Lower: "rename"}, {Op: '*'}},
				{{Lower: "change"}, {Op: '*'}, {Lower: "name"}},
			},
			Fallback: []string{
				`^rename\b(?:\s+\S+){0,3}`,
				`^change\b(?:\s+\S+){0,2}\s+name\b`,
			},
		},
		{
			Action: ActionMove,
			TokenPatterns: []TokenPattern{
				{{In: []string{"move", "mv", "copy", "cp", "transfer"}}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:move|mv|copy|cp|transfer)\b(?:\s+\S+){0,3}`,
			},
		},
		{
			Action: ActionSummarize,
			TokenPatterns: []TokenPattern{
				{{In: []string{"summarize", "summarise", "summary", "tldr"}}, {Op: '*'}},
				{{Lower: "give"}, {Lower: "me"}, {Op: '*'}, {Lower: "summary"}},
			},
			Fallback: []string{
				`^(?:summarize|summarise|summary|tldr)\b(?:\s+\S+){0,3}`,
				`^give\s+me\b(?:\s+\S+){0,2}\s+summary\b`,
			},
		},
		{
			Action: ActionChat,
			TokenPatterns: []TokenPattern{
				{{In: []string{"hi", "hello", "hey"}}, {Op: '*'}},
				{{In: []string{"what", "who", "when", "where", "why", "how", "which"}}, {Op: '*'}},
				{{In: []string{"can", "could", "would"}}, {Lower: "you"}, {Op: '*'}},
				{{In: []string{"explain", "describe"}}, {Op: '*'}},
				{{Lower: "tell"}, {Lower: "me"}, {Op: '*'}},
			},
			Fallback: []string{
				`^(?:hi|hello|hey)\b(?:\s+\S+){0,2}`,
				`^(?:what|who|when|where|why|how|which)\b(?:\s+\S+){0,3}`,
				`^(?:can|could|would)\s+you\b(?:\s+\S+){0,3}`,
				`^(?:tell\s+me|explain|describe)\b(?:\s+\S+){0,3}`,
			},
		},
	}
}

// =============================================================================
// TOKEN SEQUENCE MATCHING
// =============================================================================

// matchSpan returns the length of the longest token span matching the
// pattern anywhere in the token sequence, or 0 if no span matches.
func matchSpan(toks []nlp.Token, pat TokenPattern) int {
	best := 0
	for start := range toks {
		if end, ok := matchSeq(toks, pat, start, 0); ok && end-start > best {
			best = end - start
		}
	}
	return best
}

// matchSeq attempts to satisfy pat[pi:] starting at toks[ti]. Repeating
// constraints are greedy with backtracking, so the returned end index is
// the longest consistent match.
func matchSeq(toks []nlp.Token, pat TokenPattern, ti, pi int) (int, bool) {
	if pi == len(pat) {
		return ti, true
	}
	c := &pat[pi]
	switch c.Op {
	case '?':
		if ti < len(toks) && c.matches(toks[ti]) {
			if end, ok := matchSeq(toks, pat, ti+1, pi+1); ok {
				return end, true
			}
		}
		return matchSeq(toks, pat, ti, pi+1)
	case '*', '+':
		max := ti
		for max < len(toks) && c.matches(toks[max]) {
			max++
		}
		min := ti
		if c.Op == '+' {
			min = ti + 1
			if max < min {
				return 0, false
			}
		}
		for k := max; k >= min; k-- {
			if end, ok := matchSeq(toks, pat, k, pi+1); ok {
				return end, true
			}
		}
		return 0, false
	default: // exactly one token
		if ti < len(toks) && c.matches(toks[ti]) {
			return matchSeq(toks, pat, ti+1, pi+1)
		}
		return 0, false
	}
}
