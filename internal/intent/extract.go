package intent

import (
	"regexp"
	"strings"

	"superterm/internal/nlp"
)

// =============================================================================
// PARAMETER EXTRACTION
// =============================================================================
// Pulls the target and auxiliary parameters out of the raw input once an
// action kind has been chosen. Filename detection runs over the raw text
// rather than the token stream so tokenization choices can never split a
// path or extension.

var (
	// fileRe matches a filename or relative path carrying an extension.
	fileRe = regexp.MustCompile(`\b[\w~][\w./\\-]*\.[A-Za-z0-9]{1,5}\b`)

	// dirRe captures the object of a location preposition.
	dirRe = regexp.MustCompile(`(?i)\b(?:in|from|under|into|inside)\s+(?:the\s+|my\s+)?([\w./~\\-]+)`)

	// destRe captures the destination of a rename or move.
	destRe = regexp.MustCompile(`(?i)\bto\s+([\w./~\\-]+)`)

	// queryRe strips the search trigger and optional "for" from a query.
	queryRe = regexp.MustCompile(`(?i)^(?:search|find|locate|grep|look)\s+(?:for\s+)?(.+)$`)

	// quotedRe captures the first single- or double-quoted span.
	quotedRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

	// chatTopicRe captures a conversation topic after "about" or "for".
	chatTopicRe = regexp.MustCompile(`(?i)\b(?:about|for)\s+(.+)$`)

	// chatLeadRe strips the conversational lead-in from a chat query.
	chatLeadRe = regexp.MustCompile(`(?i)^(?:tell\s+me|explain|describe|(?:can|could|would)\s+you|what|who|when|where|why|how|which)\s+(.+)$`)
)

// fileTypeKeywords maps spoken type words and their extension
// equivalents to the spoken canonical name. Handlers translate the
// spoken name to extensions; the parameter stays as the user said it.
var fileTypeKeywords = map[string]string{
	"python":    "python",
	"py":        "python",
	"shell":     "shell",
	"bash":      "shell",
	"sh":        "shell",
	"text":      "text",
	"txt":       "text",
	"markdown":  "markdown",
	"md":        "markdown",
	"pdf":       "pdf",
	"json":      "json",
	"yaml":      "yaml",
	"yml":       "yaml",
	"csv":       "csv",
	"log":       "log",
	"logs":      "log",
	"image":     "image",
	"images":    "image",
	"picture":   "image",
	"pictures":  "image",
	"doc":       "document",
	"docs":      "document",
	"document":  "document",
	"documents": "document",
}

// scopeKeywords maps qualifiers to the canonical scope values.
var scopeKeywords = map[string]string{
	"all":        ScopeAll,
	"every":      ScopeAll,
	"everything": ScopeAll,
	"latest":     ScopeRecent,
	"recent":     ScopeRecent,
	"new":        ScopeRecent,
	"newest":     ScopeRecent,
	"last":       ScopeRecent,
}

// fillerWords are dropped when deriving a bare target from the tokens
// trailing the trigger verb.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "me": true,
	"please": true, "some": true, "this": true, "that": true,
	"file": true, "files": true, "script": true, "scripts": true,
	"folder": true, "directory": true, "up": true, "for": true,
	"of": true, "to": true, "in": true, "from": true,
}

// targetActions are the action kinds whose object is a meaningful
// target; conversational and session actions carry none.
var targetActions = map[Action]bool{
	ActionRun: true, ActionShow: true, ActionPreview: true,
	ActionDelete: true, ActionRename: true, ActionMove: true,
	ActionSummarize: true, ActionCreate: true, ActionSearch: true,
}

// extract resolves the target and parameters for a classified input.
// The annotation is optional; the fallback path passes nil and loses
// only the dependency-based target heuristic.
func extract(action Action, text string, ann *nlp.Annotation) (string, map[string]string) {
	params := make(map[string]string)
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)

	// File type and scope come from keyword scans and apply to every
	// action that can use them.
	for _, word := range strings.Fields(lowered) {
		word = strings.Trim(word, `.,!?"'`)
		if ft, ok := fileTypeKeywords[word]; ok {
			if _, have := params[ParamFileType]; !have {
				params[ParamFileType] = ft
			}
		}
		if sc, ok := scopeKeywords[word]; ok {
			if _, have := params[ParamScope]; !have {
				params[ParamScope] = sc
			}
		}
	}

	if dir := extractDirectory(trimmed); dir != "" {
		params[ParamDirectory] = dir
	}
	if action == ActionRename || action == ActionMove {
		if dest := firstGroup(destRe, trimmed); dest != "" {
			params[ParamDirectory] = dest
		}
	}

	target := ""
	file := findFile(trimmed)
	switch {
	case file != "":
		target = file
	case targetActions[action]:
		if tok := compoundToken(trimmed); tok != "" {
			target = tok
		} else if q := quotedSpan(trimmed); q != "" {
			target = q
		} else {
			target = residualTarget(trimmed, ann)
		}
	}

	if action == ActionSearch {
		if q := searchQuery(trimmed, params[ParamDirectory]); q != "" {
			params[ParamQuery] = q
			if file == "" {
				target = q
			}
		}
	}
	if action == ActionChat {
		if q := chatQuery(trimmed); q != "" {
			params[ParamQuery] = q
		}
	}
	if action == ActionRun && file != "" {
		if args := runArgs(trimmed, file); args != "" {
			params[ParamArgs] = args
		}
	}

	return target, params
}

// findFile returns the first filename-shaped substring, skipping the
// destination of a rename or move so "a.txt to b.txt" targets a.txt.
func findFile(text string) string {
	return fileRe.FindString(text)
}

// compoundToken returns the first word carrying an underscore or hyphen,
// which names things like snake_case scripts with no extension. Words
// led by a dash are flag-style arguments, not names.
func compoundToken(text string) string {
	for _, f := range strings.Fields(text) {
		w := strings.Trim(f, `.,!?"'`)
		if w == "" || strings.HasPrefix(w, "-") {
			continue
		}
		if strings.ContainsAny(w, "_-") {
			return w
		}
	}
	return ""
}

// quotedSpan returns the first quoted substring of the input, quotes
// stripped.
func quotedSpan(text string) string {
	m := quotedRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// extractDirectory returns the object of a location preposition, mapping
// self-references to the current directory and ignoring generic nouns.
func extractDirectory(text string) string {
	dir := firstGroup(dirRe, text)
	switch strings.ToLower(dir) {
	case "":
		return ""
	case "current", "here":
		return "."
	case "directory", "folder", "file", "files":
		return ""
	}
	return dir
}

// residualTarget derives a target from the words following the trigger.
// With an annotation available it prefers the object of a preposition;
// otherwise it keeps the non-filler tail of the input.
func residualTarget(text string, ann *nlp.Annotation) string {
	if ann != nil {
		for _, tok := range ann.Tokens {
			if tok.Dep == "pobj" && !fillerWords[tok.Lower] {
				return tok.Text
			}
		}
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	var kept []string
	for _, f := range fields[1:] {
		w := strings.Trim(f, `.,!?"'`)
		lw := strings.ToLower(w)
		if w == "" || fillerWords[lw] {
			continue
		}
		if _, isScope := scopeKeywords[lw]; isScope {
			continue
		}
		if _, isType := fileTypeKeywords[lw]; isType {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// searchQuery returns the free-text query of a search, with any trailing
// directory clause removed.
func searchQuery(text, dir string) string {
	q := firstGroup(queryRe, text)
	if q == "" {
		return ""
	}
	if dir != "" {
		if m := dirRe.FindStringIndex(q); m != nil {
			q = strings.TrimSpace(q[:m[0]])
		}
	}
	q = strings.Trim(q, `.,!?"'`)
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(strings.ToLower(q), art) {
			q = strings.TrimSpace(q[len(art):])
			break
		}
	}
	return q
}

// chatQuery returns the conversational topic: text after "about"/"for",
// or the remainder after the leading chat phrase.
func chatQuery(text string) string {
	if q := firstGroup(chatTopicRe, text); q != "" {
		return strings.Trim(q, `.,!?"'`)
	}
	if q := firstGroup(chatLeadRe, text); q != "" {
		return strings.Trim(q, `.,!?"'`)
	}
	return ""
}

// runArgs returns everything after the script name in a run request.
func runArgs(text, file string) string {
	idx := strings.Index(text, file)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(text[idx+len(file):])
	rest = strings.TrimPrefix(rest, "with ")
	return strings.Trim(rest, `.,!?"'`)
}
