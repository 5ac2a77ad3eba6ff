// Package intent implements the natural-language intent recognition
// engine behind superterm. The sole entry point is Engine.Recognize,
// which maps free text to an action kind, a confidence score, a target
// and extracted parameters. Matching prefers token-level linguistic
// annotations when a pipeline is available and degrades silently to
// deterministic regex scoring when it is not.
package intent

import (
	"fmt"
	"strings"
)

// Action is one of the closed set of command categories the engine can
// recognize. Absence of a match resolves to ActionUnknown, never to an
// error.
type Action string

const (
	ActionList      Action = "list"
	ActionRun       Action = "run"
	ActionSearch    Action = "search"
	ActionHelp      Action = "help"
	ActionExit      Action = "exit"
	ActionCreate    Action = "create"
	ActionDelete    Action = "delete"
	ActionOrganize  Action = "organize"
	ActionShow      Action = "show"
	ActionPreview   Action = "preview"
	ActionRename    Action = "rename"
	ActionMove      Action = "move"
	ActionSummarize Action = "summarize"
	ActionChat      Action = "chat"
	ActionUnknown   Action = "unknown"
)

// registrationOrder fixes the tie-break order between action kinds that
// match with equal score: first registered wins. The order is part of
// the engine contract and must not depend on map iteration.
var registrationOrder = []Action{
	ActionList,
	ActionRun,
	ActionSearch,
	ActionHelp,
	ActionExit,
	ActionCreate,
	ActionDelete,
	ActionOrganize,
	ActionShow,
	ActionPreview,
	ActionRename,
	ActionMove,
	ActionSummarize,
	ActionChat,
}

// Actions returns the matchable action kinds in registration order.
// ActionUnknown is a result, not a registered kind.
func Actions() []Action {
	out := make([]Action, len(registrationOrder))
	copy(out, registrationOrder)
	return out
}

// Valid reports whether a is one of the closed action kinds.
func (a Action) Valid() bool {
	if a == ActionUnknown {
		return true
	}
	for _, r := range registrationOrder {
		if r == a {
			return true
		}
	}
	return false
}

// Recognized parameter keys.
const (
	ParamFileType  = "file_type"
	ParamScope     = "scope"
	ParamDirectory = "directory"
	ParamQuery     = "query"
	ParamArgs      = "args"
)

// Scope values produced by the extractor.
const (
	ScopeAll    = "all"
	ScopeRecent = "recent"
)

// Intent is the immutable result of one recognition call. A fresh value
// is produced per call; the engine keeps no reference to it.
type Intent struct {
	Type          Action            `json:"type"`
	Confidence    float64           `json:"confidence"`
	Target        string            `json:"target,omitempty"`
	Parameters    map[string]string `json:"parameters"`
	OriginalInput string            `json:"original_input"`
}

// Param returns a parameter value, or the empty string when it was not
// extracted.
func (i Intent) Param(key string) string {
	return i.Parameters[key]
}

// String renders the intent for diagnostics.
func (i Intent) String() string {
	var params []string
	for _, k := range []string{ParamFileType, ParamScope, ParamDirectory, ParamQuery, ParamArgs} {
		if v, ok := i.Parameters[k]; ok {
			params = append(params, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return fmt.Sprintf("Intent(type=%s, confidence=%.2f, target=%q, parameters={%s})",
		i.Type, i.Confidence, i.Target, strings.Join(params, ", "))
}
