// Package chat produces conversational replies for input that is not a
// file or script command. Replies are canned and keyword-routed; the
// goal is a helpful nudge toward a real command, not open-ended talk.
package chat

import (
	"strings"

	"superterm/internal/logging"
)

type rule struct {
	keywords []string
	replies  []string
}

// rules are checked in order; the first rule with a keyword hit wins.
var rules = []rule{
	{
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
		replies: []string{
			"Hello! Ask me to list, run, organize, or summarize your files.",
			"Hi there! Try something like \"show me all python scripts\".",
		},
	},
	{
		keywords: []string{"what can you do", "capabilities", "what do you do", "able to"},
		replies: []string{
			"I can list files, run scripts, search, organize directories, preview and summarize documents, and more. Try \"organize my downloads\".",
		},
	},
	{
		keywords: []string{"who are you", "your name", "what are you"},
		replies: []string{
			"I'm superterm, a terminal that understands plain English file commands.",
		},
	},
	{
		keywords: []string{"how are you"},
		replies: []string{
			"Running smoothly. What would you like to do with your files?",
		},
	},
	{
		keywords: []string{"thank", "thanks", "appreciate"},
		replies: []string{
			"You're welcome!",
			"Happy to help.",
		},
	},
	{
		keywords: []string{"bye", "goodbye", "see you"},
		replies: []string{
			"Goodbye! Type \"exit\" to end the session.",
		},
	},
}

var defaultReplies = []string{
	"I didn't catch a command there. Try \"help\" to see what I understand.",
	"Not sure what to do with that. You could try \"list files\" or \"organize this folder\".",
}

// Reply returns a response for conversational input. The choice among a
// rule's variants is deterministic in the input.
func Reply(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	for _, r := range rules {
		for _, kw := range r.keywords {
			if matches(lowered, kw) {
				logging.Chat("matched %q", kw)
				return pick(r.replies, lowered)
			}
		}
	}
	return pick(defaultReplies, lowered)
}

// matches does substring matching for phrases and whole-word matching
// for single keywords, so "hi" never fires inside "this".
func matches(lowered, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lowered, kw)
	}
	for _, w := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	}) {
		if w == kw {
			return true
		}
	}
	return false
}

// Suggestions returns example commands shown alongside uncertain or
// unrecognized input.
func Suggestions() []string {
	return []string{
		"list all python scripts",
		"run backup.sh",
		"find notes about the budget",
		"organize the downloads folder",
		"summarize the latest README",
	}
}

func pick(replies []string, input string) string {
	if len(replies) == 1 {
		return replies[0]
	}
	return replies[len(input)%len(replies)]
}
