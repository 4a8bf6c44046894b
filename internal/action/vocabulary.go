package action

import "strings"

// clearingWords is the vocabulary that marks a prompt as an explicit request
// to remove content.
var clearingWords = []string{
	"clear", "erase", "wipe", "remove everything", "delete everything",
	"start over", "start fresh", "clean the",
}

// creationWords is the vocabulary that marks a prompt as asking for new
// content. Its presence overrides clearing vocabulary: a prompt that both
// creates and "clears up" is not a clear request.
var creationWords = []string{
	"create", "draw", "add", "make", "build", "write", "sketch", "insert",
}

// PromptAllowsClear reports whether the originating prompt justifies a clear
// action: it must contain clearing vocabulary and no creation vocabulary.
func PromptAllowsClear(prompt string) bool {
	lower := strings.ToLower(prompt)
	if containsAny(lower, creationWords) {
		return false
	}
	return containsAny(lower, clearingWords)
}

// PromptMentionsLabels reports whether the prompt talks about labeling.
func PromptMentionsLabels(prompt string) bool {
	lower := strings.ToLower(prompt)
	return strings.Contains(lower, "label") || strings.Contains(lower, "caption") ||
		strings.Contains(lower, "name each") || strings.Contains(lower, "annotate")
}

func containsAny(haystack string, words []string) bool {
	for _, word := range words {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}
