package review

import (
	"regexp"
	"strconv"
	"strings"
)

// QuantityRequirement asks for at least Count shapes matching Word.
type QuantityRequirement struct {
	Count int
	Word  string
}

// Extraction is the structured reading of one instruction. The grammar is
// deliberately approximate: pattern-matching verification, not semantic
// understanding.
type Extraction struct {
	Quantities []QuantityRequirement
	Presence   []string
	Subject    string
	Keywords   []string
	WantLabels bool
}

var (
	quantityPattern = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+([a-z]+)`)
	presencePattern = regexp.MustCompile(`(?i)\b(?:with|including|must have|should include)\s+(?:a\s+|an\s+|the\s+|some\s+)?([a-z]+)`)
	subjectPattern  = regexp.MustCompile(`(?i)\b(?:draw|create|make|show)\s+(?:a\s+|an\s+|the\s+|some\s+)?([a-z]+)`)
	wordPattern     = regexp.MustCompile(`[a-zA-Z]+`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// stopwords are never treated as requirement keywords.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"draw": {}, "create": {}, "make": {}, "add": {}, "show": {}, "please": {},
	"then": {}, "some": {}, "into": {}, "onto": {}, "each": {}, "all": {},
	"must": {}, "have": {}, "should": {}, "include": {}, "including": {},
	"one": {}, "two": {}, "three": {}, "four": {}, "five": {}, "six": {},
	"seven": {}, "eight": {}, "nine": {}, "ten": {}, "them": {}, "its": {},
	"are": {}, "has": {}, "put": {}, "near": {}, "label": {}, "labels": {},
	"labeled": {}, "inside": {}, "around": {},
}

// Extract parses an instruction into requirements: "<number> <word>" pairs
// become quantities, presence phrases become presence requirements, the
// first noun after a creation verb becomes the main subject, and every
// significant matched word joins the keyword set.
func Extract(instruction string) Extraction {
	var ex Extraction
	seen := make(map[string]struct{})
	addKeyword := func(word string) {
		word = strings.ToLower(word)
		if len(word) < 3 {
			return
		}
		if _, stop := stopwords[word]; stop {
			return
		}
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		ex.Keywords = append(ex.Keywords, word)
	}

	for _, match := range quantityPattern.FindAllStringSubmatch(instruction, -1) {
		count := parseCount(match[1])
		word := singularize(strings.ToLower(match[2]))
		if count <= 0 || len(word) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		ex.Quantities = append(ex.Quantities, QuantityRequirement{Count: count, Word: word})
		addKeyword(word)
	}

	for _, match := range presencePattern.FindAllStringSubmatch(instruction, -1) {
		word := singularize(strings.ToLower(match[1]))
		if _, stop := stopwords[word]; stop {
			continue
		}
		if len(word) >= 3 {
			ex.Presence = append(ex.Presence, word)
			addKeyword(word)
		}
	}

	if match := subjectPattern.FindStringSubmatch(instruction); match != nil {
		subject := singularize(strings.ToLower(match[1]))
		if _, stop := stopwords[subject]; !stop && len(subject) >= 3 {
			ex.Subject = subject
			addKeyword(subject)
		}
	}

	for _, word := range wordPattern.FindAllString(instruction, -1) {
		addKeyword(word)
	}

	ex.WantLabels = mentionsLabels(instruction)
	return ex
}

func mentionsLabels(instruction string) bool {
	lower := strings.ToLower(instruction)
	for _, marker := range []string{"label", "caption", "annotate", "name each"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func parseCount(token string) int {
	token = strings.ToLower(token)
	if n, ok := numberWords[token]; ok {
		return n
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return n
}

// singularize trims common plural suffixes so "circles" matches "circle".
func singularize(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "es") && len(word) > 4 && (strings.HasSuffix(word, "xes") || strings.HasSuffix(word, "ches") || strings.HasSuffix(word, "shes") || strings.HasSuffix(word, "sses")):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3:
		return word[:len(word)-1]
	default:
		return word
	}
}

// significantWords returns the lowercase words of text that are long enough
// to match against and not stopwords, in order of appearance.
func significantWords(text string) []string {
	var out []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		word = strings.ToLower(word)
		if len(word) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		out = append(out, word)
	}
	return out
}
