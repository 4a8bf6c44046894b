package review

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"easel/internal/canvas"
	"easel/internal/history"
	"easel/internal/logging"
	"easel/pkg/types"
)

// positionTolerance is the fixed slack for position verification; a shape is
// flagged only when it lies more than twice this far outside the scope box.
const positionTolerance = 50.0

// extractionCacheSize bounds the per-instruction extraction memo.
const extractionCacheSize = 128

var intentQuantityPattern = regexp.MustCompile(`(\d+)\s+([a-zA-Z]+)`)

// Checker verifies the document against the original instruction and against
// what each recorded action claimed it would do. The verdict is heuristic;
// unfulfilled action intents dominate the continuation signal because
// an agent can satisfy keyword heuristics while still not doing what it
// explicitly said it would.
type Checker struct {
	logger logging.Logger
	memo   *lru.Cache[string, Extraction]
}

// NewChecker returns a checker.
func NewChecker(logger logging.Logger) *Checker {
	memo, err := lru.New[string, Extraction](extractionCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Checker{logger: logging.OrNop(logger), memo: memo}
}

func (c *Checker) extract(instruction string) Extraction {
	if cached, ok := c.memo.Get(instruction); ok {
		return cached
	}
	ex := Extract(instruction)
	c.memo.Add(instruction, ex)
	return ex
}

// Check runs every verification step and combines them into one verdict.
// It is read-only and deterministic: the same instruction, history, and
// document always yield the same result.
func (c *Checker) Check(instruction string, hist *history.Store, doc canvas.Document, scope *types.Box) types.CompletionCheckResult {
	ex := c.extract(instruction)
	shapes := doc.ListShapes(scope)
	// Positions and intents look at the whole document: a shape placed
	// outside the requested area is exactly the thing scope filtering hides.
	allShapes := doc.ListShapes(nil)
	actions := hist.Actions()

	result := types.CompletionCheckResult{IsComplete: true}

	consumed := c.checkQuantities(ex, shapes, &result)
	c.checkLabels(ex, shapes, &result)
	c.checkKeywords(ex, consumed, shapes, actions, &result)
	c.checkPositions(scope, allShapes, &result)
	c.checkIntents(actions, allShapes, &result)

	if result.ForceContinuation {
		result.IsComplete = false
	}
	c.logger.Debug("completion check: complete=%v satisfied=%d unsatisfied=%d force=%v",
		result.IsComplete, len(result.Satisfied), len(result.Unsatisfied), result.ForceContinuation)
	return result
}

// checkQuantities counts in-scope shapes whose text or kind contains each
// quantity target. Returns the set of words consumed by quantity checks so
// keyword verification does not double-report them.
func (c *Checker) checkQuantities(ex Extraction, shapes []types.Shape, result *types.CompletionCheckResult) map[string]struct{} {
	consumed := make(map[string]struct{})
	for _, req := range ex.Quantities {
		consumed[req.Word] = struct{}{}
		found := countMatching(shapes, req.Word)
		if found >= req.Count {
			result.Satisfied = append(result.Satisfied, fmt.Sprintf("%d %s", req.Count, req.Word))
			continue
		}
		result.IsComplete = false
		result.Unsatisfied = append(result.Unsatisfied,
			fmt.Sprintf("need %d more %s", req.Count-found, req.Word))
		result.MissingDetails = append(result.MissingDetails,
			fmt.Sprintf("only %d of %d %s present", found, req.Count, req.Word))
	}
	return consumed
}

// checkLabels runs only when the instruction mentions labeling: every shape
// in scope is expected to carry text.
func (c *Checker) checkLabels(ex Extraction, shapes []types.Shape, result *types.CompletionCheckResult) {
	if !ex.WantLabels || len(shapes) == 0 {
		return
	}
	unlabeled := 0
	for _, shape := range shapes {
		if strings.TrimSpace(shape.Text) == "" {
			unlabeled++
		}
	}
	if unlabeled == 0 {
		result.Satisfied = append(result.Satisfied, "all shapes labeled")
		return
	}
	result.IsComplete = false
	result.Unsatisfied = append(result.Unsatisfied,
		fmt.Sprintf("%d of %d shapes missing labels", unlabeled, len(shapes)))
}

// checkKeywords verifies the remaining keywords: a keyword is covered by a
// shape whose text or kind contains it, or by an action intent that already
// claims to address it.
func (c *Checker) checkKeywords(ex Extraction, consumed map[string]struct{}, shapes []types.Shape, actions []types.Action, result *types.CompletionCheckResult) {
	for _, keyword := range ex.Keywords {
		if _, done := consumed[singularize(keyword)]; done {
			continue
		}
		if countMatching(shapes, singularize(keyword)) > 0 {
			result.Satisfied = append(result.Satisfied, keyword)
			continue
		}
		if intentMentions(actions, keyword) {
			result.Satisfied = append(result.Satisfied, keyword)
			continue
		}
		result.IsComplete = false
		result.Unsatisfied = append(result.Unsatisfied, keyword)
		result.MissingDetails = append(result.MissingDetails,
			fmt.Sprintf("nothing on the canvas mentions %q", keyword))
	}
}

// checkPositions flags shapes lying significantly outside the scope box.
func (c *Checker) checkPositions(scope *types.Box, shapes []types.Shape, result *types.CompletionCheckResult) {
	if scope == nil {
		return
	}
	for _, shape := range shapes {
		if d := scope.DistanceOutside(shape.Bounds); d > 2*positionTolerance {
			result.IsComplete = false
			result.PositionIssues = append(result.PositionIssues,
				fmt.Sprintf("shape %s is %.0f beyond the requested area", shape.ID, d))
		}
	}
}

// checkIntents is the primary continuation signal: every finalized
// document-affecting action must have left evidence of its stated intent on
// the canvas.
func (c *Checker) checkIntents(actions []types.Action, shapes []types.Shape, result *types.CompletionCheckResult) {
	for _, a := range actions {
		if !affectsDocument(a.Kind) || strings.TrimSpace(a.Intent) == "" {
			continue
		}

		fulfilled, reason := c.verifyIntent(a, shapes)
		if fulfilled {
			continue
		}
		result.ForceContinuation = true
		result.ContinuationReasons = append(result.ContinuationReasons, reason)
	}
}

func (c *Checker) verifyIntent(a types.Action, shapes []types.Shape) (bool, string) {
	// create intents carrying an explicit quantity ("3 branches") are
	// re-counted rather than merely keyword-matched.
	if a.Kind == types.KindCreate {
		if match := intentQuantityPattern.FindStringSubmatch(a.Intent); match != nil {
			count := parseCount(match[1])
			word := singularize(strings.ToLower(match[2]))
			if count > 0 && len(word) >= 3 {
				if found := countMatching(shapes, word); found < count {
					return false, fmt.Sprintf("intent %q unfulfilled: %d of %d %s present", a.Intent, found, count, word)
				}
				return true, ""
			}
		}
	}

	// label intents are compared against the labeled shape's actual text.
	if a.Kind == types.KindLabel && a.ShapeID != "" {
		for _, shape := range shapes {
			if shape.ID != a.ShapeID {
				continue
			}
			if strings.TrimSpace(shape.Text) == "" {
				return false, fmt.Sprintf("intent %q unfulfilled: shape %s has no text", a.Intent, a.ShapeID)
			}
			if textsAgree(shape.Text, a.Intent) {
				return true, ""
			}
			return false, fmt.Sprintf("intent %q unfulfilled: shape %s reads %q", a.Intent, a.ShapeID, shape.Text)
		}
		return false, fmt.Sprintf("intent %q unfulfilled: labeled shape %s is gone", a.Intent, a.ShapeID)
	}

	// Everything else: at least one significant intent word must appear in
	// some shape's text or kind.
	words := significantWords(a.Intent)
	if len(words) == 0 {
		return true, ""
	}
	for _, word := range words {
		if countMatching(shapes, singularize(word)) > 0 {
			return true, ""
		}
	}
	return false, fmt.Sprintf("intent %q left no evidence on the canvas", a.Intent)
}

func affectsDocument(kind types.ActionKind) bool {
	switch kind {
	case types.KindCreate, types.KindUpdate, types.KindMove, types.KindLabel, types.KindClear, types.KindPen:
		return true
	default:
		return false
	}
}

// countMatching counts shapes whose text or kind contains word.
func countMatching(shapes []types.Shape, word string) int {
	count := 0
	for _, shape := range shapes {
		text := strings.ToLower(shape.Text)
		kind := strings.ToLower(shape.Kind)
		if strings.Contains(text, word) || strings.Contains(kind, word) {
			count++
		}
	}
	return count
}

func intentMentions(actions []types.Action, keyword string) bool {
	target := singularize(keyword)
	for _, a := range actions {
		if strings.Contains(strings.ToLower(a.Intent), target) {
			return true
		}
	}
	return false
}

// textsAgree reports whether a label's actual text and the stated intent
// share a significant word (or one contains the other).
func textsAgree(text, intent string) bool {
	lowerText := strings.ToLower(text)
	lowerIntent := strings.ToLower(intent)
	if strings.Contains(lowerIntent, lowerText) || strings.Contains(lowerText, lowerIntent) {
		return true
	}
	for _, word := range significantWords(intent) {
		if strings.Contains(lowerText, word) {
			return true
		}
	}
	return false
}
