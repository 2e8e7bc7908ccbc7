// Package evaluator judges submitted answers against exercise definitions.
// Every function here is pure: no I/O, no state, safe to call any number of
// times with the same inputs.
package evaluator

import (
	"errors"
	"fmt"
	"strings"

	"progress-service/internal/models"
)

// ErrInvalidSubmission means the answer payload does not match the shape the
// exercise type requires. It is returned before any comparison so callers can
// reject the request without mutating learner state.
var ErrInvalidSubmission = errors.New("submission shape does not match exercise type")

// Normalize lowercases, trims, and collapses internal whitespace runs to a
// single space. Applied before every string comparison except the
// multiple-choice one, where option identity matters.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Evaluate returns whether the submission is correct for the exercise.
func Evaluate(ex *models.Exercise, sub models.Submission) (bool, error) {
	switch ex.Type {
	case models.TypeMultipleChoice:
		return evaluateMultipleChoice(ex, sub)
	case models.TypeFillBlank:
		return evaluateFillBlank(ex, sub)
	case models.TypeWordOrder:
		return evaluateWordOrder(ex, sub)
	case models.TypeTranslate:
		return evaluateTranslate(ex, sub)
	case models.TypeMatch:
		return evaluateMatch(ex, sub)
	default:
		return false, fmt.Errorf("unknown exercise type %q", ex.Type)
	}
}

// Exact match on the literal option value. Picking the wrong option string is
// always wrong; no normalization, no fuzzy matching.
func evaluateMultipleChoice(ex *models.Exercise, sub models.Submission) (bool, error) {
	if sub.Value == "" {
		return false, ErrInvalidSubmission
	}
	return sub.Value == ex.CorrectOption, nil
}

// Every blank must match its primary answer or one of its alternates, all
// normalized. A missing or extra blank is a malformed submission.
func evaluateFillBlank(ex *models.Exercise, sub models.Submission) (bool, error) {
	if len(sub.Values) != len(ex.Blanks) {
		return false, ErrInvalidSubmission
	}
	for i, blank := range ex.Blanks {
		if !blankMatches(blank, sub.Values[i]) {
			return false, nil
		}
	}
	return true, nil
}

func blankMatches(blank models.Blank, value string) bool {
	got := Normalize(value)
	if got == Normalize(blank.Answer) {
		return true
	}
	for _, alt := range blank.Alternates {
		if got == Normalize(alt) {
			return true
		}
	}
	return false
}

// Order-sensitive: the space-joined submitted sequence must equal the
// space-joined canonical sequence after normalization. A single token
// submission string is accepted and split on whitespace by Normalize.
func evaluateWordOrder(ex *models.Exercise, sub models.Submission) (bool, error) {
	var got string
	switch {
	case len(sub.Values) > 0:
		got = Normalize(strings.Join(sub.Values, " "))
	case sub.Value != "":
		got = Normalize(sub.Value)
	default:
		return false, ErrInvalidSubmission
	}
	return got == Normalize(strings.Join(ex.Tokens, " ")), nil
}

// Lenient: an exact normalized match is correct, and so is either string
// containing the other (both non-empty), which accepts partial or extended
// phrasing of the reference translation.
func evaluateTranslate(ex *models.Exercise, sub models.Submission) (bool, error) {
	if sub.Value == "" {
		return false, ErrInvalidSubmission
	}
	got := Normalize(sub.Value)
	want := Normalize(ex.Reference)
	if got == want {
		return true, nil
	}
	if got == "" || want == "" {
		return false, nil
	}
	return strings.Contains(got, want) || strings.Contains(want, got), nil
}

// All-or-nothing: exactly one submitted entry per defined pair and every
// left maps to its defined right.
func evaluateMatch(ex *models.Exercise, sub models.Submission) (bool, error) {
	if sub.Pairs == nil {
		return false, ErrInvalidSubmission
	}
	if len(sub.Pairs) != len(ex.Pairs) {
		return false, nil
	}
	return MatchCorrectPairs(ex, sub) == len(ex.Pairs), nil
}

// MatchCorrectPairs counts submitted pairs that equal a defined pairing.
// The canonical exercise verdict stays all-or-nothing; this exists for
// per-pair UI feedback on practice surfaces.
func MatchCorrectPairs(ex *models.Exercise, sub models.Submission) int {
	correct := 0
	for _, pair := range ex.Pairs {
		if right, ok := sub.Pairs[pair.Left]; ok && right == pair.Right {
			correct++
		}
	}
	return correct
}
