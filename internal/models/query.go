package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywordLength is the longest keyword (in runes) the pipeline accepts.
const MaxKeywordLength = 100

var (
	ErrEmptyKeyword     = errors.New("keyword is required")
	ErrInvalidKeyword   = errors.New("invalid keyword")
	ErrTooManyKeywords  = errors.New("too many keywords")
	ErrKeywordTooLong   = errors.New("keyword too long")
	ErrConflictingInput = errors.New("use either keyword or keywords, not both")
)

// AnalyzeRequest is the body of an analyze call. Exactly one of Keyword or Keywords is used.
type AnalyzeRequest struct {
	Keyword  string   `json:"keyword,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// IsBatch reports whether the request carries a keyword list.
func (r *AnalyzeRequest) IsBatch() bool {
	return len(r.Keywords) > 0
}

// Validate checks request shape and normalizes keywords. A single-keyword request must
// carry a valid keyword. A batch request must carry at least one non-blank keyword and
// no more than maxKeywords (0 means unbounded); per-keyword validity is left to the
// pipeline so one bad keyword does not reject its siblings.
func (r *AnalyzeRequest) Validate(maxKeywords int) error {
	if r.IsBatch() {
		if strings.TrimSpace(r.Keyword) != "" {
			return ErrConflictingInput
		}
		r.Keywords = NormalizeKeywords(r.Keywords)
		if len(r.Keywords) == 0 {
			return ErrEmptyKeyword
		}
		if maxKeywords > 0 && len(r.Keywords) > maxKeywords {
			return fmt.Errorf("%w: got %d, max %d", ErrTooManyKeywords, len(r.Keywords), maxKeywords)
		}
		return nil
	}
	r.Keyword = strings.TrimSpace(r.Keyword)
	return ValidateKeyword(r.Keyword)
}

// ValidateKeyword rejects empty, overlong, non-UTF-8, and control-character keywords.
func ValidateKeyword(keyword string) error {
	if keyword == "" {
		return ErrEmptyKeyword
	}
	if !utf8.ValidString(keyword) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidKeyword)
	}
	if utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return fmt.Errorf("%w: max %d characters", ErrKeywordTooLong, MaxKeywordLength)
	}
	for _, r := range keyword {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control character %U", ErrInvalidKeyword, r)
		}
	}
	return nil
}

// NormalizeKeywords trims each keyword, drops blanks, and removes duplicates while keeping order.
// Keywords are otherwise left intact, so "1,000 dollars" stays one keyword.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, raw := range keywords {
		k := strings.TrimSpace(raw)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
