package http

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/lattice/pkg/domain"
)

// DefaultMaxInputSize bounds each submitted text field, in bytes.
const DefaultMaxInputSize = 4096

// sanitize rejects oversized or invalid UTF-8 text and strips control
// characters other than newline, tab and carriage return, so stored posts and
// comments cannot corrupt a terminal or a log line when printed.
func sanitize(field, input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, field, limit)
	}
	if !utf8.ValidString(input) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, field)
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// formText reads and sanitizes a form field.
func (s *Server) formText(r *http.Request, field string) (string, error) {
	return sanitize(field, r.FormValue(field), s.maxInput)
}
