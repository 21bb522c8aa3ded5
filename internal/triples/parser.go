// Package triples reads facts written as angle-bracket triples:
//
//	<Patient123>  <hasDiagnosis>  <Hypertension>
//
// Statements are whitespace separated and may share a line or span several.
package triples

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/epistate/internal/domain"
)

var ErrIncompleteStatement = errors.New("incomplete triple statement")

// Group holds the facts of one subject in the order they were read.
type Group struct {
	Subject string
	Facts   []domain.Fact
}

// Parse reads all statements from r and groups them by subject in first-seen order.
// Lines starting with '#' are comments.
func Parse(r io.Reader) ([]Group, error) {
	var (
		groups  []Group
		index   = make(map[string]int)
		pending []string
		started int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		for _, tok := range strings.Fields(text) {
			term := strip(tok)
			if term == "" {
				return nil, fmt.Errorf("line %d: empty term %q", line, tok)
			}
			if len(pending) == 0 {
				started = line
			}
			pending = append(pending, term)
			if len(pending) < 3 {
				continue
			}

			subject := pending[0]
			i, ok := index[subject]
			if !ok {
				i = len(groups)
				index[subject] = i
				groups = append(groups, Group{Subject: subject})
			}
			groups[i].Facts = append(groups[i].Facts, domain.Fact{
				EntityID:  subject,
				Predicate: pending[1],
				Object:    pending[2],
			})
			pending = pending[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: line %d: %d of 3 terms (%s)",
			ErrIncompleteStatement, started, len(pending), strings.Join(pending, " "))
	}
	return groups, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) ([]Group, error) {
	return Parse(strings.NewReader(s))
}

// Flatten returns every fact of every group, subjects in first-seen order.
func Flatten(groups []Group) []domain.Fact {
	n := 0
	for _, g := range groups {
		n += len(g.Facts)
	}
	out := make([]domain.Fact, 0, n)
	for _, g := range groups {
		out = append(out, g.Facts...)
	}
	return out
}

func strip(tok string) string {
	tok = strings.TrimPrefix(tok, "<")
	tok = strings.TrimSuffix(tok, ">")
	return strings.TrimSpace(tok)
}
