package user

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidStep = errors.New("step must be 1, 2 or 3")
)

const (
	msgBlank      = "can't be blank"
	msgNotANumber = "is not a number"
	msgNotInteger = "must be an integer"
)

// fieldOrder fixes the order of full messages.
var fieldOrder = []string{"name", "email", "age", "address"}

// ValidationErrors maps a field name to its messages.
type ValidationErrors map[string][]string

func (e ValidationErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e ValidationErrors) Empty() bool {
	return len(e) == 0
}

// FullMessages returns messages prefixed with the humanized field name,
// e.g. "Name can't be blank".
func (e ValidationErrors) FullMessages() []string {
	out := make([]string, 0, len(e))
	for _, field := range fieldOrder {
		for _, msg := range e[field] {
			out = append(out, humanize(field)+" "+msg)
		}
	}
	return out
}

func (e ValidationErrors) Error() string {
	return strings.Join(e.FullMessages(), "; ")
}

func humanize(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
