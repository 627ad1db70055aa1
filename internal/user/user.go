package user

import (
	"strconv"
	"strings"
	"time"
)

// User is the single record collected by the signup wizard. Step tracks
// which group of fields was last submitted.
type User struct {
	ID        int64
	Name      string
	Email     string
	Age       *int
	Address   string
	Step      Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Persisted reports whether the record has been stored at least once.
func (u User) Persisted() bool {
	return u.ID != 0
}

// Fields is one form submission. A nil pointer means the field was not sent.
type Fields struct {
	Name    *string
	Email   *string
	Age     *string
	Address *string
	Step    *int
}

// apply assigns submitted attributes onto the record. The client step is
// never assigned here; step resolution belongs to the service.
func (u *User) apply(f Fields) {
	if f.Name != nil {
		u.Name = *f.Name
	}
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.Address != nil {
		u.Address = *f.Address
	}
	if f.Age != nil {
		raw := strings.TrimSpace(*f.Age)
		if raw == "" {
			u.Age = nil
		} else if age, err := strconv.Atoi(raw); err == nil {
			u.Age = &age
		}
	}
}

// highestStep returns the last wizard step whose fields appear in the
// submission, or false when none do.
func (f Fields) highestStep() (Step, bool) {
	switch {
	case f.Address != nil:
		return Step3, true
	case f.Age != nil:
		return Step2, true
	case f.Name != nil || f.Email != nil:
		return Step1, true
	}
	return 0, false
}

// ageText renders the age the way it would come back from a form: the raw
// submission when present, otherwise the stored value.
func ageText(u User, f Fields) string {
	if f.Age != nil {
		return *f.Age
	}
	if u.Age != nil {
		return strconv.Itoa(*u.Age)
	}
	return ""
}
