package user

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Step identifies which group of fields the wizard is collecting.
type Step int

const (
	Step1 Step = 1
	Step2 Step = 2
	Step3 Step = 3
)

// ParseStep converts a raw step number, rejecting anything outside 1..3.
func ParseStep(n int) (Step, error) {
	s := Step(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}
	return s, nil
}

func (s Step) Valid() bool {
	return s >= Step1 && s <= Step3
}

// Next is the step that follows s. The last step has no successor and
// returns itself.
func (s Step) Next() Step {
	if s >= Step3 {
		return Step3
	}
	return s + 1
}

func (s Step) String() string {
	return strconv.Itoa(int(s))
}

// StepData is the payload collected by one wizard step together with its
// validation rules.
type StepData interface {
	Step() Step
	Validate() ValidationErrors
}

type Step1Data struct {
	Name  string
	Email string
}

type Step2Data struct {
	// Age is kept as submitted so malformed input can be reported.
	Age string
}

type Step3Data struct {
	Address string
}

func (Step1Data) Step() Step { return Step1 }
func (Step2Data) Step() Step { return Step2 }
func (Step3Data) Step() Step { return Step3 }

func (d Step1Data) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if isBlank(d.Name) {
		errs.Add("name", msgBlank)
	}
	if isBlank(d.Email) {
		errs.Add("email", msgBlank)
	}
	return errs
}

var integerPattern = regexp.MustCompile(`^[+-]?\d+$`)

func (d Step2Data) Validate() ValidationErrors {
	errs := ValidationErrors{}
	raw := strings.TrimSpace(d.Age)
	switch {
	case integerPattern.MatchString(raw):
		if _, err := strconv.Atoi(raw); err != nil {
			errs.Add("age", msgNotANumber)
		}
	case raw != "":
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			errs.Add("age", msgNotInteger)
		} else {
			errs.Add("age", msgNotANumber)
		}
	default:
		errs.Add("age", msgNotANumber)
	}
	return errs
}

func (d Step3Data) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if isBlank(d.Address) {
		errs.Add("address", msgBlank)
	}
	return errs
}

// dataFor builds the payload variant for step from the record merged with
// the submission.
func dataFor(step Step, u User, f Fields) StepData {
	switch step {
	case Step2:
		return Step2Data{Age: ageText(u, f)}
	case Step3:
		return Step3Data{Address: u.Address}
	default:
		return Step1Data{Name: u.Name, Email: u.Email}
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
