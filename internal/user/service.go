package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wichananm65/signup-wizard/internal/logging"
)

// ClientStepPolicy decides whether a step number sent with an update is
// trusted.
type ClientStepPolicy int

const (
	// ClientStepIgnore discards the client step and derives the submitted
	// step from the fields present in the payload.
	ClientStepIgnore ClientStepPolicy = iota
	// ClientStepAccept assigns the hidden step field from the form before
	// validation.
	ClientStepAccept
)

// ParseClientStepPolicy accepts "ignore" or "accept"; empty means ignore.
func ParseClientStepPolicy(s string) (ClientStepPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return ClientStepIgnore, nil
	case "accept":
		return ClientStepAccept, nil
	}
	return 0, fmt.Errorf("unknown client step policy %q", s)
}

func (p ClientStepPolicy) String() string {
	if p == ClientStepAccept {
		return "accept"
	}
	return "ignore"
}

// ViewKind names what the HTTP layer should render next.
type ViewKind int

const (
	// ViewNew is the initial form page.
	ViewNew ViewKind = iota
	// ViewStep is the partial for View.Step.
	ViewStep
	// ViewShow is the summary of a finished record.
	ViewShow
)

type View struct {
	Kind ViewKind
	Step Step
}

func stepView(s Step) View {
	return View{Kind: ViewStep, Step: s}
}

// Result is the outcome of one wizard transition.
type Result struct {
	User User
	View View
	// Errors is non-empty when validation failed and nothing was stored.
	Errors   ValidationErrors
	Complete bool
}

func (r Result) Invalid() bool {
	return !r.Errors.Empty()
}

// Service drives the three-step wizard over a single record.
type Service struct {
	repo   Repository
	policy ClientStepPolicy
	log    logging.Logger
}

func NewService(repo Repository, policy ClientStepPolicy, log logging.Logger) *Service {
	return &Service{repo: repo, policy: policy, log: log}
}

// Initialize returns an unsaved record positioned on the first step.
func (s *Service) Initialize() User {
	return User{Step: Step1}
}

func (s *Service) Show(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateOrUpdateInitial handles the first step. An unknown or missing id
// starts a new record.
func (s *Service) CreateOrUpdateInitial(ctx context.Context, id *int64, f Fields) (Result, error) {
	user := User{}
	if id != nil {
		existing, err := s.repo.GetByID(ctx, *id)
		switch {
		case err == nil:
			user = existing
		case errors.Is(err, ErrNotFound):
		default:
			return Result{}, err
		}
	}

	user.apply(f)
	user.Step = Step1

	if errs := dataFor(Step1, user, f).Validate(); !errs.Empty() {
		s.log.Debug(ctx, "step rejected", "id", user.ID, "step", Step1, "errors", errs.Error())
		return Result{User: user, View: View{Kind: ViewNew}, Errors: errs}, nil
	}

	var (
		saved User
		err   error
	)
	if user.Persisted() {
		saved, err = s.repo.Update(ctx, user)
	} else {
		saved, err = s.repo.Create(ctx, user)
	}
	if err != nil {
		return Result{}, fmt.Errorf("save step 1: %w", err)
	}

	s.log.Info(ctx, "step completed", "id", saved.ID, "step", Step1)
	return Result{User: saved, View: stepView(Step2)}, nil
}

// Advance is the validated transition: the submitted step must pass its
// rules before the record is stored at that step.
func (s *Service) Advance(ctx context.Context, id int64, f Fields) (Result, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	step, err := s.submittedStep(user, f)
	if err != nil {
		return Result{}, err
	}

	user.apply(f)
	user.Step = step

	if errs := dataFor(step, user, f).Validate(); !errs.Empty() {
		s.log.Debug(ctx, "step rejected", "id", id, "step", step, "errors", errs.Error())
		return Result{User: user, View: stepView(step), Errors: errs}, nil
	}

	saved, err := s.repo.Update(ctx, user)
	if err != nil {
		return Result{}, fmt.Errorf("save step %s: %w", step, err)
	}

	s.log.Info(ctx, "step completed", "id", id, "step", step)
	if step == Step3 {
		return Result{User: saved, View: View{Kind: ViewShow}, Complete: true}, nil
	}
	return Result{User: saved, View: stepView(step.Next())}, nil
}

// JumpToStep is the administrative override: it moves the record to target
// without validating any field.
func (s *Service) JumpToStep(ctx context.Context, id int64, target int) (Result, error) {
	step, err := ParseStep(target)
	if err != nil {
		return Result{}, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	user.Step = step
	saved, err := s.repo.Update(ctx, user)
	if err != nil {
		return Result{User: user, View: stepView(step)}, fmt.Errorf("override step: %w", err)
	}

	s.log.Info(ctx, "step overridden", "id", id, "step", step)
	return Result{User: saved, View: stepView(step)}, nil
}

func (s *Service) submittedStep(stored User, f Fields) (Step, error) {
	if s.policy == ClientStepAccept {
		if f.Step != nil {
			return ParseStep(*f.Step)
		}
		return stored.Step, nil
	}

	if step, ok := f.highestStep(); ok {
		return step, nil
	}
	return stored.Step, nil
}
