package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/signup-wizard/internal/logging"
)

func str(s string) *string { return &s }

func intp(n int) *int { return &n }

func newTestService(seed []User, policy ClientStepPolicy) (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	return NewService(repo, policy, logging.Discard()), repo
}

func TestInitialize_StartsUnsavedAtStepOne(t *testing.T) {
	svc, _ := newTestService(nil, ClientStepIgnore)

	u := svc.Initialize()

	assert.Equal(t, Step1, u.Step)
	assert.False(t, u.Persisted())
}

func TestCreateOrUpdateInitial_SavesAtStepOne(t *testing.T) {
	svc, repo := newTestService(nil, ClientStepIgnore)
	ctx := context.Background()

	res, err := svc.CreateOrUpdateInitial(ctx, nil, Fields{Name: str("Ann"), Email: str("a@x.com")})
	require.NoError(t, err)

	assert.False(t, res.Invalid())
	assert.Equal(t, View{Kind: ViewStep, Step: Step2}, res.View)
	stored, err := repo.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, Step1, stored.Step)
	assert.Equal(t, "Ann", stored.Name)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestCreateOrUpdateInitial_MissingNameOrEmail(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		field  string
	}{
		{"empty name", Fields{Name: str(""), Email: str("a@x.com")}, "name"},
		{"blank name", Fields{Name: str("   "), Email: str("a@x.com")}, "name"},
		{"missing email", Fields{Name: str("Ann")}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(nil, ClientStepIgnore)

			res, err := svc.CreateOrUpdateInitial(context.Background(), nil, tt.fields)
			require.NoError(t, err)

			assert.True(t, res.Invalid())
			assert.Equal(t, []string{msgBlank}, res.Errors[tt.field])
			assert.Equal(t, ViewNew, res.View.Kind)
			assert.Equal(t, Step1, res.User.Step)
			assert.False(t, res.User.Persisted())
			_, err = repo.GetByID(context.Background(), 1)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCreateOrUpdateInitial_ReusesExistingRecord(t *testing.T) {
	seed := []User{{ID: 5, Name: "Old", Email: "old@x.com", Age: intp(20), Step: Step2}}
	svc, repo := newTestService(seed, ClientStepIgnore)
	id := int64(5)

	res, err := svc.CreateOrUpdateInitial(context.Background(), &id, Fields{Name: str("New"), Email: str("new@x.com")})
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.User.ID)
	stored, _ := repo.GetByID(context.Background(), 5)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, Step1, stored.Step)
	require.NotNil(t, stored.Age)
	assert.Equal(t, 20, *stored.Age)
}

func TestCreateOrUpdateInitial_UnknownIDStartsNewRecord(t *testing.T) {
	svc, _ := newTestService(nil, ClientStepIgnore)
	id := int64(99)

	res, err := svc.CreateOrUpdateInitial(context.Background(), &id, Fields{Name: str("Ann"), Email: str("a@x.com")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.User.ID)
}

func TestAdvance_NonIntegerAgeHoldsStepTwo(t *testing.T) {
	for _, age := range []string{"", "abc", "3.5", "30 years"} {
		t.Run(age, func(t *testing.T) {
			seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Step: Step2}}
			svc, repo := newTestService(seed, ClientStepIgnore)

			res, err := svc.Advance(context.Background(), 1, Fields{Age: str(age)})
			require.NoError(t, err)

			assert.True(t, res.Invalid())
			assert.NotEmpty(t, res.Errors["age"])
			assert.Equal(t, View{Kind: ViewStep, Step: Step2}, res.View)
			stored, _ := repo.GetByID(context.Background(), 1)
			assert.Equal(t, Step2, stored.Step)
			assert.Nil(t, stored.Age)
		})
	}
}

func TestAdvance_AgeMessages(t *testing.T) {
	assert.Equal(t, []string{msgNotInteger}, Step2Data{Age: "3.5"}.Validate()["age"])
	assert.Equal(t, []string{msgNotANumber}, Step2Data{Age: "abc"}.Validate()["age"])
	assert.Equal(t, []string{msgNotANumber}, Step2Data{Age: ""}.Validate()["age"])
	assert.True(t, Step2Data{Age: "-4"}.Validate().Empty())
	assert.True(t, Step2Data{Age: " 30 "}.Validate().Empty())
}

func TestAdvance_StepThreeCompletes(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Age: intp(30), Step: Step2}}
	svc, _ := newTestService(seed, ClientStepIgnore)
	ctx := context.Background()

	res, err := svc.Advance(ctx, 1, Fields{Address: str("1 Main St")})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.Equal(t, ViewShow, res.View.Kind)
	shown, err := svc.Show(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Step3, shown.Step)
	assert.Equal(t, "1 Main St", shown.Address)
}

func TestAdvance_BlankAddressHoldsStepThree(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Age: intp(30), Step: Step2}}
	svc, repo := newTestService(seed, ClientStepIgnore)

	res, err := svc.Advance(context.Background(), 1, Fields{Address: str(" ")})
	require.NoError(t, err)

	assert.Equal(t, []string{msgBlank}, res.Errors["address"])
	assert.Equal(t, View{Kind: ViewStep, Step: Step3}, res.View)
	stored, _ := repo.GetByID(context.Background(), 1)
	assert.Equal(t, Step2, stored.Step)
}

func TestAdvance_ResubmittingFinalStepStaysComplete(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Age: intp(30), Address: "1 Main St", Step: Step3}}
	svc, _ := newTestService(seed, ClientStepIgnore)

	res, err := svc.Advance(context.Background(), 1, Fields{})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.Equal(t, Step3, res.User.Step)
}

func TestAdvance_NotFoundPropagates(t *testing.T) {
	svc, _ := newTestService(nil, ClientStepIgnore)

	_, err := svc.Advance(context.Background(), 42, Fields{Age: str("30")})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvance_OtherStepFieldsAreNotChecked(t *testing.T) {
	seed := []User{{ID: 1, Step: Step1}}
	svc, _ := newTestService(seed, ClientStepIgnore)

	// only age is validated; empty name and email are accepted as-is
	res, err := svc.Advance(context.Background(), 1, Fields{Name: str(""), Age: str("30")})
	require.NoError(t, err)

	assert.False(t, res.Invalid())
	assert.Equal(t, Step2, res.User.Step)
}

func TestAdvance_IgnorePolicyDiscardsClientStep(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Step: Step1}}
	svc, _ := newTestService(seed, ClientStepIgnore)

	res, err := svc.Advance(context.Background(), 1, Fields{Age: str("30"), Step: intp(3)})
	require.NoError(t, err)

	assert.Equal(t, Step2, res.User.Step)
	assert.Equal(t, View{Kind: ViewStep, Step: Step3}, res.View)
}

func TestAdvance_IgnorePolicyFallsBackToStoredStep(t *testing.T) {
	seed := []User{{ID: 1, Step: Step2}}
	svc, _ := newTestService(seed, ClientStepIgnore)

	res, err := svc.Advance(context.Background(), 1, Fields{Step: intp(1)})
	require.NoError(t, err)

	assert.True(t, res.Invalid())
	assert.Contains(t, res.Errors, "age")
}

func TestAdvance_AcceptPolicyTrustsClientStep(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Step: Step2}}
	svc, repo := newTestService(seed, ClientStepAccept)

	// the client claims step 1, so only name and email are validated
	res, err := svc.Advance(context.Background(), 1, Fields{Age: str("abc"), Step: intp(1)})
	require.NoError(t, err)

	assert.False(t, res.Invalid())
	assert.Equal(t, View{Kind: ViewStep, Step: Step2}, res.View)
	stored, _ := repo.GetByID(context.Background(), 1)
	assert.Equal(t, Step1, stored.Step)
}

func TestAdvance_AcceptPolicyWithoutClientStepUsesStoredStep(t *testing.T) {
	seed := []User{{ID: 1, Name: "Ann", Email: "a@x.com", Step: Step1}}
	svc, _ := newTestService(seed, ClientStepAccept)

	res, err := svc.Advance(context.Background(), 1, Fields{Age: str("abc")})
	require.NoError(t, err)

	assert.False(t, res.Invalid())
	assert.Equal(t, Step1, res.User.Step)
}

func TestAdvance_AcceptPolicyRejectsOutOfRangeStep(t *testing.T) {
	seed := []User{{ID: 1, Step: Step1}}
	svc, _ := newTestService(seed, ClientStepAccept)

	_, err := svc.Advance(context.Background(), 1, Fields{Step: intp(4)})

	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestJumpToStep_BypassesValidation(t *testing.T) {
	for _, target := range []int{1, 2, 3} {
		seed := []User{{ID: 1, Step: Step1}}
		svc, repo := newTestService(seed, ClientStepIgnore)

		res, err := svc.JumpToStep(context.Background(), 1, target)
		require.NoError(t, err)

		assert.Equal(t, View{Kind: ViewStep, Step: Step(target)}, res.View)
		stored, _ := repo.GetByID(context.Background(), 1)
		assert.Equal(t, Step(target), stored.Step)
		assert.Empty(t, stored.Name)
	}
}

func TestJumpToStep_InvalidTarget(t *testing.T) {
	svc, _ := newTestService([]User{{ID: 1, Step: Step1}}, ClientStepIgnore)

	for _, target := range []int{0, 4, -1} {
		_, err := svc.JumpToStep(context.Background(), 1, target)
		assert.ErrorIs(t, err, ErrInvalidStep)
	}
}

func TestJumpToStep_NotFound(t *testing.T) {
	svc, _ := newTestService(nil, ClientStepIgnore)

	_, err := svc.JumpToStep(context.Background(), 7, 2)

	assert.ErrorIs(t, err, ErrNotFound)
}

type failingUpdateRepo struct {
	*InMemoryRepository
}

func (failingUpdateRepo) Update(context.Context, User) (User, error) {
	return User{}, errors.New("disk full")
}

func TestJumpToStep_SurfacesPersistenceFailure(t *testing.T) {
	repo := failingUpdateRepo{NewInMemoryRepository([]User{{ID: 1, Step: Step1}})}
	svc := NewService(repo, ClientStepIgnore, logging.Discard())

	res, err := svc.JumpToStep(context.Background(), 1, 3)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, View{Kind: ViewStep, Step: Step3}, res.View)
}

func TestWizard_FullWalkthrough(t *testing.T) {
	svc, repo := newTestService(nil, ClientStepIgnore)
	ctx := context.Background()

	created, err := svc.CreateOrUpdateInitial(ctx, nil, Fields{Name: str("Ann"), Email: str("a@x.com")})
	require.NoError(t, err)
	id := created.User.ID
	assert.Equal(t, Step1, created.User.Step)

	second, err := svc.Advance(ctx, id, Fields{Age: str("30")})
	require.NoError(t, err)
	stored, _ := repo.GetByID(ctx, id)
	assert.Equal(t, Step2, stored.Step)
	require.NotNil(t, stored.Age)
	assert.Equal(t, 30, *stored.Age)
	assert.Equal(t, View{Kind: ViewStep, Step: Step3}, second.View)

	third, err := svc.Advance(ctx, id, Fields{Address: str("1 Main St")})
	require.NoError(t, err)
	assert.True(t, third.Complete)
	stored, _ = repo.GetByID(ctx, id)
	assert.Equal(t, Step3, stored.Step)
}

func TestWizard_EmptyNameFailsAtInitialStep(t *testing.T) {
	svc, _ := newTestService(nil, ClientStepIgnore)

	res, err := svc.CreateOrUpdateInitial(context.Background(), nil, Fields{Name: str(""), Email: str("a@x.com")})
	require.NoError(t, err)

	assert.Equal(t, Step1, res.User.Step)
	assert.Equal(t, []string{"Name can't be blank"}, res.Errors.FullMessages())
}

func TestParseClientStepPolicy(t *testing.T) {
	p, err := ParseClientStepPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ClientStepIgnore, p)

	p, err = ParseClientStepPolicy("Accept")
	require.NoError(t, err)
	assert.Equal(t, ClientStepAccept, p)

	_, err = ParseClientStepPolicy("sometimes")
	assert.Error(t, err)
}
