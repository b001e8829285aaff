package service

import (
	"context"
	"errors"

	"github.com/markwave/liveservices/internal/domain"
	"github.com/markwave/liveservices/internal/repository"
)

// UserStore is the persistence contract required by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.NewUser) (domain.UserProps, error)
	FindUserByMobile(ctx context.Context, mobile string) (domain.UserProps, error)
	FindUserByID(ctx context.Context, id string) (domain.UserProps, error)
	UpdateUserByMobile(ctx context.Context, mobile string, update domain.UserUpdate) (domain.UserProps, int, error)
	UpdateUserByID(ctx context.Context, id string, update domain.UserUpdate) (domain.UserProps, int, error)
	FetchVerificationState(ctx context.Context, mobile string) (bool, domain.UserProps, error)
	ListReferrals(ctx context.Context) ([]domain.ReferralSummary, error)
	ListCustomers(ctx context.Context) ([]domain.ReferralSummary, error)
}

// UserService orchestrates onboarding, profile updates, and verification.
type UserService struct {
	store UserStore
	otpFn func() (string, error)
}

// NewUserService constructs a UserService backed by the supplied store.
func NewUserService(store UserStore) *UserService {
	return &UserService{
		store: store,
		otpFn: IssueOTP,
	}
}

// WithOTPIssuer overrides the OTP source (used primarily in tests).
func (s *UserService) WithOTPIssuer(fn func() (string, error)) {
	if fn != nil {
		s.otpFn = fn
	}
}

// Onboard creates the user if the mobile is unseen, or returns the existing
// user untouched. The created flag tells the caller which branch was taken.
func (s *UserService) Onboard(ctx context.Context, user domain.NewUser) (domain.UserProps, bool, error) {
	existing, err := s.store.FindUserByMobile(ctx, user.Mobile)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetByMobile returns the raw property bag for the user with that mobile.
func (s *UserService) GetByMobile(ctx context.Context, mobile string) (domain.UserProps, error) {
	return s.store.FindUserByMobile(ctx, mobile)
}

// GetByID returns the property bag for the user with that identifier, with
// the date of birth rendered as DD-MM-YYYY. The by-mobile path deliberately
// does not format the date; only id-keyed reads carry that behaviour.
func (s *UserService) GetByID(ctx context.Context, id string) (domain.UserProps, error) {
	props, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	formatDOBField(props)
	return props, nil
}

// UpdateByMobile applies a partial update keyed on mobile and returns the
// updated property bag plus the number of clauses applied.
func (s *UserService) UpdateByMobile(ctx context.Context, mobile string, update domain.UserUpdate) (domain.UserProps, int, error) {
	return s.store.UpdateUserByMobile(ctx, mobile, update)
}

// UpdateByID applies a partial update keyed on the generated identifier; the
// returned bag carries a formatted date of birth.
func (s *UserService) UpdateByID(ctx context.Context, id string, update domain.UserUpdate) (domain.UserProps, int, error) {
	props, updated, err := s.store.UpdateUserByID(ctx, id, update)
	if err != nil {
		return nil, 0, err
	}
	formatDOBField(props)
	return props, updated, nil
}

// Referrals lists users referred into the system who are not yet verified.
func (s *UserService) Referrals(ctx context.Context) ([]domain.ReferralSummary, error) {
	return s.store.ListReferrals(ctx)
}

// Customers lists verified users.
func (s *UserService) Customers(ctx context.Context) ([]domain.ReferralSummary, error) {
	return s.store.ListCustomers(ctx)
}

// VerificationResult is the outcome of a verification request.
type VerificationResult struct {
	AlreadyVerified bool
	OTP             string
	User            domain.UserProps
}

// Verify checks the verification state for a mobile number. An already
// verified user comes back as-is; an unverified one is issued a fresh OTP.
// The OTP is not persisted anywhere, it only rides the response.
func (s *UserService) Verify(ctx context.Context, mobile string) (VerificationResult, error) {
	verified, props, err := s.store.FetchVerificationState(ctx, mobile)
	if err != nil {
		return VerificationResult{}, err
	}

	formatDOBField(props)
	if verified {
		return VerificationResult{AlreadyVerified: true, User: props}, nil
	}

	otp, err := s.otpFn()
	if err != nil {
		return VerificationResult{}, err
	}
	if props == nil {
		props = domain.UserProps{}
	}
	props["verified"] = false
	props["otp"] = otp

	return VerificationResult{OTP: otp, User: props}, nil
}

func formatDOBField(props domain.UserProps) {
	if v, ok := props["dob"]; ok {
		props["dob"] = repository.FormatDOB(v)
	}
}
