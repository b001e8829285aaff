package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/markwave/liveservices/internal/domain"
)

type stubUserStore struct {
	users       map[string]domain.UserProps
	usersByID   map[string]domain.UserProps
	verified    bool
	createCalls int
	updateProps domain.UserProps
	updateCount int
	referrals   []domain.ReferralSummary
	customers   []domain.ReferralSummary
	err         error
}

func (s *stubUserStore) CreateUser(ctx context.Context, user domain.NewUser) (domain.UserProps, error) {
	s.createCalls++
	if s.err != nil {
		return nil, s.err
	}
	return domain.UserProps{
		"id":         "generated-id",
		"mobile":     user.Mobile,
		"first_name": user.FirstName,
	}, nil
}

func (s *stubUserStore) FindUserByMobile(ctx context.Context, mobile string) (domain.UserProps, error) {
	if props, ok := s.users[mobile]; ok {
		return props, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserStore) FindUserByID(ctx context.Context, id string) (domain.UserProps, error) {
	if props, ok := s.usersByID[id]; ok {
		return props, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserStore) UpdateUserByMobile(ctx context.Context, mobile string, update domain.UserUpdate) (domain.UserProps, int, error) {
	return s.updateProps, s.updateCount, s.err
}

func (s *stubUserStore) UpdateUserByID(ctx context.Context, id string, update domain.UserUpdate) (domain.UserProps, int, error) {
	return s.updateProps, s.updateCount, s.err
}

func (s *stubUserStore) FetchVerificationState(ctx context.Context, mobile string) (bool, domain.UserProps, error) {
	props, ok := s.users[mobile]
	if !ok {
		return false, nil, domain.ErrUserNotFound
	}
	return s.verified, props, nil
}

func (s *stubUserStore) ListReferrals(ctx context.Context) ([]domain.ReferralSummary, error) {
	return s.referrals, s.err
}

func (s *stubUserStore) ListCustomers(ctx context.Context) ([]domain.ReferralSummary, error) {
	return s.customers, s.err
}

func TestUserService_Onboard_ExistingUser(t *testing.T) {
	store := &stubUserStore{
		users: map[string]domain.UserProps{
			"9876543210": {"id": "existing-id", "mobile": "9876543210"},
		},
	}
	svc := NewUserService(store)

	props, created, err := svc.Onboard(context.Background(), domain.NewUser{Mobile: "9876543210"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created {
		t.Fatalf("expected created=false for an existing mobile")
	}
	if props["id"] != "existing-id" {
		t.Errorf("expected the existing user untouched, got %v", props)
	}
	if store.createCalls != 0 {
		t.Errorf("expected no create call, got %d", store.createCalls)
	}
}

func TestUserService_Onboard_NewUser(t *testing.T) {
	store := &stubUserStore{users: map[string]domain.UserProps{}}
	svc := NewUserService(store)

	props, created, err := svc.Onboard(context.Background(), domain.NewUser{Mobile: "9876543210", FirstName: "Jane"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created {
		t.Fatalf("expected created=true for an unseen mobile")
	}
	if store.createCalls != 1 {
		t.Fatalf("expected exactly one create call, got %d", store.createCalls)
	}
	if props["first_name"] != "Jane" {
		t.Errorf("expected created props, got %v", props)
	}
}

func TestUserService_GetByID_FormatsDOB(t *testing.T) {
	dob := dbtype.Date(time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC))
	store := &stubUserStore{
		usersByID: map[string]domain.UserProps{
			"u-1": {"id": "u-1", "dob": dob},
		},
	}
	svc := NewUserService(store)

	props, err := svc.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if props["dob"] != "15-01-1990" {
		t.Fatalf("expected formatted dob, got %v", props["dob"])
	}
}

func TestUserService_GetByMobile_LeavesDOBRaw(t *testing.T) {
	dob := dbtype.Date(time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC))
	store := &stubUserStore{
		users: map[string]domain.UserProps{
			"9876543210": {"mobile": "9876543210", "dob": dob},
		},
	}
	svc := NewUserService(store)

	props, err := svc.GetByMobile(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := props["dob"].(dbtype.Date); !ok {
		t.Fatalf("mobile-keyed reads must not format the dob, got %T", props["dob"])
	}
}

func TestUserService_Verify_AlreadyVerified(t *testing.T) {
	store := &stubUserStore{
		users: map[string]domain.UserProps{
			"9876543210": {"mobile": "9876543210", "verified": true},
		},
		verified: true,
	}
	svc := NewUserService(store)
	svc.WithOTPIssuer(func() (string, error) {
		t.Fatal("no OTP should be issued for a verified user")
		return "", nil
	})

	result, err := svc.Verify(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.AlreadyVerified {
		t.Fatalf("expected AlreadyVerified=true")
	}
	if result.OTP != "" {
		t.Fatalf("expected no OTP, got %s", result.OTP)
	}
}

func TestUserService_Verify_IssuesOTP(t *testing.T) {
	store := &stubUserStore{
		users: map[string]domain.UserProps{
			"9876543210": {"mobile": "9876543210"},
		},
	}
	svc := NewUserService(store)
	svc.WithOTPIssuer(func() (string, error) { return "123456", nil })

	result, err := svc.Verify(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.AlreadyVerified {
		t.Fatalf("expected AlreadyVerified=false")
	}
	if result.OTP != "123456" {
		t.Fatalf("expected stubbed OTP, got %s", result.OTP)
	}
	if result.User["otp"] != "123456" {
		t.Errorf("expected OTP echoed in the user bag, got %v", result.User["otp"])
	}
	if result.User["verified"] != false {
		t.Errorf("expected verified=false in the user bag, got %v", result.User["verified"])
	}
}

func TestUserService_Verify_UnknownMobile(t *testing.T) {
	store := &stubUserStore{users: map[string]domain.UserProps{}}
	svc := NewUserService(store)

	_, err := svc.Verify(context.Background(), "9999999999")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
