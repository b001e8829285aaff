package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markwave/liveservices/internal/domain"
	"github.com/markwave/liveservices/internal/service"
)

type apiStubStore struct {
	users     map[string]domain.UserProps
	usersByID map[string]domain.UserProps
	verified  bool
	products  map[string]domain.Product
	purchases []domain.Purchase
	updates   []domain.UserUpdate
}

func (a *apiStubStore) CreateUser(ctx context.Context, user domain.NewUser) (domain.UserProps, error) {
	return domain.UserProps{"id": "generated-id", "mobile": user.Mobile, "first_name": user.FirstName}, nil
}

func (a *apiStubStore) FindUserByMobile(ctx context.Context, mobile string) (domain.UserProps, error) {
	if props, ok := a.users[mobile]; ok {
		return props, nil
	}
	return nil, domain.ErrUserNotFound
}

func (a *apiStubStore) FindUserByID(ctx context.Context, id string) (domain.UserProps, error) {
	if props, ok := a.usersByID[id]; ok {
		return props, nil
	}
	return nil, domain.ErrUserNotFound
}

func (a *apiStubStore) UpdateUserByMobile(ctx context.Context, mobile string, update domain.UserUpdate) (domain.UserProps, int, error) {
	if _, ok := a.users[mobile]; !ok {
		return nil, 0, domain.ErrUserNotFound
	}
	a.updates = append(a.updates, update)
	return a.users[mobile], countClauses(update), nil
}

func (a *apiStubStore) UpdateUserByID(ctx context.Context, id string, update domain.UserUpdate) (domain.UserProps, int, error) {
	if _, ok := a.usersByID[id]; !ok {
		return nil, 0, domain.ErrUserNotFound
	}
	a.updates = append(a.updates, update)
	return a.usersByID[id], countClauses(update), nil
}

func (a *apiStubStore) FetchVerificationState(ctx context.Context, mobile string) (bool, domain.UserProps, error) {
	props, ok := a.users[mobile]
	if !ok {
		return false, nil, domain.ErrUserNotFound
	}
	return a.verified, props, nil
}

func (a *apiStubStore) ListReferrals(ctx context.Context) ([]domain.ReferralSummary, error) {
	return []domain.ReferralSummary{{ID: "u-1", Mobile: "9876543210", FirstName: "Jane"}}, nil
}

func (a *apiStubStore) ListCustomers(ctx context.Context) ([]domain.ReferralSummary, error) {
	return nil, nil
}

func (a *apiStubStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if product, ok := a.products[id]; ok {
		return product, nil
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (a *apiStubStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(a.products))
	for _, product := range a.products {
		products = append(products, product)
	}
	return products, nil
}

func (a *apiStubStore) UpsertProduct(ctx context.Context, product domain.Product) error {
	return nil
}

func (a *apiStubStore) RecordPurchase(ctx context.Context, purchase domain.Purchase) error {
	a.purchases = append(a.purchases, purchase)
	return nil
}

func countClauses(update domain.UserUpdate) int {
	count := 0
	for _, p := range []*string{
		update.Name, update.Email, update.FirstName, update.LastName,
		update.Gender, update.Occupation, update.DOB, update.Address,
		update.City, update.State, update.AadharNumber, update.Pincode,
		update.AadharFrontImageURL, update.AadharBackImageURL,
	} {
		if p != nil {
			count++
		}
	}
	if update.Verified != nil {
		count++
	}
	return count + len(update.CustomFields)
}

func newTestRouter(store *apiStubStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := service.NewUserService(store)
	users.WithOTPIssuer(func() (string, error) { return "654321", nil })
	catalog := service.NewCatalogService(store)
	purchases := service.NewPurchaseService(store)
	handlers := NewAPIHandlers(logger, users, catalog, purchases)

	return NewRouter(logger, RouterDependencies{API: handlers})
}

func TestCreateUser_MissingField(t *testing.T) {
	router := newTestRouter(&apiStubStore{users: map[string]domain.UserProps{}})

	body := `{"mobile":"9876543210","first_name":"Jane","refered_by_mobile":"9123456789","refered_by_name":"Ravi"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["detail"] != "last_name is required" {
		t.Fatalf("unexpected detail: %q", payload["detail"])
	}
}

func TestCreateUser_NewAndExisting(t *testing.T) {
	store := &apiStubStore{users: map[string]domain.UserProps{}}
	router := newTestRouter(store)

	body := `{"mobile":"9876543210","first_name":"Jane","last_name":"Doe","refered_by_mobile":"9123456789","refered_by_name":"Ravi"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 on creation, got %d", rec.Code)
	}
	var created userEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Statuscode != 201 || created.Message != "User created or updated" {
		t.Fatalf("unexpected creation envelope: %+v", created)
	}

	// Same mobile again: the body statuscode flips to 200.
	store.users["9876543210"] = domain.UserProps{"id": "existing", "mobile": "9876543210"}
	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 for existing user, got %d", rec.Code)
	}
	var existing userEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &existing); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if existing.Statuscode != 200 || existing.Message != "User already exists" {
		t.Fatalf("unexpected existing envelope: %+v", existing)
	}
}

func TestUpdateUser_UnknownKeysIgnored(t *testing.T) {
	store := &apiStubStore{users: map[string]domain.UserProps{
		"9876543210": {"mobile": "9876543210"},
	}}
	router := newTestRouter(store)

	body := `{"not_a_field":"x","another":"y"}`
	req := httptest.NewRequest(http.MethodPut, "/users/9876543210", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload updateEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.UpdatedFields != 0 {
		t.Fatalf("unrecognized keys must update nothing, got %d", payload.UpdatedFields)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	router := newTestRouter(&apiStubStore{users: map[string]domain.UserProps{}})

	req := httptest.NewRequest(http.MethodPut, "/users/9999999999", strings.NewReader(`{"city":"Pune"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["detail"] != "User not found" {
		t.Fatalf("unexpected detail: %q", payload["detail"])
	}
}

func TestVerify_UnknownMobile(t *testing.T) {
	router := newTestRouter(&apiStubStore{users: map[string]domain.UserProps{}})

	body := `{"mobile":"9999999999","device_id":"dev-1","device_model":"Pixel 6"}`
	req := httptest.NewRequest(http.MethodPost, "/users/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMultipleChoices {
		t.Fatalf("expected status 300 on verification miss, got %d", rec.Code)
	}
}

func TestVerify_IssuesOTP(t *testing.T) {
	store := &apiStubStore{users: map[string]domain.UserProps{
		"9876543210": {"mobile": "9876543210"},
	}}
	router := newTestRouter(store)

	body := `{"mobile":"9876543210","device_id":"dev-1","device_model":"Pixel 6"}`
	req := httptest.NewRequest(http.MethodPost, "/users/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload verifyEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Message != "New user verified" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.OTP != "654321" {
		t.Fatalf("expected stubbed OTP in envelope, got %q", payload.OTP)
	}
}

func TestVerify_AlreadyVerified(t *testing.T) {
	store := &apiStubStore{
		users: map[string]domain.UserProps{
			"9876543210": {"mobile": "9876543210", "verified": true},
		},
		verified: true,
	}
	router := newTestRouter(store)

	body := `{"mobile":"9876543210","device_id":"dev-1","device_model":"Pixel 6"}`
	req := httptest.NewRequest(http.MethodPost, "/users/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload verifyEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Message != "User already verified" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.OTP != "" {
		t.Fatalf("no OTP expected, got %q", payload.OTP)
	}
}

func TestListReferrals(t *testing.T) {
	router := newTestRouter(&apiStubStore{users: map[string]domain.UserProps{}})

	req := httptest.NewRequest(http.MethodGet, "/users/referrals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload referralListEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Users) != 1 || payload.Users[0].Mobile != "9876543210" {
		t.Fatalf("unexpected referrals: %+v", payload.Users)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(&apiStubStore{products: map[string]domain.Product{}})

	req := httptest.NewRequest(http.MethodGet, "/products/PRD-0001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["detail"] != "Product not found" {
		t.Fatalf("unexpected detail: %q", payload["detail"])
	}
}

func TestGetProduct(t *testing.T) {
	store := &apiStubStore{products: map[string]domain.Product{
		"PRD-0001": {ID: "PRD-0001", Props: map[string]any{"id": "PRD-0001", "breed": "Murrah"}},
	}}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products/PRD-0001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload productEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Product["breed"] != "Murrah" {
		t.Fatalf("unexpected product bag: %v", payload.Product)
	}
}

func TestRecordPurchase(t *testing.T) {
	store := &apiStubStore{}
	router := newTestRouter(store)

	body := `{"User_mobile":"9876543210","item":"Murrah #3","details":"full payment"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(store.purchases) != 1 {
		t.Fatalf("expected 1 recorded purchase, got %d", len(store.purchases))
	}
	if store.purchases[0].ID == "" {
		t.Fatal("expected a generated purchase id")
	}
}

func TestRecordPurchase_MissingItem(t *testing.T) {
	router := newTestRouter(&apiStubStore{})

	body := `{"User_mobile":"9876543210","details":"full payment"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUsersRoute_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&apiStubStore{users: map[string]domain.UserProps{}})

	req := httptest.NewRequest(http.MethodDelete, "/users/9876543210", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}
