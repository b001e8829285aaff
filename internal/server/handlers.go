package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markwave/liveservices/internal/domain"
	"github.com/markwave/liveservices/internal/service"
)

// statusVerifyMiss is the status the verification endpoint uses to signal
// "user not found or not eligible". Unconventional, but it is the contract
// the mobile clients already depend on.
const statusVerifyMiss = http.StatusMultipleChoices

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger    *slog.Logger
	users     *service.UserService
	catalog   *service.CatalogService
	purchases *service.PurchaseService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, users *service.UserService, catalog *service.CatalogService, purchases *service.PurchaseService) *APIHandlers {
	return &APIHandlers{
		logger:    logger,
		users:     users,
		catalog:   catalog,
		purchases: purchases,
	}
}

func (h *APIHandlers) handleUsersRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	h.createUser(w, r)
}

func (h *APIHandlers) handleUsersSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")

	switch {
	case path == "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.createUser(w, r)
	case path == "verify":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.verifyUser(w, r)
	case path == "referrals":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.listReferrals(w, r)
	case path == "customers":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.listCustomers(w, r)
	case strings.HasPrefix(path, "id/"):
		id := strings.TrimPrefix(path, "id/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusBadRequest, "user ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.getUserByID(w, r, id)
		case http.MethodPut:
			h.updateUserByID(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	default:
		if strings.Contains(path, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.getUserByMobile(w, r, path)
		case http.MethodPut:
			h.updateUserByMobile(w, r, path)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	}
}

func (h *APIHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := payload.validate(); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	props, created, err := h.users.Onboard(r.Context(), domain.NewUser{
		Mobile:           payload.Mobile,
		FirstName:        payload.FirstName,
		LastName:         payload.LastName,
		ReferredByMobile: payload.ReferredByMobile,
		ReferredByName:   payload.ReferredByName,
	})
	if err != nil {
		h.logger.Error("failed to onboard user", "error", err, "mobile", payload.Mobile)
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}

	// The body statuscode distinguishes the branches; the HTTP status stays
	// 200 either way, as the existing clients expect.
	if created {
		respondJSON(w, http.StatusOK, userEnvelope{
			Statuscode: 201,
			Status:     "success",
			Message:    "User created or updated",
			User:       props,
		})
		return
	}
	respondJSON(w, http.StatusOK, userEnvelope{
		Statuscode: 200,
		Status:     "success",
		Message:    "User already exists",
		User:       props,
	})
}

func (h *APIHandlers) getUserByMobile(w http.ResponseWriter, r *http.Request, mobile string) {
	props, err := h.users.GetByMobile(r.Context(), mobile)
	if err != nil {
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, userEnvelope{
		Statuscode: 200,
		Status:     "success",
		User:       props,
	})
}

func (h *APIHandlers) getUserByID(w http.ResponseWriter, r *http.Request, id string) {
	props, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, userEnvelope{
		Statuscode: 200,
		Status:     "success",
		User:       props,
	})
}

func (h *APIHandlers) updateUserByMobile(w http.ResponseWriter, r *http.Request, mobile string) {
	update, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}

	props, updated, err := h.users.UpdateByMobile(r.Context(), mobile, update)
	if err != nil {
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, updateEnvelope{
		Statuscode:    200,
		Status:        "success",
		Message:       "User updated successfully",
		UpdatedFields: updated,
		User:          props,
	})
}

func (h *APIHandlers) updateUserByID(w http.ResponseWriter, r *http.Request, id string) {
	update, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}

	props, updated, err := h.users.UpdateByID(r.Context(), id, update)
	if err != nil {
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, updateEnvelope{
		Statuscode:    200,
		Status:        "success",
		Message:       "User updated successfully",
		UpdatedFields: updated,
		User:          props,
	})
}

func (h *APIHandlers) listReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.users.Referrals(r.Context())
	if err != nil {
		h.logger.Error("failed to list referrals", "error", err)
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}

	users := make([]referralResponse, 0, len(referrals))
	for _, item := range referrals {
		users = append(users, referralResponse{
			ID:               item.ID,
			Mobile:           item.Mobile,
			FirstName:        item.FirstName,
			LastName:         item.LastName,
			ReferredByName:   item.ReferredByName,
			ReferredByMobile: item.ReferredByMobile,
		})
	}
	respondJSON(w, http.StatusOK, referralListEnvelope{
		Statuscode: 200,
		Status:     "success",
		Users:      users,
	})
}

func (h *APIHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.users.Customers(r.Context())
	if err != nil {
		h.logger.Error("failed to list customers", "error", err)
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}

	users := make([]customerResponse, 0, len(customers))
	for _, item := range customers {
		users = append(users, customerResponse{
			ID:               item.ID,
			Mobile:           item.Mobile,
			FirstName:        item.FirstName,
			LastName:         item.LastName,
			IsFormFilled:     item.IsFormFilled,
			ReferredByName:   item.ReferredByName,
			ReferredByMobile: item.ReferredByMobile,
			Verified:         item.Verified,
		})
	}
	respondJSON(w, http.StatusOK, customerListEnvelope{
		Statuscode: 200,
		Status:     "success",
		Users:      users,
	})
}

func (h *APIHandlers) verifyUser(w http.ResponseWriter, r *http.Request) {
	var payload verifyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := payload.validate(); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.users.Verify(r.Context(), payload.Mobile)
	if err != nil {
		h.respondServiceError(w, err, statusVerifyMiss)
		return
	}

	if result.AlreadyVerified {
		respondJSON(w, http.StatusOK, verifyEnvelope{
			Statuscode: 200,
			Status:     "success",
			Message:    "User already verified",
			User:       result.User,
		})
		return
	}
	respondJSON(w, http.StatusOK, verifyEnvelope{
		Statuscode: 200,
		Status:     "success",
		Message:    "New user verified",
		OTP:        result.OTP,
		User:       result.User,
	})
}

func (h *APIHandlers) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}

	bags := make([]map[string]any, 0, len(products))
	for _, product := range products {
		bags = append(bags, product.Props)
	}
	respondJSON(w, http.StatusOK, productListEnvelope{
		Statuscode: 200,
		Status:     "success",
		Products:   bags,
	})
}

func (h *APIHandlers) handleProductByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products/"), "/")
	if id == "" {
		h.handleProducts(w, r)
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, productEnvelope{
		Statuscode: 200,
		Status:     "success",
		Product:    product.Props,
	})
}

func (h *APIHandlers) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload purchaseRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := payload.validate(); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.purchases.Record(r.Context(), payload.UserMobile, payload.Item, payload.Details); err != nil {
		h.logger.Error("failed to record purchase", "error", err, "mobile", payload.UserMobile)
		h.respondServiceError(w, err, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, messageEnvelope{
		Statuscode: 200,
		Status:     "success",
		Message:    "Purchase recorded",
	})
}

func (h *APIHandlers) decodeUpdate(w http.ResponseWriter, r *http.Request) (domain.UserUpdate, bool) {
	var payload updateUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.UserUpdate{}, false
	}
	return payload.toDomain(), true
}

// respondServiceError maps domain errors onto response codes. The not-found
// status is caller-supplied because the verification endpoint reports a miss
// as 300 where everything else uses 404.
func (h *APIHandlers) respondServiceError(w http.ResponseWriter, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, notFoundStatus, "User not found")
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Request & Response DTOs ---

type createUserRequest struct {
	Mobile           string `json:"mobile"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	ReferredByMobile string `json:"refered_by_mobile"`
	ReferredByName   string `json:"refered_by_name"`
}

func (req createUserRequest) validate() (string, bool) {
	switch {
	case req.Mobile == "":
		return "mobile is required", false
	case req.FirstName == "":
		return "first_name is required", false
	case req.LastName == "":
		return "last_name is required", false
	case req.ReferredByMobile == "":
		return "refered_by_mobile is required", false
	case req.ReferredByName == "":
		return "refered_by_name is required", false
	}
	return "", true
}

type updateUserRequest struct {
	Name                *string        `json:"name"`
	Email               *string        `json:"email"`
	FirstName           *string        `json:"first_name"`
	LastName            *string        `json:"last_name"`
	Gender              *string        `json:"gender"`
	Occupation          *string        `json:"occupation"`
	DOB                 *string        `json:"dob"`
	Address             *string        `json:"address"`
	City                *string        `json:"city"`
	State               *string        `json:"state"`
	AadharNumber        *string        `json:"aadhar_number"`
	Pincode             *string        `json:"pincode"`
	AadharFrontImageURL *string        `json:"aadhar_front_image_url"`
	AadharBackImageURL  *string        `json:"aadhar_back_image_url"`
	Verified            *bool          `json:"verified"`
	CustomFields        map[string]any `json:"custom_fields"`
}

func (req updateUserRequest) toDomain() domain.UserUpdate {
	return domain.UserUpdate{
		Name:                req.Name,
		Email:               req.Email,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Gender:              req.Gender,
		Occupation:          req.Occupation,
		DOB:                 req.DOB,
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		AadharNumber:        req.AadharNumber,
		Pincode:             req.Pincode,
		AadharFrontImageURL: req.AadharFrontImageURL,
		AadharBackImageURL:  req.AadharBackImageURL,
		Verified:            req.Verified,
		CustomFields:        req.CustomFields,
	}
}

type verifyRequest struct {
	Mobile      string `json:"mobile"`
	DeviceID    string `json:"device_id"`
	DeviceModel string `json:"device_model"`
}

func (req verifyRequest) validate() (string, bool) {
	switch {
	case req.Mobile == "":
		return "mobile is required", false
	case req.DeviceID == "":
		return "device_id is required", false
	case req.DeviceModel == "":
		return "device_model is required", false
	}
	return "", true
}

type purchaseRequest struct {
	UserMobile string `json:"User_mobile"`
	Item       string `json:"item"`
	Details    string `json:"details"`
}

func (req purchaseRequest) validate() (string, bool) {
	switch {
	case req.UserMobile == "":
		return "User_mobile is required", false
	case req.Item == "":
		return "item is required", false
	case req.Details == "":
		return "details is required", false
	}
	return "", true
}

type userEnvelope struct {
	Statuscode int              `json:"statuscode"`
	Status     string           `json:"status"`
	Message    string           `json:"message,omitempty"`
	User       domain.UserProps `json:"user"`
}

type updateEnvelope struct {
	Statuscode    int              `json:"statuscode"`
	Status        string           `json:"status"`
	Message       string           `json:"message"`
	UpdatedFields int              `json:"updated_fields"`
	User          domain.UserProps `json:"user"`
}

type verifyEnvelope struct {
	Statuscode int              `json:"statuscode"`
	Status     string           `json:"status"`
	Message    string           `json:"message"`
	OTP        string           `json:"otp,omitempty"`
	User       domain.UserProps `json:"user"`
}

type referralResponse struct {
	ID               string `json:"id"`
	Mobile           string `json:"mobile"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	ReferredByName   string `json:"refered_by_name"`
	ReferredByMobile string `json:"refered_by_mobile"`
}

type referralListEnvelope struct {
	Statuscode int                `json:"statuscode"`
	Status     string             `json:"status"`
	Users      []referralResponse `json:"users"`
}

type customerResponse struct {
	ID               string `json:"id"`
	Mobile           string `json:"mobile"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	IsFormFilled     *bool  `json:"isFormFilled"`
	ReferredByName   string `json:"refered_by_name"`
	ReferredByMobile string `json:"refered_by_mobile"`
	Verified         *bool  `json:"verified"`
}

type customerListEnvelope struct {
	Statuscode int                `json:"statuscode"`
	Status     string             `json:"status"`
	Users      []customerResponse `json:"users"`
}

type productEnvelope struct {
	Statuscode int            `json:"statuscode"`
	Status     string         `json:"status"`
	Product    map[string]any `json:"product"`
}

type productListEnvelope struct {
	Statuscode int              `json:"statuscode"`
	Status     string           `json:"status"`
	Products   []map[string]any `json:"products"`
}

type messageEnvelope struct {
	Statuscode int    `json:"statuscode"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// --- Helpers ---

// decodeJSON deliberately tolerates unknown fields: partial-update payloads
// commonly carry keys this service does not recognize, and those must be
// ignored rather than rejected.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"detail": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
