package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/markwave/liveservices/internal/domain"
)

var customKeyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// BuildUserUpdate translates a sparse user update into SET clauses and the
// parameter map backing them. Only supplied fields participate; the emission
// order is fixed so callers assembling a statement from the clauses get a
// deterministic query. The function never fails: a malformed dob is dropped
// without affecting the other fields, and an empty update yields no clauses.
func BuildUserUpdate(update domain.UserUpdate) ([]string, map[string]any) {
	var clauses []string
	params := map[string]any{}

	assign := func(field string, value any) {
		clauses = append(clauses, fmt.Sprintf("u.%s = $%s", field, field))
		params[field] = value
	}

	if update.Name != nil {
		assign("name", *update.Name)
	}
	if update.Email != nil {
		assign("email", *update.Email)
		// Supplying an email always marks the user verified and the profile
		// form complete. These are literal clauses with no parameter.
		clauses = append(clauses, "u.verified = true", "u.isFormFilled = true")
	}
	if update.FirstName != nil {
		assign("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		assign("last_name", *update.LastName)
	}
	if update.Gender != nil {
		assign("gender", *update.Gender)
	}
	if update.Occupation != nil {
		assign("occupation", *update.Occupation)
	}
	if update.DOB != nil {
		if dob, err := ParseDOB(*update.DOB); err == nil {
			assign("dob", dob)
		}
	}
	if update.Address != nil {
		assign("address", *update.Address)
	}
	if update.City != nil {
		assign("city", *update.City)
	}
	if update.State != nil {
		assign("state", *update.State)
	}
	if update.AadharNumber != nil {
		assign("aadhar_number", *update.AadharNumber)
	}
	if update.Pincode != nil {
		assign("pincode", *update.Pincode)
	}
	if update.AadharFrontImageURL != nil {
		assign("aadhar_front_image_url", *update.AadharFrontImageURL)
	}
	if update.AadharBackImageURL != nil {
		assign("aadhar_back_image_url", *update.AadharBackImageURL)
	}
	if update.Verified != nil {
		assign("verified", *update.Verified)
	}

	if len(update.CustomFields) > 0 {
		keys := make([]string, 0, len(update.CustomFields))
		for key := range update.CustomFields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			assign(sanitizeCustomKey(key), update.CustomFields[key])
		}
	}

	return clauses, params
}

// sanitizeCustomKey makes a caller-supplied field name safe to interpolate as
// a property name by replacing spaces and hyphens with underscores.
func sanitizeCustomKey(key string) string {
	return customKeyReplacer.Replace(key)
}
