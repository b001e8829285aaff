package domain

// NewUser carries the fields required to onboard a user. Every field is
// mandatory at creation time; the generated id is assigned by the store on the
// create branch of the merge and is immutable afterwards.
type NewUser struct {
	Mobile           string `json:"mobile"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	ReferredByMobile string `json:"refered_by_mobile"`
	ReferredByName   string `json:"refered_by_name"`
}

// UserUpdate is a sparse partial update. Nil pointers mean "field not
// supplied" and are skipped entirely; this is PATCH semantics, not PUT.
// CustomFields is an open-ended bag of caller-defined scalar attributes.
type UserUpdate struct {
	Name                *string
	Email               *string
	FirstName           *string
	LastName            *string
	Gender              *string
	Occupation          *string
	DOB                 *string
	Address             *string
	City                *string
	State               *string
	AadharNumber        *string
	Pincode             *string
	AadharFrontImageURL *string
	AadharBackImageURL  *string
	Verified            *bool
	CustomFields        map[string]any
}

// UserProps is the full property bag of a user node as stored in the graph.
// The schema is open-ended (custom fields land here too), so reads surface
// the raw properties rather than a fixed struct.
type UserProps map[string]any

// ReferralSummary is the projection returned by the referral and customer
// listing queries.
type ReferralSummary struct {
	ID               string
	Mobile           string
	FirstName        string
	LastName         string
	ReferredByName   string
	ReferredByMobile string
	IsFormFilled     *bool
	Verified         *bool
}
