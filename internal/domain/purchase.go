package domain

// Purchase records a purchase event for a user identified by mobile number.
// Purchases are append-only facts; nothing in this service updates or reads
// them back.
type Purchase struct {
	ID         string
	UserMobile string
	Item       string
	Details    string
}
