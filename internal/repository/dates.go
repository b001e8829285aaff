package repository

import (
	"fmt"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Dates of birth arrive as MM-DD-YYYY and leave as DD-MM-YYYY. The asymmetry
// is a wire contract inherited from the mobile clients; both directions must
// stay exactly as they are.
const (
	dobInboundLayout  = "01-02-2006"
	dobOutboundLayout = "02-01-2006"
)

var dobShapeRegex = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// ParseDOB parses a strictly zero-padded MM-DD-YYYY date into the driver's
// date type so the store keeps a calendar date rather than a string.
func ParseDOB(s string) (dbtype.Date, error) {
	if !dobShapeRegex.MatchString(s) {
		return dbtype.Date{}, fmt.Errorf("dob %q is not in MM-DD-YYYY format", s)
	}
	t, err := time.Parse(dobInboundLayout, s)
	if err != nil {
		return dbtype.Date{}, fmt.Errorf("parse dob %q: %w", s, err)
	}
	return dbtype.Date(t), nil
}

// FormatDOB renders a stored date of birth as DD-MM-YYYY. Stored values show
// up either as the driver's date type or as a plain time.Time; anything else
// falls back to its string form instead of failing the read.
func FormatDOB(v any) string {
	switch d := v.(type) {
	case dbtype.Date:
		return d.Time().Format(dobOutboundLayout)
	case time.Time:
		return d.Format(dobOutboundLayout)
	default:
		return fmt.Sprint(v)
	}
}
