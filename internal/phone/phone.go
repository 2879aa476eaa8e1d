// Package phone canonicalises user supplied phone numbers so that the value
// stored in the user directory and the value queried are byte-identical.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrInvalidPhoneNumber is returned for input that cannot be parsed or fails validation.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrPhoneNumberRequired is returned by request handlers when no number was supplied.
	ErrPhoneNumberRequired = errors.New("phone number is required")
)

// Normalizer parses numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer builds a Normalizer for the given ISO 3166 region code (e.g. "ZA").
func NewNormalizer(region string) Normalizer {
	return Normalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

// DefaultRegion returns the region used for numbers without a country code.
func (n Normalizer) DefaultRegion() string {
	return n.region
}

// Normalize returns the E.164 form of raw. National numbers are read in the
// default region; numbers carrying a + prefix keep their own country code.
func (n Normalizer) Normalize(raw string) (string, error) {
	num, err := n.parse(raw)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Region reports the ISO region a number belongs to, or "" when unknown.
func (n Normalizer) Region(raw string) string {
	num, err := n.parse(raw)
	if err != nil {
		return ""
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return region
}

func (n Normalizer) parse(raw string) (*phonenumbers.PhoneNumber, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidPhoneNumber
	}
	num, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return nil, ErrInvalidPhoneNumber
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, ErrInvalidPhoneNumber
	}
	return num, nil
}
