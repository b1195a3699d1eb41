package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedReference is returned when a draft node's identity or
// type/payload pair cannot be interpreted.
var ErrMalformedReference = errors.New("malformed reference")

// PlaceholderPrefix marks item identities that were assigned client-side and
// have never been persisted.
const PlaceholderPrefix = "tmp-"

// ID identifies a draft node. It is either real (previously persisted,
// storage-assigned) or a placeholder (client-assigned during the current
// editing session). A node never transitions from real back to placeholder.
type ID struct {
	real  int64
	token string
}

// RealID wraps a storage-assigned identifier. n must be positive.
func RealID(n int64) ID {
	return ID{real: n}
}

// PlaceholderID wraps a client-assigned token.
func PlaceholderID(token string) ID {
	return ID{token: token}
}

// NumericPlaceholder builds a placeholder from the negative-integer wire form
// used by modules, lessons, exams, resources, questions and answers.
func NumericPlaceholder(n int64) ID {
	return ID{token: strconv.FormatInt(n, 10)}
}

// ParseNumericID interprets the signed-integer wire form: positive values are
// real identifiers, negative values are placeholders. Zero is malformed.
func ParseNumericID(n int64) (ID, error) {
	switch {
	case n > 0:
		return RealID(n), nil
	case n < 0:
		return NumericPlaceholder(n), nil
	default:
		return ID{}, fmt.Errorf("%w: zero numeric id", ErrMalformedReference)
	}
}

// ParseTokenID interprets the string wire form used by items: a "tmp-" prefix
// marks a placeholder, anything else must be a positive decimal integer.
func ParseTokenID(s string) (ID, error) {
	if strings.HasPrefix(s, PlaceholderPrefix) {
		return PlaceholderID(s), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return ID{}, fmt.Errorf("%w: item id %q", ErrMalformedReference, s)
	}
	return RealID(n), nil
}

// IsZero reports whether the ID carries no identity at all.
func (id ID) IsZero() bool {
	return id.real == 0 && id.token == ""
}

// IsPlaceholder reports whether the ID is client-assigned.
func (id ID) IsPlaceholder() bool {
	return id.token != ""
}

// Real returns the storage-assigned identifier. Zero for placeholders.
func (id ID) Real() int64 {
	return id.real
}

// Token returns the placeholder token. Empty for real IDs.
func (id ID) Token() string {
	return id.token
}

// Numeric returns the signed-integer wire form. Placeholder tokens that are
// not negative integers (composite item tokens) cannot be represented and
// return an error.
func (id ID) Numeric() (int64, error) {
	if !id.IsPlaceholder() {
		return id.real, nil
	}
	n, err := strconv.ParseInt(id.token, 10, 64)
	if err != nil || n >= 0 {
		return 0, fmt.Errorf("%w: placeholder %q has no numeric form", ErrMalformedReference, id.token)
	}
	return n, nil
}

func (id ID) String() string {
	if id.IsPlaceholder() {
		return id.token
	}
	return strconv.FormatInt(id.real, 10)
}
