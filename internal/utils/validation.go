package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

const maxIDLength = 100

var (
	ErrEmptyID        = errors.New("id cannot be empty")
	ErrInvalidIDChars = errors.New("id contains invalid characters")

	// Operator stop ids, route numbers and MTR station codes.
	idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// ValidateID checks an identifier taken from a request path.
func ValidateID(id string) error {
	switch {
	case id == "":
		return ErrEmptyID
	case len(id) > maxIDLength:
		return fmt.Errorf("id too long (max %d characters)", maxIDLength)
	case !idPattern.MatchString(id):
		return ErrInvalidIDChars
	}
	return nil
}

// ValidateCoordinate rejects non-finite or out of range positions. The
// origin is accepted because placeholder stops carry a zero location.
func ValidateCoordinate(lat, lng float64) error {
	if !finite(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	if !finite(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range", lng)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
