// Package phone приводит ганские номера телефонов к международному виду +233XXXXXXXXX.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalid — номер не удалось распознать.
var ErrInvalid = errors.New("invalid phone number")

const (
	region      = "GH"
	countryCode = "233"
)

// Normalize принимает номер в локальном (0XXXXXXXXX) или международном
// (233XXXXXXXXX, +233XXXXXXXXX) виде, с пробелами, дефисами и скобками.
// Номера других стран и прочие формы записи отклоняются.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	var international string
	switch digits := strings.TrimPrefix(cleaned, "+"); {
	case !onlyDigits(digits):
		return "", ErrInvalid
	case strings.HasPrefix(cleaned, "+"):
		if !strings.HasPrefix(digits, countryCode) {
			return "", ErrInvalid
		}
		international = cleaned
	case len(digits) == 12 && strings.HasPrefix(digits, countryCode):
		international = "+" + digits
	case len(digits) == 10 && digits[0] == '0':
		international = "+" + countryCode + digits[1:]
	default:
		return "", ErrInvalid
	}

	num, err := phonenumbers.Parse(international, region)
	if err != nil || !phonenumbers.IsValidNumberForRegion(num, region) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func onlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
