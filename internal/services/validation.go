package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrEmptyField = errors.New("empty field value")

// FieldValidator turns raw text into the stored field value, or rejects it.
// The error text is shown to the user, so keep it conversational.
type FieldValidator func(text string) (string, error)

// AcceptNonEmpty stores any non-blank text as typed.
func AcceptNonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyField
	}
	return text, nil
}

// PhoneValidator accepts 9-15 digits, ignoring spaces, dashes and a leading +.
func PhoneValidator(text string) (string, error) {
	value, err := AcceptNonEmpty(text)
	if err != nil {
		return "", err
	}

	digits := 0
	for i, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ' || r == '-':
		case r == '+' && i == 0:
		default:
			return "", fmt.Errorf("เบอร์โทรควรเป็นตัวเลข เช่น 0891234567")
		}
	}
	if digits < 9 || digits > 15 {
		return "", fmt.Errorf("เบอร์โทรควรเป็นตัวเลข เช่น 0891234567")
	}
	return value, nil
}

// PartySizeValidator accepts a whole number of guests between 1 and max.
func PartySizeValidator(max int) FieldValidator {
	return func(text string) (string, error) {
		value, err := AcceptNonEmpty(text)
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > max {
			return "", fmt.Errorf("กรุณาระบุจำนวนเป็นตัวเลข 1-%d ท่านครับ", max)
		}
		return strconv.Itoa(n), nil
	}
}
