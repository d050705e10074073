// Package cpf normalizes, validates and formats Brazilian individual taxpayer
// numbers (CPF). Two representations exist in storage: digits only
// ("52998224725") and the punctuated canonical form ("529.982.247-25").
package cpf

import (
	"errors"
	"strings"
)

// Length is the number of digits in a CPF, check digits included.
const Length = 11

var (
	// ErrMalformed means the input does not have exactly 11 digits.
	ErrMalformed = errors.New("cpf must have 11 digits")
	// ErrInvalid means the check digits do not match the first nine digits.
	ErrInvalid = errors.New("cpf check digits do not match")
)

// Validator is the capability used by callers that need to decide whether a
// digits-only CPF is acceptable.
type Validator interface {
	IsValid(digits string) bool
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(digits string) bool

func (f ValidatorFunc) IsValid(digits string) bool { return f(digits) }

// Checksum is the default Validator backed by IsValid.
var Checksum Validator = ValidatorFunc(IsValid)

// Normalize drops every byte that is not an ASCII decimal digit.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsValid reports whether digits is an 11-digit CPF whose check digits match.
// Input is expected to be normalized already; any non-digit makes it invalid.
func IsValid(digits string) bool {
	if len(digits) != Length {
		return false
	}
	var d [Length]int
	same := true
	for i := 0; i < Length; i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d[i] = int(c - '0')
		if c != digits[0] {
			same = false
		}
	}
	// 000.000.000-00, 111.111.111-11 ... satisfy the checksum but are not issued.
	if same {
		return false
	}
	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

// checkDigit computes one verifier digit using descending weights starting at
// weight. A remainder of 10 maps to 0.
func checkDigit(d []int, weight int) int {
	sum := 0
	for i, v := range d {
		sum += v * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

// Format renders an 11-digit CPF as "000.000.000-00". Inputs that do not
// normalize to 11 digits are returned normalized but otherwise unchanged.
// Format does not validate check digits.
func Format(digits string) string {
	n := Normalize(digits)
	if len(n) != Length {
		return n
	}
	return n[:3] + "." + n[3:6] + "." + n[6:9] + "-" + n[9:]
}

// Parse normalizes raw, validates it and returns the canonical form.
func Parse(raw string) (string, error) {
	return ParseWith(Checksum, raw)
}

// ParseWith is Parse with an explicit Validator.
func ParseWith(v Validator, raw string) (string, error) {
	digits := Normalize(raw)
	if len(digits) != Length {
		return "", ErrMalformed
	}
	if !v.IsValid(digits) {
		return "", ErrInvalid
	}
	return Format(digits), nil
}

// Representations returns the stored forms a CPF may have: canonical first,
// then digits only. It returns nil when raw does not hold 11 digits.
func Representations(raw string) []string {
	digits := Normalize(raw)
	if len(digits) != Length {
		return nil
	}
	return []string{Format(digits), digits}
}

// Mask hides the middle digits for logs: "529.***.***-25".
func Mask(raw string) string {
	digits := Normalize(raw)
	if len(digits) != Length {
		return strings.Repeat("*", len(digits))
	}
	return digits[:3] + ".***.***-" + digits[9:]
}
