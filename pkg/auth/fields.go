package auth

import (
	"fmt"
	"strings"
)

// Field names a registration input that can be required.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldName     Field = "name"
	FieldCPF      Field = "cpf"
)

// DefaultRequiredFields is the strictest registration policy.
var DefaultRequiredFields = []Field{FieldEmail, FieldPassword, FieldCPF, FieldName}

// ParseFields reads a comma separated list such as "email,password,cpf".
// Email and password are always required and are added when absent.
func ParseFields(s string) ([]Field, error) {
	out := []Field{FieldEmail, FieldPassword}
	seen := map[Field]bool{FieldEmail: true, FieldPassword: true}
	for _, part := range strings.Split(s, ",") {
		f := Field(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		switch f {
		case FieldName, FieldCPF:
		default:
			return nil, fmt.Errorf("unknown registration field %q", f)
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// requiredSet checks a registration input against the configured policy.
type requiredSet map[Field]bool

func newRequiredSet(fields []Field) requiredSet {
	rs := requiredSet{FieldEmail: true, FieldPassword: true}
	for _, f := range fields {
		rs[f] = true
	}
	return rs
}

func (rs requiredSet) check(in RegisterInput) error {
	values := []struct {
		field Field
		value string
	}{
		{FieldEmail, in.Email},
		{FieldCPF, in.CPF},
		{FieldPassword, in.Password},
		{FieldName, in.Name},
	}
	for _, v := range values {
		if rs[v.field] && strings.TrimSpace(v.value) == "" {
			return &MissingFieldError{Field: v.field}
		}
	}
	return nil
}
