package services

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]{7,15}$`)
)

var requiredBuyerFields = []struct {
	name    string
	value   func(BuyerInfo) string
	message string
}{
	{"firstName", func(b BuyerInfo) string { return b.FirstName }, "El nombre es requerido"},
	{"lastName", func(b BuyerInfo) string { return b.LastName }, "El apellido es requerido"},
	{"email", func(b BuyerInfo) string { return b.Email }, "El email es requerido"},
	{"phone", func(b BuyerInfo) string { return b.Phone }, "El teléfono es requerido"},
	{"address", func(b BuyerInfo) string { return b.Address }, "La dirección es requerida"},
	{"city", func(b BuyerInfo) string { return b.City }, "La ciudad es requerida"},
	{"department", func(b BuyerInfo) string { return b.Department }, "El departamento es requerido"},
}

// ValidateBuyer returns the field errors of info keyed by form field. An empty map means the form is valid.
func ValidateBuyer(info BuyerInfo) map[string]string {
	errs := make(map[string]string)
	for _, field := range requiredBuyerFields {
		if strings.TrimSpace(field.value(info)) == "" {
			errs[field.name] = field.message
		}
	}
	if _, missing := errs["email"]; !missing && !emailPattern.MatchString(strings.TrimSpace(info.Email)) {
		errs["email"] = "Formato de email inválido"
	}
	if _, missing := errs["phone"]; !missing && !phonePattern.MatchString(strings.TrimSpace(info.Phone)) {
		errs["phone"] = "Formato de teléfono inválido"
	}
	return errs
}
