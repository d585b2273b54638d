package services

import "testing"

func TestValidateBuyerRequiredFields(t *testing.T) {
	errs := ValidateBuyer(BuyerInfo{})
	for _, field := range []string{"firstName", "lastName", "email", "phone", "address", "city", "department"} {
		if errs[field] == "" {
			t.Fatalf("expected %s to be required, got %v", field, errs)
		}
	}
	if _, ok := errs["postalCode"]; ok {
		t.Fatalf("postal code must be optional")
	}
	if errs["email"] != "El email es requerido" {
		t.Fatalf("expected required message before format check, got %q", errs["email"])
	}
}

func TestValidateBuyerFormats(t *testing.T) {
	cases := []struct {
		name  string
		email string
		phone string
		want  map[string]string
	}{
		{name: "valid", email: "ana@example.co", phone: "+57 3001234567", want: map[string]string{}},
		{name: "bad email", email: "ana@", phone: "3001234567", want: map[string]string{"email": "Formato de email inválido"}},
		{name: "short phone", email: "ana@example.co", phone: "12345", want: map[string]string{"phone": "Formato de teléfono inválido"}},
		{name: "letters in phone", email: "ana@example.co", phone: "300-ABC-4567", want: map[string]string{"phone": "Formato de teléfono inválido"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buyer := validBuyer()
			buyer.Email = tc.email
			buyer.Phone = tc.phone
			errs := ValidateBuyer(buyer)
			if len(errs) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, errs)
			}
			for field, msg := range tc.want {
				if errs[field] != msg {
					t.Fatalf("expected %s=%q, got %q", field, msg, errs[field])
				}
			}
		})
	}
}
