package textutil

import "testing"

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"  Komercia SAS ":                         "Komercia SAS",
		"<b>Sillas</b> & más":                     "Sillas & más",
		"<script>alert(1)</script>Hola":           "Hola",
		"Lunes a Viernes\nSábados":                "Lunes a Viernes\nSábados",
		`<a href="javascript:alert(1)">click</a>`: "click",
		"":                                        "",
	}
	for input, want := range cases {
		if got := StripMarkup(input); got != want {
			t.Fatalf("StripMarkup(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestStripMarkupSliceDropsEmpty(t *testing.T) {
	got := StripMarkupSlice([]string{" Calidad ", "<i></i>", "Servicio"})
	if len(got) != 2 || got[0] != "Calidad" || got[1] != "Servicio" {
		t.Fatalf("unexpected result %v", got)
	}
	if StripMarkupSlice(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}
