package cpf

import "testing"

// FuzzNormalize checks the normalizer and formatter invariants on arbitrary input.
func FuzzNormalize(f *testing.F) {
	f.Add("")
	f.Add("529.982.247-25")
	f.Add("52998224725")
	f.Add("00000000000")
	f.Add("'; DROP TABLE users;--")
	f.Add(string([]byte{0xff, '1', 0x00, '2'}))

	f.Fuzz(func(t *testing.T, input string) {
		n := Normalize(input)
		if len(n) > len(input) {
			t.Fatalf("normalized %q is longer than input %q", n, input)
		}
		for i := 0; i < len(n); i++ {
			if n[i] < '0' || n[i] > '9' {
				t.Fatalf("normalized %q contains non-digit", n)
			}
		}
		if got := Normalize(Format(n)); got != n {
			t.Fatalf("Normalize(Format(%q)) = %q", n, got)
		}
		if IsValid(input) && input != n {
			t.Fatalf("non-normalized input %q accepted", input)
		}
		canonical, err := Parse(input)
		if err == nil && !IsValid(Normalize(canonical)) {
			t.Fatalf("Parse(%q) returned %q which does not validate", input, canonical)
		}
	})
}
