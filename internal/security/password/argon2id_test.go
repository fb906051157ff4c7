package password

import (
	"strings"
	"testing"
)

// Params chicos para que los tests no paguen el costo de producción.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(testParams, "correct horse battery 9")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}
	if !Verify("correct horse battery 9", phc) {
		t.Fatalf("Verify rejected the right password")
	}
	if Verify("wrong password 9", phc) {
		t.Fatalf("Verify accepted the wrong password")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	a, err := Hash(testParams, "same password 1")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	b, err := Hash(testParams, "same password 1")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical (salt reuse)")
	}
	if !Verify("same password 1", a) || !Verify("same password 1", b) {
		t.Fatalf("Verify failed on one of the hashes")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA", // versión no soportada
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",  // variante distinta
		"$argon2id$v=19$m=8192,t=1,p=1$not-b64!$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA",
	}
	for _, phc := range cases {
		if Verify("whatever1", phc) {
			t.Fatalf("Verify accepted malformed PHC %q", phc)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	cases := []struct {
		name    string
		pass    string
		ok      bool
		reasons []string
	}{
		{"valid", "abcdef12", true, nil},
		{"too short", "ab1", false, []string{"too_short"}},
		{"missing digit", "abcdefgh", false, []string{"missing_digit"}},
		{"missing lower", "ABCDEF12", false, []string{"missing_lower"}},
		{"short and missing both", "AB", false, []string{"too_short", "missing_lower", "missing_digit"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reasons := DefaultPolicy.Validate(tc.pass)
			if ok != tc.ok {
				t.Fatalf("Validate(%q) ok = %v, want %v (reasons %v)", tc.pass, ok, tc.ok, reasons)
			}
			if len(reasons) != len(tc.reasons) {
				t.Fatalf("Validate(%q) reasons = %v, want %v", tc.pass, reasons, tc.reasons)
			}
			for i := range reasons {
				if reasons[i] != tc.reasons[i] {
					t.Fatalf("Validate(%q) reasons = %v, want %v", tc.pass, reasons, tc.reasons)
				}
			}
		})
	}
}

func TestPolicy_StrictVariant(t *testing.T) {
	strict := Policy{MinLength: 10, RequireUpper: true, RequireLower: true, RequireDigit: true, RequireSymbol: true}
	if ok, _ := strict.Validate("Abcdef12!x"); !ok {
		t.Fatalf("strict policy rejected a compliant password")
	}
	if ok, reasons := strict.Validate("abcdef12xx"); ok || len(reasons) != 2 {
		t.Fatalf("strict policy should report missing_upper and missing_symbol, got %v", reasons)
	}
}
