package identity

import (
	"errors"
	"strings"
	"testing"
)

func testParams() Argon2idParams {
	// Small parameters keep the test fast; production uses DefaultArgon2idParams.
	return Argon2idParams{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Correct1Horse", testParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}

	ok, err := VerifyPassword("Correct1Horse", hash)
	if err != nil || !ok {
		t.Fatalf("verify correct password: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("WrongPassword1", hash)
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	h1, err := HashPassword("Correct1Horse", testParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("Correct1Horse", testParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerifyPassword_RejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAA",
		"$argon2id$v=19$m=notanumber,t=1,p=1$c2FsdA$AAAA",
		// Parameters beyond sane bounds must be refused outright.
		"$argon2id$v=19$m=999999999,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}
	for _, c := range cases {
		if _, err := VerifyPassword("whatever", c); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("hash %q: got %v, want ErrInvalidHash", c, err)
		}
	}
}

func TestValidPassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Abcdef12", true},
		{"LongerPassword9", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidPassword(c.password); got != c.want {
			t.Fatalf("ValidPassword(%q) = %v, want %v", c.password, got, c.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"no-at-sign", false},
		{"@example.com", false},
		{"user@", false},
		{"user@nodot", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidEmail(c.email); got != c.want {
			t.Fatalf("ValidEmail(%q) = %v, want %v", c.email, got, c.want)
		}
	}
}
