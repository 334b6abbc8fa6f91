package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !Verify("s3cret-pass", hash) {
		t.Fatal("correct password rejected")
	}
	if Verify("wrong-pass", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-token-value")
	b := HashToken("refresh-token-value")
	if a != b {
		t.Fatal("token hash not deterministic")
	}
	if a == HashToken("other-token") {
		t.Fatal("distinct tokens collided")
	}
	if len(a) != 64 {
		t.Fatalf("hash length=%d want 64", len(a))
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"12345678", true},
		{"1234567", false},
		{"", false},
		{"a long enough password", true},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.password); got != tt.want {
			t.Fatalf("ValidatePassword(%q)=%v want %v", tt.password, got, tt.want)
		}
	}
}
