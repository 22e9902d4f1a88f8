package ophelib

import (
	"testing"
)

func TestReferenceEncryptDecryptRoundTrip(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []int64{0, 1, -1, 5, 10, -17} {
		c, err := scheme.Encrypt(NewInt(m), src)
		if err != nil {
			t.Fatalf("Encrypt(%d): %v", m, err)
		}
		got, err := scheme.Decrypt(c)
		if err != nil {
			t.Fatalf("Decrypt(%d): %v", m, err)
		}
		if got.Cmp(NewInt(m)) != 0 {
			t.Errorf("round trip of %d produced %v", m, got)
		}
	}
}

func TestReferenceEncryptBoundaryWraparound(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	upper := scheme.PlaintextUpperBoundary()
	lower := scheme.PlaintextLowerBoundary()

	for _, m := range []Int{upper, upper.Sub(oneInt), lower, lower.Add(oneInt)} {
		c, err := scheme.Encrypt(m, src)
		if err != nil {
			t.Fatalf("Encrypt(%v): %v", m, err)
		}
		got, err := scheme.Decrypt(c)
		if err != nil {
			t.Fatalf("Decrypt(%v): %v", m, err)
		}
		if got.Cmp(m) != 0 {
			t.Errorf("round trip of %v produced %v", m, got)
		}
	}

	// Encrypting one past the upper boundary must succeed and wrap around to
	// -upper on decryption rather than being rejected: per spec.md §8,
	// plaintxt_upper_boundary+1 is not an invalid plaintext, it aliases the
	// most negative representable value.
	wrapped := upper.Add(oneInt)
	c, err := scheme.Encrypt(wrapped, src)
	if err != nil {
		t.Fatalf("Encrypt(upper+1) should succeed, got error: %v", err)
	}
	got, err := scheme.Decrypt(c)
	if err != nil {
		t.Fatal(err)
	}
	want := upper.Neg()
	if got.Cmp(want) != 0 {
		t.Errorf("decrypt(encrypt(upper+1)) = %v, want %v", got, want)
	}
}

func TestReferenceHomomorphicAdd(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	c5, err := scheme.Encrypt(NewInt(5), src)
	if err != nil {
		t.Fatal(err)
	}
	c10, err := scheme.Encrypt(NewInt(10), src)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := c5.Add(c10)
	if err != nil {
		t.Fatal(err)
	}
	got, err := scheme.Decrypt(sum)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(NewInt(15)) != 0 {
		t.Errorf("decrypt(c5+c10) = %v, want 15", got)
	}
}

func TestReferenceHomomorphicScalarMulAndSub(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	c4, err := scheme.Encrypt(NewInt(4), src)
	if err != nil {
		t.Fatal(err)
	}
	tripled, err := c4.ScalarMul(NewInt(3))
	if err != nil {
		t.Fatal(err)
	}
	got, err := scheme.Decrypt(tripled)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(NewInt(12)) != 0 {
		t.Errorf("decrypt(3*c4) = %v, want 12", got)
	}

	c9, err := scheme.Encrypt(NewInt(9), src)
	if err != nil {
		t.Fatal(err)
	}
	diff, err := c9.Sub(c4)
	if err != nil {
		t.Fatal(err)
	}
	got, err = scheme.Decrypt(diff)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(NewInt(5)) != 0 {
		t.Errorf("decrypt(c9-c4) = %v, want 5", got)
	}
}

func TestScalarMulByZeroIsDeterministic(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	c, err := scheme.Encrypt(NewInt(7), src)
	if err != nil {
		t.Fatal(err)
	}
	z1, err := c.ScalarMul(NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	z2, err := c.ScalarMul(NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	if !z1.Equal(z2) {
		t.Errorf("ScalarMul(0) should be deterministic: %v != %v", z1.Data(), z2.Data())
	}
}

func TestCiphertextWithoutModulusFailsHomomorphicOps(t *testing.T) {
	c := NewCiphertext(NewInt(42))
	if c.HasModulus() {
		t.Fatal("fresh NewCiphertext should carry no modulus")
	}
	if _, err := c.Neg(); !errorsAs[*CryptoError](err) {
		t.Errorf("Neg on bare ciphertext: expected CryptoError, got %v", err)
	}
	if _, err := c.Add(c); !errorsAs[*CryptoError](err) {
		t.Errorf("Add on bare ciphertext: expected CryptoError, got %v", err)
	}
	if _, err := c.ScalarMul(NewInt(2)); !errorsAs[*CryptoError](err) {
		t.Errorf("ScalarMul on bare ciphertext: expected CryptoError, got %v", err)
	}
}

func TestEncryptDecryptBatch(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	ms := []Int{NewInt(1), NewInt(2), NewInt(3), NewInt(-4), NewInt(5)}
	cs, err := EncryptBatch(scheme, ms, src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecryptBatch(scheme, cs)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range ms {
		if got[i].Cmp(m) != 0 {
			t.Errorf("batch[%d] = %v, want %v", i, got[i], m)
		}
	}
}

func TestLoadReferencePublicCannotDecrypt(t *testing.T) {
	src := DefaultRandSource()
	full, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	pubOnly, err := LoadReferencePublic(full.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	c, err := pubOnly.Encrypt(NewInt(3), src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pubOnly.Decrypt(c); err == nil {
		t.Error("expected an error decrypting with a public-only scheme")
	}
	if _, ok := pubOnly.PrivateKey(); ok {
		t.Error("PrivateKey() should report false for a public-only scheme")
	}
}

func TestGenerateReferenceRejectsOddKeySize(t *testing.T) {
	if _, err := GenerateReference(65, DefaultRandSource()); err == nil {
		t.Error("expected an error for an odd key size")
	}
}
