package ophelib

import "testing"

// fakeScheme stubs every Scheme method except PlaintextSizeBits, just
// enough to exercise PackCount in isolation from real key generation.
type fakeScheme struct {
	plaintextSizeBits int
}

func (f fakeScheme) PublicKey() PublicKey                { return PublicKey{} }
func (f fakeScheme) PrivateKey() (PrivateKey, bool)       { return PrivateKey{}, false }
func (f fakeScheme) KeySizeBits() int                     { return f.plaintextSizeBits }
func (f fakeScheme) PlaintextSizeBits() int               { return f.plaintextSizeBits }
func (f fakeScheme) PlaintextLowerBoundary() Int          { return Int{} }
func (f fakeScheme) PlaintextUpperBoundary() Int          { return Int{} }
func (f fakeScheme) N2() Int                              { return Int{} }
func (f fakeScheme) FastMod() *FastMod                    { return nil }
func (f fakeScheme) Encrypt(m Int, src RandSource) (Ciphertext, error) { return Ciphertext{}, nil }
func (f fakeScheme) Decrypt(c Ciphertext) (Int, error)    { return Int{}, nil }

var _ Scheme = fakeScheme{}

func TestPackCount(t *testing.T) {
	scheme := fakeScheme{plaintextSizeBits: 1024}
	cases := []struct {
		plaintextBits int
		want          int
	}{
		{128, 7},
		{64, 15},
		{32, 31},
		{30, 33},
		{16, 60},
	}
	for _, c := range cases {
		got, err := PackCount(scheme, c.plaintextBits)
		if err != nil {
			t.Fatalf("PackCount(%d): %v", c.plaintextBits, err)
		}
		if got != c.want {
			t.Errorf("PackCount(%d) = %d, want %d", c.plaintextBits, got, c.want)
		}
	}
}

func TestPackCountRejectsZeroPlaintextBits(t *testing.T) {
	scheme := fakeScheme{plaintextSizeBits: 1024}
	if _, err := PackCount(scheme, 0); err == nil {
		t.Error("expected an error for plaintextBits == 0")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	values := []Int{NewInt(1), NewInt(2), NewInt(3), NewInt(4), NewInt(5), NewInt(6), NewInt(7)}
	pc, err := Encode(scheme, values, 8, src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(scheme, pc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(values) {
		t.Fatalf("decoded %d slots, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i].Cmp(values[i]) != 0 {
			t.Errorf("slot %d = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestEncodeRejectsTooManyValues(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	count, err := PackCount(scheme, 8)
	if err != nil {
		t.Fatal(err)
	}
	values := make([]Int, count+1)
	for i := range values {
		values[i] = NewInt(int64(i % 3))
	}
	if _, err := Encode(scheme, values, 8, src); err == nil {
		t.Error("expected an error packing more values than PackCount allows")
	}
}

func TestEncodeRejectsOverflowingValue(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Encode(scheme, []Int{NewInt(1000)}, 4, src); err == nil {
		t.Error("expected an error for a value overflowing plaintext_bits")
	}
}

func TestEncodeDecodeNegativeValues(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	values := []Int{NewInt(-3), NewInt(2), NewInt(-1)}
	pc, err := Encode(scheme, values, 8, src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(scheme, pc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i].Cmp(values[i]) != 0 {
			t.Errorf("slot %d = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestPackCiphertextsMatchesEncode(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	values := []Int{NewInt(2), NewInt(5), NewInt(-4)}
	cs := make([]Ciphertext, len(values))
	for i, v := range values {
		cs[i], err = scheme.Encrypt(v, src)
		if err != nil {
			t.Fatal(err)
		}
	}
	pc, err := PackCiphertexts(scheme, cs, 8)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(scheme, pc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i].Cmp(values[i]) != 0 {
			t.Errorf("slot %d = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestEncodeChunkedAndDecryptFast(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	values := make([]Int, 20)
	for i := range values {
		values[i] = NewInt(int64(i - 10))
	}
	packs, err := EncodeChunked(scheme, values, 8, src)
	if err != nil {
		t.Fatal(err)
	}
	count, err := PackCount(scheme, 8)
	if err != nil {
		t.Fatal(err)
	}
	wantPacks := (len(values) + count - 1) / count
	if len(packs) != wantPacks {
		t.Fatalf("got %d packs, want %d", len(packs), wantPacks)
	}

	var recovered []Int
	for _, pc := range packs {
		slots, err := Decode(scheme, pc)
		if err != nil {
			t.Fatal(err)
		}
		recovered = append(recovered, slots...)
	}
	for i := range values {
		if recovered[i].Cmp(values[i]) != 0 {
			t.Errorf("value %d = %v, want %v", i, recovered[i], values[i])
		}
	}

	cs := make([]Ciphertext, len(values))
	for i, v := range values {
		cs[i], err = scheme.Encrypt(v, src)
		if err != nil {
			t.Fatal(err)
		}
	}
	fast, err := DecryptFast(scheme, cs, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if fast[i].Cmp(values[i]) != 0 {
			t.Errorf("DecryptFast value %d = %v, want %v", i, fast[i], values[i])
		}
	}
}

// TestEncodeDecodeRoundTripAt2048 exercises SPEC_FULL.md's scenario 6 at the
// stated scale: a real 2048-bit key, plaintext_bits=128, encoding [1..7]
// decodes identically, and packing an 8th element fails. Key generation at
// this size is slow, so it is skipped under -short.
func TestEncodeDecodeRoundTripAt2048(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 2048-bit key generation in short mode")
	}
	src := DefaultRandSource()
	scheme, err := GenerateReference(2048, src)
	if err != nil {
		t.Fatal(err)
	}

	values := []Int{NewInt(1), NewInt(2), NewInt(3), NewInt(4), NewInt(5), NewInt(6), NewInt(7)}
	pc, err := Encode(scheme, values, 128, src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(scheme, pc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(values) {
		t.Fatalf("decoded %d slots, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i].Cmp(values[i]) != 0 {
			t.Errorf("slot %d = %v, want %v", i, got[i], values[i])
		}
	}

	eighth := append(append([]Int{}, values...), NewInt(8))
	if _, err := Encode(scheme, eighth, 128, src); err == nil {
		t.Error("expected an error packing an 8th element at plaintext_bits=128 on a 2048-bit key")
	}
}

func TestEncodeChunkedEmptyInput(t *testing.T) {
	src := DefaultRandSource()
	scheme, err := GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}
	packs, err := EncodeChunked(scheme, nil, 8, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(packs) != 0 {
		t.Errorf("expected 0 packs for empty input, got %d", len(packs))
	}
}
