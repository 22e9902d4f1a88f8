package ophelib

import (
	"math/big"
	"testing"
)

func TestLFunction(t *testing.T) {
	u := NewInt(21)
	d := NewInt(3)

	got, err := L(u, d)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(NewInt(6)) != 0 {
		t.Errorf("L(21, 3) = %v, want 6", got)
	}
}

func TestBitLenOfZeroIsOne(t *testing.T) {
	if NewInt(0).BitLen() != 1 {
		t.Errorf("BitLen(0) = %d, want 1", NewInt(0).BitLen())
	}
}

func TestPowRejectsNegativeExponent(t *testing.T) {
	_, err := NewInt(2).Pow(-1)
	if err == nil {
		t.Fatal("expected an error for a negative exponent")
	}
	if !errorsAs[*MathError](err) {
		t.Errorf("expected a MathError, got %T (%v)", err, err)
	}
}

func TestPowModRejectsZeroModulus(t *testing.T) {
	_, err := NewInt(2).PowMod(NewInt(3), NewInt(0))
	if !errorsAs[*MathError](err) {
		t.Errorf("expected a MathError for modulus zero, got %v", err)
	}
}

func TestInvModFailsWhenNotCoprime(t *testing.T) {
	_, err := NewInt(4).InvMod(NewInt(8))
	if !errorsAs[*MathError](err) {
		t.Errorf("expected a MathError, got %v", err)
	}
}

func TestInvModSucceeds(t *testing.T) {
	inv, err := NewInt(3).InvMod(NewInt(11))
	if err != nil {
		t.Fatal(err)
	}
	prod, _ := NewInt(3).Mul(inv).Mod(NewInt(11))
	if prod.Cmp(NewInt(1)) != 0 {
		t.Errorf("3 * inv(3) mod 11 = %v, want 1", prod)
	}
}

func TestGCDAndLCM(t *testing.T) {
	if g := NewInt(54).GCD(NewInt(24)); g.Cmp(NewInt(6)) != 0 {
		t.Errorf("GCD(54, 24) = %v, want 6", g)
	}
	if l := NewInt(4).LCM(NewInt(6)); l.Cmp(NewInt(12)) != 0 {
		t.Errorf("LCM(4, 6) = %v, want 12", l)
	}
}

func TestDivByZeroFails(t *testing.T) {
	_, err := NewInt(5).Div(NewInt(0))
	if !errorsAs[*MathError](err) {
		t.Errorf("expected a MathError, got %v", err)
	}
}

func TestModByZeroFails(t *testing.T) {
	_, err := NewInt(5).Mod(NewInt(0))
	if !errorsAs[*MathError](err) {
		t.Errorf("expected a MathError, got %v", err)
	}
}

func TestIsPrime(t *testing.T) {
	if !NewInt(2).IsPrime() {
		t.Error("2 should be prime")
	}

	m127, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	if !NewIntFromBig(m127).IsPrime() {
		t.Error("M127 should be prime")
	}

	m127Plus1, _ := new(big.Int).SetString("170141183460469231731687303715884105728", 10)
	if NewIntFromBig(m127Plus1).IsPrime() {
		t.Error("M127+1 should not be prime")
	}

	if NewInt(1).IsPrime() {
		t.Error("1 should not be prime")
	}
	if NewInt(4).IsPrime() {
		t.Error("4 should not be prime")
	}
}

func TestMillerRabinRoundsTable(t *testing.T) {
	cases := []struct {
		bitLen int
		rounds int
	}{
		{99, 27},
		{100, 27},
		{150, 18},
		{200, 15},
		{250, 12},
		{300, 9},
		{350, 8},
		{400, 7},
		{450, 6},
		{550, 5},
		{650, 4},
		{850, 3},
		{1300, 2},
		{4096, 2},
	}
	for _, c := range cases {
		if got := millerRabinRounds(c.bitLen); got != c.rounds {
			t.Errorf("millerRabinRounds(%d) = %d, want %d", c.bitLen, got, c.rounds)
		}
	}
}

func TestShiftsAndMask(t *testing.T) {
	v := NewInt(0b1011)
	if got := v.Lsh(2); got.Cmp(NewInt(0b101100)) != 0 {
		t.Errorf("Lsh = %v", got)
	}
	if got := v.Rsh(1); got.Cmp(NewInt(0b101)) != 0 {
		t.Errorf("Rsh = %v", got)
	}
	if got := v.And(NewInt(0b0011)); got.Cmp(NewInt(0b0011)) != 0 {
		t.Errorf("And = %v", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	v := NewInt(305441741)
	s := v.Text(16)
	got, ok := IntFromText(s, 16)
	if !ok {
		t.Fatal("IntFromText failed")
	}
	if got.Cmp(v) != 0 {
		t.Errorf("round trip mismatch: %v != %v", got, v)
	}
}
