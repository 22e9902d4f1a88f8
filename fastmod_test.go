package ophelib

import "testing"

func smallFastMod(t *testing.T) *FastMod {
	t.Helper()
	p := NewInt(61)
	q := NewInt(53)
	fm, err := New(p, q)
	if err != nil {
		t.Fatal(err)
	}
	return fm
}

func TestFastModMatchesPlainPowMod(t *testing.T) {
	fm := smallFastMod(t)
	base := NewInt(17)
	exp := NewInt(12345)

	want, err := base.PowMod(exp, fm.N2())
	if err != nil {
		t.Fatal(err)
	}
	got, err := fm.PowModNSquare(base, exp)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("PowModNSquare = %v, want %v", got, want)
	}
}

func TestFastModParallelMatchesSequential(t *testing.T) {
	fm := smallFastMod(t)
	base := NewInt(99)
	exp := NewInt(777)

	seq, err := fm.PowModNSquare(base, exp)
	if err != nil {
		t.Fatal(err)
	}
	par, err := fm.PowModNSquareParallel(base, exp)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Cmp(par) != 0 {
		t.Errorf("parallel result %v != sequential result %v", par, seq)
	}
}

func TestNewRejectsEqualPrimes(t *testing.T) {
	if _, err := New(NewInt(61), NewInt(61)); err == nil {
		t.Error("expected an error when p == q")
	}
}

func TestBezoutIdentity(t *testing.T) {
	r, s, err := bezout(NewInt(61*61), NewInt(53*53))
	if err != nil {
		t.Fatal(err)
	}
	lhs := NewInt(61 * 61).Mul(r).Add(NewInt(53 * 53).Mul(s))
	if lhs.Cmp(NewInt(1)) != 0 {
		t.Errorf("r*p2 + s*q2 = %v, want 1", lhs)
	}
}
