package ml

import (
	"testing"

	"github.com/abb-iss/ophelib"
	"github.com/abb-iss/ophelib/vecmat"
)

func TestPlainModelFitConvergesOnLinearData(t *testing.T) {
	// y = 2x, integerized with a fixed-point multiplier of 1000.
	mult := ophelib.NewInt(1000)
	X, err := vecmat.NewMat([][]ophelib.Int{
		{ophelib.NewInt(1000)},
		{ophelib.NewInt(2000)},
		{ophelib.NewInt(3000)},
		{ophelib.NewInt(4000)},
	})
	if err != nil {
		t.Fatal(err)
	}
	y := vecmat.Vec[ophelib.Int]{
		ophelib.NewInt(2000),
		ophelib.NewInt(4000),
		ophelib.NewInt(6000),
		ophelib.NewInt(8000),
	}

	model := NewPlainModel(mult, ophelib.NewInt(10), 500)
	iters, err := model.Fit(Dataset{X: X, Y: y})
	if err != nil {
		t.Fatal(err)
	}
	if iters == 0 || iters >= model.NIter {
		t.Errorf("iters = %d, want at least one iteration and convergence before NIter = %d", iters, model.NIter)
	}

	preds, err := model.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != len(y) {
		t.Fatalf("got %d predictions, want %d", len(preds), len(y))
	}
}

func TestPlainModelFitRejectsMismatchedShapes(t *testing.T) {
	X, err := vecmat.NewMat([][]ophelib.Int{{ophelib.NewInt(1)}})
	if err != nil {
		t.Fatal(err)
	}
	model := NewPlainModel(ophelib.NewInt(1), ophelib.NewInt(1), 10)
	y := vecmat.Vec[ophelib.Int]{ophelib.NewInt(1), ophelib.NewInt(2)}
	if _, err := model.Fit(Dataset{X: X, Y: y}); err == nil {
		t.Error("expected an error when X row count does not match y length")
	}
}

func TestPlainModelPredictBeforeFitFails(t *testing.T) {
	model := NewPlainModel(ophelib.NewInt(1), ophelib.NewInt(1), 10)
	X, err := vecmat.NewMat([][]ophelib.Int{{ophelib.NewInt(1)}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := model.Predict(X); err == nil {
		t.Error("expected an error predicting before Fit")
	}
}

func TestMeanSquaredError(t *testing.T) {
	predicted := []float64{1, 2, 3}
	actual := []float64{1, 2, 5}
	mse, err := MeanSquaredError(predicted, actual)
	if err != nil {
		t.Fatal(err)
	}
	want := (0.0 + 0.0 + 4.0) / 3.0
	if mse != want {
		t.Errorf("MeanSquaredError = %v, want %v", mse, want)
	}
}

func TestMeanSquaredErrorLengthMismatch(t *testing.T) {
	if _, err := MeanSquaredError([]float64{1}, []float64{1, 2}); err == nil {
		t.Error("expected a DimensionError for mismatched lengths")
	}
}

func TestLearningRateAtDecaysGeometrically(t *testing.T) {
	got := LearningRateAt(0.1, 0.5, 3)
	want := 0.1 * 0.125
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("LearningRateAt = %v, want %v", got, want)
	}
}

func TestLearningRateAtZeroEpoch(t *testing.T) {
	got := LearningRateAt(0.05, 0.9, 0)
	if diff := got - 0.05; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("LearningRateAt(epoch=0) = %v, want 0.05", got)
	}
}

// encryptedModelFixture builds a small Reference-keyed EncryptedModel whose
// ClientCallback decrypts, integer-divides, and re-encrypts every slot —
// the same division-by-a-known-divisor contract LinregPlainEnc delegates to
// its client callback.
func encryptedModelFixture(t *testing.T) (*EncryptedModel, ophelib.Scheme, ophelib.RandSource) {
	t.Helper()
	src := ophelib.DefaultRandSource()
	scheme, err := ophelib.GenerateReference(64, src)
	if err != nil {
		t.Fatal(err)
	}

	callback := func(dividends []ophelib.PackedCiphertext, divisor ophelib.Int) ([]ophelib.Ciphertext, error) {
		var out []ophelib.Ciphertext
		for _, pc := range dividends {
			slots, err := ophelib.Decode(scheme, pc)
			if err != nil {
				return nil, err
			}
			for _, s := range slots {
				q, err := s.Div(divisor)
				if err != nil {
					return nil, err
				}
				c, err := scheme.Encrypt(q, src)
				if err != nil {
					return nil, err
				}
				out = append(out, c)
			}
		}
		return out, nil
	}

	model := &EncryptedModel{
		Scheme:        scheme,
		Multiplier:    ophelib.NewInt(1),
		AlphaInv:      ophelib.NewInt(1),
		NIter:         2,
		PlaintextBits: 16,
		Callback:      callback,
		Rand:          src,
	}
	return model, scheme, src
}

func TestEncryptedModelFitAndPredict(t *testing.T) {
	model, scheme, src := encryptedModelFixture(t)

	X, err := vecmat.NewMat([][]ophelib.Int{
		{ophelib.NewInt(1)},
		{ophelib.NewInt(2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	y := make([]ophelib.Ciphertext, 2)
	for i, v := range []int64{2, 4} {
		y[i], err = scheme.Encrypt(ophelib.NewInt(v), src)
		if err != nil {
			t.Fatal(err)
		}
	}

	iters, err := model.Fit(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if iters != model.NIter {
		t.Errorf("iters = %d, want %d", iters, model.NIter)
	}

	preds, err := model.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want 2", len(preds))
	}
	for _, p := range preds {
		if _, err := scheme.Decrypt(p); err != nil {
			t.Errorf("prediction should be decryptable: %v", err)
		}
	}
}

func TestEncryptedModelFitRejectsMismatchedShapes(t *testing.T) {
	model, scheme, src := encryptedModelFixture(t)
	X, err := vecmat.NewMat([][]ophelib.Int{{ophelib.NewInt(1)}})
	if err != nil {
		t.Fatal(err)
	}
	c1, err := scheme.Encrypt(ophelib.NewInt(1), src)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := scheme.Encrypt(ophelib.NewInt(2), src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := model.Fit(X, []ophelib.Ciphertext{c1, c2}); err == nil {
		t.Error("expected an error when X row count does not match len(y)")
	}
}
