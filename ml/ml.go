// Package ml implements the small linear-regression application layer that
// exercises the Paillier primitives in package ophelib: a plaintext
// gradient-descent baseline, and an encrypted variant where the gradient
// step is computed homomorphically server-side and a client-supplied
// callback performs the one operation Paillier cannot do homomorphically
// (division by a public scalar).
//
// Grounded on original_source/include/ophelib/ml.h and
// original_source/src/ml.cpp (LinregPlain, LinregPlainEnc): the same
// integerize-then-gradient-descend shape, the same client-callback division
// hook, reworked from NTL Vec<Integer>/Mat<Integer> into vecmat generics and
// from exceptions into explicit error returns. This layer sits outside the
// core cryptosystem, treated only as an external collaborator through
// PlaintextBits and the Scheme interface; this package has a single client
// callback (ClientCallback), which receives both the packed dividend batch
// and the public divisor, and does not port ml.cpp's several
// LinregPlainEnc* variants.
package ml

import (
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/abb-iss/ophelib"
	"github.com/abb-iss/ophelib/vecmat"
)

// Dataset bundles an n_samples x n_features integerized feature matrix with
// an n_samples-length integerized target vector, ready for gradient descent.
// Features and targets must already be normalized and integerized by the
// caller (original_source/include/ophelib/ml.h's documented precondition on
// LinregPlain).
type Dataset struct {
	X vecmat.Mat[ophelib.Int]
	Y vecmat.Vec[ophelib.Int]
}

func addInt(a, b ophelib.Int) (ophelib.Int, error) { return a.Add(b), nil }
func mulInt(a, b ophelib.Int) (ophelib.Int, error) { return a.Mul(b), nil }
func subInt(a, b ophelib.Int) (ophelib.Int, error) { return a.Sub(b), nil }

var zeroInt = ophelib.NewInt(0)

// PlainModel is gradient-descent linear regression over integerized
// plaintext data, grounded on LinregPlain in ml.cpp.
type PlainModel struct {
	Multiplier ophelib.Int
	AlphaInv   ophelib.Int
	NIter      int

	nFeatures int
	theta     vecmat.Vec[ophelib.Int]
}

// NewPlainModel builds a PlainModel with the given fixed-point multiplier,
// inverse learning rate (1/alpha), and maximum iteration count — the same
// three constructor parameters as LinregPlain (ml.h).
func NewPlainModel(multiplier, alphaInv ophelib.Int, nIter int) *PlainModel {
	return &PlainModel{Multiplier: multiplier, AlphaInv: alphaInv, NIter: nIter}
}

// gradDescStep performs one gradient-descent update of theta, returning true
// if the gradient is exactly zero (converged). Grounded on
// LinregPlain::grad_desc_step.
func (m *PlainModel) gradDescStep(X vecmat.Mat[ophelib.Int], y vecmat.Vec[ophelib.Int]) (bool, error) {
	n := ophelib.NewInt(int64(X.NRows))

	hypothesisRaw, err := vecmat.MatVecDot(X, m.theta, zeroInt, addInt, mulInt)
	if err != nil {
		return false, err
	}
	hypothesis, err := vecmat.ScalarMap(hypothesisRaw, func(v ophelib.Int) (ophelib.Int, error) {
		return v.Div(m.Multiplier)
	})
	if err != nil {
		return false, err
	}

	loss, err := vecmat.VecSub(hypothesis, y, subInt)
	if err != nil {
		return false, err
	}

	Xt := vecmat.Transpose(X)
	gradRaw, err := vecmat.MatVecDot(Xt, loss, zeroInt, addInt, mulInt)
	if err != nil {
		return false, err
	}
	divisor := n.Mul(m.Multiplier)
	grad, err := vecmat.ScalarMap(gradRaw, func(v ophelib.Int) (ophelib.Int, error) {
		return v.Div(divisor)
	})
	if err != nil {
		return false, err
	}

	gg, err := vecmat.Dot(grad, grad, zeroInt, addInt, mulInt)
	if err != nil {
		return false, err
	}
	if gg.IsZero() {
		return true, nil
	}

	step, err := vecmat.ScalarMap(grad, func(v ophelib.Int) (ophelib.Int, error) {
		return v.Div(m.AlphaInv)
	})
	if err != nil {
		return false, err
	}
	newTheta, err := vecmat.VecSub(m.theta, step, subInt)
	if err != nil {
		return false, err
	}
	m.theta = newTheta
	return false, nil
}

// Fit trains the model on ds by gradient descent, returning the number of
// iterations actually performed (less than NIter if it converged early).
func (m *PlainModel) Fit(ds Dataset) (int, error) {
	n, cols := ds.X.NRows, ds.X.NCols
	if n != len(ds.Y) {
		return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: X row count does not match y length"})
	}
	if n < 1 || cols < 1 {
		return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: empty feature matrix"})
	}
	m.nFeatures = cols
	m.theta = vecmat.Zeros[ophelib.Int](cols)

	for i := 0; i < m.NIter; i++ {
		converged, err := m.gradDescStep(ds.X, ds.Y)
		if err != nil {
			return 0, err
		}
		if converged {
			return i, nil
		}
	}
	return m.NIter, nil
}

// Predict returns X . theta / multiplier, the fitted model's prediction for
// every row of X.
func (m *PlainModel) Predict(X vecmat.Mat[ophelib.Int]) (vecmat.Vec[ophelib.Int], error) {
	if m.nFeatures == 0 {
		return nil, errors.WithStack(&ophelib.CryptoError{Msg: "ml: PlainModel.Predict called before Fit"})
	}
	if X.NCols != m.nFeatures {
		return nil, errors.WithStack(&vecmat.DimensionError{Msg: "ml: Predict feature count mismatch"})
	}
	raw, err := vecmat.MatVecDot(X, m.theta, zeroInt, addInt, mulInt)
	if err != nil {
		return nil, err
	}
	return vecmat.ScalarMap(raw, func(v ophelib.Int) (ophelib.Int, error) {
		return v.Div(m.Multiplier)
	})
}

// Weights returns the model's fitted weight vector.
func (m *PlainModel) Weights() vecmat.Vec[ophelib.Int] { return m.theta }

// ClientCallback performs the one step the server cannot: dividing a batch
// of packed homomorphic gradient errors by a public divisor. The callback
// owns the private key; it decrypts each PackedCiphertext, divides every
// recovered slot by divisor, and re-encrypts the quotients, returning one
// Ciphertext per original (unpacked) slot in order. Grounded on
// LinregPlainEnc::client_callback_fn_t
// (Vec<Ciphertext>(const Vec<PackedCiphertext>&, const Integer&)).
type ClientCallback func(dividends []ophelib.PackedCiphertext, divisor ophelib.Int) ([]ophelib.Ciphertext, error)

// EncryptedModel is gradient-descent linear regression with plaintext
// features X but an encrypted target y and encrypted weights theta: the
// server never sees y or theta in the clear, and the one non-homomorphic
// operation (dividing the gradient by alpha_inv*n*multiplier^2) is
// delegated to ClientCallback. Grounded on LinregPlainEnc (ml.h/ml.cpp).
type EncryptedModel struct {
	Scheme        ophelib.Scheme
	Multiplier    ophelib.Int
	AlphaInv      ophelib.Int
	NIter         int
	PlaintextBits int
	Callback      ClientCallback
	Rand          ophelib.RandSource

	nFeatures int
	theta     []ophelib.Ciphertext
}

// zeroCiphertext returns a fresh encryption of zero under m.Scheme. Fast
// schemes cache this (Fast.ZeroCiphertext) but Reference does not, so the
// general case just encrypts 0 like any other plaintext.
func (m *EncryptedModel) zeroCiphertext() (ophelib.Ciphertext, error) {
	if f, ok := m.Scheme.(interface{ ZeroCiphertext() ophelib.Ciphertext }); ok {
		return f.ZeroCiphertext(), nil
	}
	src := m.Rand
	if src == nil {
		src = ophelib.DefaultRandSource()
	}
	return m.Scheme.Encrypt(zeroInt, src)
}

// Fit trains theta against plaintext features X and encrypted targets y.
// Grounded on LinregPlainEnc::fit: A = X_t . X (plaintext), b = dot(y, -X)
// (one homomorphic ScalarMul per entry), then each iteration computes
// errors = dot(theta, A) + b homomorphically, packs them, and asks Callback
// to divide and return fresh ciphertexts for theta's next value.
func (m *EncryptedModel) Fit(X vecmat.Mat[ophelib.Int], y []ophelib.Ciphertext) (int, error) {
	n, cols := X.NRows, X.NCols
	if n != len(y) {
		return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: X row count does not match y length"})
	}
	if n < 1 || cols < 1 {
		return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: empty feature matrix"})
	}
	m.nFeatures = cols

	Xt := vecmat.Transpose(X)
	A, err := matMulInt(Xt, X)
	if err != nil {
		return 0, err
	}

	b := make([]ophelib.Ciphertext, cols)
	for j := 0; j < cols; j++ {
		acc, err := m.zeroCiphertext()
		if err != nil {
			return 0, err
		}
		for i := 0; i < n; i++ {
			negXij := X.Data[i][j].Neg()
			term, err := y[i].ScalarMul(negXij)
			if err != nil {
				return 0, err
			}
			acc, err = acc.Add(term)
			if err != nil {
				return 0, err
			}
		}
		b[j] = acc
	}

	theta := make([]ophelib.Ciphertext, cols)
	for j := range theta {
		zeroCT, err := m.zeroCiphertext()
		if err != nil {
			return 0, err
		}
		theta[j] = zeroCT
	}

	nInt := ophelib.NewInt(int64(n))
	divisor := m.AlphaInv.Mul(nInt).Mul(m.Multiplier).Mul(m.Multiplier)

	for iter := 0; iter < m.NIter; iter++ {
		errs := make([]ophelib.Ciphertext, cols)
		for j := 0; j < cols; j++ {
			acc := b[j]
			for k := 0; k < cols; k++ {
				term, err := theta[k].ScalarMul(A.Data[k][j])
				if err != nil {
					return 0, err
				}
				acc, err = acc.Add(term)
				if err != nil {
					return 0, err
				}
			}
			errs[j] = acc
		}

		packed, err := ophelib.PackCiphertextsChunked(m.Scheme, errs, m.PlaintextBits)
		if err != nil {
			return 0, err
		}
		quotients, err := m.Callback(packed, divisor)
		if err != nil {
			return 0, err
		}
		if len(quotients) != cols {
			return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: ClientCallback returned the wrong number of ciphertexts"})
		}
		newTheta := make([]ophelib.Ciphertext, cols)
		for j := 0; j < cols; j++ {
			newTheta[j], err = theta[j].Sub(quotients[j])
			if err != nil {
				return 0, err
			}
		}
		theta = newTheta
	}

	m.theta = theta
	return m.NIter, nil
}

// Weights returns the fitted (still encrypted) weight vector.
func (m *EncryptedModel) Weights() []ophelib.Ciphertext { return m.theta }

// Predict returns the encrypted predictions X . theta for every row of X.
func (m *EncryptedModel) Predict(X vecmat.Mat[ophelib.Int]) ([]ophelib.Ciphertext, error) {
	if m.nFeatures == 0 {
		return nil, errors.WithStack(&ophelib.CryptoError{Msg: "ml: EncryptedModel.Predict called before Fit"})
	}
	if X.NCols != m.nFeatures {
		return nil, errors.WithStack(&vecmat.DimensionError{Msg: "ml: Predict feature count mismatch"})
	}
	out := make([]ophelib.Ciphertext, X.NRows)
	for i := 0; i < X.NRows; i++ {
		var err error
		out[i], err = rowDot(X.Data[i], m.theta)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rowDot(row []ophelib.Int, theta []ophelib.Ciphertext) (ophelib.Ciphertext, error) {
	acc, err := theta[0].ScalarMul(row[0])
	if err != nil {
		return ophelib.Ciphertext{}, err
	}
	for j := 1; j < len(row); j++ {
		term, err := theta[j].ScalarMul(row[j])
		if err != nil {
			return ophelib.Ciphertext{}, err
		}
		acc, err = acc.Add(term)
		if err != nil {
			return ophelib.Ciphertext{}, err
		}
	}
	return acc, nil
}

func matMulInt(a, b vecmat.Mat[ophelib.Int]) (vecmat.Mat[ophelib.Int], error) {
	if a.NCols != b.NRows {
		return vecmat.Mat[ophelib.Int]{}, errors.WithStack(&vecmat.DimensionError{Msg: "ml: matrix multiply shape mismatch"})
	}
	bt := vecmat.Transpose(b)
	out := make([][]ophelib.Int, a.NRows)
	for i := 0; i < a.NRows; i++ {
		out[i] = make([]ophelib.Int, b.NCols)
		for j := 0; j < b.NCols; j++ {
			v, err := vecmat.Dot(vecmat.Vec[ophelib.Int](a.Data[i]), vecmat.Vec[ophelib.Int](bt.Data[j]), zeroInt, addInt, mulInt)
			if err != nil {
				return vecmat.Mat[ophelib.Int]{}, err
			}
			out[i][j] = v
		}
	}
	return vecmat.Mat[ophelib.Int]{NRows: a.NRows, NCols: b.NCols, Data: out}, nil
}

// MeanSquaredError reports the mean squared error between predicted and
// actual float64 values, using montanaflynn/stats for the underlying mean
// computation (grounded: tuneinsight-lattigo/go.mod's dependency surface).
func MeanSquaredError(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, errors.WithStack(&vecmat.DimensionError{Msg: "ml: MeanSquaredError length mismatch"})
	}
	squared := make([]float64, len(predicted))
	for i := range predicted {
		d := predicted[i] - actual[i]
		squared[i] = d * d
	}
	mean, err := stats.Mean(stats.Float64Data(squared))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return mean, nil
}

// LearningRateAt returns lr * decay^epoch using arbitrary-precision
// big.Float exponentiation, since the ML layer otherwise operates entirely
// over plaintext integers recovered from a cryptosystem with no native
// fixed-point type (grounded: tuneinsight-lattigo/go.mod's dependency on
// github.com/ALTree/bigfloat for bigfloat.Pow).
func LearningRateAt(lr, decay float64, epoch int) float64 {
	result := bigfloat.Pow(big.NewFloat(decay), big.NewFloat(float64(epoch)))
	f, _ := result.Float64()
	return lr * f
}
