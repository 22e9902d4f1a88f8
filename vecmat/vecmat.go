// Package vecmat implements the small amount of vector/matrix utility
// algebra the ml package needs (the packing codec works on plain slices and
// does not use it): generic vectors and
// row-major matrices, a shape-checked dot product, elementwise scalar
// mapping, and transpose. It intentionally stops well short of a general
// linear-algebra library (no inversion, no decomposition): ml's
// normal-equations-free gradient descent does not need more than this.
//
// Grounded on original_source/include/ophelib/vector.h and
// original_source/src/vector.cpp (Vec<T>, Mat<T>, dot, transpose), reworked
// with Go generics instead of C++ templates and explicit combine functions
// instead of operator overloading, since Go has no numeric-type class
// generic enough to cover float64, ophelib.Int, and ophelib.Ciphertext at
// once.
package vecmat

import "github.com/pkg/errors"

// DimensionError reports a vector/matrix shape mismatch.
type DimensionError struct {
	Msg string
}

func (e *DimensionError) Error() string {
	if e.Msg != "" {
		return "dimension error: " + e.Msg
	}
	return "dimension mismatch"
}

// Vec is a column vector of arbitrary element type.
type Vec[T any] []T

// Mat is a row-major matrix: NRows rows of NCols elements each.
type Mat[T any] struct {
	NRows, NCols int
	Data         [][]T
}

// NewMat builds an NRows x NCols matrix from row-major data, failing if any
// row's length does not match NCols.
func NewMat[T any](data [][]T) (Mat[T], error) {
	nRows := len(data)
	if nRows == 0 {
		return Mat[T]{}, nil
	}
	nCols := len(data[0])
	for _, row := range data {
		if len(row) != nCols {
			return Mat[T]{}, errors.WithStack(&DimensionError{Msg: "NewMat: ragged rows"})
		}
	}
	return Mat[T]{NRows: nRows, NCols: nCols, Data: data}, nil
}

// Zeros returns a length-n vector of the zero value of T.
func Zeros[T any](n int) Vec[T] {
	return make(Vec[T], n)
}

// Transpose returns the NCols x NRows transpose of m.
func Transpose[T any](m Mat[T]) Mat[T] {
	out := make([][]T, m.NCols)
	for j := 0; j < m.NCols; j++ {
		out[j] = make([]T, m.NRows)
		for i := 0; i < m.NRows; i++ {
			out[j][i] = m.Data[i][j]
		}
	}
	return Mat[T]{NRows: m.NCols, NCols: m.NRows, Data: out}
}

// ScalarMap returns a new Vec with f applied elementwise, mirroring
// original_source/src/vector.cpp's elementwise scalar-op helpers.
func ScalarMap[T any](v Vec[T], f func(T) (T, error)) (Vec[T], error) {
	out := make(Vec[T], len(v))
	for i, x := range v {
		y, err := f(x)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

// MatScalarMap applies f to every element of m, row-major.
func MatScalarMap[T any](m Mat[T], f func(T) (T, error)) (Mat[T], error) {
	out := make([][]T, m.NRows)
	for i, row := range m.Data {
		newRow, err := ScalarMap(Vec[T](row), f)
		if err != nil {
			return Mat[T]{}, err
		}
		out[i] = newRow
	}
	return Mat[T]{NRows: m.NRows, NCols: m.NCols, Data: out}, nil
}

// Dot computes the dot product of a and b: sum_i add(acc, mul(a[i], b[i])),
// starting from zero. add and mul are caller-supplied combine functions
// rather than operator overloads, so the same generic Dot serves
// Vec[float64], Vec[ophelib.Int] and Vec[ophelib.Ciphertext] (whose "add"
// and "mul" are homomorphic Ciphertext.Add/ScalarMul and can fail).
// Fails with DimensionError if a and b have different lengths.
func Dot[T any](a, b Vec[T], zero T, add func(T, T) (T, error), mul func(T, T) (T, error)) (T, error) {
	if len(a) != len(b) {
		var zeroVal T
		return zeroVal, errors.WithStack(&DimensionError{Msg: "Dot: vector length mismatch"})
	}
	acc := zero
	for i := range a {
		prod, err := mul(a[i], b[i])
		if err != nil {
			var zeroVal T
			return zeroVal, err
		}
		acc, err = add(acc, prod)
		if err != nil {
			var zeroVal T
			return zeroVal, err
		}
	}
	return acc, nil
}

// MatVecDot computes m . v (an NRows-length vector), one Dot call per row.
// Fails with DimensionError if v's length does not match m.NCols.
func MatVecDot[T any](m Mat[T], v Vec[T], zero T, add func(T, T) (T, error), mul func(T, T) (T, error)) (Vec[T], error) {
	if m.NCols != len(v) {
		return nil, errors.WithStack(&DimensionError{Msg: "MatVecDot: matrix columns do not match vector length"})
	}
	out := make(Vec[T], m.NRows)
	for i, row := range m.Data {
		val, err := Dot(Vec[T](row), v, zero, add, mul)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// VecSub returns a-b elementwise via the caller-supplied sub function.
// Fails with DimensionError on length mismatch.
func VecSub[T any](a, b Vec[T], sub func(T, T) (T, error)) (Vec[T], error) {
	if len(a) != len(b) {
		return nil, errors.WithStack(&DimensionError{Msg: "VecSub: vector length mismatch"})
	}
	out := make(Vec[T], len(a))
	for i := range a {
		v, err := sub(a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
