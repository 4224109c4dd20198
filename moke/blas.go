package moke

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

var errSingular = errors.New("moke: singular transfer matrix")

// zgemm performs c = a·b for row-major complex matrices, a being m×k and b
// being k×n.
func zgemm(m, n, k int, a []complex128, b []complex128, c []complex128) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1,
		cblas128.General{Rows: m, Cols: k, Stride: k, Data: a},
		cblas128.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		cblas128.General{Rows: m, Cols: n, Stride: n, Data: c})
}

// mul4 returns the product of 4×4 matrices.
func mul4(a, b []complex128) []complex128 {
	c := make([]complex128, 16)
	zgemm(4, 4, 4, a, b, c)
	return c
}

// inverse returns the inverse of the n×n matrix a by Gauss-Jordan
// elimination with partial pivoting.
func inverse(a []complex128, n int) ([]complex128, error) {
	w := make([]complex128, len(a))
	copy(w, a)
	inv := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		inv[i*n+i] = 1
	}
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if cmplx.Abs(w[r*n+col]) > cmplx.Abs(w[pivot*n+col]) {
				pivot = r
			}
		}
		if w[pivot*n+col] == 0 {
			return nil, errSingular
		}
		if pivot != col {
			for c := 0; c < n; c++ {
				w[col*n+c], w[pivot*n+c] = w[pivot*n+c], w[col*n+c]
				inv[col*n+c], inv[pivot*n+c] = inv[pivot*n+c], inv[col*n+c]
			}
		}
		p := w[col*n+col]
		for c := 0; c < n; c++ {
			w[col*n+c] /= p
			inv[col*n+c] /= p
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := w[r*n+col]
			if f == 0 {
				continue
			}
			for c := 0; c < n; c++ {
				w[r*n+c] -= f * w[col*n+c]
				inv[r*n+c] -= f * inv[col*n+c]
			}
		}
	}
	return inv, nil
}

// block returns rows r0..r0+1, columns c0..c0+1 of a 4×4 matrix.
func block(m []complex128, r0, c0 int) []complex128 {
	return []complex128{
		m[r0*4+c0], m[r0*4+c0+1],
		m[(r0+1)*4+c0], m[(r0+1)*4+c0+1],
	}
}
