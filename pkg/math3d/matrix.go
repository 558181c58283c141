// Package math3d provides the vector and matrix math used by the cyclops
// rendering pipeline.
package math3d

import (
	"errors"
	"fmt"
	"math"
)

// ErrAllocation is returned when a matrix shape cannot be backed by storage.
var ErrAllocation = errors.New("math3d: cannot allocate matrix")

// maxCells bounds the number of cells a single matrix may hold.
const maxCells = math.MaxInt32

// Matrix is a dense rows x cols grid of float64 values.
//
// By convention rows hold homogeneous components (x, y, z, w) and columns
// hold vertices, so a faces matrix has 4 rows and 3 columns per triangle.
// Storage is column-major so that one vertex is contiguous.
type Matrix struct {
	rows, cols int
	data       []float64
}

// DimensionMismatchError is the panic value of Mul when the inner
// dimensions of its operands differ.
type DimensionMismatchError struct {
	ARows, ACols int
	BRows, BCols int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("math3d: cannot multiply %dx%d by %dx%d", e.ARows, e.ACols, e.BRows, e.BCols)
}

// New creates a zero-initialized rows x cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrAllocation, rows, cols)
	}
	if rows != 0 && cols > maxCells/rows {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrAllocation, rows, cols, maxCells)
	}
	return &Matrix{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}, nil
}

// MustNew is like New but panics on error. It is meant for shapes that are
// known at compile time.
func MustNew(rows, cols int) *Matrix {
	m, err := New(rows, cols)
	if err != nil {
		panic(err)
	}
	return m
}

// FromColumns builds a 4-row matrix with one column per point.
func FromColumns(points []Vec4) *Matrix {
	m := MustNew(4, len(points))
	for c, p := range points {
		m.SetColumn(c, p)
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := MustNew(n, n)
	for i := range n {
		m.SetCell(i, i, 1)
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Cell returns the value at (col, row). Bounds are not checked beyond what
// the runtime does for the backing slice.
func (m *Matrix) Cell(col, row int) float64 {
	return m.data[col*m.rows+row]
}

// SetCell sets the value at (col, row). Bounds are the caller's responsibility.
func (m *Matrix) SetCell(col, row int, v float64) {
	m.data[col*m.rows+row] = v
}

// Column returns the first four components of column col. Matrices with
// fewer than four rows leave the missing components at zero.
func (m *Matrix) Column(col int) Vec4 {
	var out [4]float64
	copy(out[:], m.data[col*m.rows:col*m.rows+min(m.rows, 4)])
	return Vec4{out[0], out[1], out[2], out[3]}
}

// SetColumn writes up to four components of p into column col.
func (m *Matrix) SetColumn(col int, p Vec4) {
	in := [4]float64{p.X, p.Y, p.Z, p.W}
	copy(m.data[col*m.rows:col*m.rows+min(m.rows, 4)], in[:])
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(c.data, m.data)
	return c
}

// Mul returns the product a * b as a new (a.Rows x b.Cols) matrix.
// It panics with a *DimensionMismatchError when a.Cols != b.Rows, which is
// always a programming error.
func Mul(a, b *Matrix) *Matrix {
	if a.cols != b.rows {
		panic(&DimensionMismatchError{ARows: a.rows, ACols: a.cols, BRows: b.rows, BCols: b.cols})
	}
	out := MustNew(a.rows, b.cols)
	for c := range b.cols {
		bcol := b.data[c*b.rows : (c+1)*b.rows]
		ocol := out.data[c*out.rows : (c+1)*out.rows]
		for k, bv := range bcol {
			acol := a.data[k*a.rows : (k+1)*a.rows]
			for r, av := range acol {
				ocol[r] += av * bv
			}
		}
	}
	return out
}

// Mul returns m * b.
func (m *Matrix) Mul(b *Matrix) *Matrix {
	return Mul(m, b)
}

// ApproxEqual reports whether two matrices have the same shape and every
// cell differs by at most eps.
func ApproxEqual(a, b *Matrix, eps float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i, v := range a.data {
		if math.Abs(v-b.data[i]) > eps {
			return false
		}
	}
	return true
}

// String renders the matrix row by row, which is handy in test failures.
func (m *Matrix) String() string {
	s := fmt.Sprintf("Matrix(%dx%d)", m.rows, m.cols)
	for r := range m.rows {
		s += "\n"
		for c := range m.cols {
			s += fmt.Sprintf(" %9.4f", m.Cell(c, r))
		}
	}
	return s
}
