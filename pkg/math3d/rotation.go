package math3d

import "math"

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RotationX returns the 4x4 homogeneous rotation about the X axis.
func RotationX(angle float64) *Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return fromRows([4][4]float64{
		{1, 0, 0, 0},
		{0, c, -s, 0},
		{0, s, c, 0},
		{0, 0, 0, 1},
	})
}

// RotationY returns the 4x4 homogeneous rotation about the Y axis.
func RotationY(angle float64) *Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return fromRows([4][4]float64{
		{c, 0, s, 0},
		{0, 1, 0, 0},
		{-s, 0, c, 0},
		{0, 0, 0, 1},
	})
}

// RotationZ returns the 4x4 homogeneous rotation about the Z axis.
func RotationZ(angle float64) *Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return fromRows([4][4]float64{
		{c, -s, 0, 0},
		{s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
}

// Spin composes RotationX * RotationY * RotationZ from angles in degrees.
// The animation loop applies the result once per frame.
func Spin(xDeg, yDeg, zDeg float64) *Matrix {
	return RotationX(DegToRad(xDeg)).Mul(RotationY(DegToRad(yDeg))).Mul(RotationZ(DegToRad(zDeg)))
}

// Translation returns the 4x4 homogeneous translation by v.
func Translation(v Vec3) *Matrix {
	return fromRows([4][4]float64{
		{1, 0, 0, v.X},
		{0, 1, 0, v.Y},
		{0, 0, 1, v.Z},
		{0, 0, 0, 1},
	})
}

// Scaling returns the 4x4 homogeneous scale by v.
func Scaling(v Vec3) *Matrix {
	return fromRows([4][4]float64{
		{v.X, 0, 0, 0},
		{0, v.Y, 0, 0},
		{0, 0, v.Z, 0},
		{0, 0, 0, 1},
	})
}

// FromColumnMajor builds a 4x4 matrix from 16 values in column-major order
// (the layout used by glTF and mathgl).
func FromColumnMajor(v [16]float64) *Matrix {
	m := MustNew(4, 4)
	copy(m.data, v[:])
	return m
}

func fromRows(rows [4][4]float64) *Matrix {
	m := MustNew(4, 4)
	for r := range 4 {
		for c := range 4 {
			m.SetCell(c, r, rows[r][c])
		}
	}
	return m
}
