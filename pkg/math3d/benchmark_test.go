package math3d

import (
	"testing"
)

func BenchmarkMatrixMulRotation(b *testing.B) {
	m1 := RotationX(0.3)
	m2 := RotationY(0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Mul(m1, m2)
	}
}

func BenchmarkMatrixMulFaces(b *testing.B) {
	// One spin step over a 1000-triangle faces matrix
	rot := Spin(1, 1, 1)
	faces := MustNew(4, 3000)
	for c := 0; c < faces.Cols(); c++ {
		faces.SetColumn(c, V4(float64(c), float64(c%7), float64(c%11), 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Mul(rot, faces)
	}
}

func BenchmarkSpin(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Spin(1, 1, 1)
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v1.Cross(v2)
	}
}

func BenchmarkVec3Dot(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v1.Dot(v2)
	}
}
