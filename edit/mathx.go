// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import "cogentcore.org/core/math32"

// basisEpsilon is the squared-length threshold below which a basis
// vector is considered degenerate during orthogonalization.
const basisEpsilon = 1.0e-8

// OrthonormalBasis extracts a rotation from the given matrix by
// Gram-Schmidt orthogonalization of its basis vectors, anchored on the
// X axis. Unlike polar decomposition this tolerates sheared input
// without wobble: the primary axis is kept exactly, the second axis is
// projected perpendicular to it, and the third is their cross product.
// Degenerate (zero-length) axes fall back to safe defaults instead of
// producing NaNs.
func OrthonormalBasis(m *math32.Matrix4) math32.Quat {
	x := math32.Vec3(m[0], m[1], m[2])
	y := math32.Vec3(m[4], m[5], m[6])
	if x.LengthSquared() < basisEpsilon {
		x = math32.Vec3(1, 0, 0)
	} else {
		x = x.Normal()
	}
	y = y.Sub(x.MulScalar(x.Dot(y)))
	if y.LengthSquared() < basisEpsilon {
		y = math32.Vec3(0, 1, 0).Sub(x.MulScalar(x.Y))
		if y.LengthSquared() < basisEpsilon {
			y = math32.Vec3(0, 0, 1).Sub(x.MulScalar(x.Z))
		}
	}
	y = y.Normal()
	z := x.Cross(y)

	rm := math32.Identity4()
	rm[0], rm[1], rm[2] = x.X, x.Y, x.Z
	rm[4], rm[5], rm[6] = y.X, y.Y, y.Z
	rm[8], rm[9], rm[10] = z.X, z.Y, z.Z
	var q math32.Quat
	q.SetFromRotationMatrix(rm)
	return q
}

// BasisScale returns the lengths of the three basis vectors of the
// given matrix, which is the effective scale even under shear.
func BasisScale(m *math32.Matrix4) math32.Vector3 {
	return math32.Vec3(
		math32.Vec3(m[0], m[1], m[2]).Length(),
		math32.Vec3(m[4], m[5], m[6]).Length(),
		math32.Vec3(m[8], m[9], m[10]).Length())
}

// RemoveShear rebuilds the given matrix from its position, its
// Gram-Schmidt orthonormalized rotation, and its basis lengths,
// discarding any shear.
func RemoveShear(m *math32.Matrix4) math32.Matrix4 {
	var pos math32.Vector3
	pos.SetFromMatrixPos(m)
	quat := OrthonormalBasis(m)
	sc := BasisScale(m)
	var nm math32.Matrix4
	nm.SetTransform(pos, quat, sc)
	return nm
}

// signOr returns the sign of v, or the given default when v is zero.
func signOr(v, def float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return def
}
