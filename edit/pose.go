// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package edit

import "cogentcore.org/core/math32"

// Pose contains the position, rotation, and scale of a group, along
// with the cached matrix form. Group poses are expressed in scene-root
// (world) space: group records do not compose down the hierarchy, the
// gizmo applies its deltas to every affected record directly.
// After any matrix-level mutation the Pos / Quat / Scale fields are
// re-extracted so the two representations stay consistent.
type Pose struct {

	// Pos is the position of the group pivot.
	Pos math32.Vector3

	// Scale is the scale along local axes.
	Scale math32.Vector3

	// Quat is the rotation, as a quaternion.
	Quat math32.Quat

	// Matrix is the cached matrix form of Pos / Quat / Scale.
	// It can additionally carry shear introduced by non-uniform
	// scaling in a rotated frame; decomposition then captures the
	// nearest pure transform.
	Matrix math32.Matrix4
}

// Defaults sets defaults only if current values are zero / degenerate.
func (ps *Pose) Defaults() {
	if ps.Scale == (math32.Vector3{}) {
		ps.Scale.Set(1, 1, 1)
	}
	if ps.Quat == (math32.Quat{}) {
		ps.Quat.SetIdentity()
	}
}

// UpdateMatrix updates the cached matrix from Pos, Quat, and Scale,
// making the field representation authoritative.
func (ps *Pose) UpdateMatrix() {
	ps.Defaults()
	ps.Matrix.SetTransform(ps.Pos, ps.Quat, ps.Scale)
}

// SetMatrix sets the matrix and re-extracts Pos, Quat, and Scale,
// making the matrix representation authoritative.
func (ps *Pose) SetMatrix(m *math32.Matrix4) {
	ps.Matrix = *m
	ps.Pos, ps.Quat, ps.Scale = ps.Matrix.Decompose()
}

// PreMulMatrix premultiplies the cached matrix by the given matrix
// (m * Matrix) and re-extracts Pos, Quat, and Scale. This is how
// world-space gizmo deltas are folded into group records.
func (ps *Pose) PreMulMatrix(m *math32.Matrix4) {
	cur := ps.Matrix
	ps.Matrix.MulMatrices(m, &cur)
	ps.Pos, ps.Quat, ps.Scale = ps.Matrix.Decompose()
}

// MulMatrix multiplies the cached matrix by the given matrix
// (Matrix * m) and re-extracts Pos, Quat, and Scale.
func (ps *Pose) MulMatrix(m *math32.Matrix4) {
	ps.Matrix.SetMul(m)
	ps.Pos, ps.Quat, ps.Scale = ps.Matrix.Decompose()
}

// SetPos sets the position and updates the matrix.
func (ps *Pose) SetPos(x, y, z float32) {
	ps.Pos.Set(x, y, z)
	ps.UpdateMatrix()
}

// SetScale sets the scale and updates the matrix.
func (ps *Pose) SetScale(x, y, z float32) {
	ps.Scale.Set(x, y, z)
	ps.UpdateMatrix()
}

// SetAxisRotation sets the rotation from local axis and angle in
// degrees, and updates the matrix.
func (ps *Pose) SetAxisRotation(x, y, z, angle float32) {
	ps.Quat.SetFromAxisAngle(math32.Vec3(x, y, z), math32.DegToRad(angle))
	ps.UpdateMatrix()
}

// SetEulerRotation sets the rotation from Euler angles in degrees,
// and updates the matrix.
func (ps *Pose) SetEulerRotation(x, y, z float32) {
	ps.Quat.SetFromEuler(math32.Vec3(x, y, z).MulScalar(math32.DegToRadFactor))
	ps.UpdateMatrix()
}

// RotateOnAxis rotates around the given local axis by the given angle
// in degrees, relative to the current rotation, and updates the matrix.
func (ps *Pose) RotateOnAxis(x, y, z, angle float32) {
	ps.Quat.SetMul(math32.NewQuatAxisAngle(math32.Vec3(x, y, z), math32.DegToRad(angle)))
	ps.UpdateMatrix()
}
