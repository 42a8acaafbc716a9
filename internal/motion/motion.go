// Package motion provides a per-time affine transform built from a sparse
// set of keyframes: time is clamped into the key range before
// interpolating, rotation is interpolated by SLERP, and translation and
// scale are interpolated linearly.
package motion

import "github.com/go-gl/mathgl/mgl32"

// Key is one keyframe of a System: an affine transform sampled at a
// specific time.
type Key struct {
	Time        float32
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// KeyFromMatrix decomposes an affine matrix into translation, rotation and
// a uniform-enough scale suitable for interpolation. Shear is not
// preserved; callers needing exact shear interpolation should build Keys
// directly.
func KeyFromMatrix(t float32, m mgl32.Mat4) Key {
	translation := mgl32.Vec3{m[12], m[13], m[14]}
	col0 := mgl32.Vec3{m[0], m[1], m[2]}
	col1 := mgl32.Vec3{m[4], m[5], m[6]}
	col2 := mgl32.Vec3{m[8], m[9], m[10]}
	sx, sy, sz := col0.Len(), col1.Len(), col2.Len()
	scale := mgl32.Vec3{sx, sy, sz}

	rot := mgl32.Mat4{
		safeDiv(col0[0], sx), safeDiv(col0[1], sx), safeDiv(col0[2], sx), 0,
		safeDiv(col1[0], sy), safeDiv(col1[1], sy), safeDiv(col1[2], sy), 0,
		safeDiv(col2[0], sz), safeDiv(col2[1], sz), safeDiv(col2[2], sz), 0,
		0, 0, 0, 1,
	}
	return Key{Time: t, Translation: translation, Rotation: mgl32.Mat4ToQuat(rot), Scale: scale}
}

func safeDiv(v, s float32) float32 {
	if s == 0 {
		return 0
	}
	return v / s
}

// Matrix recomposes the key into an affine transform.
func (k Key) Matrix() mgl32.Mat4 {
	scaleM := mgl32.Scale3D(k.Scale[0], k.Scale[1], k.Scale[2])
	rotM := k.Rotation.Mat4()
	m := rotM.Mul4(scaleM)
	m[12] = k.Translation[0]
	m[13] = k.Translation[1]
	m[14] = k.Translation[2]
	return m
}

// System is an ordered, piecewise-interpolated sequence of Keys
// parameterized by a time scalar read from the ray.
type System struct {
	Keys []Key
}

// NewSystem returns a motion system over the given keys, which must already
// be sorted by increasing Time.
func NewSystem(keys []Key) *System {
	return &System{Keys: keys}
}

// Sample returns the interpolated transform at time t. Times before the
// first key or after the last key are clamped to the nearest key (the
// original's documented clamp-at-ends behavior), rather than extrapolated.
func (s *System) Sample(t float32) mgl32.Mat4 {
	n := len(s.Keys)
	switch {
	case n == 0:
		return mgl32.Ident4()
	case n == 1:
		return s.Keys[0].Matrix()
	}

	if t <= s.Keys[0].Time {
		return s.Keys[0].Matrix()
	}
	if t >= s.Keys[n-1].Time {
		return s.Keys[n-1].Matrix()
	}

	for i := 0; i < n-1; i++ {
		a, b := s.Keys[i], s.Keys[i+1]
		if t >= a.Time && t <= b.Time {
			span := b.Time - a.Time
			var frac float32
			if span > 0 {
				frac = (t - a.Time) / span
			}
			return interpolate(a, b, frac).Matrix()
		}
	}
	// Unreachable given the clamps above, but keep a safe default.
	return s.Keys[n-1].Matrix()
}

func interpolate(a, b Key, frac float32) Key {
	return Key{
		Translation: a.Translation.Mul(1 - frac).Add(b.Translation.Mul(frac)),
		Rotation:    mgl32.QuatSlerp(a.Rotation, b.Rotation, frac),
		Scale:       a.Scale.Mul(1 - frac).Add(b.Scale.Mul(frac)),
	}
}
