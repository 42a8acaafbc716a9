// Package mqbvh implements the two-level multi-instance 4-way tree: a
// top-level QBVH whose leaves are whole per-mesh QBVHs, optionally
// instanced by a constant transform or a time-varying motion system.
package mqbvh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/internal/motion"
)

// LeafKind discriminates the per-leaf descriptor's variant: plain,
// transform-instanced, or motion-instanced.
type LeafKind int

const (
	LeafPlain LeafKind = iota
	LeafInstanced
	LeafMotion
)

// Leaf is one top-level leaf descriptor: the per-mesh QBVH it delegates to,
// plus however the ray must be transformed before delegating.
type Leaf struct {
	Kind LeafKind

	QBVH *qbvh.Tree

	// InverseTransform is precomputed for LeafInstanced so the ray is
	// transformed into the instance's local frame with a single matrix
	// multiply per ray.
	InverseTransform mgl32.Mat4

	// Motion is the motion system sampled at ray.Time for LeafMotion.
	Motion *motion.System

	// MeshIndex is the scene-global mesh index reported on a hit through
	// this leaf (the instance's or plain mesh's own ID, not the root
	// mesh's).
	MeshIndex uint32

	// TriangleIndexOffset combines with the leaf-local triangle index from
	// QBVH.Intersect to produce a scene-global triangle index.
	TriangleIndexOffset uint32
}

// meshKey is the stable dedup key used instead of mesh pointer identity:
// the root (non-instanced) mesh's registry ID.
type meshKey = mesh.ID
