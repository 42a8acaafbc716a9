// Package mesh provides a uniform view over owned triangle meshes,
// transform-instanced meshes, and motion-instanced meshes. The
// only vertex accessor the rest of the accelerator subsystem is allowed to
// use is GetVertex(time, index); everything else is an implementation
// detail of a particular Kind.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/motion"
)

// Kind discriminates the mesh tagged union.
type Kind int

const (
	Triangle Kind = iota
	ExtTriangle
	TriangleInstance
	ExtTriangleInstance
	TriangleMotion
	ExtTriangleMotion
)

func (k Kind) String() string {
	switch k {
	case Triangle:
		return "TRIANGLE"
	case ExtTriangle:
		return "EXT_TRIANGLE"
	case TriangleInstance:
		return "TRIANGLE_INSTANCE"
	case ExtTriangleInstance:
		return "EXT_TRIANGLE_INSTANCE"
	case TriangleMotion:
		return "TRIANGLE_MOTION"
	case ExtTriangleMotion:
		return "EXT_TRIANGLE_MOTION"
	default:
		return "UNKNOWN"
	}
}

// IsInstanced reports whether k references another mesh rather than owning
// its own vertex data.
func (k Kind) IsInstanced() bool {
	return k == TriangleInstance || k == ExtTriangleInstance || k == TriangleMotion || k == ExtTriangleMotion
}

// ID is a stable per-mesh identifier assigned by a Registry at load time.
// It replaces pointer identity as the dedup key for MQBVH's per-mesh QBVH
// cache, which must not rely on heap-address identity surviving a rebuild.
type ID uint32

// Mesh is the interface every mesh variant implements.
type Mesh interface {
	ID() ID
	Kind() Kind

	// VertexCount and TriangleCount describe this mesh's own geometry; for
	// instanced variants they equal the referenced mesh's counts.
	VertexCount() int
	TriangleCount() int

	// GetVertex is the only vertex accessor the acceleration core may use.
	// time selects a motion sample for TRIANGLE_MOTION meshes and is
	// ignored otherwise.
	GetVertex(time float32, index uint32) mgl32.Vec3

	// TriangleVertexIndices returns the three vertex indices of triangle i.
	TriangleVertexIndices(i uint32) (a, b, c uint32)
}

// ExtData holds the optional per-vertex attributes an EXT_* mesh carries.
// The acceleration core never reads these; they exist so EXT_* meshes can
// be round-tripped by callers (shading, etc.) that sit outside this
// subsystem's scope.
type ExtData struct {
	Normals []mgl32.Vec3
	UVs     []mgl32.Vec2
	Colors  []mgl32.Vec3
}

// TriangleMesh owns its vertex and index arrays.
type TriangleMesh struct {
	id       ID
	ext      bool
	Vertices []mgl32.Vec3
	Indices  []uint32 // flattened triples
	Ext      ExtData
}

// NewTriangleMesh constructs a TRIANGLE mesh. ext controls whether Kind()
// reports EXT_TRIANGLE.
func NewTriangleMesh(id ID, vertices []mgl32.Vec3, indices []uint32, ext bool) *TriangleMesh {
	return &TriangleMesh{id: id, ext: ext, Vertices: vertices, Indices: indices}
}

func (m *TriangleMesh) ID() ID { return m.id }

func (m *TriangleMesh) Kind() Kind {
	if m.ext {
		return ExtTriangle
	}
	return Triangle
}

func (m *TriangleMesh) VertexCount() int   { return len(m.Vertices) }
func (m *TriangleMesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m *TriangleMesh) GetVertex(_ float32, index uint32) mgl32.Vec3 {
	return m.Vertices[index]
}

func (m *TriangleMesh) TriangleVertexIndices(i uint32) (a, b, c uint32) {
	base := i * 3
	return m.Indices[base], m.Indices[base+1], m.Indices[base+2]
}

// InstanceMesh references another mesh through a constant affine transform.
type InstanceMesh struct {
	id        ID
	ext       bool
	Source    Mesh
	Transform mgl32.Mat4
}

// NewInstanceMesh constructs a TRIANGLE_INSTANCE mesh.
func NewInstanceMesh(id ID, source Mesh, transform mgl32.Mat4, ext bool) *InstanceMesh {
	return &InstanceMesh{id: id, ext: ext, Source: source, Transform: transform}
}

func (m *InstanceMesh) ID() ID { return m.id }

func (m *InstanceMesh) Kind() Kind {
	if m.ext {
		return ExtTriangleInstance
	}
	return TriangleInstance
}

func (m *InstanceMesh) VertexCount() int   { return m.Source.VertexCount() }
func (m *InstanceMesh) TriangleCount() int { return m.Source.TriangleCount() }

func (m *InstanceMesh) GetVertex(time float32, index uint32) mgl32.Vec3 {
	local := m.Source.GetVertex(time, index)
	v := m.Transform.Mul4x1(mgl32.Vec4{local[0], local[1], local[2], 1})
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func (m *InstanceMesh) TriangleVertexIndices(i uint32) (a, b, c uint32) {
	return m.Source.TriangleVertexIndices(i)
}

// MotionMesh references another mesh through a time-varying motion system.
type MotionMesh struct {
	id     ID
	ext    bool
	Source Mesh
	System *motion.System
}

// NewMotionMesh constructs a TRIANGLE_MOTION mesh.
func NewMotionMesh(id ID, source Mesh, system *motion.System, ext bool) *MotionMesh {
	return &MotionMesh{id: id, ext: ext, Source: source, System: system}
}

func (m *MotionMesh) ID() ID { return m.id }

func (m *MotionMesh) Kind() Kind {
	if m.ext {
		return ExtTriangleMotion
	}
	return TriangleMotion
}

func (m *MotionMesh) VertexCount() int   { return m.Source.VertexCount() }
func (m *MotionMesh) TriangleCount() int { return m.Source.TriangleCount() }

func (m *MotionMesh) GetVertex(time float32, index uint32) mgl32.Vec3 {
	local := m.Source.GetVertex(time, index)
	xform := m.System.Sample(time)
	v := xform.Mul4x1(mgl32.Vec4{local[0], local[1], local[2], 1})
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func (m *MotionMesh) TriangleVertexIndices(i uint32) (a, b, c uint32) {
	return m.Source.TriangleVertexIndices(i)
}

// RootSource walks through TRIANGLE_INSTANCE / TRIANGLE_MOTION wrappers and
// returns the owning TRIANGLE/EXT_TRIANGLE mesh. Its stable ID() is the
// dedup key MQBVH uses to share one per-mesh QBVH across all instances
// of the same underlying geometry.
func RootSource(m Mesh) Mesh {
	switch v := m.(type) {
	case *InstanceMesh:
		return RootSource(v.Source)
	case *MotionMesh:
		return RootSource(v.Source)
	default:
		return m
	}
}
