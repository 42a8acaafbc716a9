package mqbvh

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// Tree is the immutable (outside Update) two-level accelerator. The only
// mutable state outside construction is the per-mesh QBVH cache, keyed by
// the root mesh's stable registry ID rather than its pointer identity.
type Tree struct {
	Nodes  []Node
	Leaves []Leaf
	Root   int32

	entries []entry
	cache   map[meshKey]*qbvh.Tree

	qbvhParams qbvh.Params
	eps        epsilon.Config
}

// entry is one scene-level mesh that will own exactly one top-level leaf.
type entry struct {
	m              mesh.Mesh
	root           mesh.Mesh
	kind           LeafKind
	triangleOffset uint32
	bounds         geom.AABB
}

// Build constructs an MQBVH over meshes: one QBVH per unique underlying
// mesh (shared across instances), and a top-level QBVH-shaped tree over
// per-leaf bounds.
func Build(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, qp qbvh.Params, eps epsilon.Config) (*Tree, error) {
	t := &Tree{qbvhParams: qp, eps: eps, cache: map[meshKey]*qbvh.Tree{}}

	entries, err := t.buildEntries(meshes)
	if err != nil {
		return nil, err
	}
	t.entries = entries

	if err := t.buildPerMeshQBVHs(entries); err != nil {
		return nil, err
	}

	leaves := make([]Leaf, len(entries))
	for i, e := range entries {
		leaves[i] = t.leafFor(e)
	}
	t.Leaves = leaves

	root, err := t.buildTopLevel(boundedIndices(entries), 0)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

func (t *Tree) buildEntries(meshes []mesh.Mesh) ([]entry, error) {
	entries := make([]entry, len(meshes))
	var triOffset uint32
	for i, m := range meshes {
		root := mesh.RootSource(m)
		kind := LeafPlain
		switch m.(type) {
		case *mesh.InstanceMesh:
			kind = LeafInstanced
		case *mesh.MotionMesh:
			kind = LeafMotion
		}
		entries[i] = entry{
			m:              m,
			root:           root,
			kind:           kind,
			triangleOffset: triOffset,
			bounds:         worldBounds(m),
		}
		triOffset += uint32(m.TriangleCount())
	}
	return entries, nil
}

// worldBounds computes the top-level bounds for m. A TRIANGLE_MOTION mesh
// must remain inside its leaf's bounds at every time a ray might sample, so
// its bounds are unioned across every motion key rather than a single time.
func worldBounds(m mesh.Mesh) geom.AABB {
	times := []float32{0}
	if mm, ok := m.(*mesh.MotionMesh); ok && mm.System != nil && len(mm.System.Keys) > 0 {
		times = make([]float32, len(mm.System.Keys))
		for i, k := range mm.System.Keys {
			times[i] = k.Time
		}
	}

	b := geom.EmptyAABB()
	triCount := m.TriangleCount()
	for _, time := range times {
		for tri := 0; tri < triCount; tri++ {
			i0, i1, i2 := m.TriangleVertexIndices(uint32(tri))
			b = b.UnionPoint(m.GetVertex(time, i0))
			b = b.UnionPoint(m.GetVertex(time, i1))
			b = b.UnionPoint(m.GetVertex(time, i2))
		}
	}
	return b
}

// buildPerMeshQBVHs builds one QBVH per unique root mesh, reusing the
// cache across instances of the same mesh. Distinct meshes are built
// concurrently, since each one's SAH build is independent of the others.
func (t *Tree) buildPerMeshQBVHs(entries []entry) error {
	roots := map[meshKey]mesh.Mesh{}
	for _, e := range entries {
		if _, cached := t.cache[e.root.ID()]; cached {
			continue
		}
		roots[e.root.ID()] = e.root
	}

	ids := make([]meshKey, 0, len(roots))
	for id := range roots {
		ids = append(ids, id)
	}

	results := make([]*qbvh.Tree, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		m := roots[id]
		g.Go(func() error {
			vc, tc := uint64(m.VertexCount()), uint64(m.TriangleCount())
			built, err := qbvh.Build([]mesh.Mesh{m}, vc, tc, t.qbvhParams, t.eps)
			if err != nil {
				return err
			}
			results[i] = built
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, id := range ids {
		t.cache[id] = results[i]
	}
	return nil
}

func (t *Tree) leafFor(e entry) Leaf {
	l := Leaf{
		Kind:                e.kind,
		QBVH:                t.cache[e.root.ID()],
		MeshIndex:           uint32(e.m.ID()),
		TriangleIndexOffset: e.triangleOffset,
		InverseTransform:    mgl32.Ident4(),
	}
	switch v := e.m.(type) {
	case *mesh.InstanceMesh:
		inv := mgl32.Ident4()
		if v.Transform.Det() != 0 {
			inv = v.Transform.Inv()
		}
		l.InverseTransform = inv
	case *mesh.MotionMesh:
		l.Motion = v.System
	}
	return l
}

func boundedIndices(entries []entry) []int {
	idx := make([]int, len(entries))
	for i := range entries {
		idx[i] = i
	}
	return idx
}
