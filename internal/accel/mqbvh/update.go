package mqbvh

import "github.com/luxrays-go/luxaccel/internal/accel/mesh"

// Update rebuilds the top-level tree from the current entry transforms,
// reusing cached per-mesh QBVHs and building (and caching) one only for a
// root mesh not yet in the cache. It is for rigid-body animation where
// only instance transforms move; a cached mesh whose own geometry changed
// needs a full Build.
func (t *Tree) Update(meshes []mesh.Mesh) error {
	entries, err := t.buildEntries(meshes)
	if err != nil {
		return err
	}
	t.entries = entries

	if err := t.buildPerMeshQBVHs(entries); err != nil {
		return err
	}

	leaves := make([]Leaf, len(entries))
	for i, e := range entries {
		leaves[i] = t.leafFor(e)
	}
	t.Leaves = leaves

	t.Nodes = t.Nodes[:0]
	root, err := t.buildTopLevel(boundedIndices(entries), 0)
	if err != nil {
		return err
	}
	t.Root = root
	return nil
}
