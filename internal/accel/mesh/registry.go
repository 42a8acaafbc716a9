package mesh

import "fmt"

// Registry assigns stable IDs to meshes and tracks the scene totals that
// callers (scene loader) must supply when building an accelerator.
type Registry struct {
	meshes []Mesh
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add calls factory with the next sequential ID, appends the mesh it
// returns, and returns that mesh. Callers build instance/motion meshes by
// first registering the source mesh, then passing the returned mesh back
// as the Source.
func (r *Registry) Add(factory func(id ID) Mesh) Mesh {
	id := ID(len(r.meshes))
	m := factory(id)
	r.meshes = append(r.meshes, m)
	return m
}

// List returns all registered meshes in registration order, the order
// their scene-global meshIndex refers to.
func (r *Registry) List() []Mesh {
	return r.meshes
}

// Get returns the mesh with the given ID.
func (r *Registry) Get(id ID) (Mesh, error) {
	if int(id) >= len(r.meshes) {
		return nil, fmt.Errorf("mesh: id %d out of range (have %d meshes)", id, len(r.meshes))
	}
	return r.meshes[id], nil
}

// Totals sums vertex and triangle counts across every registered mesh,
// mirroring the original DataSet's GetTotalVertexCount/GetTotalTriangleCount
// helpers that callers use before invoking Init.
func (r *Registry) Totals() (totalVertexCount, totalTriangleCount uint64) {
	for _, m := range r.meshes {
		totalVertexCount += uint64(m.VertexCount())
		totalTriangleCount += uint64(m.TriangleCount())
	}
	return
}
