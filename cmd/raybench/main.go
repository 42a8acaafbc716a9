// raybench - a small CLI that exercises the acceleration subsystem end to
// end: build a demo scene, construct the configured accelerator, push a ray
// buffer through a device-backed dispatcher, and report hit statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel"
	"github.com/luxrays-go/luxaccel/internal/accel/bvh"
	"github.com/luxrays-go/luxaccel/internal/accel/config"
	"github.com/luxrays-go/luxaccel/internal/accel/device"
	"github.com/luxrays-go/luxaccel/internal/accel/dispatch"
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// Build metadata - injected at build time via ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML configuration file (defaults built in if omitted)")
		rayCount   = flag.Int("rays", 4096, "number of rays in the pushed buffer")
		instances  = flag.Int("instances", 8, "number of cube instances in the demo scene")
		seed       = flag.Int64("seed", 1, "PRNG seed for the demo scene and ray directions")
	)
	flag.Parse()

	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  raybench  v%s\n", Version)
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Build: %s\n", BuildDate)
	fmt.Println("═══════════════════════════════════════════")

	if err := run(*configPath, *rayCount, *instances, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "raybench: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, rayCount, instances int, seed int64) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	accelType, err := accel.ParseAcceleratorType(cfg.Accelerator.Type)
	if err != nil {
		return fmt.Errorf("accelerator type: %w", err)
	}

	registry := buildDemoScene(instances, seed)
	totalVerts, totalTris := registry.Totals()
	fmt.Printf("Scene: %d meshes, %d vertices, %d triangles\n", len(registry.List()), totalVerts, totalTris)

	acc, err := buildAccelerator(accelType, registry, cfg)
	if err != nil {
		return fmt.Errorf("build accelerator: %w", err)
	}
	fmt.Printf("Accelerator: %s\n", acc.AcceleratorType())

	dev := device.NewFake(uint64(cfg.OpenCL.MemoryMaxPageSize), 256)

	dispCfg := dispatch.DefaultConfig()
	dispCfg.RayCapacity = rayCount
	dispCfg.Logger = log.New(os.Stderr, "raybench: ", 0)

	d := dispatch.NewDispatcher(dev, dispCfg)
	if err := d.SetDataSet(acc); err != nil {
		return fmt.Errorf("set data set: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	defer d.Stop()

	rays := randomRays(rayCount, seed)
	start := time.Now()
	if err := d.Push(&dispatch.RayBuffer{ID: 1, Rays: rays}); err != nil {
		return fmt.Errorf("push ray buffer: %w", err)
	}

	result := <-d.Results()
	elapsed := time.Since(start)
	if result.Err != nil {
		return fmt.Errorf("kernel run: %w", result.Err)
	}

	hits := 0
	for _, h := range result.Hits {
		if !h.IsMiss() {
			hits++
		}
	}
	fmt.Printf("Rays: %d, hits: %d, misses: %d, elapsed: %s\n", len(rays), hits, len(rays)-hits, elapsed)
	return nil
}

// buildDemoScene registers a ground TRIANGLE mesh plus randomly placed
// TRIANGLE_INSTANCE cubes sharing one underlying cube mesh, enough to
// exercise BVH/QBVH over the ground and MQBVH's instancing over the cubes.
func buildDemoScene(instances int, seed int64) *mesh.Registry {
	r := mesh.NewRegistry()
	rng := rand.New(rand.NewSource(seed))

	r.Add(func(id mesh.ID) mesh.Mesh {
		return mesh.NewTriangleMesh(id, groundVertices(50), groundIndices(), false)
	})

	cube := r.Add(func(id mesh.ID) mesh.Mesh {
		return mesh.NewTriangleMesh(id, cubeVertices(), cubeIndices(), false)
	})

	for i := 0; i < instances; i++ {
		pos := mgl32.Vec3{
			rng.Float32()*40 - 20,
			rng.Float32()*5 + 0.5,
			rng.Float32()*40 - 20,
		}
		transform := mgl32.Translate3D(pos[0], pos[1], pos[2])
		r.Add(func(id mesh.ID) mesh.Mesh {
			return mesh.NewInstanceMesh(id, cube, transform, false)
		})
	}

	return r
}

func buildAccelerator(t accel.AcceleratorType, r *mesh.Registry, cfg config.Config) (accel.Accelerator, error) {
	meshes := r.List()
	totalVerts, totalTris := r.Totals()
	eps := epsilon.Default()

	switch t {
	case accel.BVH:
		params := bvhParams(cfg)
		return accel.NewBVHAccel(meshes, totalVerts, totalTris, params, eps)
	case accel.QBVH:
		params := qbvhParams(cfg)
		return accel.NewQBVHAccel(meshes, totalVerts, totalTris, params, eps)
	case accel.MQBVH:
		params := qbvhParams(cfg)
		return accel.NewMQBVHAccel(meshes, totalVerts, totalTris, params, eps)
	default:
		return accel.NullAccel{}, nil
	}
}

func bvhParams(cfg config.Config) bvh.Params {
	p := bvh.DefaultParams()
	b := cfg.Accelerator.BVH
	if b.TreeType > 0 {
		p.TreeType = b.TreeType
	}
	p.CostSamples = b.CostSamples
	if b.IsectCost > 0 {
		p.IsectCost = b.IsectCost
	}
	if b.TraversalCost > 0 {
		p.TraversalCost = b.TraversalCost
	}
	p.EmptyBonus = b.EmptyBonus
	return p
}

func qbvhParams(cfg config.Config) qbvh.Params {
	return qbvh.DefaultParams()
}

func randomRays(count int, seed int64) []geom.Ray {
	rng := rand.New(rand.NewSource(seed + 1))
	rays := make([]geom.Ray, count)
	for i := range rays {
		origin := mgl32.Vec3{0, 30, 0}
		dir := mgl32.Vec3{
			rng.Float32()*2 - 1,
			-1,
			rng.Float32()*2 - 1,
		}.Normalize()
		rays[i] = geom.NewRay(origin, dir)
	}
	return rays
}

func groundVertices(halfExtent float32) []mgl32.Vec3 {
	return []mgl32.Vec3{
		{-halfExtent, 0, -halfExtent},
		{halfExtent, 0, -halfExtent},
		{halfExtent, 0, halfExtent},
		{-halfExtent, 0, halfExtent},
	}
}

func groundIndices() []uint32 {
	return []uint32{0, 1, 2, 0, 2, 3}
}

func cubeVertices() []mgl32.Vec3 {
	return []mgl32.Vec3{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
}

func cubeIndices() []uint32 {
	return []uint32{
		0, 1, 2, 0, 2, 3, // back
		4, 6, 5, 4, 7, 6, // front
		0, 3, 7, 0, 7, 4, // left
		1, 5, 6, 1, 6, 2, // right
		3, 2, 6, 3, 6, 7, // top
		0, 4, 5, 0, 5, 1, // bottom
	}
}
