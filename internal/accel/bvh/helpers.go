package bvh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
)

func triangleOf(v0, v1, v2 mgl32.Vec3) geom.Triangle {
	return geom.Triangle{V0: v0, V1: v1, V2: v2}
}

func boundsOfNode(n Node) geom.AABB {
	return geom.AABB{Min: n.BoundsMin, Max: n.BoundsMax}
}
