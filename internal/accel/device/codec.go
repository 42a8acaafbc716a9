package device

import (
	"encoding/binary"
	"math"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
)

func appendFloat32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func readFloat32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func readUint32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset:])
}

// RaySize is the wire size in bytes of one encoded geom.Ray.
const RaySize = 9 * 4

// EncodeRay packs a ray into RaySize bytes: origin, direction, mint, maxt,
// time, all little-endian float32.
func EncodeRay(r geom.Ray) []byte {
	buf := make([]byte, 0, RaySize)
	buf = appendFloat32(buf, r.Origin[0])
	buf = appendFloat32(buf, r.Origin[1])
	buf = appendFloat32(buf, r.Origin[2])
	buf = appendFloat32(buf, r.Direction[0])
	buf = appendFloat32(buf, r.Direction[1])
	buf = appendFloat32(buf, r.Direction[2])
	buf = appendFloat32(buf, r.Mint)
	buf = appendFloat32(buf, r.Maxt)
	buf = appendFloat32(buf, r.Time)
	return buf
}

// DecodeRay is the inverse of EncodeRay.
func DecodeRay(buf []byte) geom.Ray {
	return geom.Ray{
		Origin:    [3]float32{readFloat32(buf, 0), readFloat32(buf, 4), readFloat32(buf, 8)},
		Direction: [3]float32{readFloat32(buf, 12), readFloat32(buf, 16), readFloat32(buf, 20)},
		Mint:      readFloat32(buf, 24),
		Maxt:      readFloat32(buf, 28),
		Time:      readFloat32(buf, 32),
	}
}

// EncodeRayBuffer packs rays back-to-back for a single device write.
func EncodeRayBuffer(rays []geom.Ray) []byte {
	buf := make([]byte, 0, len(rays)*RaySize)
	for _, r := range rays {
		buf = append(buf, EncodeRay(r)...)
	}
	return buf
}

// DecodeRayBuffer unpacks count rays from buf.
func DecodeRayBuffer(buf []byte, count int) []geom.Ray {
	rays := make([]geom.Ray, count)
	for i := range rays {
		rays[i] = DecodeRay(buf[i*RaySize : (i+1)*RaySize])
	}
	return rays
}

// RayHitSize is the wire size in bytes of one encoded geom.RayHit.
const RayHitSize = 5 * 4

// EncodeRayHit packs a hit result into RayHitSize bytes.
func EncodeRayHit(h geom.RayHit) []byte {
	buf := make([]byte, 0, RayHitSize)
	buf = appendFloat32(buf, h.T)
	buf = appendFloat32(buf, h.B1)
	buf = appendFloat32(buf, h.B2)
	buf = appendUint32(buf, h.MeshIndex)
	buf = appendUint32(buf, h.TriangleIndex)
	return buf
}

// DecodeRayHit is the inverse of EncodeRayHit.
func DecodeRayHit(buf []byte) geom.RayHit {
	return geom.RayHit{
		T:             readFloat32(buf, 0),
		B1:            readFloat32(buf, 4),
		B2:            readFloat32(buf, 8),
		MeshIndex:     readUint32(buf, 12),
		TriangleIndex: readUint32(buf, 16),
	}
}

// EncodeHitBuffer packs hits back-to-back for a single device read.
func EncodeHitBuffer(hits []geom.RayHit) []byte {
	buf := make([]byte, 0, len(hits)*RayHitSize)
	for _, h := range hits {
		buf = append(buf, EncodeRayHit(h)...)
	}
	return buf
}

// DecodeHitBuffer unpacks count hits from buf.
func DecodeHitBuffer(buf []byte, count int) []geom.RayHit {
	hits := make([]geom.RayHit, count)
	for i := range hits {
		hits[i] = DecodeRayHit(buf[i*RayHitSize : (i+1)*RayHitSize])
	}
	return hits
}
