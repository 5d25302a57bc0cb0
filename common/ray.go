package common

import (
	"github.com/chewxy/math32"
)

// Ray is a world-space picking ray with a unit direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32
}

// RayFromScreen unprojects a screen-space pointer position into a world-space
// picking ray using the inverse of the combined view-projection matrix.
// Screen coordinates have their origin at the top-left corner; clip space is
// [0, 1] in depth (WebGPU convention, matching Perspective).
//
// Parameters:
//   - x, y: pointer position in screen pixels
//   - width, height: viewport size in pixels
//   - viewProj: the combined view-projection matrix (16 elements, column-major)
//
// Returns:
//   - Ray: the picking ray
//   - bool: false if the view-projection matrix is singular
func RayFromScreen(x, y float32, width, height int, viewProj []float32) (Ray, bool) {
	var inv [16]float32
	if !Invert4(inv[:], viewProj) {
		return Ray{}, false
	}

	ndcX := 2*x/float32(width) - 1
	ndcY := 1 - 2*y/float32(height)

	near, okN := unproject(inv[:], ndcX, ndcY, 0)
	far, okF := unproject(inv[:], ndcX, ndcY, 1)
	if !okN || !okF {
		return Ray{}, false
	}

	dir := Normalize3(Sub3(far, near))
	if dir == [3]float32{} {
		return Ray{}, false
	}
	return Ray{Origin: near, Direction: dir}, true
}

// unproject applies the inverse view-projection matrix to an NDC point and
// performs the perspective divide.
func unproject(inv []float32, x, y, z float32) ([3]float32, bool) {
	px := inv[0]*x + inv[4]*y + inv[8]*z + inv[12]
	py := inv[1]*x + inv[5]*y + inv[9]*z + inv[13]
	pz := inv[2]*x + inv[6]*y + inv[10]*z + inv[14]
	pw := inv[3]*x + inv[7]*y + inv[11]*z + inv[15]
	if pw == 0 {
		return [3]float32{}, false
	}
	invW := 1.0 / pw
	return [3]float32{px * invW, py * invW, pz * invW}, true
}

// IntersectSphere computes the nearest intersection of the ray with a sphere.
//
// Parameters:
//   - center: the sphere center in world space
//   - radius: the sphere radius
//
// Returns:
//   - float32: the distance along the ray to the nearest hit (>= 0)
//   - bool: true if the ray hits the sphere in front of the origin
func (r Ray) IntersectSphere(center [3]float32, radius float32) (float32, bool) {
	oc := Sub3(r.Origin, center)
	b := oc[0]*r.Direction[0] + oc[1]*r.Direction[1] + oc[2]*r.Direction[2]
	c := oc[0]*oc[0] + oc[1]*oc[1] + oc[2]*oc[2] - radius*radius

	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		// Origin inside the sphere; use the exit point.
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
