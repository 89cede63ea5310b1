// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds per-frame shader data.
package model

import (
	"encoding/binary"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// UniformSize is the size of a Uniform in shader memory,
// three column-major 4x4 float matrices.
const UniformSize = 3 * 16 * 4

// Size returns the number of bytes Write needs.
func (u *Uniform) Size() uint64 {
	return UniformSize
}

// Write copies the uniform into dst in std140 layout. It returns false
// when dst is too small, leaving dst untouched.
func (u *Uniform) Write(dst []byte) bool {
	if len(dst) < UniformSize {
		return false
	}
	off := 0
	for _, m := range []*glm.Mat4{&u.Model, &u.View, &u.Projection} {
		for _, f := range m {
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(f))
			off += 4
		}
	}
	return true
}

// Camera looks from Eye at Center.
type Camera struct {
	Eye    glm.Vec3
	Center glm.Vec3
	Up     glm.Vec3

	// Fov is the vertical field of view in degrees
	Fov       float32
	Near, Far float32
}

// DefaultCamera looks at the origin from above one corner, Z up.
var DefaultCamera = Camera{
	Eye:    glm.Vec3{2, 2, 2},
	Center: glm.Vec3{0, 0, 0},
	Up:     glm.Vec3{0, 0, 1},
	Fov:    45,
	Near:   0.1,
	Far:    10,
}

// Uniform builds the uniform for a model matrix and a surface of
// width by height. The projection is flipped on Y for Vulkan clip space.
func (c Camera) Uniform(modelMatrix glm.Mat4, width, height uint32) Uniform {
	aspect := float32(1)
	if width != 0 && height != 0 {
		aspect = float32(width) / float32(height)
	}

	u := Uniform{
		Model:      modelMatrix,
		View:       glm.LookAtV(c.Eye, c.Center, c.Up),
		Projection: glm.Perspective(glm.DegToRad(c.Fov), aspect, c.Near, c.Far),
	}
	u.Projection[5] *= -1 // Flip from OpenGl to Vulkan projection
	return u
}
