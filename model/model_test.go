// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/devblok/circe/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformWrite(t *testing.T) {
	u := model.Uniform{
		Model:      glm.Ident4(),
		View:       glm.Translate3D(1, 2, 3),
		Projection: glm.Scale3D(2, 2, 2),
	}

	dst := make([]byte, u.Size())
	require.True(t, u.Write(dst))

	read := func(matrix, idx int) float32 {
		off := (matrix*16 + idx) * 4
		return math.Float32frombits(binary.LittleEndian.Uint32(dst[off:]))
	}
	assert.Equal(t, float32(1), read(0, 0))
	assert.Equal(t, float32(1), read(0, 15))
	// column major, translation lives in the last column
	assert.Equal(t, float32(1), read(1, 12))
	assert.Equal(t, float32(3), read(1, 14))
	assert.Equal(t, float32(2), read(2, 5))
}

func TestUniformWriteShortBuffer(t *testing.T) {
	u := model.Uniform{Model: glm.Ident4()}
	dst := make([]byte, model.UniformSize-1)
	assert.False(t, u.Write(dst))
	assert.Equal(t, make([]byte, model.UniformSize-1), dst)
}

func TestCameraFlipsY(t *testing.T) {
	u := model.DefaultCamera.Uniform(glm.Ident4(), 800, 600)
	plain := glm.Perspective(glm.DegToRad(45), 800.0/600.0, 0.1, 10)

	assert.InDelta(t, -plain[5], u.Projection[5], 1e-6)
	assert.InDelta(t, plain[0], u.Projection[0], 1e-6)
	assert.Equal(t, glm.Ident4(), u.Model)
}

func TestCameraZeroArea(t *testing.T) {
	u := model.DefaultCamera.Uniform(glm.Ident4(), 0, 0)
	for _, f := range u.Projection {
		assert.False(t, math.IsNaN(float64(f)))
		assert.False(t, math.IsInf(float64(f), 0))
	}
}
