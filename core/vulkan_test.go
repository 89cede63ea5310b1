// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"
	"testing"

	"github.com/devblok/circe/core"
	"github.com/stretchr/testify/assert"
)

func TestSliceUint32(t *testing.T) {
	data := make([]byte, 10)
	binary.LittleEndian.PutUint32(data[0:], 0x07230203)
	binary.LittleEndian.PutUint32(data[4:], 42)

	words := core.SliceUint32(data)
	assert.Len(t, words, 2)
	assert.Equal(t, uint32(42), words[1])
	assert.Nil(t, core.SliceUint32([]byte{1, 2, 3}))
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
