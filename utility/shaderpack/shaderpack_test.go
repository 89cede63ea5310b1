// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shaderpack_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/devblok/circe/gfx"
	"github.com/devblok/circe/utility/shaderpack"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vertexCode   = bytes.Repeat([]byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0}, 64)
	fragmentCode = bytes.Repeat([]byte{0x03, 0x02, 0x23, 0x07, 2, 0, 0, 0}, 32)
)

func buildPack(t *testing.T) []byte {
	builder := shaderpack.NewBuilder(shaderpack.Header{Author: "devblok"})
	require.NoError(t, builder.Add("tri.vert.spv", vertexCode))
	require.NoError(t, builder.Add("shaders/tri.frag.spv", fragmentCode))

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), written)
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	pack, err := shaderpack.Open(bytes.NewReader(buildPack(t)))
	require.NoError(t, err)

	assert.Equal(t, []string{"tri.frag", "tri.vert"}, pack.Names())
	assert.Equal(t, "devblok", pack.Header().Author)
	assert.EqualValues(t, shaderpack.Version, pack.Header().Version)
	assert.NotZero(t, pack.Header().DateCreated)

	vert, err := pack.Module("tri.vert")
	require.NoError(t, err)
	assert.Equal(t, gfx.ShaderStageVertex, vert.Stage)
	assert.Equal(t, "main", vert.Entry)
	assert.Equal(t, vertexCode, vert.Code)

	frag, err := pack.Module("tri.frag")
	require.NoError(t, err)
	assert.Equal(t, gfx.ShaderStageFragment, frag.Stage)
	assert.Equal(t, fragmentCode, frag.Code)

	assert.NoError(t, pack.Close())
}

func TestReaderStreamsModule(t *testing.T) {
	pack, err := shaderpack.Open(bytes.NewReader(buildPack(t)))
	require.NoError(t, err)

	r, entry, err := pack.Reader("tri.frag")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, fragmentCode, got)
	assert.EqualValues(t, len(fragmentCode), entry.Size)
}

func TestOpenFileMmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaders.pack")
	require.NoError(t, os.WriteFile(path, buildPack(t), 0600))

	pack, err := shaderpack.OpenFile(path)
	require.NoError(t, err)
	defer pack.Close()

	vert, err := pack.Module("tri.vert")
	require.NoError(t, err)
	assert.Equal(t, vertexCode, vert.Code)
}

func TestOpenRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("KAR\x00"),
		[]byte("CSP\x00\xff\xff\xff\xff\xff\xff\xff\x7f"),
		append([]byte("CSP\x00\x04\x00\x00\x00\x00\x00\x00\x00"), "junk"...),
	} {
		_, err := shaderpack.Open(bytes.NewReader(data))
		assert.Equal(t, shaderpack.ErrFileFormat, errors.Cause(err), "%q", data)
	}
}

func TestModuleNotFound(t *testing.T) {
	pack, err := shaderpack.Open(bytes.NewReader(buildPack(t)))
	require.NoError(t, err)

	_, err = pack.Module("quad.vert")
	assert.Equal(t, shaderpack.ErrNotFound, errors.Cause(err))
}

func TestAddDuplicate(t *testing.T) {
	builder := shaderpack.NewBuilder(shaderpack.Header{})
	require.NoError(t, builder.Add("tri.vert.spv", vertexCode))
	err := builder.Add("other/tri.vert.spv", vertexCode)
	assert.Equal(t, shaderpack.ErrDuplicate, errors.Cause(err))
}

func TestAddConcurrently(t *testing.T) {
	builder := shaderpack.NewBuilder(shaderpack.Header{})

	var wg sync.WaitGroup
	for idx := 0; idx < 16; idx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			assert.NoError(t, builder.Add(fmt.Sprintf("s%02d.frag.spv", idx), fragmentCode))
		}(idx)
	}
	wg.Wait()
	assert.Equal(t, 16, builder.Len())

	var buf bytes.Buffer
	_, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	pack, err := shaderpack.Open(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, pack.Names(), 16)
	assert.Equal(t, "s00.frag", pack.Names()[0])
}

func TestAddDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.vert.spv"), vertexCode, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "tri.frag.spv"), fragmentCode, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.vert"), []byte("#version 450"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), nil, 0600))

	builder := shaderpack.NewBuilder(shaderpack.Header{})
	added, err := builder.AddDir(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tri.vert", "tri.frag"}, added)
}

func TestParseShaderName(t *testing.T) {
	name, stage, err := shaderpack.ParseShaderName("tri.vert.spv")
	require.NoError(t, err)
	assert.Equal(t, "tri.vert", name)
	assert.Equal(t, gfx.ShaderStageVertex, stage)

	_, stage, err = shaderpack.ParseShaderName("tri.frag.spv")
	require.NoError(t, err)
	assert.Equal(t, gfx.ShaderStageFragment, stage)

	for _, bad := range []string{"tri.spv", "tri.geom.spv", "tri.vert", "a.b.vert.spv", ".vert.spv"} {
		_, _, err := shaderpack.ParseShaderName(bad)
		assert.Equal(t, shaderpack.ErrShaderName, errors.Cause(err), bad)
	}
}
