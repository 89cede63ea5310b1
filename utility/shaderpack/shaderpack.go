// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shaderpack is an archive of compiled SPIR-V shader modules.
// Like kar, every module is compressed with lz4 on its own and the
// index is known before any module is read, so a pack can be memory
// mapped and modules decompressed straight from their place.
//
// Layout:
//
//	magic        4 bytes, "CSP\x00"
//	header size  8 bytes, little endian
//	header       gob encoded Header
//	modules      compressed modules, offsets relative to here
package shaderpack

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"strings"

	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a shader pack")
	ErrNotFound   = errors.New("no such module in shader pack")
	ErrDuplicate  = errors.New("module already added")
	ErrShaderName = errors.New("shader file name must be name.vert.spv or name.frag.spv")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 8
)

// Version is the pack format version written by Builder.
const Version = 1

var magic = [MagicLength]byte{'C', 'S', 'P', '\x00'}

const shaderSuffix = ".spv"

// IndexEntry is info for one module in the index.
type IndexEntry struct {
	Name           string
	Stage          gfx.ShaderStage
	Entry          string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for shader packs.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Module is one decompressed shader module.
type Module struct {
	Name  string
	Stage gfx.ShaderStage
	Entry string
	Code  []byte
}

// ParseShaderName splits a compiled shader file name into the module
// name and stage. The file name must not contain more than two dots:
// the first part is the name of the shader, the second the stage, and
// the .spv extension marks it as compiled. "tri.vert.spv" is the
// vertex module "tri.vert".
func ParseShaderName(filename string) (string, gfx.ShaderStage, error) {
	if !strings.HasSuffix(filename, shaderSuffix) {
		return "", 0, errors.Wrap(ErrShaderName, filename)
	}
	name := strings.TrimSuffix(filename, shaderSuffix)
	nodes := strings.Split(name, ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", 0, errors.Wrap(ErrShaderName, filename)
	}

	switch nodes[1] {
	case "vert":
		return name, gfx.ShaderStageVertex, nil
	case "frag":
		return name, gfx.ShaderStageFragment, nil
	default:
		return "", 0, errors.Wrap(ErrShaderName, filename)
	}
}

func int64ToBinary(num int64) []byte {
	b := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(b, uint64(num))
	return b
}

func binaryToInt64(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}
