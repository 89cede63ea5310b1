// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shaderpack

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Open opens the pack read from r. It will also check that r
// actually holds a shader pack, and return ErrFileFormat otherwise.
func Open(r io.ReaderAt) (*Pack, error) {
	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, errors.Wrap(err, "read pack prefix")
	}
	if !bytes.Equal(prefix[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize := binaryToInt64(prefix[MagicLength:])
	if headerSize <= 0 || headerSize > 1<<24 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, errors.Wrap(err, "read pack header")
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}

	p := &Pack{
		reader: r,
		header: header,
		base:   MagicLength + HeaderSizeNumberLength + headerSize,
		index:  make(map[string]int, len(header.Index)),
	}
	for idx, e := range header.Index {
		p.index[e.Name] = idx
	}
	return p, nil
}

// OpenFile memory maps the pack at path.
func OpenFile(path string) (*Pack, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", path)
	}
	p, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	p.closer = r
	return p, nil
}

// Pack provides concurrent reads of the modules of a shader pack.
type Pack struct {
	reader io.ReaderAt
	closer io.Closer

	header Header
	base   int64
	index  map[string]int
}

// Header returns the pack header.
func (p *Pack) Header() Header {
	return p.header
}

// Names returns module names in pack order.
func (p *Pack) Names() []string {
	names := make([]string, 0, len(p.header.Index))
	for _, e := range p.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// Reader returns a reader of the decompressed module name.
func (p *Pack) Reader(name string) (io.Reader, IndexEntry, error) {
	idx, ok := p.index[name]
	if !ok {
		return nil, IndexEntry{}, errors.Wrap(ErrNotFound, name)
	}
	e := p.header.Index[idx]
	section := io.NewSectionReader(p.reader, p.base+e.Offset, e.CompressedSize)
	return lz4.NewReader(section), e, nil
}

// Module reads and decompresses module name.
func (p *Pack) Module(name string) (Module, error) {
	r, e, err := p.Reader(name)
	if err != nil {
		return Module{}, err
	}

	code := make([]byte, e.Size)
	if _, err := io.ReadFull(r, code); err != nil {
		return Module{}, errors.Wrapf(ErrFileFormat, "%s: %s", name, err)
	}
	return Module{
		Name:  e.Name,
		Stage: e.Stage,
		Entry: e.Entry,
		Code:  code,
	}, nil
}

// Close releases the memory mapping of a pack opened with OpenFile.
func (p *Pack) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}
