// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shaderpack

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/devblok/circe/gfx"
	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) *Builder {
	if header.DateCreated == 0 {
		header.DateCreated = time.Now().Unix()
	}
	header.Version = Version
	return &Builder{
		header:  header,
		modules: make(map[string]compressed),
	}
}

type compressed struct {
	stage gfx.ShaderStage
	entry string
	size  int64
	data  []byte
}

// Builder is the way to create a shader pack. Packs cannot be appended
// to, modules are collected with Add and written out with WriteTo.
type Builder struct {
	header Header

	mutex   sync.Mutex
	modules map[string]compressed
}

var _ io.WriterTo = (*Builder)(nil)

// Add compresses a compiled shader under the module name derived from
// filename, see ParseShaderName. The entry point is "main".
// Safe to use concurrently.
func (b *Builder) Add(filename string, code []byte) error {
	name, stage, err := ParseShaderName(filepath.Base(filename))
	if err != nil {
		return err
	}
	return b.AddModule(name, stage, "main", code)
}

// AddModule compresses code and stores it as module name.
// Safe to use concurrently.
func (b *Builder) AddModule(name string, stage gfx.ShaderStage, entry string, code []byte) error {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	written, err := io.Copy(writer, bytes.NewReader(code))
	if err != nil {
		return errors.Wrapf(err, "compress %s", name)
	}
	if err := writer.Close(); err != nil {
		return errors.Wrapf(err, "compress %s", name)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, ok := b.modules[name]; ok {
		return errors.Wrap(ErrDuplicate, name)
	}
	b.modules[name] = compressed{
		stage: stage,
		entry: entry,
		size:  written,
		data:  buf.Bytes(),
	}
	return nil
}

// AddDir adds every compiled shader found under dir. Files that do not
// follow the shader naming rule are skipped. It returns the names added.
func (b *Builder) AddDir(dir string) ([]string, error) {
	var added []string
	err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		name, _, err := ParseShaderName(f.Name())
		if err != nil {
			return nil
		}
		code, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := b.Add(f.Name(), code); err != nil {
			return err
		}
		added = append(added, name)
		return nil
	})
	return added, err
}

// Len returns the number of modules added.
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.modules)
}

// WriteTo bundles and writes all modules added to the Builder
// into a pack that is ready to use. Modules are ordered by name.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	names := make([]string, 0, len(b.modules))
	for name := range b.modules {
		names = append(names, name)
	}
	sort.Strings(names)

	header := b.header
	header.Index = nil
	var offset int64
	for _, name := range names {
		m := b.modules[name]
		header.Index = append(header.Index, IndexEntry{
			Name:           name,
			Stage:          m.stage,
			Entry:          m.entry,
			Offset:         offset,
			Size:           m.size,
			CompressedSize: int64(len(m.data)),
		})
		offset += int64(len(m.data))
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, errors.Wrap(err, "encode header")
	}

	var total int64
	write := func(p []byte) error {
		n, err := w.Write(p)
		total += int64(n)
		return err
	}

	if err := write(magic[:]); err != nil {
		return total, err
	}
	if err := write(int64ToBinary(int64(len(rawHeader)))); err != nil {
		return total, err
	}
	if err := write(rawHeader); err != nil {
		return total, err
	}
	for _, name := range names {
		if err := write(b.modules[name].data); err != nil {
			return total, err
		}
	}
	return total, nil
}
