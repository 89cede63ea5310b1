// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/devblok/circe/utility/shaderpack"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Name
}

var (
	author   = flag.String("author", currentUserName(), "Set the author of the pack")
	list     = flag.String("l", "", "List the modules of the given pack")
	extract  = flag.String("e", "", "Extract the module given, from the pack given with -f")
	compress = flag.String("c", "", "Pack every compiled shader in the given folder")
	dstFile  = flag.String("f", "shaders.pack", "Pack file")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*list, *extract, *compress} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *compress != "":
		err = compressDir(*compress, *dstFile)
	case *extract != "":
		err = extractModule(*dstFile, *extract)
	case *list != "":
		err = listModules(*list)
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressDir(dir, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	builder := shaderpack.NewBuilder(shaderpack.Header{Author: *author})
	added, err := builder.AddDir(dir)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return errors.Errorf("no compiled shaders in %s", dir)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(f)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"pack":    dst,
		"modules": len(added),
		"bytes":   written,
	}).Info("shader pack written")
	return nil
}

func extractModule(pack, name string) error {
	p, err := shaderpack.OpenFile(pack)
	if err != nil {
		return err
	}
	defer p.Close()

	m, err := p.Module(name)
	if err != nil {
		return err
	}
	out := filepath.Base(m.Name) + ".spv"
	if err := os.WriteFile(out, m.Code, 0644); err != nil {
		return err
	}
	log.WithField("file", out).Info("module extracted")
	return nil
}

func listModules(pack string) error {
	p, err := shaderpack.OpenFile(pack)
	if err != nil {
		return err
	}
	defer p.Close()

	for _, e := range p.Header().Index {
		fmt.Printf("%s\t%s\t%d\t%d\n", e.Name, e.Entry, e.Size, e.CompressedSize)
	}
	return nil
}
