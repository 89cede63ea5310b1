// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/devblok/circe/core"
	log "github.com/sirupsen/logrus"
)

var debug = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

func main() {
	flag.Parse()

	cfg := core.InstanceConfiguration{
		DebugMode:  *debug,
		Extensions: []string{},
		Layers:     []string{},
	}

	coreInstance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer coreInstance.Destroy()

	bytes, err := json.MarshalIndent(coreInstance.PhysicalDevicesInfo(), "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", bytes)
}
