// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/devblok/circe/core"
	"github.com/devblok/circe/core/renderer"
	"github.com/devblok/circe/model"
	"github.com/devblok/circe/utility/shaderpack"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

// StaticResources holds the shader pack built into the binary
var StaticResources = packr.NewBox("./shaders")

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	envFile      = flag.String("env", ".env", "Configuration file")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	verbose      = flag.Bool("v", false, "Log swapchain rebuilds")
)

func newWindow(cfg core.RendererConfiguration) (*sdl.Window, error) {
	return sdl.CreateWindow("Circe",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
}

func loadShaders(path string) (*shaderpack.Pack, error) {
	if _, err := os.Stat(path); err == nil {
		return shaderpack.OpenFile(path)
	}
	data, err := StaticResources.Find("default.pack")
	if err != nil {
		return nil, err
	}
	return shaderpack.Open(bytes.NewReader(data))
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			log.Fatal(err)
		}
		defer trace.Stop()
	}

	configuration, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	configuration.Instance.DebugMode = configuration.Instance.DebugMode || *debug

	shaders, err := loadShaders(configuration.Renderer.ShaderPack)
	if err != nil {
		log.WithError(err).Fatal("no shader pack, build one with circepack")
	}
	defer shaders.Close()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.Fatal(err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow, err := newWindow(configuration.Renderer)
	if err != nil {
		log.Fatal(err)
	}
	defer sdlWindow.Destroy()

	configuration.Instance.Extensions = sdlWindow.VulkanGetInstanceExtensions()
	vkInstance, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), configuration.Instance)
	if err != nil {
		log.Fatal(err)
	}
	defer vkInstance.Destroy()

	sdlSurface, err := sdlWindow.VulkanCreateSurface(vkInstance.Inner())
	if err != nil {
		log.Fatal(err)
	}
	vkInstance.SetSurface(sdlSurface)

	device, err := vkInstance.NewDevice(0)
	if err != nil {
		log.Fatal(err)
	}
	defer device.Release()

	app := &demo{
		device: device,
		shader: shaders,
		camera: model.DefaultCamera,
	}

	engine, err := renderer.NewEngine(device, app.callbacks(), configuration.Renderer.Engine(log.StandardLogger()))
	if err != nil {
		log.Fatal(err)
	}
	if err := engine.Initialise(); err != nil {
		log.Fatal(err)
	}
	defer engine.Destroy()

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	programSync := sync.WaitGroup{}

	/* Renderer loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		defer wg.Done()
		statsTicker := time.NewTicker(time.Second)
		defer statsTicker.Stop()

		var last renderer.Stats
	DrawLoop:
		for {
			select {
			case <-ctx.Done():
				log.Debug("draw loop exited")
				break DrawLoop
			case <-statsTicker.C:
				last = logStats(engine, last)
			case <-timeService.FpsTicker().C:
				if err := engine.DrawFrame(); err != nil {
					log.WithError(err).Error("draw failed")
					cancel()
				}
			}
		}
	}(ctx, &programSync)

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
						continue EventLoop
					}
				case *sdl.WindowEvent:
					switch et.Event {
					case sdl.WINDOWEVENT_SIZE_CHANGED:
						engine.RequestResize(uint32(et.Data1), uint32(et.Data2))
					case sdl.WINDOWEVENT_MINIMIZED:
						engine.RequestResize(0, 0)
					case sdl.WINDOWEVENT_RESTORED:
						w, h := sdlWindow.GetSize()
						engine.RequestResize(uint32(w), uint32(h))
					}
				case *sdl.QuitEvent:
					cancel()
					continue EventLoop
				}
			}
		}
	}

	programSync.Wait()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
	}
}
