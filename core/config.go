// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"time"

	"github.com/devblok/circe/core/renderer"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Instance InstanceConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// VSync prefers fifo presentation over mailbox
	VSync bool

	AcquireTimeout time.Duration
	FenceTimeout   time.Duration

	// ShaderPack is the path to a shader pack file. Empty means
	// the pack built into the binary.
	ShaderPack string
}

// Engine converts the configuration into one for the render engine.
func (rc RendererConfiguration) Engine(logger log.FieldLogger) renderer.Configuration {
	return renderer.Configuration{
		ScreenWidth:    rc.ScreenWidth,
		ScreenHeight:   rc.ScreenHeight,
		VSync:          rc.VSync,
		AcquireTimeout: rc.AcquireTimeout,
		FenceTimeout:   rc.FenceTimeout,
		Logger:         logger,
	}
}

// InstanceConfiguration is used to create the Vulkan instance
type InstanceConfiguration struct {
	// DebugMode loads validation layers and the debug report extension
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// Configuration keys read from the environment.
const (
	KeyScreenWidth    = "CIRCE_SCREEN_WIDTH"
	KeyScreenHeight   = "CIRCE_SCREEN_HEIGHT"
	KeyFPS            = "CIRCE_FPS"
	KeyEventPollDelay = "CIRCE_EVENT_POLL_DELAY"
	KeyVSync          = "CIRCE_VSYNC"
	KeyDebug          = "CIRCE_DEBUG"
	KeyAcquireTimeout = "CIRCE_ACQUIRE_TIMEOUT"
	KeyFenceTimeout   = "CIRCE_FENCE_TIMEOUT"
	KeyShaderPack     = "CIRCE_SHADER_PACK"
)

// DefaultConfiguration is used for every key that is not set.
var DefaultConfiguration = Configuration{
	Time: TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  10,
	},
	Renderer: RendererConfiguration{
		ScreenWidth:    800,
		ScreenHeight:   600,
		AcquireTimeout: renderer.DefaultAcquireTimeout,
		FenceTimeout:   renderer.DefaultFenceTimeout,
		ShaderPack:     "shaders.pack",
	},
}

// LoadConfiguration reads configuration from the environment. When path
// is not empty, the dotenv file at path is loaded first. Variables
// already present in the environment take precedence over the file.
func LoadConfiguration(path string) (Configuration, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Configuration{}, errors.Wrapf(err, "load %s", path)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration
	p := parser{}

	cfg.Renderer.ScreenWidth = p.uint32(KeyScreenWidth, cfg.Renderer.ScreenWidth)
	cfg.Renderer.ScreenHeight = p.uint32(KeyScreenHeight, cfg.Renderer.ScreenHeight)
	cfg.Renderer.VSync = p.bool(KeyVSync, cfg.Renderer.VSync)
	cfg.Renderer.AcquireTimeout = p.duration(KeyAcquireTimeout, cfg.Renderer.AcquireTimeout)
	cfg.Renderer.FenceTimeout = p.duration(KeyFenceTimeout, cfg.Renderer.FenceTimeout)
	cfg.Renderer.ShaderPack = envy.Get(KeyShaderPack, cfg.Renderer.ShaderPack)

	cfg.Time.FramesPerSecond = p.int(KeyFPS, cfg.Time.FramesPerSecond)
	cfg.Time.EventPollDelay = p.int(KeyEventPollDelay, cfg.Time.EventPollDelay)

	cfg.Instance.DebugMode = p.bool(KeyDebug, cfg.Instance.DebugMode)

	if p.err != nil {
		return Configuration{}, p.err
	}
	if cfg.Time.FramesPerSecond < 0 {
		return Configuration{}, errors.Errorf("%s: must not be negative", KeyFPS)
	}
	if cfg.Time.EventPollDelay <= 0 {
		return Configuration{}, errors.Errorf("%s: must be positive", KeyEventPollDelay)
	}
	return cfg, nil
}

// parser keeps the first error it sees so every key can be read
// without checking each one.
type parser struct {
	err error
}

func (p *parser) lookup(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := envy.Get(key, "")
	return v, v != ""
}

func (p *parser) fail(key string, err error) {
	p.err = errors.Wrap(err, key)
}

func (p *parser) uint32(key string, def uint32) uint32 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return uint32(n)
}

func (p *parser) int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}
