// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devblok/circe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := core.LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfiguration, cfg)
}

func TestLoadConfigurationFromEnvironment(t *testing.T) {
	t.Setenv(core.KeyScreenWidth, "1024")
	t.Setenv(core.KeyVSync, "true")
	t.Setenv(core.KeyFenceTimeout, "250ms")
	t.Setenv(core.KeyDebug, "1")

	cfg, err := core.LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), cfg.Renderer.ScreenWidth)
	assert.Equal(t, uint32(600), cfg.Renderer.ScreenHeight)
	assert.True(t, cfg.Renderer.VSync)
	assert.Equal(t, 250*time.Millisecond, cfg.Renderer.FenceTimeout)
	assert.True(t, cfg.Instance.DebugMode)
}

func TestLoadConfigurationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circe.env")
	require.NoError(t, os.WriteFile(path, []byte("CIRCE_FPS=144\nCIRCE_SHADER_PACK=demo.pack\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv(core.KeyFPS)
		os.Unsetenv(core.KeyShaderPack)
	})

	cfg, err := core.LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 144, cfg.Time.FramesPerSecond)
	assert.Equal(t, "demo.pack", cfg.Renderer.ShaderPack)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := core.LoadConfiguration(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadConfigurationInvalid(t *testing.T) {
	t.Setenv(core.KeyScreenHeight, "tall")

	_, err := core.LoadConfiguration("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), core.KeyScreenHeight)
}

func TestLoadConfigurationNegativeFps(t *testing.T) {
	t.Setenv(core.KeyFPS, "-1")

	_, err := core.LoadConfiguration("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), core.KeyFPS)
}

func TestEngineConfiguration(t *testing.T) {
	rc := core.DefaultConfiguration.Renderer
	rc.VSync = true

	ec := rc.Engine(nil)
	assert.Equal(t, rc.ScreenWidth, ec.ScreenWidth)
	assert.Equal(t, rc.ScreenHeight, ec.ScreenHeight)
	assert.True(t, ec.VSync)
	assert.Equal(t, rc.AcquireTimeout, ec.AcquireTimeout)
}
