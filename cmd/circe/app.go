// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/devblok/circe/core"
	"github.com/devblok/circe/core/renderer"
	"github.com/devblok/circe/gfx"
	"github.com/devblok/circe/gfx/vkr"
	"github.com/devblok/circe/model"
	"github.com/devblok/circe/utility/shaderpack"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const depthFormat = gfx.FormatD32Sfloat

var clearColor = [4]float32{0.02, 0.02, 0.04, 1}

// demo draws a spinning triangle. Its state is only touched from the
// goroutine that drives the engine.
type demo struct {
	device *vkr.Device
	shader *shaderpack.Pack
	camera model.Camera

	extent gfx.Extent2D
	depth  []*vkr.DepthImage
	angle  float32
}

func (d *demo) callbacks() renderer.Callbacks {
	return renderer.Callbacks{
		UniformBufferSize: func() uint64 {
			return model.UniformSize
		},
		DescriptorSetLayout: func(b *gfx.LayoutBuilder) {
			b.UniformBuffer(0, 1, gfx.ShaderStageVertex)
		},
		UpdateDescriptorSet: func(set gfx.DescriptorSet, uniform gfx.Buffer) {
			set.(*vkr.DescriptorSet).WriteUniform(0, uniform)
		},
		RecordCommandBuffer: d.record,
		PrepareFrame: func(uint32) {
			d.angle += 0.01
		},
		UpdateUniformBuffer: func(_ uint32, mem []byte) {
			u := d.camera.Uniform(glm.HomogRotate3D(d.angle, glm.Vec3{0, 0, 1}), d.extent.Width, d.extent.Height)
			u.Write(mem)
		},
		DestroySwapchain: d.releaseDepth,
		CreateSwapchain:  d.createDepth,
		RenderPass: func(cfg gfx.SwapchainConfig) gfx.RenderPassDesc {
			return gfx.RenderPassDesc{
				ColorFormat: cfg.Format,
				DepthFormat: depthFormat,
			}
		},
		Attachments: func(idx int) []gfx.ImageView {
			return []gfx.ImageView{d.depth[idx]}
		},
		Pipeline: d.pipeline,
	}
}

func (d *demo) createDepth(cfg gfx.SwapchainConfig) error {
	d.extent = cfg.Extent
	for idx := uint32(0); idx < cfg.ImageCount; idx++ {
		di, err := d.device.CreateDepthImage(depthFormat, cfg.Extent)
		if err != nil {
			d.releaseDepth()
			return errors.Wrapf(err, "depth image %d", idx)
		}
		d.depth = append(d.depth, di)
	}
	return nil
}

func (d *demo) releaseDepth() {
	for _, di := range d.depth {
		di.Release()
	}
	d.depth = d.depth[:0]
}

func (d *demo) pipeline(gfx.SwapchainConfig) (gfx.PipelineDesc, error) {
	desc := gfx.PipelineDesc{
		DepthTest: true,
	}
	for _, name := range []string{"triangle.vert", "triangle.frag"} {
		m, err := d.shader.Module(name)
		if err != nil {
			return gfx.PipelineDesc{}, err
		}
		desc.Shaders = append(desc.Shaders, gfx.ShaderModule{
			Stage: m.Stage,
			Entry: m.Entry,
			Code:  core.SliceUint32(m.Code),
		})
	}
	return desc, nil
}

func (d *demo) record(rc renderer.RecordContext) error {
	cmd := rc.CommandBuffer.(*vkr.CommandBuffer)
	if err := cmd.Begin(); err != nil {
		return err
	}
	cmd.BeginRenderPass(rc.RenderPass, rc.Framebuffer, rc.Extent, clearColor, true)
	cmd.BindPipeline(rc.Pipeline, rc.DescriptorSet)
	cmd.Draw(3)
	cmd.EndRenderPass()
	return cmd.End()
}

func logStats(e *renderer.Engine, last renderer.Stats) renderer.Stats {
	s := e.Stats()
	log.WithFields(log.Fields{
		"presented": s.Presented - last.Presented,
		"dropped":   s.Dropped - last.Dropped,
		"rebuilds":  s.Rebuilds,
		"state":     s.State,
	}).Info("frame stats")
	return s
}
