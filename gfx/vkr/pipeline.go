// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass wraps vk.RenderPass.
type RenderPass struct {
	device     vk.Device
	renderPass vk.RenderPass
}

var _ gfx.RenderPass = (*RenderPass)(nil)

// CreateRenderPass implements gfx.Device. The color attachment is
// cleared and left ready for presentation, depth is cleared and discarded.
func (d *Device) CreateRenderPass(desc gfx.RenderPassDesc) (gfx.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(desc.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	if desc.DepthFormat != gfx.FormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vk.Format(desc.DepthFormat),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &renderPass)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateRenderPass()")
	}
	return &RenderPass{device: d.device, renderPass: renderPass}, nil
}

// Inner returns the vk.RenderPass handle.
func (r *RenderPass) Inner() interface{} {
	return r.renderPass
}

// Release implements gfx.Releasable.
func (r *RenderPass) Release() {
	if r.renderPass == vk.NullRenderPass {
		return
	}
	vk.DestroyRenderPass(r.device, r.renderPass, nil)
	r.renderPass = vk.NullRenderPass
}

// Framebuffer wraps vk.Framebuffer.
type Framebuffer struct {
	device      vk.Device
	framebuffer vk.Framebuffer
}

var _ gfx.Framebuffer = (*Framebuffer)(nil)

// CreateFramebuffer implements gfx.Device.
func (d *Device) CreateFramebuffer(rp gfx.RenderPass, attachments []gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	views := make([]vk.ImageView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, a.Inner().(vk.ImageView))
	}

	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.(*RenderPass).renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFramebuffer()")
	}
	return &Framebuffer{device: d.device, framebuffer: framebuffer}, nil
}

// Inner returns the vk.Framebuffer handle.
func (f *Framebuffer) Inner() interface{} {
	return f.framebuffer
}

// Release implements gfx.Releasable.
func (f *Framebuffer) Release() {
	if f.framebuffer == nil {
		return
	}
	vk.DestroyFramebuffer(f.device, f.framebuffer, nil)
	f.framebuffer = nil
}

// Pipeline is a graphics pipeline together with its layout.
type Pipeline struct {
	device   vk.Device
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
}

var _ gfx.Pipeline = (*Pipeline)(nil)

// CreatePipeline implements gfx.Device. Shader modules live only
// for the duration of the call.
func (d *Device) CreatePipeline(desc gfx.PipelineDesc) (gfx.Pipeline, error) {
	if len(desc.Shaders) == 0 {
		return nil, errors.New("pipeline needs at least one shader stage")
	}

	var setLayouts []vk.DescriptorSetLayout
	if desc.Layout != nil {
		setLayouts = append(setLayouts, desc.Layout.(*DescriptorSetLayout).layout)
	}
	plci := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}
	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, &plci, nil, &pipelineLayout)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineLayout()")
	}

	modules := make([]vk.ShaderModule, 0, len(desc.Shaders))
	defer func() {
		for _, m := range modules {
			vk.DestroyShaderModule(d.device, m, nil)
		}
	}()

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(desc.Shaders))
	for _, shader := range desc.Shaders {
		module, err := d.createShaderModule(shader.Code)
		if err != nil {
			vk.DestroyPipelineLayout(d.device, pipelineLayout, nil)
			return nil, err
		}
		modules = append(modules, module)

		entry := shader.Entry
		if entry == "" {
			entry = "main"
		}
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(shader.Stage),
			Module: module,
			PName:  entry + "\x00",
		})
	}

	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if desc.CullBack {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	depthTest := vk.Bool32(vk.False)
	if desc.DepthTest {
		depthTest = vk.True
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				Width:    float32(desc.Extent.Width),
				Height:   float32(desc.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Extent: vk.Extent2D{
					Width:  desc.Extent.Width,
					Height: desc.Extent.Height,
				},
			}},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    cullMode,
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       depthTest,
			DepthWriteEnable:      depthTest,
			DepthCompareOp:        vk.CompareOpLessOrEqual,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		Layout:     pipelineLayout,
		RenderPass: desc.RenderPass.(*RenderPass).renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(d.device, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		vk.DestroyPipelineLayout(d.device, pipelineLayout, nil)
		return nil, errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}

	return &Pipeline{
		device:   d.device,
		pipeline: pipelines[0],
		layout:   pipelineLayout,
	}, nil
}

func (d *Device) createShaderModule(code []uint32) (vk.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateShaderModule()")
	}
	return module, nil
}

// Inner returns the vk.Pipeline handle.
func (p *Pipeline) Inner() interface{} {
	return p.pipeline
}

// Layout returns the vk.PipelineLayout needed to bind descriptor sets.
func (p *Pipeline) Layout() vk.PipelineLayout {
	return p.layout
}

// Release implements gfx.Releasable.
func (p *Pipeline) Release() {
	if p.pipeline == nil {
		return
	}
	vk.DestroyPipeline(p.device, p.pipeline, nil)
	vk.DestroyPipelineLayout(p.device, p.layout, nil)
	p.pipeline = nil
}
