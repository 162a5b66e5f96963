/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package command

import (
	"widgetboard/internal/geom"
	"widgetboard/internal/state"
	"widgetboard/internal/viewport"
)

func currentTransform(c Canvas) viewport.Transform {
	t := c.Viewport()
	if t.Zoom == 0 {
		t.Zoom = 1
	}
	return t
}

// viewportSize prefers the store's size and falls back to the canvas.
func viewportSize(ctx Context) geom.Size {
	cs := ctx.Canvas.ViewportSize()
	if ctx.Store == nil {
		return cs
	}
	ss := ctx.Store.ViewportSize()
	if ss.Width != 0 {
		cs.Width = ss.Width
	}
	if ss.Height != 0 {
		cs.Height = ss.Height
	}
	return cs
}

func applyTransform(ctx Context, t viewport.Transform) {
	ctx.Canvas.SetViewport(t)
	ctx.Canvas.RequestRender()
	if ctx.Store != nil {
		ctx.Store.SetViewportTransform(t)
	}
}

func zoomAboutCenter(ctx Context, zoom func(cur float64) float64) bool {
	if ctx.Canvas == nil {
		return false
	}
	cur := currentTransform(ctx.Canvas)
	size := viewportSize(ctx)
	center := geom.Pt(size.Width/2, size.Height/2)
	applyTransform(ctx, viewport.ZoomToPointWithin(cur, center, zoom(cur.Zoom), ctx.Settings.Limits))
	return true
}

func zoomIn(ctx Context) bool {
	step := ctx.Settings.zoomStep()
	return zoomAboutCenter(ctx, func(z float64) float64 { return z * step })
}

func zoomOut(ctx Context) bool {
	step := ctx.Settings.zoomStep()
	return zoomAboutCenter(ctx, func(z float64) float64 { return z / step })
}

func zoomActual(ctx Context) bool {
	return zoomAboutCenter(ctx, func(float64) float64 { return 1 })
}

func zoomReset(ctx Context) bool {
	if ctx.Canvas == nil {
		return false
	}
	applyTransform(ctx, viewport.Identity())
	return true
}

// zoomFit frames every visible object; an empty board resets the view.
func zoomFit(ctx Context) bool {
	if ctx.Canvas == nil {
		return false
	}
	objs := ctx.Canvas.Objects()
	if len(objs) == 0 {
		applyTransform(ctx, viewport.Identity())
		return true
	}
	bounds := geom.Bounds(snapshot(objs)...)
	applyTransform(ctx, viewport.FitRect(bounds, viewportSize(ctx), ctx.Settings.fitPadding(), ctx.Settings.Limits))
	return true
}

func viewIs(pred func(viewport.Transform) bool) func(Context) bool {
	return func(ctx Context) bool { return ctx.Store != nil && pred(ctx.Store.View()) }
}

func zoomCommands() []Command {
	return []Command{
		{ID: "zoom:in", Section: state.SectionZoom, Label: "Zoom In", Hotkey: "ctrl+=", Run: zoomIn},
		{ID: "zoom:out", Section: state.SectionZoom, Label: "Zoom Out", Hotkey: "ctrl+-", Run: zoomOut},
		{ID: "zoom:reset", Section: state.SectionZoom, Label: "Reset View", Hotkey: "ctrl+0", Run: zoomReset,
			Active: viewIs(viewport.Transform.IsReset)},
		{ID: "zoom:actual", Section: state.SectionZoom, Label: "Actual Size", Hotkey: "ctrl+1", Run: zoomActual,
			Active: viewIs(viewport.Transform.IsActualSize)},
		{ID: "zoom:fit", Section: state.SectionZoom, Label: "Fit to Screen", Hotkey: "ctrl+shift+f", Run: zoomFit},
	}
}
