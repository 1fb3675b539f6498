// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import "math"

// PixelKernel is invoked once per covered pixel by the conservative
// rasterizer. pixel is the integer raster coordinate; bary holds the
// barycentric weights of the pixel's center with respect to the
// rasterized triangle (not clamped to [0,1] — conservative coverage
// means the center can lie slightly outside the triangle itself).
type PixelKernel func(pixel Vec2i, bary [3]float32, ctx any)

// RasterizeConservativeSerial walks every raster cell whose square
// overlaps tri (no sub-pixel offset applied — the point-sampling /
// nearest-filter case), invoking kernel once per covered cell.
func RasterizeConservativeSerial(tri Triangle, rasterSize Vec2i, kernel PixelKernel, ctx any) {
	rasterizeConservative(tri, rasterSize, Vec2{}, kernel, ctx)
}

// RasterizeConservativeSerialWithOffsetCoverage is like
// RasterizeConservativeSerial but first translates tri by pixelOffset (in
// pixel units) before rasterizing — used to align the raster grid with
// bilinear interpolation cells (spec.md §4.3).
func RasterizeConservativeSerialWithOffsetCoverage(tri Triangle, rasterSize Vec2i, pixelOffset Vec2, kernel PixelKernel, ctx any) {
	rasterizeConservative(tri, rasterSize, pixelOffset, kernel, ctx)
}

// RasterizeConservativeParallel behaves like
// RasterizeConservativeSerialWithOffsetCoverage, but callers may invoke
// it from multiple goroutines concurrently for disjoint work items: the
// kernel/ctx pair passed to one call never touches state written by
// another, so there is nothing here to serialize.
func RasterizeConservativeParallel(tri Triangle, rasterSize Vec2i, pixelOffset Vec2, kernel PixelKernel, ctx any) {
	rasterizeConservative(tri, rasterSize, pixelOffset, kernel, ctx)
}

func rasterizeConservative(tri Triangle, rasterSize Vec2i, pixelOffset Vec2, kernel PixelKernel, ctx any) {
	p0 := Vec2{tri.P0.X*float32(rasterSize.X) + pixelOffset.X, tri.P0.Y*float32(rasterSize.Y) + pixelOffset.Y}
	p1 := Vec2{tri.P1.X*float32(rasterSize.X) + pixelOffset.X, tri.P1.Y*float32(rasterSize.Y) + pixelOffset.Y}
	p2 := Vec2{tri.P2.X*float32(rasterSize.X) + pixelOffset.X, tri.P2.Y*float32(rasterSize.Y) + pixelOffset.Y}
	pixelSpace := NewTriangle(p0, p1, p2)

	minX := int32(math.Floor(float64(pixelSpace.AabbMin.X)))
	maxX := int32(math.Ceil(float64(pixelSpace.AabbMax.X)))
	minY := int32(math.Floor(float64(pixelSpace.AabbMin.Y)))
	maxY := int32(math.Ceil(float64(pixelSpace.AabbMax.Y)))

	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, rasterSize.X-1)
	maxY = min(maxY, rasterSize.Y-1)

	centroid := Vec2{(p0.X + p1.X + p2.X) / 3, (p0.Y + p1.Y + p2.Y) / 3}
	e01 := newConservativeEdge(p0, p1, centroid)
	e12 := newConservativeEdge(p1, p2, centroid)
	e20 := newConservativeEdge(p2, p0, centroid)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			center := Vec2{float32(x) + 0.5, float32(y) + 0.5}
			if !e01.coversConservatively(center) || !e12.coversConservatively(center) || !e20.coversConservatively(center) {
				continue
			}
			u, v, w := pixelSpace.Barycentric(center)
			kernel(Vec2i{x, y}, [3]float32{u, v, w}, ctx)
		}
	}
}

// conservativeEdge is one edge function of a triangle, oriented (via a
// reference interior point, typically the centroid) so that positive
// values are "inside", and pre-biased by half the edge's footprint so
// that a pixel cell only partially covered by the triangle still passes.
// A cell that merely touches the edge (zero-area contact) does not pass.
type conservativeEdge struct {
	a, b Vec2
	sign float32
	bias float32
}

func newConservativeEdge(a, b, interior Vec2) conservativeEdge {
	dx, dy := b.X-a.X, b.Y-a.Y
	sign := float32(1)
	if edgeFn(a, b, interior) < 0 {
		sign = -1
	}
	return conservativeEdge{
		a: a, b: b, sign: sign,
		bias: 0.5 * (absf(dx) + absf(dy)),
	}
}

func (e conservativeEdge) coversConservatively(p Vec2) bool {
	return e.sign*edgeFn(e.a, e.b, p)+e.bias > 0
}

func edgeFn(a, b, p Vec2) float32 {
	return (p.X-a.X)*(b.Y-a.Y) - (p.Y-a.Y)*(b.X-a.X)
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
