// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

// OmmCoverage accumulates opaque/transparent pixel votes while a
// classification kernel walks one micro-triangle's footprint in the
// source texture. LevelLineIntersectionKernel always leaves at least one
// field non-zero; NearestKernel and ConservativeBilinearKernel leave both
// zero when no raster cell is covered (a footprint wholly outside the
// texture), which GetStateFromCoverage resolves to Transparent.
type OmmCoverage struct {
	Opaque, Transparent int
}

// sampleSettings bundles the per-bake texture sampling configuration the
// classification kernels need: which texture, how out-of-range texels
// resolve, and the alpha threshold that separates opaque from
// transparent.
type sampleSettings struct {
	texture     *Texture
	address     TextureAddressMode
	borderAlpha float32
	cutoff      float32
}

// LevelLineIntersectionKernel classifies one micro-triangle using the
// precise bilinear path: a sample at the micro-triangle's P0 vertex
// (the original's "center" sample, despite literally using p0)
// establishes the provisional state, then every raster cell under the
// micro-triangle (offset by
// (-0.5,-0.5) to align with the texture's bilinear interpolation grid)
// is tested for whether the bilinear patch spanning it straddles cutoff.
// mips lists the mip levels to test, finest first, falling back to
// coarser mips; the scan stops at the first mip that yields a mixed
// (Unknown) result.
func LevelLineIntersectionKernel(s sampleSettings, micro Triangle, mips []int) OmmCoverage {
	var cov OmmCoverage
	for _, mip := range mips {
		size := s.texture.Size(mip)
		if s.texture.Bilinear(s.address, micro.P0, mip, s.borderAlpha) > s.cutoff {
			cov.Opaque++
		} else {
			cov.Transparent++
		}

		mixed := false
		RasterizeConservativeSerialWithOffsetCoverage(micro, size, Vec2{X: -0.5, Y: -0.5}, func(pixel Vec2i, _ [3]float32, _ any) {
			a00 := s.texture.Sample(s.address, pixel, mip, s.borderAlpha)
			a10 := s.texture.Sample(s.address, Vec2i{X: pixel.X + 1, Y: pixel.Y}, mip, s.borderAlpha)
			a01 := s.texture.Sample(s.address, Vec2i{X: pixel.X, Y: pixel.Y + 1}, mip, s.borderAlpha)
			a11 := s.texture.Sample(s.address, Vec2i{X: pixel.X + 1, Y: pixel.Y + 1}, mip, s.borderAlpha)
			if bilinearPatchStraddles(a00, a10, a01, a11, s.cutoff) {
				mixed = true
			}
		}, nil)

		if mixed {
			cov.Opaque++
			cov.Transparent++
			break
		}
	}
	return cov
}

// bilinearPatchStraddles reports whether the bilinear surface spanned by
// the four corner alphas takes the value cutoff somewhere in its unit
// domain. A bilinear interpolant is a convex combination of its corners
// at every point of [0,1]^2, so it is bounded by (and attains) the
// corners' min and max — making a min/max bracket test exact, not an
// approximation.
func bilinearPatchStraddles(a00, a10, a01, a11, cutoff float32) bool {
	lo := min4(a00, a10, a01, a11)
	hi := max4(a00, a10, a01, a11)
	return lo < cutoff && hi > cutoff
}

func min4(a, b, c, d float32) float32 { return min(a, min(b, min(c, d))) }
func max4(a, b, c, d float32) float32 { return max(a, max(b, max(c, d))) }

// ConservativeBilinearKernel classifies one micro-triangle by rasterizing
// the two triangles covering its axis-aligned bounding box (offset by
// (-0.5,-0.5), matching the bilinear grid) rather than the micro-triangle
// itself, trading precision for a cheaper, branch-free footprint. Each
// covered pixel contributes to Opaque if its 4-texel patch's maximum
// exceeds cutoff, and to Transparent if its minimum does not exceed it —
// a pixel can contribute to both, which is the point: the AABB alone is
// already a conservative over-approximation of the micro-triangle.
func ConservativeBilinearKernel(s sampleSettings, micro Triangle, mip int) OmmCoverage {
	var cov OmmCoverage
	size := s.texture.Size(mip)
	visited := make(map[Vec2i]bool)

	visit := func(pixel Vec2i, _ [3]float32, _ any) {
		if visited[pixel] {
			return
		}
		visited[pixel] = true
		a00 := s.texture.Sample(s.address, pixel, mip, s.borderAlpha)
		a10 := s.texture.Sample(s.address, Vec2i{X: pixel.X + 1, Y: pixel.Y}, mip, s.borderAlpha)
		a01 := s.texture.Sample(s.address, Vec2i{X: pixel.X, Y: pixel.Y + 1}, mip, s.borderAlpha)
		a11 := s.texture.Sample(s.address, Vec2i{X: pixel.X + 1, Y: pixel.Y + 1}, mip, s.borderAlpha)
		if max4(a00, a10, a01, a11) > s.cutoff {
			cov.Opaque++
		}
		if min4(a00, a10, a01, a11) <= s.cutoff {
			cov.Transparent++
		}
	}

	lo, hi := micro.AabbMin, micro.AabbMax
	triA := NewTriangle(lo, Vec2{X: hi.X, Y: lo.Y}, hi)
	triB := NewTriangle(lo, hi, Vec2{X: lo.X, Y: hi.Y})
	offset := Vec2{X: -0.5, Y: -0.5}
	RasterizeConservativeSerialWithOffsetCoverage(triA, size, offset, visit, nil)
	RasterizeConservativeSerialWithOffsetCoverage(triB, size, offset, visit, nil)
	return cov
}

// NearestKernel classifies one micro-triangle by point-sampling a single
// texel per covered raster cell (no sub-pixel offset — nearest filtering
// has no interpolation grid to align with).
func NearestKernel(s sampleSettings, micro Triangle, mip int) OmmCoverage {
	var cov OmmCoverage
	size := s.texture.Size(mip)
	RasterizeConservativeSerial(micro, size, func(pixel Vec2i, _ [3]float32, _ any) {
		if s.texture.Sample(s.address, pixel, mip, s.borderAlpha) > s.cutoff {
			cov.Opaque++
		} else {
			cov.Transparent++
		}
	}, nil)
	return cov
}

// GetStateFromCoverage resolves a micro-triangle's accumulated coverage
// into its final OpacityState, disambiguating a mixed result per
// promotion and collapsing Unknown states for 2-state formats.
func GetStateFromCoverage(format OMMFormat, promotion UnknownStatePromotion, cov OmmCoverage) OpacityState {
	switch {
	case cov.Transparent == 0 && cov.Opaque > 0:
		return StateOpaque
	case cov.Opaque == 0 && cov.Transparent > 0:
		return StateTransparent
	case cov.Opaque == 0 && cov.Transparent == 0:
		return StateTransparent
	}

	unknown := disambiguateUnknown(promotion, cov)
	if format == OMMFormatOC1_2State {
		if unknown == StateUnknownOpaque {
			return StateOpaque
		}
		return StateTransparent
	}
	return unknown
}

func disambiguateUnknown(promotion UnknownStatePromotion, cov OmmCoverage) OpacityState {
	switch promotion {
	case PromotionForceOpaque:
		return StateUnknownOpaque
	case PromotionForceTransparent:
		return StateUnknownTransparent
	default: // PromotionNearest: majority vote, ties favor opaque
		if cov.Opaque >= cov.Transparent {
			return StateUnknownOpaque
		}
		return StateUnknownTransparent
	}
}
