// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"math"
)

// TextureFlags configures Texture creation.
type TextureFlags uint32

// FlagDisableZOrder stores mip data row-major instead of Morton-Z tiled.
// Mirrors the original's inverted sense: Morton-Z tiling is the default,
// matching its cache-locality benefit for the rasterizer's scanline walk.
const FlagDisableZOrder TextureFlags = 1 << 0

// MipDesc describes one mip level's raw alpha data.
type MipDesc struct {
	Width, Height uint32
	// Data holds Width*Height float32 alpha values, row-major, unless
	// RowPitchFloats is set to something other than Width.
	Data           []float32
	RowPitchFloats uint32
}

// TextureDesc describes the immutable alpha texture a bake reads from.
type TextureDesc struct {
	Mips  []MipDesc
	Flags TextureFlags
}

type textureMip struct {
	size         Vec2i
	sizeMinusOne Vec2i
	rcpSize      Vec2
	data         []float32 // length: numElements, possibly padded for Morton tiling
	numElements  int64
}

// Texture is an immutable source alpha texture with a mip chain, owned
// exclusively by the Baker that created it (spec.md §3). Create one with
// [Baker.NewTexture]; release it with Close when the baker no longer
// needs it.
type Texture struct {
	tiling TilingMode
	mips   []textureMip
}

// NewTexture validates desc and builds an immutable Texture.
func (b *Baker) NewTexture(desc TextureDesc) (*Texture, error) {
	if len(desc.Mips) == 0 {
		return nil, errInvalidArgument("texture must have at least one mip")
	}
	tiling := TilingMortonZ
	if desc.Flags&FlagDisableZOrder != 0 {
		tiling = TilingLinear
	}

	t := &Texture{tiling: tiling, mips: make([]textureMip, len(desc.Mips))}
	for i, md := range desc.Mips {
		if md.Width == 0 || md.Height == 0 {
			return nil, errInvalidArgument("mip %d has zero dimension", i)
		}
		rowPitch := md.RowPitchFloats
		if rowPitch == 0 {
			rowPitch = md.Width
		}
		if uint64(len(md.Data)) < uint64(rowPitch)*uint64(md.Height-1)+uint64(md.Width) {
			return nil, errInvalidArgument("mip %d data too small for its dimensions", i)
		}

		tm := textureMip{
			size:         Vec2i{int32(md.Width), int32(md.Height)},
			sizeMinusOne: Vec2i{int32(md.Width) - 1, int32(md.Height) - 1},
			rcpSize:      Vec2{1.0 / float32(md.Width), 1.0 / float32(md.Height)},
		}

		if tiling == TilingLinear {
			tm.numElements = int64(md.Width) * int64(md.Height)
			tm.data = make([]float32, tm.numElements)
			for y := uint32(0); y < md.Height; y++ {
				srcRow := md.Data[y*rowPitch : y*rowPitch+md.Width]
				copy(tm.data[int64(y)*int64(md.Width):], srcRow)
			}
		} else {
			maxDim := nextPow2(max(md.Width, md.Height))
			tm.numElements = int64(maxDim) * int64(maxDim)
			tm.data = make([]float32, tm.numElements)
			for y := uint32(0); y < md.Height; y++ {
				for x := uint32(0); x < md.Width; x++ {
					idx := morton2D(int32(x), int32(y))
					tm.data[idx] = md.Data[y*rowPitch+x]
				}
			}
		}
		t.mips[i] = tm
	}
	return t, nil
}

// Close releases the texture. The Go garbage collector already reclaims
// its backing memory; Close exists so callers following the language-
// neutral CreateTexture/DestroyTexture contract (spec.md §6) have an
// explicit release point, and so a Texture can assert against use after
// release in future debug builds.
func (t *Texture) Close() error { return nil }

// MipCount returns the number of mips in the chain.
func (t *Texture) MipCount() int { return len(t.mips) }

// Size returns (width, height) of the given mip.
func (t *Texture) Size(mip int) Vec2i { return t.mips[mip].size }

// GetRcpSize returns (1/width, 1/height) of the given mip.
func (t *Texture) GetRcpSize(mip int) Vec2 { return t.mips[mip].rcpSize }

func nextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

func morton2D(x, y int32) int64 {
	return int64(interleave(uint32(x)) | (interleave(uint32(y)) << 1))
}

func interleave(v uint32) uint32 {
	v &= 0x0000ffff
	v = (v | (v << 8)) & 0x00ff00ff
	v = (v | (v << 4)) & 0x0f0f0f0f
	v = (v | (v << 2)) & 0x33333333
	v = (v | (v << 1)) & 0x55555555
	return v
}

// kTexCoordBorder is an out-of-band coordinate that Load never indexes;
// its presence in a GatherTexCoord4 result means "use borderAlpha
// instead of sampling".
const kTexCoordBorder = math.MinInt32

// GetTexCoord resolves a possibly out-of-range texel coordinate against
// the given addressing mode. isBorder reports the AddressBorder case.
func GetTexCoord(mode TextureAddressMode, coord, size Vec2i) (resolved Vec2i, isBorder bool) {
	switch mode {
	case AddressWrap:
		return Vec2i{wrapAxis(coord.X, size.X), wrapAxis(coord.Y, size.Y)}, false
	case AddressMirror:
		return Vec2i{mirrorAxis(coord.X, size.X), mirrorAxis(coord.Y, size.Y)}, false
	case AddressClamp:
		return Vec2i{clampAxis(coord.X, size.X), clampAxis(coord.Y, size.Y)}, false
	case AddressBorder:
		x, bx := borderAxis(coord.X, size.X)
		y, by := borderAxis(coord.Y, size.Y)
		return Vec2i{x, y}, bx || by
	case AddressMirrorOnce:
		return Vec2i{mirrorOnceAxis(coord.X, size.X), mirrorOnceAxis(coord.Y, size.Y)}, false
	}
	return Vec2i{}, false
}

func wrapAxis(c, size int32) int32 {
	return int32(uint32(c) % uint32(size))
}

func mirrorAxis(c, size int32) int32 {
	abs := int32(math.Abs(float64(c) + 0.5))
	flipped := (abs/size)%2 != 0
	wrapped := abs % size
	if flipped {
		return size - wrapped - 1
	}
	return wrapped
}

func clampAxis(c, size int32) int32 {
	if c < 0 {
		return 0
	}
	if c > size-1 {
		return size - 1
	}
	return c
}

func borderAxis(c, size int32) (int32, bool) {
	if c >= size || c < 0 {
		return kTexCoordBorder, true
	}
	return c, false
}

func mirrorOnceAxis(c, size int32) int32 {
	abs := int32(math.Abs(float64(c) + 0.5))
	return clampAxis(abs, size)
}

// Load returns the alpha value at an integer pixel coordinate that has
// already been resolved by GetTexCoord (no further addressing is
// applied). A caller passing kTexCoordBorder should have short-circuited
// to borderAlpha instead of calling Load.
func (t *Texture) Load(coord Vec2i, mip int) float32 {
	m := &t.mips[mip]
	var idx int64
	if t.tiling == TilingLinear {
		idx = int64(coord.Y)*int64(m.size.X) + int64(coord.X)
	} else {
		idx = morton2D(coord.X, coord.Y)
	}
	return m.data[idx]
}

// texelOffset indexes the four texels of a bilinear footprint.
type texelOffset int

const (
	texel00 texelOffset = iota
	texel10
	texel01
	texel11
)

// GatherTexCoord4 resolves the four texel coordinates of the bilinear
// footprint anchored at texCoord under the given addressing mode.
func GatherTexCoord4(mode TextureAddressMode, texCoord, size Vec2i) (coords [4]Vec2i, isBorder [4]bool) {
	c00, b00 := GetTexCoord(mode, texCoord, size)
	c11, b11 := GetTexCoord(mode, Vec2i{texCoord.X + 1, texCoord.Y + 1}, size)
	coords[texel00] = Vec2i{c00.X, c00.Y}
	coords[texel10] = Vec2i{c11.X, c00.Y}
	coords[texel01] = Vec2i{c00.X, c11.Y}
	coords[texel11] = Vec2i{c11.X, c11.Y}
	isBorder[texel00] = b00
	isBorder[texel10] = b00 || b11
	isBorder[texel01] = b00 || b11
	isBorder[texel11] = b11
	return coords, isBorder
}

// Sample loads the texel at coord under the given addressing mode,
// substituting borderAlpha for out-of-range coordinates under
// AddressBorder.
func (t *Texture) Sample(mode TextureAddressMode, coord Vec2i, mip int, borderAlpha float32) float32 {
	size := t.mips[mip].size
	resolved, isBorder := GetTexCoord(mode, coord, size)
	if isBorder {
		return borderAlpha
	}
	return t.Load(resolved, mip)
}

// Bilinear returns the bilinear-filtered alpha at UV coordinate p
// (p in [0,1]^2) for the given mip, per the four-tap footprint described
// in spec.md §4.1.
func (t *Texture) Bilinear(mode TextureAddressMode, p Vec2, mip int, borderAlpha float32) float32 {
	size := t.mips[mip].size
	pixel := Vec2{p.X*float32(size.X) - 0.5, p.Y*float32(size.Y) - 0.5}
	floorX := float32(math.Floor(float64(pixel.X)))
	floorY := float32(math.Floor(float64(pixel.Y)))
	base := Vec2i{int32(floorX), int32(floorY)}

	coords, isBorder := GatherTexCoord4(mode, base, size)
	sample := func(i int) float32 {
		if isBorder[i] {
			return borderAlpha
		}
		return t.Load(coords[i], mip)
	}
	a := sample(int(texel00))
	b := sample(int(texel01))
	c := sample(int(texel10))
	d := sample(int(texel11))

	wx := pixel.X - floorX
	wy := pixel.Y - floorY

	ac := a + (c-a)*wx
	bd := b + (d-b)*wx
	return ac + (bd-ac)*wy
}
