// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// Package ommbake bakes Opacity Micromaps (OMMs) for triangle meshes from
// an alpha texture and per-triangle UV coordinates. For every input
// triangle it produces a hierarchical 2- or 4-state opacity classification
// over a subdivided triangular grid, deduplicates identical and
// near-identical results, and emits a compact indexed array suitable for
// ray-tracing acceleration structures.
//
// The zero value of [BakeInputDesc] is not directly usable (Texture and
// the index/tex-coord buffers must be set), but every flag and tuning
// field defaults sensibly to "off" / "exact", matching this corpus's
// convention of zero-value-valid option structs.
package ommbake

// OMMFormat selects the per-micro-triangle state payload width.
type OMMFormat uint16

const (
	OMMFormatInvalid    = OMMFormat(0)
	OMMFormatOC1_2State = OMMFormat(1)
	OMMFormatOC1_4State = OMMFormat(2)
)

// BitCount returns the number of bits used to encode one micro-triangle's
// state under this format.
func (f OMMFormat) BitCount() uint32 {
	switch f {
	case OMMFormatOC1_2State:
		return 1
	case OMMFormatOC1_4State:
		return 2
	}
	return 0
}

// OpacityState is the 4-state classification of a single micro-triangle.
type OpacityState uint8

const (
	StateTransparent        = OpacityState(0)
	StateOpaque             = OpacityState(1)
	StateUnknownTransparent = OpacityState(2)
	StateUnknownOpaque      = OpacityState(3)
)

// IsUnknown reports whether s is one of the two "unknown" states.
func (s OpacityState) IsUnknown() bool {
	return s == StateUnknownOpaque || s == StateUnknownTransparent
}

// IsKnown reports whether s is Opaque or Transparent.
func (s OpacityState) IsKnown() bool {
	return s == StateOpaque || s == StateTransparent
}

// To3State projects the 4-state domain down to 3 distinguishable buckets
// by folding UnknownTransparent into UnknownOpaque. Used wherever the spec
// calls for "3-state" comparisons (exact/near-duplicate dedup hashing and
// Hamming distance), so that two OMMs differing only in which flavor of
// "unknown" they report still hash and compare identically.
func (s OpacityState) To3State() OpacityState {
	if s == StateUnknownTransparent {
		return StateUnknownOpaque
	}
	return s
}

// SpecialIndex is one of the four negative sentinels written into an
// output index buffer in place of a descriptor offset, for OMMs whose
// micro-triangles are uniformly classified (or rejected as low quality).
type SpecialIndex int32

const (
	SpecialIndexFullyOpaque             = SpecialIndex(-1)
	SpecialIndexFullyTransparent        = SpecialIndex(-2)
	SpecialIndexFullyUnknownOpaque      = SpecialIndex(-3)
	SpecialIndexFullyUnknownTransparent = SpecialIndex(-4)
)

// specialIndexForState maps a uniform OpacityState to the sentinel that
// represents "every micro-triangle in this OMM has this state". The
// OpacityState and SpecialIndex enumerations are ordered differently, so
// this must map by name rather than by arithmetic on the state value.
func specialIndexForState(s OpacityState) SpecialIndex {
	switch s {
	case StateOpaque:
		return SpecialIndexFullyOpaque
	case StateTransparent:
		return SpecialIndexFullyTransparent
	case StateUnknownOpaque:
		return SpecialIndexFullyUnknownOpaque
	case StateUnknownTransparent:
		return SpecialIndexFullyUnknownTransparent
	}
	return SpecialIndexFullyUnknownOpaque
}

// TilingMode controls how a Texture's mip data is laid out in memory.
type TilingMode uint8

const (
	TilingLinear  = TilingMode(0)
	TilingMortonZ = TilingMode(1)
)

// TextureAddressMode controls how out-of-[0,size) texel coordinates are
// resolved.
type TextureAddressMode uint8

const (
	AddressWrap       = TextureAddressMode(0)
	AddressMirror     = TextureAddressMode(1)
	AddressClamp      = TextureAddressMode(2)
	AddressBorder     = TextureAddressMode(3)
	AddressMirrorOnce = TextureAddressMode(4)
)

// TextureFilterMode selects point sampling vs. bilinear interpolation.
type TextureFilterMode uint8

const (
	FilterNearest = TextureFilterMode(0)
	FilterLinear  = TextureFilterMode(1)
)

// IndexFormat is the width of entries in a BakeResult's index buffer.
type IndexFormat uint8

const (
	IndexFormatI16 = IndexFormat(0)
	IndexFormatI32 = IndexFormat(1)
)

// TexCoordFormat is the wire format of the input mesh's UV buffer.
type TexCoordFormat uint8

const (
	TexCoordUV16Unorm = TexCoordFormat(0)
	TexCoordUV16Float = TexCoordFormat(1)
	TexCoordUV32Float = TexCoordFormat(2)
)

// byteSize returns the per-vertex byte size implied by the format, used
// as the default stride when the caller doesn't supply one.
func (f TexCoordFormat) byteSize() uint32 {
	switch f {
	case TexCoordUV16Unorm, TexCoordUV16Float:
		return 4
	case TexCoordUV32Float:
		return 8
	}
	return 0
}

// IndexBufferFormat is the wire format of the input mesh's triangle index
// buffer (distinct from IndexFormat, which describes the baker's output).
type IndexBufferFormat uint8

const (
	IndexBufferU16 = IndexBufferFormat(0)
	IndexBufferU32 = IndexBufferFormat(1)
)

// AlphaMode selects how alpha values are interpreted. Test is currently
// the only supported mode (alpha vs. a cutoff threshold).
type AlphaMode uint8

const (
	AlphaModeTest = AlphaMode(0)
)

// UnknownStatePromotion decides which flavor of "unknown" a mixed
// micro-triangle is assigned.
type UnknownStatePromotion uint8

const (
	PromotionNearest          = UnknownStatePromotion(0) // majority vote
	PromotionForceOpaque      = UnknownStatePromotion(1)
	PromotionForceTransparent = UnknownStatePromotion(2)
)

// BakeFlags is a bitset of options controlling BakeOpacityMicromap.
type BakeFlags uint32

const (
	FlagEnableInternalThreads                  BakeFlags = 1 << 0
	FlagDisableSpecialIndices                  BakeFlags = 1 << 1
	FlagForce32BitIndices                      BakeFlags = 1 << 2
	FlagDisableDuplicateDetection              BakeFlags = 1 << 3
	FlagEnableNearDuplicateDetection           BakeFlags = 1 << 4
	FlagEnableWorkloadValidation               BakeFlags = 1 << 5
	FlagEnableAABBTesting                      BakeFlags = 1 << 6
	FlagDisableRemovePoorQualityOMM            BakeFlags = 1 << 7
	FlagDisableLevelLineIntersection           BakeFlags = 1 << 8
	FlagEnableNearDuplicateDetectionBruteForce BakeFlags = 1 << 9
)

func (f BakeFlags) has(bit BakeFlags) bool { return f&bit == bit }

// kMaxSubdivLevel is the hard ceiling on subdivision level (spec.md §3):
// 4^12 micro-triangles per OMM is already 16M cells.
const kMaxSubdivLevel = 12

// kMaxNumSubdivLevels is the number of distinct subdivision levels,
// 0..kMaxSubdivLevel inclusive.
const kMaxNumSubdivLevels = kMaxSubdivLevel + 1

// kDisabledSubdivisionLevel is the sentinel per-primitive subdivision
// level meaning "don't bake this triangle at all".
const kDisabledSubdivisionLevel = 14

// Result is the taxonomy of top-level call outcomes (spec.md §7).
type Result uint8

const (
	ResultSuccess         = Result(0)
	ResultInvalidArgument = Result(1)
	ResultWorkloadTooBig  = Result(2)
	ResultFailure         = Result(3)
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultInvalidArgument:
		return "INVALID_ARGUMENT"
	case ResultWorkloadTooBig:
		return "WORKLOAD_TOO_BIG"
	case ResultFailure:
		return "FAILURE"
	}
	return "UNKNOWN"
}
