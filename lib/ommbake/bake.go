// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BakerDesc configures a Baker at creation time.
type BakerDesc struct {
	EnableValidation bool
}

// Baker owns every Texture it creates and is the entry point for
// BakeOpacityMicromap (spec.md §6). The zero Baker is not usable; build
// one with CreateBaker.
type Baker struct {
	enableValidation bool
}

// CreateBaker constructs a Baker. There is currently only the CPU
// backend; a GPU dispatch-chain baker is out of this package's scope
// (spec.md §1).
func CreateBaker(desc BakerDesc) (*Baker, error) {
	return &Baker{enableValidation: desc.EnableValidation}, nil
}

// SamplerDesc configures how the bake samples its source texture.
type SamplerDesc struct {
	Filter      TextureFilterMode
	AddressMode TextureAddressMode
	BorderAlpha float32
}

// BakeInputDesc is the full configuration of one bake call (spec.md §3).
// Its zero value is not directly usable — Texture, Indices and TexCoords
// must be set — but every flag and tuning field defaults to "off"/
// "exact": Flags=0, RejectionThreshold=0, UnknownStatePromotion=
// PromotionNearest, DynamicSubdivisionScale=0.
type BakeInputDesc struct {
	Texture *Texture

	IndexFormat IndexBufferFormat
	Indices     []byte
	IndexCount  int

	TexCoordFormat      TexCoordFormat
	TexCoords           []byte
	TexCoordStrideBytes uint32

	AlphaMode   AlphaMode
	AlphaCutoff float32
	Sampler     SamplerDesc

	Flags BakeFlags

	OMMFormat         OMMFormat
	OMMFormats        []OMMFormat // optional, one per primitive
	SubdivisionLevels []uint32    // optional, one per primitive

	MaxSubdivisionLevel     uint32
	DynamicSubdivisionScale float32
	UnknownStatePromotion   UnknownStatePromotion
	RejectionThreshold      float32
}

// Validate reports INVALID_ARGUMENT per spec.md §7's rules that can be
// checked before any classification work runs.
func (d *BakeInputDesc) Validate() error {
	if d.Texture == nil {
		return errInvalidArgument("texture is nil")
	}
	if d.Indices == nil {
		return errInvalidArgument("index buffer is nil")
	}
	if d.TexCoords == nil {
		return errInvalidArgument("tex-coord buffer is nil")
	}
	if d.IndexCount == 0 {
		return errInvalidArgument("index count is zero")
	}
	if d.MaxSubdivisionLevel > kMaxSubdivLevel {
		return errInvalidArgument("maxSubdivisionLevel %d exceeds %d", d.MaxSubdivisionLevel, kMaxSubdivLevel)
	}
	if d.Flags.has(FlagEnableAABBTesting) && !d.Flags.has(FlagDisableLevelLineIntersection) {
		return errInvalidArgument("EnableAABBTesting requires DisableLevelLineIntersection")
	}
	switch d.OMMFormat {
	case OMMFormatOC1_2State, OMMFormatOC1_4State:
	default:
		return errInvalidArgument("unrecognised ommFormat %d", d.OMMFormat)
	}
	switch d.Sampler.AddressMode {
	case AddressWrap, AddressMirror, AddressClamp, AddressBorder, AddressMirrorOnce:
	default:
		return errInvalidArgument("unrecognised address mode %d", d.Sampler.AddressMode)
	}
	switch d.Sampler.Filter {
	case FilterNearest, FilterLinear:
	default:
		return errInvalidArgument("unrecognised filter mode %d", d.Sampler.Filter)
	}
	return nil
}

// BakeResultDesc is the flattened view of a BakeResult a caller reads
// out, matching GetBakeResultDesc's contract in spec.md §6.
type BakeResultDesc struct {
	ArrayData   []byte
	DescArray   []OmmDescriptor
	IndexBuffer []byte
	IndexFormat IndexFormat

	ArrayHistogram []HistogramEntry
	IndexHistogram []HistogramEntry
}

// GetBakeResultDesc flattens a BakeResult into its wire-facing view.
func GetBakeResultDesc(r *BakeResult) BakeResultDesc {
	return BakeResultDesc{
		ArrayData:      r.ArrayData,
		DescArray:      r.DescArray,
		IndexBuffer:    r.IndexBuffer,
		IndexFormat:    r.IndexFormat,
		ArrayHistogram: r.ArrayHistogram,
		IndexHistogram: r.IndexHistogram,
	}
}

// BakeOpacityMicromap runs the full CPU baking pipeline over desc,
// following the same stage order as the pipeline this package's
// classification, deduplication, promotion, sort and serialization
// components implement individually: work-item construction, workload
// validation, classification, special-index promotion, exact then
// near-duplicate deduplication, a second promotion pass, spatial sort,
// and serialization (spec.md §2).
func (b *Baker) BakeOpacityMicromap(desc BakeInputDesc) (*BakeResult, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	indices, err := decodeIndices(desc.IndexFormat, desc.Indices, desc.IndexCount)
	if err != nil {
		return nil, err
	}
	texCoords, err := decodeTexCoords(desc.TexCoordFormat, desc.TexCoords, desc.TexCoordStrideBytes, indices)
	if err != nil {
		return nil, err
	}

	items, skipped, err := SetupWorkItems(indices, texCoords, setupOptions{
		ommFormat:                 desc.OMMFormat,
		ommFormats:                desc.OMMFormats,
		subdivisionLevels:         desc.SubdivisionLevels,
		maxSubdivisionLevel:       desc.MaxSubdivisionLevel,
		dynamicSubdivisionScale:   desc.DynamicSubdivisionScale,
		textureSize:               desc.Texture.Size(0),
		disableDuplicateDetection: desc.Flags.has(FlagDisableDuplicateDetection),
	})
	if err != nil {
		return nil, err
	}
	Logger().Debug("setup work items", "workItems", len(items), "skipped", len(skipped), "triangles", desc.IndexCount/3)

	if desc.Flags.has(FlagEnableWorkloadValidation) {
		if err := ValidateWorkloadSize(items, desc.Texture.Size(0)); err != nil {
			Logger().Warn("workload validation rejected bake", "error", err)
			return nil, err
		}
	}

	if err := classifyWorkItems(items, desc); err != nil {
		return nil, err
	}

	PromoteToSpecialIndices(items, desc.RejectionThreshold, desc.Flags.has(FlagDisableRemovePoorQualityOMM), desc.Flags.has(FlagDisableSpecialIndices))

	if !desc.Flags.has(FlagDisableDuplicateDetection) {
		DeduplicateExact(items)
		switch {
		case desc.Flags.has(FlagEnableNearDuplicateDetectionBruteForce):
			DeduplicateSimilarBruteForce(items)
		case desc.Flags.has(FlagEnableNearDuplicateDetection):
			DeduplicateSimilarLSH(items)
		}
	}

	PromoteToSpecialIndices(items, desc.RejectionThreshold, desc.Flags.has(FlagDisableRemovePoorQualityOMM), desc.Flags.has(FlagDisableSpecialIndices))

	active := compactActive(items)
	Logger().Debug("deduplication complete", "activeWorkItems", len(active), "mergedAway", len(items)-len(active))
	MicromapSpatialSort(active)

	result, err := Serialize(active, desc.IndexCount/3, desc.Flags.has(FlagForce32BitIndices))
	if err != nil {
		Logger().Warn("serialization failed", "error", err)
		return nil, err
	}
	Logger().Info("bake complete", "descriptors", len(result.DescArray), "arrayBytes", len(result.ArrayData), "indexBytes", len(result.IndexBuffer))
	return result, nil
}

// compactActive drops disabled (merged-away) work items so neither the
// spatial sort nor the serializer needs to special-case them.
func compactActive(items []*OmmWorkItem) []*OmmWorkItem {
	out := make([]*OmmWorkItem, 0, len(items))
	for _, w := range items {
		if !w.disabled {
			out = append(out, w)
		}
	}
	return out
}

// classifyWorkItems runs the appropriate classification kernel over
// every active work item's micro-triangles, per spec.md §4.4. When
// FlagEnableInternalThreads is set, work items are classified
// concurrently: each owns disjoint state, and the texture is read-only,
// so there is no data race to guard against (spec.md §5).
func classifyWorkItems(items []*OmmWorkItem, desc BakeInputDesc) error {
	settings := sampleSettings{
		texture:     desc.Texture,
		address:     desc.Sampler.AddressMode,
		borderAlpha: desc.Sampler.BorderAlpha,
		cutoff:      desc.AlphaCutoff,
	}
	mips := mipRange(desc.Texture)

	classifyOne := func(w *OmmWorkItem) {
		n := w.NumMicroTriangles()
		for i := 0; i < n; i++ {
			micro := GetMicroTriangle(w.UVTriangle, uint32(i), w.Level)
			var cov OmmCoverage
			switch {
			case desc.Sampler.Filter == FilterNearest:
				cov = NearestKernel(settings, micro, 0)
			case desc.Flags.has(FlagEnableAABBTesting):
				cov = ConservativeBilinearKernel(settings, micro, 0)
			case desc.Flags.has(FlagDisableLevelLineIntersection):
				cov = ConservativeBilinearKernel(settings, micro, 0)
			default:
				cov = LevelLineIntersectionKernel(settings, micro, mips)
			}
			w.SetState(i, GetStateFromCoverage(w.Format, desc.UnknownStatePromotion, cov))
		}
	}

	if !desc.Flags.has(FlagEnableInternalThreads) {
		for _, w := range items {
			classifyOne(w)
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, w := range items {
		w := w
		g.Go(func() error {
			classifyOne(w)
			return nil
		})
	}
	return g.Wait()
}

// mipRange returns the mip indices the Level-Line Intersection kernel
// should test, finest first: the multi-mip loop stops at the first
// Unknown result, so coarser mips are only tested while every finer one
// has classified the micro-triangle as uniform.
func mipRange(t *Texture) []int {
	mips := make([]int, t.MipCount())
	for i := range mips {
		mips[i] = i
	}
	return mips
}
