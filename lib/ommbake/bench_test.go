// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"
)

// benchFixture builds the texture and mesh a bake benchmark runs against:
// a pseudo-random alpha texture and a flat grid of triangles sampling
// random UVs, sized down from the reference fixture's 3072x3072 texture
// and 4096-triangle mesh to keep `go test -bench` tractable.
func benchFixture(b *testing.B, tiling TextureFlags) (*Baker, *Texture, BakeInputDesc) {
	const texSize = 256
	const triCount = 512

	baker, err := CreateBaker(BakerDesc{})
	if err != nil {
		b.Fatalf("CreateBaker: %v", err)
	}

	rng := rand.New(rand.NewSource(32))
	data := make([]float32, texSize*texSize)
	for i := range data {
		data[i] = rng.Float32()
	}
	tex, err := baker.NewTexture(TextureDesc{
		Mips:  []MipDesc{{Width: texSize, Height: texSize, Data: data}},
		Flags: tiling,
	})
	if err != nil {
		b.Fatalf("NewTexture: %v", err)
	}

	indices := make([]uint32, triCount*3)
	texCoordFloats := make([]float32, triCount*3*2)
	for i := range indices {
		indices[i] = uint32(i)
		texCoordFloats[i*2] = rng.Float32()
		texCoordFloats[i*2+1] = rng.Float32()
	}
	idxBuf := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(idxBuf[i*4:], v)
	}
	uvBuf := make([]byte, len(texCoordFloats)*4)
	for i, v := range texCoordFloats {
		binary.LittleEndian.PutUint32(uvBuf[i*4:], math.Float32bits(v))
	}

	desc := BakeInputDesc{
		Texture:             tex,
		IndexFormat:         IndexBufferU32,
		Indices:             idxBuf,
		IndexCount:          len(indices),
		TexCoordFormat:      TexCoordUV32Float,
		TexCoords:           uvBuf,
		TexCoordStrideBytes: 8,
		AlphaCutoff:         0.4,
		Sampler:             SamplerDesc{Filter: FilterNearest, AddressMode: AddressClamp},
		OMMFormat:           OMMFormatOC1_4State,
		MaxSubdivisionLevel: 5,
		Flags:               FlagDisableSpecialIndices | FlagDisableDuplicateDetection | FlagForce32BitIndices,
	}
	return baker, tex, desc
}

func BenchmarkBakeSerialMorton(b *testing.B) {
	baker, _, desc := benchFixture(b, 0)
	for i := 0; i < b.N; i++ {
		if _, err := baker.BakeOpacityMicromap(desc); err != nil {
			b.Fatalf("BakeOpacityMicromap: %v", err)
		}
	}
}

func BenchmarkBakeSerialLinear(b *testing.B) {
	baker, _, desc := benchFixture(b, FlagDisableZOrder)
	for i := 0; i < b.N; i++ {
		if _, err := baker.BakeOpacityMicromap(desc); err != nil {
			b.Fatalf("BakeOpacityMicromap: %v", err)
		}
	}
}

func BenchmarkBakeParallelMorton(b *testing.B) {
	baker, _, desc := benchFixture(b, 0)
	desc.Flags |= FlagEnableInternalThreads
	for i := 0; i < b.N; i++ {
		if _, err := baker.BakeOpacityMicromap(desc); err != nil {
			b.Fatalf("BakeOpacityMicromap: %v", err)
		}
	}
}

func BenchmarkBakeParallelLinearFilter(b *testing.B) {
	baker, _, desc := benchFixture(b, FlagDisableZOrder)
	desc.Flags |= FlagEnableInternalThreads
	desc.Sampler.Filter = FilterLinear
	for i := 0; i < b.N; i++ {
		if _, err := baker.BakeOpacityMicromap(desc); err != nil {
			b.Fatalf("BakeOpacityMicromap: %v", err)
		}
	}
}

func BenchmarkBakeParallelNearDuplicateBruteForce(b *testing.B) {
	baker, _, desc := benchFixture(b, FlagDisableZOrder)
	desc.Flags = FlagEnableInternalThreads | FlagForce32BitIndices | FlagEnableNearDuplicateDetection | FlagEnableNearDuplicateDetectionBruteForce
	for i := 0; i < b.N; i++ {
		if _, err := baker.BakeOpacityMicromap(desc); err != nil {
			b.Fatalf("BakeOpacityMicromap: %v", err)
		}
	}
}
