// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import "encoding/binary"

// OmmDescriptor locates one non-special OMM's packed state payload
// inside a BakeResult's array blob.
type OmmDescriptor struct {
	SubdivisionLevel uint16
	Format           OMMFormat
	Offset           uint32
}

// BakeResult is the finalized output of a bake: a packed array blob, its
// descriptor table, a per-triangle index buffer, and the two usage
// histograms (spec.md §3, §6).
type BakeResult struct {
	ArrayData   []byte
	DescArray   []OmmDescriptor
	IndexBuffer []byte
	IndexFormat IndexFormat

	ArrayHistogram []HistogramEntry
	IndexHistogram []HistogramEntry
}

const maxPackedPayloadBytes = 1 << 32 // 4 GiB; the descriptor offset field is u32 (spec.md §9)

// Serialize packs items (assumed already in final sort order) into a
// BakeResult, per spec.md §4.10. triCount is the number of source
// primitives; every index not claimed by a work item keeps the default
// fill (FullyUnknownOpaque) that Serialize writes first.
func Serialize(items []*OmmWorkItem, triCount int, force32BitIndices bool) (*BakeResult, error) {
	descArray := make([]OmmDescriptor, 0, len(items))
	var cursor uint64
	for _, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		bits := uint64(w.NumMicroTriangles()) * uint64(GetBitCount(w.Format))
		bytesUsed := bits / 8
		if bytesUsed == 0 {
			bytesUsed = 1
		}
		if cursor > 0xffffffff {
			return nil, errFailure("array offset %d overflows u32", cursor)
		}
		w.DescOffset = int32(len(descArray))
		descArray = append(descArray, OmmDescriptor{
			SubdivisionLevel: uint16(w.Level),
			Format:           w.Format,
			Offset:           uint32(cursor),
		})
		cursor += bytesUsed
	}
	if cursor > maxPackedPayloadBytes {
		return nil, errFailure("packed array payload of %d bytes exceeds the 4 GiB limit", cursor)
	}

	arrayData := make([]byte, cursor)
	for _, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		offset := descArray[w.DescOffset].Offset
		packStates(arrayData, int(offset), w.Format, w)
	}

	idx32 := make([]int32, triCount)
	for i := range idx32 {
		idx32[i] = int32(SpecialIndexFullyUnknownOpaque)
	}
	for _, w := range items {
		if w.disabled {
			continue
		}
		value := w.DescOffset
		if w.IsSpecial() {
			value = int32(w.SpecialIndex)
		}
		for _, p := range w.PrimitiveIndices {
			idx32[p] = value
		}
	}

	indexFormat, indexBytes := packIndexBuffer(idx32, force32BitIndices)

	arrayHist, indexHist := BuildHistograms(items)
	return &BakeResult{
		ArrayData:      arrayData,
		DescArray:      descArray,
		IndexBuffer:    indexBytes,
		IndexFormat:    indexFormat,
		ArrayHistogram: arrayHist.Entries(),
		IndexHistogram: indexHist.Entries(),
	}, nil
}

// packIndexBuffer narrows idx32 to 16-bit entries when the triangle
// count fits an int16 and force32BitIndices is not set (spec.md §8).
func packIndexBuffer(idx32 []int32, force32BitIndices bool) (IndexFormat, []byte) {
	if !force32BitIndices && len(idx32) <= 32767 {
		buf := make([]byte, len(idx32)*2)
		for i, v := range idx32 {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v)))
		}
		return IndexFormatI16, buf
	}
	buf := make([]byte, len(idx32)*4)
	for i, v := range idx32 {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return IndexFormatI32, buf
}

// packState encodes a micro-triangle's state into its on-wire bit
// pattern: OC1_2_State collapses Unknown* into its known counterpart
// (spec.md §4.4.4); OC1_4_State stores the 2-bit OpacityState value
// directly.
func packState(format OMMFormat, state OpacityState) uint8 {
	if format == OMMFormatOC1_2State {
		if state == StateOpaque || state == StateUnknownOpaque {
			return 1
		}
		return 0
	}
	return uint8(state) & 3
}

// packStates writes w's micro-triangle states into dst starting at byte
// offset arrayOffset, little-endian within each byte, per the bit
// layout in spec.md §4.10: OC1_2_State packs 8 states/byte (1 bit each),
// OC1_4_State packs 4 states/byte (2 bits each).
func packStates(dst []byte, arrayOffset int, format OMMFormat, w *OmmWorkItem) {
	is2State := uint32(0)
	if format == OMMFormatOC1_2State {
		is2State = 1
	}
	mask := uint32(1)<<(2+is2State) - 1
	n := uint32(w.NumMicroTriangles())
	for i := uint32(0); i < n; i++ {
		byteIndex := arrayOffset + int(i>>(2+is2State))
		shift := (i & mask) << (1 - is2State)
		bits := packState(format, w.GetState(int(i)))
		dst[byteIndex] |= bits << shift
	}
}

// UnpackState reads the state of micro-triangle uTriIt from a
// descriptor's packed payload, the exact inverse of packStates — used
// by callers reading back a BakeResult's array blob (spec.md §8's
// round-trip property) and by the ommdebug package's statistics.
func UnpackState(format OMMFormat, payload []byte, uTriIt uint32) OpacityState {
	is2State := uint32(0)
	if format == OMMFormatOC1_2State {
		is2State = 1
	}
	mask := uint32(1)<<(2+is2State) - 1
	byteIndex := int(uTriIt >> (2 + is2State))
	shift := (uTriIt & mask) << (1 - is2State)
	if is2State == 1 {
		return OpacityState((payload[byteIndex] >> shift) & 1)
	}
	return OpacityState((payload[byteIndex] >> shift) & 3)
}
