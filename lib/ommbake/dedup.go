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
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/opacitymicromap/ommbake/internal/mt19937"
)

// mt19937Seed is the fixed seed spec.md §5 requires for reproducible LSH
// bit sampling; xxhashSeed documents the equally fixed seed used by the
// exact-dedup and LSH-bucket hashers (xxhash.Sum64 has no seed parameter,
// so mixSeed XORs the fixed seed into each finished digest instead).
const mt19937Seed = 42
const xxhashSeed uint64 = 42

// mixSeed folds the fixed hash seed into a digest, since
// github.com/cespare/xxhash/v2 exposes no seeded entry point.
func mixSeed(h uint64) uint64 { return h ^ xxhashSeed }

// MergeWorkItems merges from into to per spec.md §4.6: from's primitive
// indices are appended to to's and cleared, from is marked disabled, and
// every micro-triangle state is combined — identical states are left
// alone, two different known states become UnknownOpaque, a known state
// meeting an unknown one adopts the unknown, and two unknown states keep
// to's existing value.
func MergeWorkItems(to, from *OmmWorkItem) {
	to.PrimitiveIndices = append(to.PrimitiveIndices, from.PrimitiveIndices...)
	from.PrimitiveIndices = nil
	from.SpecialIndex = SpecialIndexFullyOpaque // internal "disabled" sentinel, matches spec.md §4.6
	from.disabled = true

	n := to.NumMicroTriangles()
	for i := 0; i < n; i++ {
		a, b := to.GetState(i), from.GetState(i)
		switch {
		case a == b:
			// no change
		case a.IsKnown() && b.IsKnown():
			to.SetState(i, StateUnknownOpaque)
		case a.IsKnown() && b.IsUnknown():
			to.SetState(i, b)
		default:
			// both unknown, or a unknown and b known: keep to's value
		}
	}
}

// HammingDistance3State counts the positions at which a and b's 3-state
// projections differ.
func HammingDistance3State(a, b *OmmWorkItem) int {
	n := a.NumMicroTriangles()
	dist := 0
	for i := 0; i < n; i++ {
		if a.Get3State(i) != b.Get3State(i) {
			dist++
		}
	}
	return dist
}

// NormalizedHammingDistance3State is HammingDistance3State divided by the
// micro-triangle count, in [0,1].
func NormalizedHammingDistance3State(a, b *OmmWorkItem) float64 {
	n := a.NumMicroTriangles()
	if n == 0 {
		return 0
	}
	return float64(HammingDistance3State(a, b)) / float64(n)
}

// DeduplicateExact merges work items whose 3-state buffers hash
// identically (xxhash-64, effectively seeded by mixSeed), per spec.md
// §4.6: among items sharing a hash, the later ones merge into the first.
func DeduplicateExact(items []*OmmWorkItem) {
	byHash := make(map[uint64]*OmmWorkItem, len(items))
	for _, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		h := mixSeed(w.hash3State())
		if existing, ok := byHash[h]; ok {
			MergeWorkItems(existing, w)
			continue
		}
		byHash[h] = w
	}
}

// DeduplicateSimilarBruteForce merges near-duplicate work items by
// scanning, for every active item, up to a 2048-item window of
// successors and merging any whose normalized 3-state Hamming distance
// is below 0.10 (spec.md §4.6). Mutually exclusive with the LSH pass.
func DeduplicateSimilarBruteForce(items []*OmmWorkItem) {
	const window = 2048
	const threshold = 0.10
	for i, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		end := min(i+1+window, len(items))
		for j := i + 1; j < end; j++ {
			other := items[j]
			if other.disabled || other.IsSpecial() || other.Level != w.Level || other.Format != w.Format {
				continue
			}
			if NormalizedHammingDistance3State(w, other) < threshold {
				MergeWorkItems(w, other)
			}
		}
	}
}

// DeduplicateSimilarLSH merges near-duplicate work items using bit-
// sampling locality-sensitive hashing, per spec.md §4.6 and §9: a
// single Mersenne-Twister stream seeded with the fixed constant 42
// (mirroring the original's one `std::mt19937 mt(42)`) is threaded
// through the entire pass — the 3 iterations the spec names as the
// outer loop, each walking subdivision levels 1..kMaxSubdivLevel as the
// inner loop, exactly the original's nesting order. Reseeding per
// level or iteration would draw a different bit-index sequence than
// the original's, breaking the determinism property spec.md §9 pins to
// that exact sequence, not just to internal reproducibility.
func DeduplicateSimilarLSH(items []*OmmWorkItem) {
	const iterations = 3
	rng := mt19937.New(mt19937Seed)
	for iter := 0; iter < iterations; iter++ {
		for level := uint32(1); level <= kMaxSubdivLevel; level++ {
			lshPassLevel(items, level, rng)
		}
	}
}

// lshParams computes the bit-sampling table/hash-length parameters named
// in spec.md §4.6. A zero numTables or k means the level's candidate
// pool is too small to form even one table or signature; the caller
// skips the level without touching rng, matching the original's
// `if (L == 0) continue` / `if (k == 0) continue`.
func lshParams(n, d int) (numTables, k int, r float64) {
	const c = 4.0
	r = 0.15 * float64(d)
	numTables = int(math.Ceil(math.Pow(float64(n), 1.0/c)))
	k = int(math.Ceil(math.Log(float64(n)) * float64(d) / (c * r)))
	return numTables, k, r
}

// lshPassLevel runs one (iteration, subdivision level) sweep of the LSH
// dedup pass over items at the given level, drawing bit indices from
// the shared rng stream table-major then k-minor — the same order the
// original visits its hash tables — so the draw sequence lines up
// exactly across runs, including when earlier levels were skipped.
func lshPassLevel(items []*OmmWorkItem, level uint32, rng *mt19937.Rand) {
	var active []*OmmWorkItem
	for _, w := range items {
		if w.disabled || w.IsSpecial() || w.Format != OMMFormatOC1_4State || w.Level != level {
			continue
		}
		active = append(active, w)
	}
	if len(active) == 0 {
		return
	}

	d := int(GetNumMicroTriangles(level))
	n := len(active)
	numTables, k, r := lshParams(n, d)
	if numTables == 0 || k == 0 {
		return
	}

	// order captures each candidate's position in the (stable) active list
	// before any merging starts, so candidates can still be ranked
	// deterministically after a merge elsewhere in this pass clears their
	// PrimitiveIndices.
	order := make(map[*OmmWorkItem]int, len(active))
	for i, w := range active {
		order[w] = i
	}

	buckets := make([]map[uint64][]*OmmWorkItem, numTables)
	bitIndices := make([][]int, numTables)
	mask := uint32(d - 1) // d is a power of two by construction (spec.md §9)
	for t := 0; t < numTables; t++ {
		bitIndices[t] = make([]int, k)
		for b := 0; b < k; b++ {
			bitIndices[t][b] = int(rng.Uint32() & mask)
		}
		buckets[t] = make(map[uint64][]*OmmWorkItem)
		for _, w := range active {
			h := mixSeed(signatureHash(w, bitIndices[t]))
			buckets[t][h] = append(buckets[t][h], w)
		}
	}

	for _, w := range active {
		if w.disabled {
			continue
		}
		seen := make(map[*OmmWorkItem]bool)
		var neighbors []*OmmWorkItem
		for t := 0; t < numTables; t++ {
			h := mixSeed(signatureHash(w, bitIndices[t]))
			for _, cand := range buckets[t][h] {
				if cand != w && !seen[cand] {
					seen[cand] = true
					neighbors = append(neighbors, cand)
				}
				if len(neighbors) >= 3*numTables {
					break
				}
			}
		}
		// Visit candidates in a fixed order (their position in the active
		// list for this level) so that ties in Hamming distance always
		// resolve to the same merge target, independent of Go's randomized
		// map iteration order.
		sort.Slice(neighbors, func(i, j int) bool {
			return order[neighbors[i]] < order[neighbors[j]]
		})

		var best *OmmWorkItem
		bestDist := math.MaxInt32
		for _, cand := range neighbors {
			if cand.disabled {
				continue
			}
			dist := HammingDistance3State(w, cand)
			if float64(dist) < r && dist < bestDist {
				best, bestDist = cand, dist
			}
		}
		if best != nil {
			MergeWorkItems(w, best)
		}
	}
}

// signatureHash reads the 3-state value at each of bitIndices from w's
// state buffer and hashes the resulting signature.
func signatureHash(w *OmmWorkItem, bitIndices []int) uint64 {
	sig := make([]byte, len(bitIndices))
	for i, idx := range bitIndices {
		sig[i] = byte(w.Get3State(idx))
	}
	return xxhash.Sum64(sig)
}
