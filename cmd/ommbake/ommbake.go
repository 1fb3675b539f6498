// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// ommbake bakes an Opacity Micromap from a standard image's alpha
// channel, treating the whole image as a single axis-aligned quad (two
// triangles spanning UV [0,0]-[1,1]).
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image"
	"math"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/opacitymicromap/ommbake/lib/ommbake"
	"github.com/opacitymicromap/ommbake/lib/ommbake/ommdebug"
)

var (
	subdivFlag = flag.Uint("subdiv", 4, "maximum subdivision level, 0-12")
	formatFlag = flag.String("format", "4state", "omm format: 2state or 4state")
	cutoffFlag = flag.Float64("cutoff", 0.5, "alpha cutoff separating opaque from transparent")
	statsFlag  = flag.Bool("stats", false, "print per-state statistics instead of the binary result")
)

const usageStr = `ommbake bakes an Opacity Micromap from an image's alpha channel.

Usage:

    ommbake [-subdiv=N] [-format=2state|4state] [-cutoff=X] [-stats] [path]

The path to the input image file is optional. If omitted, stdin is read.
The image is treated as a single quad spanning UV [0,0]-[1,1]; its alpha
channel (1.0 for fully opaque images) is classified at -subdiv levels
of subdivision.

With -stats, a human-readable tally of opaque/transparent/unknown
micro-triangles is printed instead of the serialized result.
`

var errBadFormatFlag = errors.New("ommbake: bad -format flag")

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() { os.Stderr.WriteString(usageStr) }
	flag.Parse()

	inFile := os.Stdin
	switch flag.NArg() {
	case 0:
		// No-op.
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		inFile = f
	default:
		return errors.New("too many filenames; the maximum is one")
	}

	ommFormat := ommbake.OMMFormatOC1_4State
	switch *formatFlag {
	case "2state":
		ommFormat = ommbake.OMMFormatOC1_2State
	case "4state":
		// No-op, already the default.
	default:
		return errBadFormatFlag
	}

	src, _, err := image.Decode(inFile)
	if err != nil {
		return fmt.Errorf("image.Decode: %v", err)
	}

	result, err := bakeFullScreenQuad(src, uint32(*subdivFlag), ommFormat, float32(*cutoffFlag))
	if err != nil {
		return err
	}

	if *statsFlag {
		return printStats(result)
	}
	return writeResult(os.Stdout, result)
}

// bakeFullScreenQuad builds the two-triangle quad mesh and bakes it
// against img's alpha channel.
func bakeFullScreenQuad(img image.Image, maxSubdiv uint32, ommFormat ommbake.OMMFormat, cutoff float32) (*ommbake.BakeResult, error) {
	baker, err := ommbake.CreateBaker(ommbake.BakerDesc{})
	if err != nil {
		return nil, err
	}
	tex, err := baker.NewTextureFromImage(img, 1, 0)
	if err != nil {
		return nil, err
	}

	indices := []uint32{0, 1, 2, 0, 2, 3}
	texCoords := []float32{0, 0, 1, 0, 1, 1, 0, 1}

	idxBuf := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(idxBuf[i*4:], v)
	}
	uvBuf := make([]byte, len(texCoords)*4)
	for i := 0; i < len(texCoords)/2; i++ {
		binary.LittleEndian.PutUint32(uvBuf[i*8:], math.Float32bits(texCoords[i*2]))
		binary.LittleEndian.PutUint32(uvBuf[i*8+4:], math.Float32bits(texCoords[i*2+1]))
	}

	desc := ommbake.BakeInputDesc{
		Texture:             tex,
		IndexFormat:         ommbake.IndexBufferU32,
		Indices:             idxBuf,
		IndexCount:          len(indices),
		TexCoordFormat:      ommbake.TexCoordUV32Float,
		TexCoords:           uvBuf,
		TexCoordStrideBytes: 8,
		AlphaCutoff:         cutoff,
		Sampler:             ommbake.SamplerDesc{Filter: ommbake.FilterLinear, AddressMode: ommbake.AddressClamp},
		OMMFormat:           ommFormat,
		MaxSubdivisionLevel: maxSubdiv,
		Flags:               ommbake.FlagEnableNearDuplicateDetection,
	}
	return baker.BakeOpacityMicromap(desc)
}

func printStats(result *ommbake.BakeResult) error {
	stats := ommdebug.GetStats(ommbake.GetBakeResultDesc(result))
	fmt.Printf("opaque:              %d\n", stats.TotalOpaque)
	fmt.Printf("transparent:         %d\n", stats.TotalTransparent)
	fmt.Printf("unknownOpaque:       %d\n", stats.TotalUnknownOpaque)
	fmt.Printf("unknownTransparent:  %d\n", stats.TotalUnknownTransparent)
	fmt.Printf("fullyOpaque:         %d\n", stats.TotalFullyOpaque)
	fmt.Printf("fullyTransparent:    %d\n", stats.TotalFullyTransparent)
	fmt.Printf("fullyUnknownOpaque:  %d\n", stats.TotalFullyUnknownOpaque)
	fmt.Printf("fullyUnknownTransparent: %d\n", stats.TotalFullyUnknownTransparent)
	return nil
}

// writeResult writes a minimal self-describing binary dump of result: a
// little-endian header of four uint32 section lengths (descriptor
// count, array bytes, index bytes, index format) followed by the three
// buffers themselves. There is no reader for this format in this
// module; it exists so the CLI has something concrete to pipe to a
// file for offline inspection.
func writeResult(w *os.File, result *ommbake.BakeResult) error {
	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:], uint32(len(result.DescArray)))
	binary.LittleEndian.PutUint32(header[4:], uint32(len(result.ArrayData)))
	binary.LittleEndian.PutUint32(header[8:], uint32(len(result.IndexBuffer)))
	binary.LittleEndian.PutUint32(header[12:], uint32(result.IndexFormat))
	if _, err := w.Write(header); err != nil {
		return err
	}
	for _, d := range result.DescArray {
		entry := make([]byte, 8)
		binary.LittleEndian.PutUint16(entry[0:], uint16(d.SubdivisionLevel))
		binary.LittleEndian.PutUint16(entry[2:], uint16(d.Format))
		binary.LittleEndian.PutUint32(entry[4:], d.Offset)
		if _, err := w.Write(entry); err != nil {
			return err
		}
	}
	if _, err := w.Write(result.ArrayData); err != nil {
		return err
	}
	_, err := w.Write(result.IndexBuffer)
	return err
}
