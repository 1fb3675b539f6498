// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// NewTextureFromImage builds a Texture's mip chain from a standard
// image.Image's alpha channel, generating mipCount-1 successive
// half-size mips with golang.org/x/image/draw's bilinear scaler. This is
// a convenience entry point for callers that already have a decoded
// image rather than a raw float32 alpha plane; the core bake pipeline
// never requires it.
func (b *Baker) NewTextureFromImage(img image.Image, mipCount int, flags TextureFlags) (*Texture, error) {
	if img == nil {
		return nil, errInvalidArgument("nil image")
	}
	if mipCount < 1 {
		mipCount = 1
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, errInvalidArgument("image has zero dimension")
	}

	mips := make([]MipDesc, mipCount)
	mips[0] = MipDesc{Width: uint32(w), Height: uint32(h), Data: alphaPlane(img)}

	srcW, srcH := w, h
	srcImg := image.Image(img)
	for i := 1; i < mipCount; i++ {
		dstW, dstH := max(srcW/2, 1), max(srcH/2, 1)
		dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)
		mips[i] = MipDesc{Width: uint32(dstW), Height: uint32(dstH), Data: alphaPlane(dst)}
		srcImg, srcW, srcH = dst, dstW, dstH
	}

	return b.NewTexture(TextureDesc{Mips: mips, Flags: flags})
}

// alphaPlane extracts a row-major float32 alpha-in-[0,1] plane from img.
func alphaPlane(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float32, w*h)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			out[i] = float32(a) / 0xffff
			i++
		}
	}
	return out
}
