// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import "math"

// Vec2 is a 2D point or vector, used throughout for UV coordinates and
// pixel-space positions.
type Vec2 struct {
	X, Y float32
}

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Mul(b Vec2) Vec2 { return Vec2{a.X * b.X, a.Y * b.Y} }

// Vec2i is an integer 2D point, used for pixel and texel coordinates.
type Vec2i struct {
	X, Y int32
}

// Triangle is a 2D triangle in UV space, with its axis-aligned bounding
// box cached since both the work-item builder and the workload guard
// need it repeatedly.
type Triangle struct {
	P0, P1, P2 Vec2
	AabbMin    Vec2
	AabbMax    Vec2
}

// NewTriangle builds a Triangle and precomputes its AABB.
func NewTriangle(p0, p1, p2 Vec2) Triangle {
	t := Triangle{P0: p0, P1: p1, P2: p2}
	t.AabbMin = Vec2{min3(p0.X, p1.X, p2.X), min3(p0.Y, p1.Y, p2.Y)}
	t.AabbMax = Vec2{max3(p0.X, p1.X, p2.X), max3(p0.Y, p1.Y, p2.Y)}
	return t
}

func min3(a, b, c float32) float32 { return min(a, min(b, c)) }
func max3(a, b, c float32) float32 { return max(a, max(b, c)) }

// SignedArea2D returns twice the signed area of the triangle (p1-p0) x
// (p2-p0); its sign encodes winding order.
func (t Triangle) SignedArea2D() float32 {
	v0 := t.P1.Sub(t.P0)
	v1 := t.P2.Sub(t.P0)
	return v0.X*v1.Y - v0.Y*v1.X
}

// Area2D returns the (unsigned) area of the triangle.
func (t Triangle) Area2D() float32 {
	return float32(math.Abs(float64(t.SignedArea2D()))) * 0.5
}

// IsDegenerate reports whether t has a NaN/Inf vertex or near-zero area,
// matching the original baker's IsDegenerate (spec.md §4.5).
func (t Triangle) IsDegenerate() bool {
	for _, p := range [3]Vec2{t.P0, t.P1, t.P2} {
		if isNanOrInf(p.X) || isNanOrInf(p.Y) {
			return true
		}
	}
	area := t.SignedArea2D()
	return float64(area)*float64(area) < 1e-9
}

func isNanOrInf(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// Barycentric returns the barycentric coordinates of p with respect to t.
func (t Triangle) Barycentric(p Vec2) (u, v, w float32) {
	v0 := t.P1.Sub(t.P0)
	v1 := t.P2.Sub(t.P0)
	v2 := p.Sub(t.P0)
	d00 := v0.X*v0.X + v0.Y*v0.Y
	d01 := v0.X*v1.X + v0.Y*v1.Y
	d11 := v1.X*v1.X + v1.Y*v1.Y
	d20 := v2.X*v0.X + v2.Y*v0.Y
	d21 := v2.X*v1.X + v2.Y*v1.Y
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w
}

// Lerp returns the barycentric combination u*p0 + v*p1 + w*p2.
func Lerp(p0, p1, p2 Vec2, u, v, w float32) Vec2 {
	return Vec2{
		X: u*p0.X + v*p1.X + w*p2.X,
		Y: u*p0.Y + v*p1.Y + w*p2.Y,
	}
}
