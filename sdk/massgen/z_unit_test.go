// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package massgen

import (
	"math"
	"testing"

	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/sdk/core"
)

func TestGenerateUniformIsFlat(t *testing.T) {
	mass, err := Generate(ShapeUniform, 8, Params{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(mass) != 8 {
		t.Fatalf("unexpected length %d", len(mass))
	}
	for i, v := range mass {
		if v != 1.0 {
			t.Fatalf("uniform mass[%d] = %v, want 1", i, v)
		}
	}
}

func TestGenerateNormalPeaksAtCenter(t *testing.T) {
	mass, err := Generate(ShapeNormal, 16, Params{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	// Mu=0.5，兩個中央點應該高於端點
	if mass[7] <= mass[0] || mass[8] <= mass[15] {
		t.Fatalf("normal shape not peaked: %v", mass)
	}
	for i, v := range mass {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("invalid mass[%d] = %v", i, v)
		}
	}
}

func TestGenerateBimodalHasTwoPeaks(t *testing.T) {
	mass, err := Generate(ShapeBimodal, 32, Params{})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	// 兩峰中心 0.25 / 0.75 附近應高於中央谷 0.5
	mid := mass[16]
	if mass[8] <= mid || mass[24] <= mid {
		t.Fatalf("bimodal shape missing peaks: left=%v mid=%v right=%v", mass[8], mid, mass[24])
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		shape  Shape
		length int
		p      Params
	}{
		{"length too short", ShapeUniform, 1, Params{}},
		{"negative sigma", ShapeNormal, 8, Params{P2: -1}},
		{"negative beta", ShapeBeta, 8, Params{P1: -2}},
		{"negative rate", ShapeExponential, 8, Params{P1: -3}},
	}
	for _, tc := range cases {
		if _, err := Generate(tc.shape, tc.length, tc.p); !errs.IsKind(err, errs.KindInvalidInput) {
			t.Fatalf("%s: expected invalid-input error, got %v", tc.name, err)
		}
	}
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape("Bimodal")
	if err != nil || s != ShapeBimodal {
		t.Fatalf("parse failed: %v %v", s, err)
	}
	if _, err := ParseShape("nope"); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestJitterStaysNonNegative(t *testing.T) {
	c := core.New(core.Default().New(42))
	mass := []float64{0.0, 0.5, 1.0, 2.0}

	out := Jitter(c, mass, 0.5)
	if len(out) != len(mass) {
		t.Fatalf("length changed: %d", len(out))
	}
	for i, v := range out {
		if v < 0 {
			t.Fatalf("jittered mass[%d] = %v < 0", i, v)
		}
	}

	// amp <= 0 時必須是逐點複本
	same := Jitter(c, mass, 0)
	for i := range mass {
		if same[i] != mass[i] {
			t.Fatalf("amp=0 should copy, got %v at %d", same[i], i)
		}
	}
}
