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

package resample

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/zintix-labs/pmflab/errs"
)

const eps = 1e-12

func TestResampleLinearExact(t *testing.T) {
	// 線性資料在任何取樣密度下插值都應精確重現
	mass := []float64{0.1, 0.2, 0.3, 0.4}
	curve, total, err := Resample(mass, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []float64{0.1, 0.2, 0.3, 0.4}
	if diff := cmp.Diff(want, curve, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Fatalf("curve mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(total-1.0) > eps {
		t.Fatalf("expected total 1.0, got %v", total)
	}
}

func TestResampleUpsample(t *testing.T) {
	// L=2 上取樣到 C=4：目標點 1/8,3/8,5/8,7/8，中點 1/4,3/4
	// 線性外插/內插：f(x) = 0.2 + (0.6-0.2)*2*(x-1/4)
	mass := []float64{0.2, 0.6}
	curve, total, err := Resample(mass, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []float64{0.1, 0.3, 0.5, 0.7}
	if diff := cmp.Diff(want, curve, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Fatalf("curve mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(total-1.6) > eps {
		t.Fatalf("expected total 1.6, got %v", total)
	}
}

func TestResampleDownsample(t *testing.T) {
	// C=1：唯一目標點 x=1/2，結果為該點的線性插值
	mass := []float64{0.4, 0.8}
	curve, total, err := Resample(mass, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(curve) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(curve))
	}
	if math.Abs(curve[0]-0.6) > eps || math.Abs(total-0.6) > eps {
		t.Fatalf("expected 0.6, got curve=%v total=%v", curve, total)
	}
}

func TestResampleUniformStaysFlat(t *testing.T) {
	mass := make([]float64, 7)
	for i := range mass {
		mass[i] = 0.25
	}
	curve, total, err := Resample(mass, 16)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i, v := range curve {
		if math.Abs(v-0.25) > eps {
			t.Fatalf("curve[%d] = %v, want 0.25", i, v)
		}
	}
	if math.Abs(total-16*0.25) > eps {
		t.Fatalf("total = %v, want %v", total, 16*0.25)
	}
}

func TestResampleFloat32Input(t *testing.T) {
	mass := []float32{0.5, 0.5, 0.5}
	curve, _, err := Resample(mass, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i, v := range curve {
		if math.Abs(v-0.5) > 1e-6 {
			t.Fatalf("curve[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestResampleInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		mass []float64
		c    int
	}{
		{"too short", []float64{1.0}, 4},
		{"empty", nil, 4},
		{"zero coarseness", []float64{0.5, 0.5}, 0},
		{"negative coarseness", []float64{0.5, 0.5}, -1},
		{"negative mass", []float64{0.5, -0.1}, 4},
		{"nan mass", []float64{0.5, math.NaN()}, 4},
		{"inf mass", []float64{0.5, math.Inf(1)}, 4},
	}
	for _, tc := range cases {
		_, _, err := Resample(tc.mass, tc.c)
		if err == nil {
			t.Fatalf("[%s] expected error, got none", tc.name)
		}
		if !errs.IsKind(err, errs.KindInvalidInput) {
			t.Fatalf("[%s] expected invalid_input kind, got %v", tc.name, err)
		}
	}
}

func TestResampleWindowNeverRewinds(t *testing.T) {
	// 非線性資料：逐點驗證視窗前進後的插值與重新計算的期望一致
	mass := []float64{0.9, 0.1, 0.5, 0.2, 0.7, 0.3, 0.05, 0.4}
	c := 32
	curve, _, err := Resample(mass, c)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	l := len(mass)
	for i := 0; i < c; i++ {
		x := float64(2*i+1) / (2.0 * float64(c))
		// 參考實作：獨立為每個目標點找視窗（與單調掃描應等價）
		low := 0
		for low < l-2 && float64(2*low+1)/(2.0*float64(l)) <= x {
			low++
		}
		slope := (mass[low+1] - mass[low]) * float64(l)
		want := slope*(x-float64(2*low+1)/(2.0*float64(l))) + mass[low]
		if math.Abs(curve[i]-want) > eps {
			t.Fatalf("curve[%d] = %v, want %v", i, curve[i], want)
		}
	}
}
