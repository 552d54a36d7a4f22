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

package rods

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zintix-labs/pmflab/errs"
)

func TestAllocateHandDerived(t *testing.T) {
	// curve=[0.1,0.2,0.3,0.4], total=1.0, precision=2
	// rod0 目標 0.5：0.1(距0.4) 0.3(距0.2) 0.6(距0.1) 收3個；再收會到1.0(距0.5) 封口
	// rod1 為最後一個 rod：吸收剩下 1 個
	counts, err := Allocate([]float64{0.1, 0.2, 0.3, 0.4}, 1.0, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff([]int{3, 1}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocateUniformSplitsEvenly(t *testing.T) {
	curve := make([]float64, 16)
	for i := range curve {
		curve[i] = 1.0
	}
	counts, err := Allocate(curve, 16.0, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff([]int{4, 4, 4, 4}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocateZeroCountRod(t *testing.T) {
	// 單一樣本扛走幾乎全部質量：中段 rod 拿不到樣本是合法結果
	curve := []float64{0.01, 100.0, 0.01, 0.01}
	total := 100.03
	counts, err := Allocate(curve, total, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	sum := 0
	zero := false
	for _, c := range counts {
		if c < 0 {
			t.Fatalf("negative rod count: %v", counts)
		}
		if c == 0 {
			zero = true
		}
		sum += c
	}
	if sum != len(curve) {
		t.Fatalf("counts %v sum to %d, want %d", counts, sum, len(curve))
	}
	if !zero {
		t.Fatalf("expected at least one empty rod, got %v", counts)
	}
}

func TestAllocateLastRodAbsorbsRemainder(t *testing.T) {
	// 遞減曲線：前面的 rod 很快吃滿，尾端樣本全部落到最後一個 rod
	curve := []float64{10, 1, 1, 1, 1, 1, 1, 1}
	total := 17.0
	counts, err := Allocate(curve, total, 3)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != len(curve) {
		t.Fatalf("counts %v sum to %d, want %d", counts, sum, len(curve))
	}
	if counts[len(counts)-1] == 0 {
		t.Fatalf("last rod should absorb the remainder, got %v", counts)
	}
}

func TestAllocateSinglePrecision(t *testing.T) {
	counts, err := Allocate([]float64{0.3, 0.3, 0.4}, 1.0, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff([]int{3}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocateMorePrecisionThanSamples(t *testing.T) {
	counts, err := Allocate([]float64{0.5, 0.5}, 1.0, 8)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	sum := 0
	for _, c := range counts {
		if c < 0 {
			t.Fatalf("negative rod count: %v", counts)
		}
		sum += c
	}
	if sum != 2 {
		t.Fatalf("counts %v sum to %d, want 2", counts, sum)
	}
}

func TestAllocateInvalidInput(t *testing.T) {
	if _, err := Allocate(nil, 0, 2); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid_input for empty curve, got %v", err)
	}
	if _, err := Allocate([]float64{1}, 1, 0); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid_input for precision 0, got %v", err)
	}
}
