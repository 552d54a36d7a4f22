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

package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestErrBucketIndex(t *testing.T) {
	cases := []struct {
		err  float64
		want int
	}{
		{0, 0},
		{5e-7, 0},
		{1e-6, 1},
		{5e-4, 3},
		{0.03, 5},
		{0.07, 6},
		{0.5, 9},
		{3.0, 9},
		{-0.03, 5}, // 取絕對值
	}
	for _, tc := range cases {
		if got := Buckets.Index(tc.err); got != tc.want {
			t.Fatalf("Index(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
	if Buckets.Len() != len(Buckets.ErrBucketStr()) {
		t.Fatalf("bucket length mismatch")
	}
}

func newTestReport() *QualityReport {
	return &QualityReport{
		Summary: &SummaryReport{
			SetupName:    "t",
			SetupId:      1,
			Shape:        "normal",
			Length:       8,
			Coarseness:   16,
			Precision:    4,
			Sweeps:       4,
			MassErrSum:   0.4,
			MassErrSqSum: 0.05,
			WorstMassErr: 0.2,
			LeavesSum:    24,
			EmptyRods:    2,
			Violations:   0,
		},
		Dist: &DistReport{
			ErrBucket:  Buckets.ErrBucketStr(),
			ErrCollect: []int{0, 0, 0, 0, 2, 1, 1, 0, 0, 0},
		},
	}
}

func TestQualityReportDone(t *testing.T) {
	r := newTestReport()
	r.Done()

	if math.Abs(r.Summary.MeanMassErr-0.1) > 1e-12 {
		t.Fatalf("mean err = %v, want 0.1", r.Summary.MeanMassErr)
	}
	// variance = (0.05 - 0.16/4) / 3 = 0.01/3
	wantStd := math.Sqrt(0.01 / 3)
	if math.Abs(r.Summary.Std-wantStd) > 1e-12 {
		t.Fatalf("std = %v, want %v", r.Summary.Std, wantStd)
	}
	if r.Summary.MeanLeaves != 6 {
		t.Fatalf("mean leaves = %v, want 6", r.Summary.MeanLeaves)
	}
	if math.Abs(r.Summary.Compression-6.0/16.0) > 1e-12 {
		t.Fatalf("compression = %v", r.Summary.Compression)
	}
	// 空 rod 率：2 / (4*4)
	if math.Abs(r.Summary.EmptyRodRate-0.125) > 1e-12 {
		t.Fatalf("empty rod rate = %v", r.Summary.EmptyRodRate)
	}
	if r.Summary.EmptyRodCI.Lo < 0 || r.Summary.EmptyRodCI.Hi > 1 || r.Summary.EmptyRodCI.Lo > r.Summary.EmptyRodRate {
		t.Fatalf("bad empty rod CI: %+v", r.Summary.EmptyRodCI)
	}
	if len(r.Dist.ErrDist) != len(r.Dist.ErrCollect) {
		t.Fatalf("dist length mismatch")
	}
	if math.Abs(r.Dist.ErrDist[4]-0.5) > 1e-12 {
		t.Fatalf("dist[4] = %v, want 0.5", r.Dist.ErrDist[4])
	}

	// Done 必須冪等
	mean := r.Summary.MeanMassErr
	r.Done()
	if r.Summary.MeanMassErr != mean {
		t.Fatalf("Done is not idempotent")
	}
}

func TestProportionCICP(t *testing.T) {
	hat, ci := proportionCICP(0, 10, 0.95)
	if hat != 0 || ci.Lo != 0 {
		t.Fatalf("k=0: hat=%v ci=%+v", hat, ci)
	}
	hat, ci = proportionCICP(10, 10, 0.95)
	if hat != 1 || ci.Hi != 1 {
		t.Fatalf("k=n: hat=%v ci=%+v", hat, ci)
	}
	hat, ci = proportionCICP(3, 10, 0.95)
	if !(ci.Lo <= hat && hat <= ci.Hi) {
		t.Fatalf("CI does not cover hat: hat=%v ci=%+v", hat, ci)
	}
}

func TestEstimatorQuality(t *testing.T) {
	if out := EstimatorQuality(nil); out == nil {
		t.Fatalf("empty input should return zero value, not nil")
	}

	reports := []*QualityReport{newTestReport(), newTestReport(), newTestReport()}
	for _, r := range reports {
		r.Done()
	}
	est := EstimatorQuality(reports)
	if math.Abs(est.ErrStat.ErrMedian.Hat-0.1) > 1e-12 {
		t.Fatalf("median err = %v", est.ErrStat.ErrMedian.Hat)
	}
	if est.CleanStat.Hat != 1.0 {
		t.Fatalf("clean rate = %v, want 1", est.CleanStat.Hat)
	}
	if est.EmptyRodStat.Hat != 0.125 {
		t.Fatalf("empty rod rate = %v", est.EmptyRodStat.Hat)
	}
}

func TestRenders(t *testing.T) {
	r := newTestReport()

	var jb bytes.Buffer
	if err := r.WriteWith(&jb, &JsonQualityReportRender{}); err != nil {
		t.Fatalf("json render failed: %v", err)
	}
	if !strings.Contains(jb.String(), `"SetupName":"t"`) {
		t.Fatalf("unexpected json: %s", jb.String())
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, &YAMLQualityReportRender{}); err != nil {
		t.Fatalf("yaml render failed: %v", err)
	}
	// 一維陣列應該輸出 flow style
	if !strings.Contains(yb.String(), "[") {
		t.Fatalf("expected flow style lists in yaml:\n%s", yb.String())
	}
}
