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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/spec"
	"github.com/zintix-labs/pmflab/stats"
)

// SweepResult 單次掃描的量測結果。
//
// 一次掃描（sweep）= 擾動一次質量函數 → 走完整管線建一次結構 → 量測：
//   - MassErr：最大 rod 質量相對偏差 max_r |share_r - 1/P| * P
//   - Leaves：剪枝後存活葉數（壓縮指標）
//   - EmptyRods：沒分到任何取樣點的 rod 數
//   - Violations：雙向查詢邊界一致性違規數（預期為 0）
type SweepResult struct {
	MassErr    float64
	Leaves     int
	EmptyRods  int
	Violations int
}

// SweepRecorder 掃描紀錄員
//
// SweepRecorder 負責紀錄掃描結果，並透過Done輸出統計報表
type SweepRecorder struct {
	SetupName  string
	SetupId    spec.SID
	Shape      string
	Length     int
	Coarseness int
	Precision  int
	Basic      *BasicRecord
	Dist       *DistRecord
}

// BasicRecord 基本掃描資料紀錄
type BasicRecord struct {
	Sweeps       int
	LeavesSum    int
	EmptyRods    int
	Violations   int
	MassErrSum   float64
	MassErrSqSum float64 // 平方和
	WorstMassErr float64
}

// DistRecord 質量偏差區間落點統計
type DistRecord struct {
	Bucket     *stats.ErrBuckets
	ErrCollect []int
}

func NewSweepRecorder(name string, id spec.SID, shape string, length, coarseness, precision int) (*SweepRecorder, error) {
	s := new(SweepRecorder)

	if name == "" {
		return s, errs.NewFatal("setup name required")
	}
	if length < 2 {
		return s, errs.NewFatal(fmt.Sprintf("length err %d", length))
	}
	if coarseness < 1 || precision < 1 {
		return s, errs.NewFatal(fmt.Sprintf("dimensions err C=%d P=%d", coarseness, precision))
	}

	// 通過valid
	s.SetupName = name
	s.SetupId = id
	s.Shape = shape
	s.Length = length
	s.Coarseness = coarseness
	s.Precision = precision
	s.Basic = new(BasicRecord)
	s.Dist = newDistRecord()

	return s, nil
}

func MergeSweepRecorder(r []*SweepRecorder) (*SweepRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge sweep record err : empty input")
	}
	r0 := r[0]
	s, err := NewSweepRecorder(r0.SetupName, r0.SetupId, r0.Shape, r0.Length, r0.Coarseness, r0.Precision)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.SetupName != r0.SetupName {
			return s, errs.NewFatal("merge sweep record err : different setup name")
		}
		if v.Coarseness != r0.Coarseness || v.Precision != r0.Precision || v.Length != r0.Length {
			return s, errs.NewFatal("merge sweep record err : different dimensions")
		}
		s.Basic.Sweeps += v.Basic.Sweeps
		s.Basic.LeavesSum += v.Basic.LeavesSum
		s.Basic.EmptyRods += v.Basic.EmptyRods
		s.Basic.Violations += v.Basic.Violations
		s.Basic.MassErrSum += v.Basic.MassErrSum
		s.Basic.MassErrSqSum += v.Basic.MassErrSqSum
		if v.Basic.WorstMassErr > s.Basic.WorstMassErr {
			s.Basic.WorstMassErr = v.Basic.WorstMassErr
		}

		// 整合Dist
		for i := range v.Dist.ErrCollect {
			s.Dist.ErrCollect[i] += v.Dist.ErrCollect[i]
		}
	}
	return s, nil
}

// Record 以單次 SweepResult 更新統計
func (s *SweepRecorder) Record(sr *SweepResult) {
	b := s.Basic
	b.Sweeps++
	b.LeavesSum += sr.Leaves
	b.EmptyRods += sr.EmptyRods
	b.Violations += sr.Violations
	b.MassErrSum += sr.MassErr
	b.MassErrSqSum += sr.MassErr * sr.MassErr
	if sr.MassErr > b.WorstMassErr {
		b.WorstMassErr = sr.MassErr
	}

	s.Dist.ErrCollect[s.Dist.Bucket.Index(sr.MassErr)]++
}

func (s *SweepRecorder) Done() *stats.QualityReport {
	report := &stats.QualityReport{
		Summary: &stats.SummaryReport{
			SetupName:    s.SetupName,
			SetupId:      s.SetupId,
			Shape:        s.Shape,
			Length:       s.Length,
			Coarseness:   s.Coarseness,
			Precision:    s.Precision,
			Sweeps:       s.Basic.Sweeps,
			WorstMassErr: s.Basic.WorstMassErr,
			EmptyRods:    s.Basic.EmptyRods,
			Violations:   s.Basic.Violations,
			MassErrSum:   s.Basic.MassErrSum,
			MassErrSqSum: s.Basic.MassErrSqSum,
			LeavesSum:    s.Basic.LeavesSum,
		},
		Dist: &stats.DistReport{
			ErrBucket:  s.Dist.Bucket.ErrBucketStr(),
			ErrCollect: append([]int(nil), s.Dist.ErrCollect...),
			ErrDist:    nil,
		},
	}
	return report
}

func newDistRecord() *DistRecord {
	d := new(DistRecord)
	d.Bucket = stats.Buckets
	d.ErrCollect = make([]int, stats.Buckets.Len())
	return d
}
