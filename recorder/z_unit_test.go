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
	"math"
	"testing"
)

func newTestRecorder(t *testing.T) *SweepRecorder {
	t.Helper()
	r, err := NewSweepRecorder("demo", 1, "normal", 8, 16, 4)
	if err != nil {
		t.Fatalf("new recorder failed: %v", err)
	}
	return r
}

func TestRecordAndDone(t *testing.T) {
	r := newTestRecorder(t)
	r.Record(&SweepResult{MassErr: 0.1, Leaves: 6, EmptyRods: 1})
	r.Record(&SweepResult{MassErr: 0.3, Leaves: 8, EmptyRods: 0, Violations: 1})

	rep := r.Done()
	if rep.Summary.Sweeps != 2 {
		t.Fatalf("sweeps = %d", rep.Summary.Sweeps)
	}
	if math.Abs(rep.Summary.MassErrSum-0.4) > 1e-12 {
		t.Fatalf("err sum = %v", rep.Summary.MassErrSum)
	}
	if rep.Summary.WorstMassErr != 0.3 {
		t.Fatalf("worst = %v", rep.Summary.WorstMassErr)
	}
	if rep.Summary.LeavesSum != 14 || rep.Summary.EmptyRods != 1 || rep.Summary.Violations != 1 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}

	rep.Done()
	if math.Abs(rep.Summary.MeanMassErr-0.2) > 1e-12 {
		t.Fatalf("mean err = %v", rep.Summary.MeanMassErr)
	}
}

func TestRecorderRejectsBadInput(t *testing.T) {
	if _, err := NewSweepRecorder("", 1, "normal", 8, 16, 4); err == nil {
		t.Fatalf("expected empty name rejection")
	}
	if _, err := NewSweepRecorder("x", 1, "normal", 1, 16, 4); err == nil {
		t.Fatalf("expected short length rejection")
	}
	if _, err := NewSweepRecorder("x", 1, "normal", 8, 0, 4); err == nil {
		t.Fatalf("expected zero coarseness rejection")
	}
}

func TestMergeSweepRecorder(t *testing.T) {
	a := newTestRecorder(t)
	b := newTestRecorder(t)
	a.Record(&SweepResult{MassErr: 0.1, Leaves: 4})
	b.Record(&SweepResult{MassErr: 0.2, Leaves: 6, EmptyRods: 2})

	m, err := MergeSweepRecorder([]*SweepRecorder{a, b})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if m.Basic.Sweeps != 2 || m.Basic.LeavesSum != 10 || m.Basic.EmptyRods != 2 {
		t.Fatalf("unexpected merge: %+v", m.Basic)
	}
	if math.Abs(m.Basic.MassErrSum-0.3) > 1e-12 {
		t.Fatalf("err sum = %v", m.Basic.MassErrSum)
	}

	other, err := NewSweepRecorder("other", 2, "beta", 8, 16, 4)
	if err != nil {
		t.Fatalf("new recorder failed: %v", err)
	}
	if _, err := MergeSweepRecorder([]*SweepRecorder{a, other}); err == nil {
		t.Fatalf("expected mismatch rejection")
	}

	if _, err := MergeSweepRecorder(nil); err == nil {
		t.Fatalf("expected empty input rejection")
	}
}
