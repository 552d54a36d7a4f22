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

package pmflab

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/sdk/core"
	"github.com/zintix-labs/pmflab/sdk/massgen"
	"github.com/zintix-labs/pmflab/stats"
)

func mustPrecision(t *testing.T, p ProbabilityMassFunction, c int) int {
	t.Helper()
	v, err := p.GetPrecision(c)
	if err != nil {
		t.Fatalf("GetPrecision(%d) failed: %v", c, err)
	}
	return v
}

func mustCoarseness(t *testing.T, p ProbabilityMassFunction, r int) int {
	t.Helper()
	v, err := p.GetCoarseness(r)
	if err != nil {
		t.Fatalf("GetCoarseness(%d) failed: %v", r, err)
	}
	return v
}

// 手算端到端案例：mass=[0.1,0.2,0.3,0.4]、C=4、P=2。
// 重取樣中點剛好對齊，曲線就是質量本身；貪婪切割給 rod0 三個樣本。
func TestEndToEndHandDerived(t *testing.T) {
	p, err := NewConcretePMF([]float64{0.1, 0.2, 0.3, 0.4}, 4, 2)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	wantPrec := []int{0, 0, 0, 1}
	got := make([]int, 4)
	for i := range got {
		got[i] = mustPrecision(t, p, i)
	}
	if diff := cmp.Diff(wantPrec, got); diff != "" {
		t.Fatalf("precision mismatch (-want +got):\n%s", diff)
	}

	if k := mustCoarseness(t, p, 0); k != 2 {
		t.Fatalf("GetCoarseness(0) = %d, want 2", k)
	}
	if k := mustCoarseness(t, p, 1); k != 3 {
		t.Fatalf("GetCoarseness(1) = %d, want 3", k)
	}
}

// 對多種形狀驗證查詢合約：單調性、邊界一致性、覆蓋性。
func TestQueryContractsAcrossShapes(t *testing.T) {
	shapes := []massgen.Shape{massgen.ShapeNormal, massgen.ShapeBimodal, massgen.ShapeExponential}
	const (
		length     = 50
		coarseness = 32
		precision  = 8
	)

	for _, shape := range shapes {
		mass, err := massgen.Generate(shape, length, massgen.Params{})
		if err != nil {
			t.Fatalf("%v: generate failed: %v", shape, err)
		}
		p, err := NewConcretePMF(mass, coarseness, precision)
		if err != nil {
			t.Fatalf("%v: build failed: %v", shape, err)
		}

		// 單調性
		prev := 0
		seen := map[int]bool{}
		for i := 0; i < coarseness; i++ {
			v := mustPrecision(t, p, i)
			if v < prev {
				t.Fatalf("%v: precision not monotone at %d: %d < %d", shape, i, v, prev)
			}
			if v < 0 || v >= precision {
				t.Fatalf("%v: precision out of range at %d: %d", shape, i, v)
			}
			prev = v
			seen[v] = true
		}

		// 邊界一致性：k = GetCoarseness(r) 是 rod r 的最右取樣點
		for r := 0; r < precision; r++ {
			k := mustCoarseness(t, p, r)
			if k == -1 {
				if seen[r] {
					t.Fatalf("%v: rod %d has samples but GetCoarseness returned -1", shape, r)
				}
				continue
			}
			if got := mustPrecision(t, p, k); got != r {
				t.Fatalf("%v: GetPrecision(GetCoarseness(%d)=%d) = %d", shape, r, k, got)
			}
			if k != coarseness-1 {
				if next := mustPrecision(t, p, k+1); next <= r {
					t.Fatalf("%v: %d is not rightmost for rod %d (next=%d)", shape, k, r, next)
				}
			}
		}

		// 覆蓋性：每根有樣本的 rod 都查得到
		for r := 0; r < precision; r++ {
			if seen[r] && mustCoarseness(t, p, r) == -1 {
				t.Fatalf("%v: coverage hole at rod %d", shape, r)
			}
		}
	}
}

// 平坦輸入走完整管線：C=16、P=4 時每根 rod 均分 4 個取樣點。
func TestUniformMassThroughConcretePipeline(t *testing.T) {
	mass := make([]float64, 10)
	for i := range mass {
		mass[i] = 0.1
	}
	p, err := NewConcretePMF(mass, 16, 4)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for i := 0; i < 16; i++ {
		if got := mustPrecision(t, p, i); got != i/4 {
			t.Fatalf("GetPrecision(%d) = %d, want %d", i, got, i/4)
		}
	}
}

// 閉式解與完整管線在 P 整除 C 時查詢結果完全一致。
func TestUniformMatchesConcrete(t *testing.T) {
	cases := []struct{ c, p int }{{16, 4}, {8, 8}, {32, 2}}
	for _, tc := range cases {
		mass := []float64{1, 1, 1, 1, 1}
		concrete, err := NewConcretePMF(mass, tc.c, tc.p)
		if err != nil {
			t.Fatalf("concrete build failed: %v", err)
		}
		uniform, err := NewUniformPMF(tc.c, tc.p)
		if err != nil {
			t.Fatalf("uniform build failed: %v", err)
		}
		for i := 0; i < tc.c; i++ {
			if a, b := mustPrecision(t, concrete, i), mustPrecision(t, uniform, i); a != b {
				t.Fatalf("C=%d P=%d: GetPrecision(%d) concrete=%d uniform=%d", tc.c, tc.p, i, a, b)
			}
		}
		for r := 0; r < tc.p; r++ {
			if a, b := mustCoarseness(t, concrete, r), mustCoarseness(t, uniform, r); a != b {
				t.Fatalf("C=%d P=%d: GetCoarseness(%d) concrete=%d uniform=%d", tc.c, tc.p, r, a, b)
			}
		}
	}
}

// C < P 時部分 rod 是空的，閉式解用 -1 哨兵值表示。
func TestUniformSparseRods(t *testing.T) {
	u, err := NewUniformPMF(4, 8)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := []int{0, -1, 1, -1, 2, -1, 3, -1}
	for r, w := range want {
		if got := mustCoarseness(t, u, r); got != w {
			t.Fatalf("GetCoarseness(%d) = %d, want %d", r, got, w)
		}
	}
}

// 尖峰質量可以讓前段 rod 完全沒分到樣本：查詢回傳 -1 而非錯誤。
func TestZeroSampleRod(t *testing.T) {
	p, err := NewConcretePMF([]float64{100, 0.01, 0.01, 0.01}, 4, 3)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	k, err := p.GetCoarseness(0)
	if err != nil {
		t.Fatalf("GetCoarseness(0) failed: %v", err)
	}
	if k != -1 {
		t.Fatalf("expected -1 for empty rod, got %d", k)
	}
}

func TestQueriesRejectOutOfRange(t *testing.T) {
	pmfs := []ProbabilityMassFunction{}

	c, err := NewConcretePMF([]float64{0.5, 0.5}, 4, 2)
	if err != nil {
		t.Fatalf("concrete build failed: %v", err)
	}
	u, err := NewUniformPMF(4, 2)
	if err != nil {
		t.Fatalf("uniform build failed: %v", err)
	}
	pmfs = append(pmfs, c, u)

	for _, p := range pmfs {
		if _, err := p.GetPrecision(-1); !errs.IsKind(err, errs.KindOutOfRange) {
			t.Fatalf("expected out-of-range for GetPrecision(-1), got %v", err)
		}
		if _, err := p.GetPrecision(4); !errs.IsKind(err, errs.KindOutOfRange) {
			t.Fatalf("expected out-of-range for GetPrecision(C), got %v", err)
		}
		if _, err := p.GetCoarseness(-1); !errs.IsKind(err, errs.KindOutOfRange) {
			t.Fatalf("expected out-of-range for GetCoarseness(-1), got %v", err)
		}
		if _, err := p.GetCoarseness(2); !errs.IsKind(err, errs.KindOutOfRange) {
			t.Fatalf("expected out-of-range for GetCoarseness(P), got %v", err)
		}
	}
}

func TestConstructionRejectsBadInput(t *testing.T) {
	if _, err := NewConcretePMF([]float64{1}, 4, 2); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("short mass: got %v", err)
	}
	if _, err := NewConcretePMF([]float64{1, 1}, 6, 2); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("non power-of-two coarseness: got %v", err)
	}
	if _, err := NewConcretePMF([]float64{1, 1}, 4, 0); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("zero precision: got %v", err)
	}
	if _, err := NewUniformPMF(0, 2); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("zero coarseness: got %v", err)
	}
	if _, err := NewUniformPMF(6, 2); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("uniform non power-of-two: got %v", err)
	}
	if _, err := NewUniformPMF(4, 0); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("uniform zero precision: got %v", err)
	}
}

const assemblerYAML = `
setup_name: bell
setup_id: 7
shape:
  name: normal
length: 40
coarseness: 16
precision: 4
`

const assemblerUniformYAML = `
setup_name: flat
setup_id: 8
shape:
  name: uniform
length: 8
coarseness: 16
precision: 4
`

func testConfigs() fstest.MapFS {
	return fstest.MapFS{
		"bell.yaml": &fstest.MapFile{Data: []byte(assemblerYAML)},
		"flat.yaml": &fstest.MapFile{Data: []byte(assemblerUniformYAML)},
	}
}

func TestAssemblerLifecycle(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testConfigs()))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	if got := len(lab.IDs()); got != 2 {
		t.Fatalf("expected 2 setups, got %d", got)
	}

	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(sum) != 2 || sum[0].SID != 7 || sum[0].Shape != "normal" {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	p, err := lab.NewPMF(7)
	if err != nil {
		t.Fatalf("build from catalog failed: %v", err)
	}
	if p.Coarseness() != 16 || p.Precision() != 4 {
		t.Fatalf("unexpected dimensions: C=%d P=%d", p.Coarseness(), p.Precision())
	}

	// uniform 形狀走閉式解
	f, err := lab.NewPMF(8)
	if err != nil {
		t.Fatalf("build uniform failed: %v", err)
	}
	if _, ok := f.(*UniformPMF); !ok {
		t.Fatalf("expected closed-form variant for uniform shape, got %T", f)
	}

	if _, err := lab.NewPMF(999); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not-found for unknown id, got %v", err)
	}
}

func TestAssemblerAdhocYAML(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testConfigs()))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	p, err := lab.NewPMFByYAML([]byte(assemblerYAML))
	if err != nil {
		t.Fatalf("ad-hoc build failed: %v", err)
	}
	if p.Coarseness() != 16 {
		t.Fatalf("unexpected coarseness %d", p.Coarseness())
	}
}

const simulatorYAML = `
setup_name: bell-jitter
setup_id: 9
shape:
  name: normal
length: 40
coarseness: 16
precision: 4
sim:
  sweeps: 10
  jitter_amp: 0.3
`

func TestSimulatorDeterministic(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testConfigs()))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	run := func() *stats.QualityReport {
		s, err := lab.NewSimulatorByYAML([]byte(simulatorYAML), 42)
		if err != nil {
			t.Fatalf("simulator failed: %v", err)
		}
		rep, _, err := s.Sim(20, false)
		if err != nil {
			t.Fatalf("sim failed: %v", err)
		}
		return rep
	}

	a, b := run(), run()
	if a.Summary.Sweeps != 20 {
		t.Fatalf("expected 20 sweeps, got %d", a.Summary.Sweeps)
	}
	if a.Summary.MeanMassErr != b.Summary.MeanMassErr || a.Summary.LeavesSum != b.Summary.LeavesSum {
		t.Fatalf("same seed diverged: %+v vs %+v", a.Summary, b.Summary)
	}
	if a.Summary.Violations != 0 {
		t.Fatalf("query consistency violated %d times", a.Summary.Violations)
	}
	if a.Summary.MeanLeaves < 1 || a.Summary.MeanLeaves > float64(a.Summary.Coarseness) {
		t.Fatalf("mean leaves out of range: %v", a.Summary.MeanLeaves)
	}
}

func TestSimulatorMP(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testConfigs()))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	s, err := lab.NewSimulatorByYAML([]byte(simulatorYAML), 7)
	if err != nil {
		t.Fatalf("simulator failed: %v", err)
	}
	rep, _, err := s.SimMP(5, 4, false)
	if err != nil {
		t.Fatalf("simmp failed: %v", err)
	}
	if rep.Summary.Sweeps != 20 {
		t.Fatalf("expected 20 merged sweeps, got %d", rep.Summary.Sweeps)
	}
	if rep.Summary.Violations != 0 {
		t.Fatalf("query consistency violated %d times", rep.Summary.Violations)
	}

	if _, _, err := s.Sim(0, false); err == nil {
		t.Fatal("expected rejection for zero sweeps")
	}
	if _, _, err := s.SimMP(1, 0, false); err == nil {
		t.Fatal("expected rejection for zero workers")
	}
}

func TestSeedMaker(t *testing.T) {
	sm := newSeedMaker(1)
	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		v := sm.next()
		if v < 0 {
			t.Fatalf("seed %d is negative", v)
		}
		if seen[v] {
			t.Fatalf("seed %d repeated", v)
		}
		seen[v] = true
	}
}

func TestQueryRuntime(t *testing.T) {
	lab, err := NewAuto(core.Default(), Configs(testConfigs()))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	rt, err := lab.BuildRuntime()
	if err != nil {
		t.Fatalf("build runtime failed: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	res, err := rt.Precision(ctx, 8, 0)
	if err != nil {
		t.Fatalf("precision query failed: %v", err)
	}
	if res.Value != 0 || res.Coarseness != 16 || res.SetupName != "flat" {
		t.Fatalf("unexpected result: %+v", res)
	}

	// uniform C=16 P=4：rod 1 的最右取樣點是 7
	res, err = rt.Coarseness(ctx, 8, 1)
	if err != nil {
		t.Fatalf("coarseness query failed: %v", err)
	}
	if res.Value != 7 {
		t.Fatalf("unexpected rightmost sample: %+v", res)
	}

	if _, err := rt.Precision(ctx, 999, 0); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := rt.Precision(ctx, 8, 99); !errs.IsKind(err, errs.KindOutOfRange) {
		t.Fatalf("expected out-of-range, got %v", err)
	}
	if id, ok := rt.ResolveId("BELL"); !ok || id != 7 {
		t.Fatalf("name resolve failed: %v %v", id, ok)
	}
	if rt.Queries() != 2 {
		t.Fatalf("expected 2 served queries, got %d", rt.Queries())
	}

	rt.Close()
	if _, err := rt.Precision(ctx, 8, 0); err == nil {
		t.Fatal("expected failure after close")
	}
}

// DrawRod 以 rod 樣本數為權重抽樣：[3,1] 應接近 3:1，且零樣本 rod 永不出現。
func TestDrawRod(t *testing.T) {
	p, err := NewConcretePMF([]float64{0.1, 0.2, 0.3, 0.4}, 4, 2)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	c := core.New(core.Default().New(99))
	const rounds = 40000
	hits := [2]int{}
	for i := 0; i < rounds; i++ {
		r := p.DrawRod(c)
		if r < 0 || r >= p.Precision() {
			t.Fatalf("DrawRod out of range: %d", r)
		}
		hits[r]++
	}

	// rod0 涵蓋 3/4 的樣本
	got := float64(hits[0]) / float64(rounds)
	if got < 0.72 || got > 0.78 {
		t.Fatalf("rod0 share = %v, want ~0.75", got)
	}

	// 零樣本 rod 永不出現（rod0 沒分到任何樣本，見 TestZeroSampleRod）
	sparse, err := NewConcretePMF([]float64{100, 0.01, 0.01, 0.01}, 4, 3)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for i := 0; i < 10000; i++ {
		if r := sparse.DrawRod(c); r == 0 {
			t.Fatal("empty rod 0 was drawn")
		}
	}
}

// Dev 模擬器：before 快照重放必須逐位元重現同一段掃描。
func TestDevSimulatorReplay(t *testing.T) {
	fsys := testConfigs()
	fsys["jitter.yaml"] = &fstest.MapFile{Data: []byte(simulatorYAML)}
	lab, err := NewAuto(core.Default(), Configs(fsys))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	dev, err := lab.NewDevSimulatorWithSeed(9, 5)
	if err != nil {
		t.Fatalf("new dev simulator failed: %v", err)
	}

	rep, err := dev.Sim(20)
	if err != nil {
		t.Fatalf("dev sim failed: %v", err)
	}
	if rep.Stat == nil || rep.Stat.Summary.Sweeps != 20 {
		t.Fatalf("unexpected report: %+v", rep.Stat)
	}
	if rep.Before.SnapB64U == "" || rep.After.SnapB64U == "" {
		t.Fatal("missing snapshots")
	}
	if rep.Before.SnapB64U == rep.After.SnapB64U {
		t.Fatal("snapshot did not advance across sweeps")
	}

	replay, err := dev.RestoreSim(rep.Before.SnapB64U, 20)
	if err != nil {
		t.Fatalf("restore sim failed: %v", err)
	}
	if replay.Stat.Summary.MassErrSum != rep.Stat.Summary.MassErrSum {
		t.Fatalf("replay mass err = %v, want %v", replay.Stat.Summary.MassErrSum, rep.Stat.Summary.MassErrSum)
	}
	if replay.After.SnapB64U != rep.After.SnapB64U {
		t.Fatal("replay did not reproduce the after snapshot")
	}
	if err := dev.sim.cBuf[0].Restore([]byte("not-a-snapshot")); err == nil {
		t.Fatal("expected restore failure for malformed snapshot")
	}
}
