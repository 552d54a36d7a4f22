package sampler

import (
	"testing"

	"github.com/zintix-labs/pmflab/sdk/core"
)

func newCore(seed int64) *core.Core {
	return core.New(core.Default().New(seed))
}

func TestBuildAliasTableInvariant(t *testing.T) {
	weights := []int{3, 1, 0, 4}
	at := BuildAliasTable(weights)

	if at.Size != len(weights) {
		t.Fatalf("size = %d, want %d", at.Size, len(weights))
	}
	if at.Total != 8 {
		t.Fatalf("total = %d, want 8", at.Total)
	}

	// sum(prob) 必須等於 total * n（整數 scaling 的守恆量）
	sum := 0
	for _, p := range at.Prob {
		if p < 0 {
			t.Fatalf("negative scaled prob: %v", at.Prob)
		}
		sum += p
	}
	if sum != at.Total*at.Size {
		t.Fatalf("sum(prob) = %d, want %d", sum, at.Total*at.Size)
	}
}

func TestBuildAliasTableEmpty(t *testing.T) {
	at := BuildAliasTable(nil)
	if at.Size != 0 {
		t.Fatalf("size = %d, want 0", at.Size)
	}
	if got := at.Pick(newCore(1)); got != -1 {
		t.Fatalf("pick on empty table = %d, want -1", got)
	}
}

func TestBuildAliasTablePanics(t *testing.T) {
	cases := map[string][]int{
		"negative": {1, -1},
		"all-zero": {0, 0, 0},
	}
	for name, ws := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", name)
				}
			}()
			BuildAliasTable(ws)
		}()
	}
}

func TestPickDistribution(t *testing.T) {
	// 權重 [1,3,0,4]：索引 2 永不出現，其他比例近似 1:3:4
	weights := []int{1, 3, 0, 4}
	at := BuildAliasTable(weights)
	c := newCore(42)

	const rounds = 80000
	hits := make([]int, len(weights))
	for i := 0; i < rounds; i++ {
		idx := at.Pick(c)
		if idx < 0 || idx >= len(weights) {
			t.Fatalf("pick out of range: %d", idx)
		}
		hits[idx]++
	}

	if hits[2] != 0 {
		t.Fatalf("zero-weight index picked %d times", hits[2])
	}
	for i, w := range weights {
		if w == 0 {
			continue
		}
		want := float64(rounds) * float64(w) / 8.0
		got := float64(hits[i])
		if got < want*0.9 || got > want*1.1 {
			t.Fatalf("index %d: got %v picks, want ~%v", i, got, want)
		}
	}
}

func TestPickDeterministic(t *testing.T) {
	weights := []int{2, 5, 1}
	at := BuildAliasTable(weights)

	a, b := newCore(7), newCore(7)
	for i := 0; i < 1000; i++ {
		if x, y := at.Pick(a), at.Pick(b); x != y {
			t.Fatalf("round %d: %d != %d", i, x, y)
		}
	}
}
