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

// Package ctree 實作「剪枝完全二元樹 (pruned complete binary tree)」。
//
// 樹的葉片對應 coarseness 個取樣點，每片葉子存「left-rods」值：
// 該取樣點左側(嚴格)完整 rod 的數量，等同該點所屬 rod 的索引(0-based)。
// left-rods 由左到右單調不減，因此相鄰同值的葉子可以自底向上合併，
// 長段同值的區間最後只剩一片合併葉，空間隨分布的平坦程度次線性收縮。
//
// 佈局採用 flat array（index 運算取代指標節點）：
//   - 節點總數 2C-1，節點 k 的子節點為 2k+1 / 2k+2，父節點為 (k-1)/2。
//   - 葉片區間為 [C-1, 2C-2]，第 c 個取樣點對應 flat index c+C-1。
//   - 一個平行的 bool 標記陣列紀錄「目前哪些 index 是(合併後的)葉子」。
//
// 兩個查詢都是唯讀且無鎖安全：
//   - LeftRods(c)：從原始葉位往根走，碰到第一個標記葉即為答案，O(log C)。
//   - Search(rod)：對壓縮後的稠密葉值陣列作二分搜尋，回傳 rod 所涵蓋
//     平台(plateau)的「最右」取樣點，O(log C)。

package ctree

import (
	"sort"

	"github.com/zintix-labs/pmflab/errs"
)

// Tree 是建構完成後不再變動的剪枝二元樹。
// 所有欄位在 Build 回傳後皆為唯讀，多 goroutine 併發查詢不需要任何同步。
type Tree struct {
	coarseness int
	precision  int

	vals []int  // flat 節點值，長度 2C-1
	leaf []bool // flat 葉標記，與 vals 等長

	dense []int       // 存活葉的值，由左到右（單調不減）
	right []int       // dense[i] 所涵蓋區段的最右取樣點索引
	posOf map[int]int // 存活葉 flat index -> dense 位置
}

// Build 依 rod 樣本數與 coarseness 建樹。
//
// 前置條件（違反回傳 invalid_input）：
//   - coarseness >= 1 且為 2 的冪次（完全二元樹的結構性前提；
//     這裡選擇在建構期驗證，而不是默默建出一棵歪樹）。
//   - rodCounts 全為非負且總和恰等於 coarseness。
func Build(rodCounts []int, coarseness int) (*Tree, error) {
	if coarseness < 1 {
		return nil, errs.InvalidInputf("ctree: coarseness must be >= 1, got %d", coarseness)
	}
	if coarseness&(coarseness-1) != 0 {
		return nil, errs.InvalidInputf("ctree: coarseness must be a power of two, got %d", coarseness)
	}
	if len(rodCounts) == 0 {
		return nil, errs.NewInvalidInput("ctree: rodCounts is empty")
	}
	sum := 0
	for i, c := range rodCounts {
		if c < 0 {
			return nil, errs.InvalidInputf("ctree: rodCounts[%d] = %d is negative", i, c)
		}
		sum += c
	}
	if sum != coarseness {
		return nil, errs.InvalidInputf("ctree: rodCounts sum %d != coarseness %d", sum, coarseness)
	}

	t := &Tree{
		coarseness: coarseness,
		precision:  len(rodCounts),
		vals:       make([]int, 2*coarseness-1),
		leaf:       make([]bool, 2*coarseness-1),
		posOf:      make(map[int]int),
	}

	// 1. 由左到右填葉：第 rod 個 rod 的樣本全部標上 rod 自身的索引
	pos := coarseness - 1
	for rod, cnt := range rodCounts {
		for j := 0; j < cnt; j++ {
			t.vals[pos] = rod
			t.leaf[pos] = true
			pos++
		}
	}

	// 2. 後序剪枝：先處理子樹，讓剛合併出的葉子能被它自己的父節點看到
	t.prune(0)

	// 3. 壓縮存活葉，並為每片葉記下它涵蓋區段的最右取樣點
	t.compact(0, 0, coarseness)

	return t, nil
}

// prune 後序走訪：兩個子節點都是(已解析的)同值葉時，父節點收編為葉。
// 遞迴深度受 log2(coarseness) 限制。
func (t *Tree) prune(i int) {
	if t.leaf[i] {
		return
	}
	l, r := 2*i+1, 2*i+2
	t.prune(l)
	t.prune(r)
	if t.leaf[l] && t.leaf[r] && t.vals[l] == t.vals[r] {
		t.vals[i] = t.vals[l]
		t.leaf[i] = true
		t.leaf[l] = false
		t.leaf[r] = false
	}
}

// compact 由左到右收集存活葉。節點 i 涵蓋取樣點半開區間 [lo, hi)。
// 剪枝會移除中間的陣列槽位，之後的查詢必須能把任意原始葉解析回
// 它的存活祖先，所以這裡同時建 flat index -> dense 位置 的對照表。
func (t *Tree) compact(i, lo, hi int) {
	if t.leaf[i] {
		t.posOf[i] = len(t.dense)
		t.dense = append(t.dense, t.vals[i])
		t.right = append(t.right, hi-1)
		return
	}
	mid := (lo + hi) / 2
	t.compact(2*i+1, lo, mid)
	t.compact(2*i+2, mid, hi)
}

// Coarseness 回傳取樣點數 C。
func (t *Tree) Coarseness() int { return t.coarseness }

// Precision 回傳 rod 數 P。
func (t *Tree) Precision() int { return t.precision }

// LeafCount 回傳剪枝後存活的葉片數（<= C，平坦分布時遠小於 C）。
func (t *Tree) LeafCount() int { return len(t.dense) }

// LeftRods 回傳第 coarsenessIndex 個取樣點左側的完整 rod 數。
//
// 從原始葉位往根走到第一個標記葉；長段同值區間合併後，這趟通常一步就停。
// worst case O(log C)。
func (t *Tree) LeftRods(coarsenessIndex int) (int, error) {
	if coarsenessIndex < 0 || coarsenessIndex >= t.coarseness {
		return 0, errs.OutOfRangef("ctree: coarseness index %d outside [0,%d)", coarsenessIndex, t.coarseness)
	}
	i := coarsenessIndex + t.coarseness - 1
	for !t.leaf[i] {
		i = (i - 1) / 2
	}
	p, ok := t.posOf[i]
	if !ok {
		// compact 對每片存活葉都建了對照；走到這裡代表樹被外力破壞
		return 0, errs.Fatalf("ctree: surviving leaf %d missing from position map", i)
	}
	return t.dense[p], nil
}

// Search 回傳 left-rods 值恰等於 rod 的「最右」取樣點索引。
//
// dense 單調不減，二分搜尋找到平台後取平台最右的葉，
// 再換算回該葉涵蓋區段的最右取樣點。查無此值回傳 -1（rod 沒分到樣本）。
func (t *Tree) Search(rod int) (int, error) {
	if rod < 0 || rod >= t.precision {
		return -1, errs.OutOfRangef("ctree: rod %d outside [0,%d)", rod, t.precision)
	}
	i := sort.Search(len(t.dense), func(k int) bool { return t.dense[k] > rod }) - 1
	if i < 0 || t.dense[i] != rod {
		return -1, nil
	}
	return t.right[i], nil
}
