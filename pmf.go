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
	"github.com/zintix-labs/pmflab/sdk/core"
	"github.com/zintix-labs/pmflab/sdk/ctree"
	"github.com/zintix-labs/pmflab/sdk/resample"
	"github.com/zintix-labs/pmflab/sdk/rods"
	"github.com/zintix-labs/pmflab/sdk/sampler"
)

// ProbabilityMassFunction 是逼近結構對外的雙向查詢介面。
//
// 兩個查詢互為對偶：
//   - GetPrecision(c)：取樣點 c 左側有幾根完整的 rod，等同於涵蓋 c 的
//     rod 索引（0 <= 回傳值 < P）。
//   - GetCoarseness(r)：rod r 涵蓋的「最右」取樣點索引；該 rod 沒有分到任何
//     取樣點時回傳 -1（哨兵值，不是錯誤）。
//
// 索引超出 [0, C) / [0, P) 範圍屬於呼叫端錯誤，回傳 out_of_range 錯誤。
// 實作在建構完成後皆為唯讀，多 goroutine 併發查詢不需要同步。
type ProbabilityMassFunction interface {
	GetPrecision(coarseness int) (int, error)
	GetCoarseness(rod int) (int, error)
	// Coarseness 回傳取樣點數 C。
	Coarseness() int
	// Precision 回傳 rod 數 P。
	Precision() int
}

// ConcretePMF 是由實際質量函數建出的逼近結構。
//
// 建構管線（一次性、不可變）：
//  1. resample：把長度 L 的質量函數線性內插重取樣成 C 個等距樣本。
//  2. rods：以貪婪演算法把 C 個樣本切成 P 根質量近似相等的 rod。
//  3. ctree：把 rod 邊界壓進剪枝完全二元樹，支援雙向 O(log C) 查詢。
type ConcretePMF struct {
	tree *ctree.Tree
	at   *sampler.AliasTable
}

var _ ProbabilityMassFunction = (*ConcretePMF)(nil)

// NewConcretePMF 由原始質量函數建構逼近結構。
//
// 輸入合約（違反回傳 invalid_input）：
//   - mass 長度 >= 2，且所有質量為有限非負值。
//   - coarseness >= 1 且為 2 的冪次。
//   - precision >= 1。
func NewConcretePMF(mass []float64, coarseness, precision int) (*ConcretePMF, error) {
	curve, total, err := resample.Resample(mass, coarseness)
	if err != nil {
		return nil, err
	}
	counts, err := rods.Allocate(curve, total, precision)
	if err != nil {
		return nil, err
	}
	t, err := ctree.Build(counts, coarseness)
	if err != nil {
		return nil, err
	}
	return &ConcretePMF{
		tree: t,
		at:   sampler.BuildAliasTable(counts),
	}, nil
}

// GetPrecision 回傳取樣點 coarseness 左側的 rod 數。
func (p *ConcretePMF) GetPrecision(coarseness int) (int, error) {
	return p.tree.LeftRods(coarseness)
}

// GetCoarseness 回傳 rod 涵蓋的最右取樣點索引，無樣本時回傳 -1。
func (p *ConcretePMF) GetCoarseness(rod int) (int, error) {
	return p.tree.Search(rod)
}

func (p *ConcretePMF) Coarseness() int { return p.tree.Coarseness() }

func (p *ConcretePMF) Precision() int { return p.tree.Precision() }

// LeafCount 回傳剪枝後存活的葉數，僅供分析/報表使用。
func (p *ConcretePMF) LeafCount() int { return p.tree.LeafCount() }

// DrawRod 依 rod 的樣本數為權重抽出一個 rod 索引（O(1)，alias method）。
//
// rod r 被抽中的機率是 count(r)/C，也就是逼近結構眼中 rod r 所涵蓋的
// 質量占比；零樣本的 rod 永遠不會被抽中。抽樣表在建構時就建好，
// DrawRod 本身不可變，多 goroutine 併發呼叫只需各自持有自己的 core。
func (p *ConcretePMF) DrawRod(c *core.Core) int {
	return p.at.Pick(c)
}
