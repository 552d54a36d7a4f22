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

import "github.com/zintix-labs/pmflab/errs"

// UniformPMF 是平坦質量函數的閉式解實作。
//
// 平坦輸入重取樣後仍是平坦曲線，貪婪切割會把 C 個樣本盡量均分給 P 根 rod，
// 所以兩個查詢都有整數算式解，不需要建樹：
//   - GetPrecision(c) = floor(c*P/C)
//   - GetCoarseness(r) = ceil((r+1)*C/P) - 1，但當該 rod 沒分到樣本時回傳 -1。
//
// C < P 時部分 rod 會是空的（與 ConcretePMF 在平坦輸入下的行為一致）。
type UniformPMF struct {
	coarseness int
	precision  int
}

var _ ProbabilityMassFunction = (*UniformPMF)(nil)

// NewUniformPMF 建立閉式解的平坦逼近結構。
// 輸入合約與 ConcretePMF 相同：coarseness >= 1 且為 2 的冪次，precision >= 1。
func NewUniformPMF(coarseness, precision int) (*UniformPMF, error) {
	if coarseness < 1 {
		return nil, errs.InvalidInputf("uniform: coarseness must be >= 1, got %d", coarseness)
	}
	if coarseness&(coarseness-1) != 0 {
		return nil, errs.InvalidInputf("uniform: coarseness must be a power of two, got %d", coarseness)
	}
	if precision < 1 {
		return nil, errs.InvalidInputf("uniform: precision must be >= 1, got %d", precision)
	}
	return &UniformPMF{coarseness: coarseness, precision: precision}, nil
}

// GetPrecision 回傳涵蓋取樣點 coarseness 的 rod 索引。
func (u *UniformPMF) GetPrecision(coarseness int) (int, error) {
	if coarseness < 0 || coarseness >= u.coarseness {
		return 0, errs.OutOfRangef("uniform: coarseness index %d outside [0,%d)", coarseness, u.coarseness)
	}
	return coarseness * u.precision / u.coarseness, nil
}

// GetCoarseness 回傳 rod 涵蓋的最右取樣點索引，無樣本時回傳 -1。
func (u *UniformPMF) GetCoarseness(rod int) (int, error) {
	if rod < 0 || rod >= u.precision {
		return -1, errs.OutOfRangef("uniform: rod %d outside [0,%d)", rod, u.precision)
	}
	// 最右候選點：rod 邊界 (r+1)*C/P 向上取整再退一格
	k := ((rod+1)*u.coarseness+u.precision-1)/u.precision - 1
	if k*u.precision/u.coarseness != rod {
		// C < P 時這根 rod 沒分到任何取樣點
		return -1, nil
	}
	return k, nil
}

func (u *UniformPMF) Coarseness() int { return u.coarseness }

func (u *UniformPMF) Precision() int { return u.precision }
