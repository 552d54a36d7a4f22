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

// Package resample 提供質量函數的重取樣工具。
//
// 本檔案 (resample.go) 實作了「任意長度 → 固定長度」的線性插值重取樣。
//
// 演算法原理：
//   - 輸入為 L 個等距中點上的質量值（中點位於 (2k+1)/(2L)，k = 0..L-1）。
//   - 目標為 C 個等距中點 i/(2C)，i = 1,3,...,2C-1。
//   - 用一個只會前進的視窗 [low, low+1] 掃過輸入，對每個目標點
//     以視窗兩端的斜率作線性插值。
//
// 特性：
//   - 時間複雜度：O(L + C)，視窗單調前進、不回頭。
//   - 目標點恰好落在輸入中點上時，插值結果化簡為該中點的原始值。
//   - 首尾目標點（沒有左/右鄰居）由視窗邊界自然處理：
//     視窗停在 [0,1] 或 [L-2,L-1] 時即為邊界外插，對線性資料仍為精確值。
//
// 適用場景：
//   - 把任意取樣密度的離散分布壓到固定的樣本數，供後續等質量分段使用。

package resample

import (
	"math"

	"github.com/zintix-labs/pmflab/errs"
)

// Resample 將長度 L 的質量函數重取樣為恰好 coarseness 個樣本。
//
// 回傳值：
//   - curve：長度 coarseness 的重取樣結果（目標中點上的插值）。
//   - total：curve 所有樣本的累加總和，供等質量分段計算目標值。
//
// 前置條件（違反回傳 invalid_input）：
//   - len(mass) >= 2：至少要有兩個點才構成斜率。
//   - coarseness >= 1。
//   - 所有質量值必須為有限且非負的數。
func Resample[T Floaters](mass []T, coarseness int) (curve []float64, total float64, err error) {
	l := len(mass)
	if l < 2 {
		return nil, 0, errs.InvalidInputf("resample: mass function needs >= 2 points, got %d", l)
	}
	if coarseness < 1 {
		return nil, 0, errs.InvalidInputf("resample: coarseness must be >= 1, got %d", coarseness)
	}
	for i, v := range mass {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, 0, errs.InvalidInputf("resample: mass[%d] = %v is not a finite non-negative value", i, f)
		}
	}

	curve = make([]float64, 0, coarseness)
	denom := 2.0 * float64(coarseness)
	scale := float64(l)

	// 視窗 [low, high]，high 恆為 low+1，且 high 永不超過 l-1。
	low, high := 0, 1
	for i := 1; i < 2*coarseness; i += 2 {
		x := float64(i) / denom

		// 視窗自身的中點落在 x 或 x 之前就前進；跨越多個目標點時視窗沿用上次位置。
		for high < l-1 && midpoint(low, l) <= x {
			low++
			high++
		}

		slope := (float64(mass[high]) - float64(mass[low])) * scale
		v := slope*(x-midpoint(low, l)) + float64(mass[low])
		curve = append(curve, v)
		total += v
	}
	return curve, total, nil
}

// midpoint 回傳輸入第 k 點的定義域中點 (2k+1)/(2L)。
func midpoint(k, l int) float64 {
	return float64(2*k+1) / (2.0 * float64(l))
}
