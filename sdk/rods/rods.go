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

// Package rods 實作等質量貪婪分段 (equal-mass greedy partitioning)。
//
// 一個 rod 是一段「連續」的曲線樣本，其質量總和逼近 total/precision。
// precision 個 rods 恰好把 [0, len(curve)) 切成連續不重疊的區塊。
//
// 演算法原理：
//   - 第 i 個 rod 的目標累積質量為 (i+1) * total / precision。
//   - 只要把下一個樣本收進目前的 rod 能「嚴格縮短」與目標的距離就收；
//     第一個會拉遠或打平距離的樣本留給下一個 rod。
//   - 最後一個 rod 無條件吸收所有剩餘樣本，保證沒有樣本被丟棄。
//
// 特性：
//   - 時間複雜度：O(len(curve))，單趟掃描。
//   - 輸出保證非負且總和恰等於 len(curve)。
//   - 某個 rod 可能分到 0 個樣本（目標間距小於單一樣本質量時），
//     這是逼近誤差的已知邊界情況，不是錯誤。

package rods

import (
	"math"

	"github.com/zintix-labs/pmflab/errs"
)

// Allocate 把 curve 切成 precision 個連續 rod，回傳每個 rod 的樣本數。
//
// total 應為 curve 所有樣本的總和（由重取樣階段一併算出，避免重複掃描）。
//
// 前置條件（違反回傳 invalid_input）：
//   - precision >= 1
//   - len(curve) >= 1
func Allocate(curve []float64, total float64, precision int) ([]int, error) {
	if precision < 1 {
		return nil, errs.InvalidInputf("rods: precision must be >= 1, got %d", precision)
	}
	if len(curve) == 0 {
		return nil, errs.NewInvalidInput("rods: curve is empty")
	}

	counts := make([]int, precision)
	idx := 0
	run := 0.0
	for rod := 0; rod < precision; rod++ {
		if rod == precision-1 {
			// 最後一個 rod 吸收所有剩餘樣本，不看距離
			counts[rod] = len(curve) - idx
			break
		}

		target := float64(rod+1) * total / float64(precision)
		n := 0
		for idx < len(curve) {
			next := run + curve[idx]
			// 嚴格縮短距離才收；打平或拉遠就封口
			if math.Abs(next-target) >= math.Abs(run-target) {
				break
			}
			run = next
			idx++
			n++
		}
		counts[rod] = n
	}
	return counts, nil
}
