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
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 掃描品質評估（跨多個 worker 報告的彙整視角）
type EstimatorSweeps struct {
	ErrStat      ErrStat
	EmptyRodStat PointStat // 空 rod 比例
	CleanStat    PointStat // 無一致性違規的掃描比例
}

// 質量偏差敘事
type ErrStat struct {
	ErrMedian PointStat // 描述偏差的中位數
	ErrPerc   ErrPerc   // 描述偏差的分布
}

// 偏差分位數視角：最差10%掃描的偏差、最差33%掃描的偏差 ...
type ErrPerc struct {
	ErrP10 PointStat
	ErrP67 PointStat
	ErrP90 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// ============================================================
// ** 對外 : 掃描品質評估 **
// ============================================================

// EstimatorQuality 掃描品質評估
//
// 1. Err 敘事 : 描述各 worker 的平均質量偏差分布（中位數與尾端分位）
//
// 2. EmptyRod 敘事 : 描述空 rod 出現的機率（Clopper-Pearson 95% CI）
//
// 3. Clean 敘事 : 描述完全沒有一致性違規的報告比例
func EstimatorQuality(sts []*QualityReport) *EstimatorSweeps {
	// 0. 防禦：空輸入
	n := len(sts)
	out := &EstimatorSweeps{}
	if n == 0 {
		return out
	}

	// ------------------------------------------------------------
	// 1) Err 敘事：收集每份報告的平均偏差並做分位/CI
	// ------------------------------------------------------------
	errs := make([]float64, n)
	for i, s := range sts {
		errs[i] = s.MeanErr()
	}

	medHat := quantilePoint(errs, 0.5)
	medLo, medHi := quantileCI(errs, 0.5, 0.95)

	p10Hat := quantilePoint(errs, 0.10)
	p10Lo, p10Hi := quantileCI(errs, 0.10, 0.95)

	p67Hat := quantilePoint(errs, 2.0/3.0)
	p67Lo, p67Hi := quantileCI(errs, 2.0/3.0, 0.95)

	p90Hat := quantilePoint(errs, 0.90)
	p90Lo, p90Hi := quantileCI(errs, 0.90, 0.95)

	out.ErrStat = ErrStat{
		ErrMedian: PointStat{Hat: medHat, CI: CI{Lo: medLo, Hi: medHi}},
		ErrPerc: ErrPerc{
			ErrP10: PointStat{Hat: p10Hat, CI: CI{Lo: p10Lo, Hi: p10Hi}},
			ErrP67: PointStat{Hat: p67Hat, CI: CI{Lo: p67Lo, Hi: p67Hi}},
			ErrP90: PointStat{Hat: p90Hat, CI: CI{Lo: p90Lo, Hi: p90Hi}},
		},
	}

	// ------------------------------------------------------------
	// 2) EmptyRod 敘事：所有報告的空 rod 總數 / rod 總量
	// ------------------------------------------------------------
	var emptyK, rodN int
	for _, s := range sts {
		emptyK += s.Summary.EmptyRods
		rodN += s.Summary.Sweeps * s.Summary.Precision
	}
	emptyHat, emptyCI := proportionCICP(emptyK, rodN, 0.95)
	out.EmptyRodStat = PointStat{Hat: emptyHat, CI: emptyCI}

	// ------------------------------------------------------------
	// 3) Clean 敘事：完全沒有違規的報告比例
	// ------------------------------------------------------------
	cleanK := 0
	for _, s := range sts {
		if s.Summary.Violations == 0 {
			cleanK++
		}
	}
	cleanHat, cleanCI := proportionCICP(cleanK, n, 0.95)
	out.CleanStat = PointStat{Hat: cleanHat, CI: cleanCI}

	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorSweeps) Out() {
	// 1) Mass error across workers
	fmt.Println("=== Mass Error (per worker mean) ===")
	errKeys := []string{
		"Median Err",
		"P10 Err",
		"P67 Err",
		"P90 Err",
	}
	errMsg := map[string]string{
		"Median Err": fmtHatCIpct01(est.ErrStat.ErrMedian.Hat, est.ErrStat.ErrMedian.CI),
		"P10 Err":    fmtHatCIpct01(est.ErrStat.ErrPerc.ErrP10.Hat, est.ErrStat.ErrPerc.ErrP10.CI),
		"P67 Err":    fmtHatCIpct01(est.ErrStat.ErrPerc.ErrP67.Hat, est.ErrStat.ErrPerc.ErrP67.CI),
		"P90 Err":    fmtHatCIpct01(est.ErrStat.ErrPerc.ErrP90.Hat, est.ErrStat.ErrPerc.ErrP90.CI),
	}
	printTable("Mass Error (per worker mean)", errKeys, errMsg)

	// 2) Structural outcomes
	fmt.Println("\n=== Structure ===")
	structKeys := []string{"Empty Rods", "Clean Reports"}
	structMsg := map[string]string{
		"Empty Rods":    fmtHatCIpct01(est.EmptyRodStat.Hat, est.EmptyRodStat.CI),
		"Clean Reports": fmtHatCIpct01(est.CleanStat.Hat, est.CleanStat.CI),
	}
	printTable("Structure", structKeys, structMsg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
