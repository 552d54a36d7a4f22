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

// Package massgen 合成測試/模擬用的質量函數。
//
// 質量函數的合約：長度 L >= 2 的非負浮點序列，第 k 點代表定義域 [0,1)
// 中點 (2k+1)/(2L) 上的質量。本包在這些中點上取各種標準分布的密度值，
// 產生「形狀已知」的合成輸入，讓模擬器可以拿解析解對照逼近結果。
//
// 形狀一律以 gonum 的 distuv 密度計算；質量不需要正規化
// （下游結構只看相對質量，總和由重取樣階段自行累計）。

package massgen

import (
	"strings"

	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/sdk/core"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shape 列舉內建的分布形狀
type Shape uint8

const (
	ShapeUniform Shape = iota
	ShapeNormal
	ShapeBeta
	ShapeExponential
	ShapeBimodal
)

var shapeNames = map[Shape]string{
	ShapeUniform:     "uniform",
	ShapeNormal:      "normal",
	ShapeBeta:        "beta",
	ShapeExponential: "exponential",
	ShapeBimodal:     "bimodal",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseShape 解析設定檔中的形狀名稱（大小寫不敏感）。
func ParseShape(name string) (Shape, error) {
	for s, n := range shapeNames {
		if strings.EqualFold(name, n) {
			return s, nil
		}
	}
	return ShapeUniform, errs.InvalidInputf("massgen: unknown shape %q", name)
}

// Params 是形狀參數。各形狀的解讀：
//   - uniform:      不使用
//   - normal:       P1=Mu(預設0.5) P2=Sigma(預設0.15)
//   - beta:         P1=Alpha(預設2) P2=Beta(預設5)
//   - exponential:  P1=Rate(預設4)
//   - bimodal:      P1/P2 為兩峰中心(預設0.25/0.75)，峰寬固定0.08
type Params struct {
	P1 float64
	P2 float64
}

// Generate 在 length 個定義域中點上取密度，產生合成質量函數。
//
// 前置條件：length >= 2（質量函數的最低長度合約）。
func Generate(shape Shape, length int, p Params) ([]float64, error) {
	if length < 2 {
		return nil, errs.InvalidInputf("massgen: length must be >= 2, got %d", length)
	}

	eval, err := density(shape, p)
	if err != nil {
		return nil, err
	}

	mass := make([]float64, length)
	for k := 0; k < length; k++ {
		x := float64(2*k+1) / (2.0 * float64(length))
		mass[k] = eval(x)
	}
	return mass, nil
}

func density(shape Shape, p Params) (func(float64) float64, error) {
	switch shape {
	case ShapeUniform:
		return func(float64) float64 { return 1.0 }, nil

	case ShapeNormal:
		mu, sigma := deff(p.P1, 0.5), deff(p.P2, 0.15)
		if sigma <= 0 {
			return nil, errs.InvalidInputf("massgen: normal sigma must be > 0, got %v", sigma)
		}
		d := distuv.Normal{Mu: mu, Sigma: sigma}
		return d.Prob, nil

	case ShapeBeta:
		alpha, beta := deff(p.P1, 2), deff(p.P2, 5)
		if alpha <= 0 || beta <= 0 {
			return nil, errs.InvalidInputf("massgen: beta params must be > 0, got alpha=%v beta=%v", alpha, beta)
		}
		d := distuv.Beta{Alpha: alpha, Beta: beta}
		return d.Prob, nil

	case ShapeExponential:
		rate := deff(p.P1, 4)
		if rate <= 0 {
			return nil, errs.InvalidInputf("massgen: exponential rate must be > 0, got %v", rate)
		}
		d := distuv.Exponential{Rate: rate}
		return d.Prob, nil

	case ShapeBimodal:
		c1, c2 := deff(p.P1, 0.25), deff(p.P2, 0.75)
		a := distuv.Normal{Mu: c1, Sigma: 0.08}
		b := distuv.Normal{Mu: c2, Sigma: 0.08}
		return func(x float64) float64 { return 0.5*a.Prob(x) + 0.5*b.Prob(x) }, nil

	default:
		return nil, errs.InvalidInputf("massgen: unknown shape %d", shape)
	}
}

// deff 參數設 0 視為「用預設值」
func deff(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Jitter 對每個質量點乘上 (1 + amp*(U-0.5)) 的隨機擾動，U ~ [0,1)。
// amp 建議落在 [0,1]；擾動後仍保證非負。模擬器用它把「形狀已知」的
// 輸入變成一整族近似輸入，掃出逼近誤差的分布而不是單點。
func Jitter(c *core.Core, mass []float64, amp float64) []float64 {
	if amp <= 0 {
		out := make([]float64, len(mass))
		copy(out, mass)
		return out
	}
	out := make([]float64, len(mass))
	for i, v := range mass {
		f := v * (1 + amp*(c.Float64()-0.5))
		if f < 0 {
			f = 0
		}
		out[i] = f
	}
	return out
}
