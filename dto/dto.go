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

package dto

import (
	"time"

	"github.com/zintix-labs/pmflab/catalog"
	"github.com/zintix-labs/pmflab/corefmt"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/spec"
	"github.com/zintix-labs/pmflab/stats"
)

// SetupSummary 為對外輸出的 catalog.Summary 序列化結構。
type SetupSummary struct {
	SetupId    spec.SID `json:"sid"`
	SetupName  string   `json:"setup"`
	Shape      string   `json:"shape"`
	Length     int      `json:"length"`
	Coarseness int      `json:"coarseness"`
	Precision  int      `json:"precision"`
}

func NewSetupSummaryDTO(sum []catalog.Summary) []SetupSummary {
	out := make([]SetupSummary, len(sum))
	for i, s := range sum {
		out[i] = SetupSummary{
			SetupId:    s.SID,
			SetupName:  s.Name,
			Shape:      s.Shape,
			Length:     s.Length,
			Coarseness: s.Coarseness,
			Precision:  s.Precision,
		}
	}
	return out
}

// QueryResult 單次查詢的結果。
//
// Query 是呼叫端送入的索引（coarseness 取樣點或 rod 編號，依端點而定），
// Value 是查詢結果；找不到最右取樣點時 Value 為 -1（合法輸出，非錯誤）。
type QueryResult struct {
	SetupName  string   `json:"setup"`
	SetupId    spec.SID `json:"sid"`
	Coarseness int      `json:"coarseness"`
	Precision  int      `json:"precision"`
	Query      int      `json:"query"`
	Value      int      `json:"value"`
}

// BuildResult 回報一次結構建置的維度與壓縮成果。
type BuildResult struct {
	SetupName  string   `json:"setup"`
	SetupId    spec.SID `json:"sid"`
	Shape      string   `json:"shape"`
	Coarseness int      `json:"coarseness"`
	Precision  int      `json:"precision"`
	Leaves     int      `json:"leaves,omitempty"`   // 閉式解版本沒有樹，輸出 0
	ClosedForm bool     `json:"closed_form"`        // true 表示走 uniform 閉式解
}

// SimResult 包裝模擬統計報告與執行資訊。
type SimResult struct {
	Report *stats.QualityReport `json:"report"`
	UsedMs int64                `json:"used_ms"`
	Seed   int64                `json:"seed,omitempty"`
}

func NewSimResultDTO(rep *stats.QualityReport, used time.Duration, seed int64) (SimResult, error) {
	if rep == nil {
		return SimResult{}, errs.NewWarn("quality report is nil")
	}
	return SimResult{
		Report: rep,
		UsedMs: used.Milliseconds(),
		Seed:   seed,
	}, nil
}

// CoreState 是 RNG 核心快照的傳輸格式（dev 端點用）。
//
// SnapB64U 為 URL-safe base64 後的快照位元組；引擎只接受自己輸出的快照。
type CoreState struct {
	SnapB64U string `json:"snap_b64u"`
}

func NewCoreStateDTO(snap []byte) CoreState {
	return CoreState{SnapB64U: corefmt.EncodeBase64URL(snap)}
}

func (cs *CoreState) Decode() ([]byte, error) {
	if cs == nil || cs.SnapB64U == "" {
		return nil, errs.NewWarn("core snap is required")
	}
	snap, err := corefmt.DecodeBase64URL(cs.SnapB64U)
	if err != nil {
		return nil, errs.NewWarn("core snap decode failed " + err.Error())
	}
	return snap, nil
}
