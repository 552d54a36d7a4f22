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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/spec"
)

// 防止 body 過大（預設 1MiB）
const maxBody = 1 << 20

// QueryRequest 是查詢端點的輸入。
//
// Setup 的指定方式：sid 與 setup 擇一，同時提供時以 sid 為準。
// Value 的語意依端點而定：precision 端點收 coarseness 取樣點索引，
// coarseness 端點收 rod 編號。
type QueryRequest struct {
	SetupName string   `json:"setup"` // setup 名稱（與 sid 擇一）
	SetupId   spec.SID `json:"sid"`   // setup 唯一鍵
	HasId     bool     `json:"has_id,omitempty"`
	Value     int      `json:"value"` // 查詢索引
	// Contract（避免 sid=0 的雙重語意）：
	//   - 若 has_id 為 false（或未提供），以 setup 名稱查找；sid 必須省略。
	//   - 若 has_id 為 true，以 sid 查找；sid 若省略則視為 0。
}

// DecodeQueryRequest 會把 HTTP 請求解碼成 QueryRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（setup/sid/value）。
//   - POST：從 JSON body 反序列化。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何合法性校驗；
//     合法性（例如該 SID 是否存在、value 是否在界內）由上層決定。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeQueryRequest(r *http.Request) (*QueryRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(QueryRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.SetupName = q.Get("setup")

		if s := q.Get("sid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid sid: %v", err))
			}
			req.SetupId = spec.SID(u)
			req.HasId = true
		}

		if s := q.Get("value"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid value: %v", err))
			}
			req.Value = v
		}

		return req, nil

	case http.MethodPost:
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
		}
		if !req.HasId && req.SetupId != 0 {
			return nil, errs.NewWarn("has_id is false but sid is not zero")
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// SimRequest 是模擬端點的輸入。
//
// Seed / HasSeed Contract（避免 seed=0 的雙重語意）：
//   - 若 has_seed 為 false（或未提供），則 seed 必須省略；否則視為 request 格式錯誤。
//     此時由系統亂數決定初始 seed。
//   - 若 has_seed 為 true，則以 seed 為初始種子；seed 若省略則視為 0。
//
// 帶入相同的 seed 與相同的 setup 可完整重現一批掃描的統計結果（回放）。
type SimRequest struct {
	SetupName string   `json:"setup"`
	SetupId   spec.SID `json:"sid"`
	HasId     bool     `json:"has_id,omitempty"`
	Sweeps    int      `json:"sweeps"`             // 0 表示採用設定檔的預設值
	Workers   int      `json:"workers,omitempty"`  // 0 或 1 表示單線
	Seed      int64    `json:"seed,omitempty"`
	HasSeed   bool     `json:"has_seed,omitempty"`
}

// DecodeSimRequest 把 HTTP 請求解碼成 SimRequest，規則同 DecodeQueryRequest。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(SimRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.SetupName = q.Get("setup")

		if s := q.Get("sid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid sid: %v", err))
			}
			req.SetupId = spec.SID(u)
			req.HasId = true
		}

		if s := q.Get("sweeps"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid sweeps: %v", err))
			}
			req.Sweeps = v
		}

		if s := q.Get("workers"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid workers: %v", err))
			}
			req.Workers = v
		}

		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = v
			req.HasSeed = true
		}

		return req, nil

	case http.MethodPost:
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
		}
		if !req.HasSeed && req.Seed != 0 {
			return nil, errs.NewWarn("has_seed is false but seed is not zero")
		}
		if !req.HasId && req.SetupId != 0 {
			return nil, errs.NewWarn("has_id is false but sid is not zero")
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// ReadBuildBody 讀出 ad-hoc 建置端點的原始 body（setup 設定 JSON），
// 嚴格解析交給 spec.GetPmfSettingByJSON。只支援 POST。
func ReadBuildBody(r *http.Request) ([]byte, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("read body failed: %v", err))
	}
	return raw, nil
}
