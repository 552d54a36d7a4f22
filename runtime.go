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
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/spec"
)

// QueryRuntime 是查詢面的 data-plane：catalog 內每個 setup 各建好一份
// 逼近結構，常駐記憶體供高併發查詢。
//
// 並發語意：
//   - 建好的結構是唯讀的（查詢不改內部狀態），因此多 goroutine 可同時查
//     同一份結構，不需要借還或上鎖。
//   - lifecycle（done/closeOnce/reason）沿用與其他長生命週期元件相同的
//     關閉合約：Close 之後所有查詢直接回 Fatal。
type QueryRuntime struct {
	// build-time 來源（只讀引用）
	pb *Pmflab

	// data-plane：每個 setup 一份結構
	pmfs map[spec.SID]ProbabilityMassFunction
	meta map[spec.SID]spec.PmfSetting // 供回應帶 name/dimension
	ids  []spec.SID                   // 固定順序，用於觀測/列舉

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// 觀測
	queries atomic.Int64
}

// BuildRuntime 把 catalog 內所有 setup 的結構一次建好（fail-fast）。
//
// 進入 runtime 前 catalog 必須 Freeze；這裡會主動 Freeze 以保證不變。
func (p *Pmflab) BuildRuntime() (*QueryRuntime, error) {
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no setups registered")
	}

	rt := &QueryRuntime{
		pb:   p,
		pmfs: make(map[spec.SID]ProbabilityMassFunction, len(ids)),
		meta: make(map[spec.SID]spec.PmfSetting, len(ids)),
		ids:  ids,
		done: make(chan struct{}),
	}
	rt.reason.Store("")

	for _, id := range ids {
		ps, err := p.cat.PmfSettingById(id)
		if err != nil {
			return nil, err
		}
		pmf, err := buildFromSetting(ps)
		if err != nil {
			return nil, errs.Wrap(err, "build runtime pmf failed: "+ps.SetupName)
		}
		rt.pmfs[id] = pmf
		rt.meta[id] = *ps
	}
	return rt, nil
}

// Precision 查 coarseness 取樣點 c 落在哪根 rod（GetPrecision）。
func (rt *QueryRuntime) Precision(ctx context.Context, id spec.SID, c int) (dto.QueryResult, error) {
	pmf, meta, err := rt.resolve(ctx, id)
	if err != nil {
		return dto.QueryResult{}, err
	}
	v, err := pmf.GetPrecision(c)
	if err != nil {
		return dto.QueryResult{}, err
	}
	rt.queries.Add(1)
	return dto.QueryResult{
		SetupName:  meta.SetupName,
		SetupId:    id,
		Coarseness: pmf.Coarseness(),
		Precision:  pmf.Precision(),
		Query:      c,
		Value:      v,
	}, nil
}

// Coarseness 查 rod r 的最右取樣點（GetCoarseness）；-1 表示空 rod。
func (rt *QueryRuntime) Coarseness(ctx context.Context, id spec.SID, r int) (dto.QueryResult, error) {
	pmf, meta, err := rt.resolve(ctx, id)
	if err != nil {
		return dto.QueryResult{}, err
	}
	v, err := pmf.GetCoarseness(r)
	if err != nil {
		return dto.QueryResult{}, err
	}
	rt.queries.Add(1)
	return dto.QueryResult{
		SetupName:  meta.SetupName,
		SetupId:    id,
		Coarseness: pmf.Coarseness(),
		Precision:  pmf.Precision(),
		Query:      r,
		Value:      v,
	}, nil
}

// ResolveId 把 setup 名稱換成 SID（大小寫不敏感）。
func (rt *QueryRuntime) ResolveId(name string) (spec.SID, bool) {
	ent, ok := rt.pb.EntryByName(name)
	if !ok {
		return 0, false
	}
	return ent.SID, true
}

// IDs 回傳固定順序的 setup 列表（觀測/列舉用）。
func (rt *QueryRuntime) IDs() []spec.SID {
	return rt.ids
}

// Queries 回傳累計服務過的查詢次數。
func (rt *QueryRuntime) Queries() int64 {
	return rt.queries.Load()
}

func (rt *QueryRuntime) resolve(ctx context.Context, id spec.SID) (ProbabilityMassFunction, spec.PmfSetting, error) {
	select {
	case <-ctx.Done():
		// 保留 cause，讓 HTTP 邊界層能以 errors.Is 辨認 timeout/cancel
		e := errs.NewWarn("query canceled/timeout")
		e.Cause = ctx.Err()
		return nil, spec.PmfSetting{}, e
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return nil, spec.PmfSetting{}, errs.NewFatal("query runtime closed: " + rt.ClosedReason())
	default:
	}

	pmf, ok := rt.pmfs[id]
	if !ok {
		return nil, spec.PmfSetting{}, errs.NewNotFound("setup id not found")
	}
	return pmf, rt.meta[id], nil
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *QueryRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *QueryRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *QueryRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *QueryRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
