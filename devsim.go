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
	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/spec"
	"github.com/zintix-labs/pmflab/stats"
)

// DevSimulator
//
// 只提供給Dev模式使用的模擬器，單線(不併發)，重點在可審計、可重現：
// 每次掃描前後都保存 PRNG 快照，讓任何一段掃描可以從 before 快照
// 原封不動重放（RestoreSim）。
type DevSimulator struct {
	sim      *Simulator // 只開放Sim功能
	before   []byte
	after    []byte
	before64 string
	after64  string
}

// NewDevSimulator 依 setup ID 建立 Dev 模擬器，seed 由系統亂數決定。
func (p *Pmflab) NewDevSimulator(id spec.SID) (*DevSimulator, error) {
	s, err := p.NewSimulator(id)
	if err != nil {
		return nil, err
	}
	return &DevSimulator{sim: s}, nil
}

// NewDevSimulatorWithSeed 與 NewDevSimulator 相同，但由呼叫端指定初始 seed。
func (p *Pmflab) NewDevSimulatorWithSeed(id spec.SID, seed int64) (*DevSimulator, error) {
	s, err := p.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	return &DevSimulator{sim: s}, nil
}

// DevSimReport 是 Dev 掃描的回報：統計報告外加 before/after 快照，
// 快照讓這段掃描可以被逐位元重放與審計。
type DevSimReport struct {
	Before dto.CoreState       `json:"before"`
	After  dto.CoreState       `json:"after"`
	Stat   *stats.QualityReport `json:"statistic"`
}

// Sim 執行 sweeps 次掃描並回報統計與前後快照。
func (d *DevSimulator) Sim(sweeps int) (DevSimReport, error) {
	// 先存 before 快照
	c := d.sim.cBuf[0]
	be, err := c.Snapshot()
	if err != nil {
		return DevSimReport{}, err
	}
	d.before = be
	d.before64 = dto.NewCoreStateDTO(be).SnapB64U

	if sweeps < 1 || sweeps > 3_000_000 {
		return DevSimReport{}, errs.NewWarn("sweeps must be between 1 and 3,000,000")
	}
	stat, _, err := d.sim.Sim(sweeps, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := c.Snapshot()
	if err != nil {
		return DevSimReport{}, err
	}
	d.after = af
	d.after64 = dto.NewCoreStateDTO(af).SnapB64U

	return DevSimReport{
		Before: dto.NewCoreStateDTO(be),
		After:  dto.NewCoreStateDTO(af),
		Stat:   stat,
	}, nil
}

// RestoreSim 先把 PRNG 還原到 be64 的快照狀態再掃描，
// 給定相同的快照與 sweeps，結果必定與當初那段掃描一致。
func (d *DevSimulator) RestoreSim(be64 string, sweeps int) (DevSimReport, error) {
	// 反解析 string -> []byte
	cs := &dto.CoreState{SnapB64U: be64}
	be, err := cs.Decode()
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode snapshot failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.cBuf[0].Restore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Sim(sweeps)
}
