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
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/recorder"
	"github.com/zintix-labs/pmflab/sdk/core"
	"github.com/zintix-labs/pmflab/sdk/ctree"
	"github.com/zintix-labs/pmflab/sdk/massgen"
	"github.com/zintix-labs/pmflab/sdk/resample"
	"github.com/zintix-labs/pmflab/sdk/rods"
	"github.com/zintix-labs/pmflab/spec"
	"github.com/zintix-labs/pmflab/stats"
)

const capPrepare int = 100

// Simulator 用於掃描逼近品質：對同一個 setup 反覆擾動質量函數、
// 重建結構並量測偏差，可平行執行多個 worker 並合併統計。
type Simulator struct {
	SetupName string             // setup 名稱
	SetupId   spec.SID           // setup 唯一鍵
	ps        *spec.PmfSetting   // 方便重用建立 recorder
	shape     massgen.Shape      // 解析後的形狀
	baseMass  []float64          // 形狀合成的基準質量函數（擾動前）
	cf        core.PRNGFactory   // 亂數生成器
	initSeed  int64              // 初始下的種子
	seedmaker *seedMaker         // 種子生成器
	cBuf      []*core.Core       // 併發執行亂數核心
	rBuf      []*recorder.SweepRecorder // 併發掃描紀錄員
}

func newSimulator(ps *spec.PmfSetting, cf core.PRNGFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps, cf, seed.Int64())
}

func newSimulatorWithSeed(ps *spec.PmfSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	shape, err := massgen.ParseShape(ps.Shape.Name)
	if err != nil {
		return nil, err
	}
	baseMass, err := massgen.Generate(shape, ps.Length, massgen.Params{P1: ps.Shape.P1, P2: ps.Shape.P2})
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		SetupName: ps.SetupName,
		SetupId:   ps.SetupID,
		ps:        ps,
		shape:     shape,
		baseMass:  baseMass,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		cBuf:      make([]*core.Core, 1, capPrepare),
		rBuf:      make([]*recorder.SweepRecorder, 0, capPrepare),
	}
	s.cBuf[0] = core.New(cf.New(s.initSeed))
	return s, nil
}

// Sim 單線模擬器：連續跑指定 sweeps 並回傳統計結果與用時
func (s *Simulator) Sim(sweeps int, showpb bool) (*stats.QualityReport, time.Duration, error) {
	defer s.reset()
	if sweeps < 1 {
		return nil, 0, errs.NewWarn("sweeps must > 0")
	}
	if len(s.rBuf) == 0 {
		r, err := recorder.NewSweepRecorder(s.SetupName, s.SetupId, s.ps.Shape.Name, s.ps.Length, s.ps.Coarseness, s.ps.Precision)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	r := s.rBuf[0]
	c := s.cBuf[0]

	bar := pb.StartNew(sweeps)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < sweeps; i++ {
		sr, err := s.sweep(c)
		if err != nil {
			bar.Finish()
			return nil, 0, err
		}
		r.Record(sr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個 worker，總計 sweeps*mp 次掃描，合併統計結果後 回傳統計結果與用時
func (s *Simulator) SimMP(sweeps int, mp int, showpb bool) (*stats.QualityReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if sweeps < 1 {
		return nil, 0, errs.NewWarn("sweeps must > 0")
	}
	for len(s.cBuf) < mp {
		s.cBuf = append(s.cBuf, core.New(s.cf.New(s.seedmaker.next())))
	}

	for len(s.rBuf) < mp {
		r, err := recorder.NewSweepRecorder(s.SetupName, s.SetupId, s.ps.Shape.Name, s.ps.Length, s.ps.Coarseness, s.ps.Precision)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	errBuf := make([]error, mp)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(sweeps * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			c := s.cBuf[i]
			st := s.rBuf[i]
			for r := 0; r < sweeps; r++ {
				sr, err := s.sweep(c)
				if err != nil {
					errBuf[i] = err
					return
				}
				st.Record(sr)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	for _, err := range errBuf {
		if err != nil {
			return nil, 0, err
		}
	}

	st, err := recorder.MergeSweepRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// sweep 擾動一次、重建一次、量測一次。
func (s *Simulator) sweep(c *core.Core) (*recorder.SweepResult, error) {
	mass := massgen.Jitter(c, s.baseMass, s.ps.Sim.JitterAmp)

	curve, total, err := resample.Resample(mass, s.ps.Coarseness)
	if err != nil {
		return nil, err
	}
	counts, err := rods.Allocate(curve, total, s.ps.Precision)
	if err != nil {
		return nil, err
	}
	tree, err := ctree.Build(counts, s.ps.Coarseness)
	if err != nil {
		return nil, err
	}

	// rod 質量偏差：每根 rod 的質量佔比對理想值 1/P 的最大相對偏差
	p := s.ps.Precision
	ideal := 1.0 / float64(p)
	idx := 0
	worst := 0.0
	empty := 0
	for _, cnt := range counts {
		if cnt == 0 {
			empty++
			continue
		}
		sum := 0.0
		for j := 0; j < cnt; j++ {
			sum += curve[idx+j]
		}
		idx += cnt
		share := sum / total
		dev := math.Abs(share-ideal) / ideal
		if dev > worst {
			worst = dev
		}
	}

	// 邊界一致性：k = Search(r) 必須是 rod r 的最右取樣點
	violations := 0
	for r := 0; r < p; r++ {
		k, err := tree.Search(r)
		if err != nil {
			return nil, err
		}
		if k == -1 {
			continue
		}
		v, err := tree.LeftRods(k)
		if err != nil {
			return nil, err
		}
		if v != r {
			violations++
		}
		if k < s.ps.Coarseness-1 {
			nv, err := tree.LeftRods(k + 1)
			if err != nil {
				return nil, err
			}
			if nv <= r {
				violations++
			}
		}
	}

	return &recorder.SweepResult{
		MassErr:    worst,
		Leaves:     tree.LeafCount(),
		EmptyRods:  empty,
		Violations: violations,
	}, nil
}

// DefaultSweeps 回傳設定檔建議的掃描次數（呼叫端未指定 sweeps 時用）。
func (s *Simulator) DefaultSweeps() int {
	return s.ps.Sim.Sweeps
}

// InitSeed 回傳本模擬器的初始種子，同一個 seed 可完整重現結果。
func (s *Simulator) InitSeed() int64 {
	return s.initSeed
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimMP 擴充 worker）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
