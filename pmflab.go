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

// Package pmflab 提供 PMF 逼近引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Pmflab 視為一個「可被後端/模擬器使用的 runtime」，它負責把下列地基組裝在一起，
// 並提供建立逼近結構（ProbabilityMassFunction）的入口：
//  1. Catalog：setup 目錄（Single Source of Truth / SSOT），定義有哪些 setup、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，供模擬器做可重現（reproducible）的掃描。
//
// 設計重點：
//   - Pmflab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - 逼近結構建構完成後不可變，查詢端可以任意併發。
//   - 設定檔描述的是「如何合成質量函數」；真正的質量陣列由 massgen 依形狀合成。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Pmflab 建立逼近結構並對外提供雙向查詢。
//   - 模擬器（sim）：由 Pmflab 對一批擾動後的輸入做大量查詢，量測逼近品質。
package pmflab

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/pmflab/catalog"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/sdk/core"
	"github.com/zintix-labs/pmflab/sdk/massgen"
	"github.com/zintix-labs/pmflab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
//
// Pmflab 不解析「路徑」：它只依賴 fs.FS + ConfigName（檔名）來取得設定內容。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Pmflab 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據 setup ID 建立逼近結構，並在其上執行查詢或模擬。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Pmflab instance」內。
//   - runtime 一旦開始（例如已建立結構並對外服務），不建議再變更 Catalog。
type Pmflab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary
}

// New 建立一個 Pmflab instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（通常同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 PRNGFactory，確保由這個 Pmflab 建出來的模擬器在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現的模擬掃描。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 PmfSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Pmflab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Pmflab{
		cat: cata,
		cf:  cf,
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Pmflab instance。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Pmflab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Pmflab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）
// 嘗試解析成 *spec.PmfSetting，並用設定檔內宣告的 SetupID/SetupName 產生對應的
// catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：fs.WalkDir 依檔名排序處理，確保行為 determinism（方便重現與除錯）。
func (p *Pmflab) RegisterAll() error {
	cfgs := p.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.SID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				ps   *spec.PmfSetting
				perr error
			)
			switch ext {
			case ".yaml", ".yml":
				ps, perr = spec.GetPmfSettingByYAML(raw)
			case ".json":
				ps, perr = spec.GetPmfSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if perr != nil {
				return errs.Wrap(perr, fmt.Sprintf("parse pmfsetting failed: %s", base))
			}

			name := strings.TrimSpace(ps.SetupName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("setup name required: %s", base))
			}

			id := ps.SetupID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate setup id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := p.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("setup id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate setup name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := p.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("setup name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			if _, serr := massgen.ParseShape(ps.Shape.Name); serr != nil {
				return errs.NewFatal(fmt.Sprintf("shape not supported: shape=%s (config=%s)", ps.Shape.Name, base))
			}

			entries = append(entries, catalog.Entry{
				SID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return p.cat.Register(entries...)
}

func (p *Pmflab) Freeze() {
	p.cat.Freeze()
}

func (p *Pmflab) EntryById(id spec.SID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Pmflab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Pmflab) IDs() []spec.SID {
	return p.cat.IDs()
}

func (p *Pmflab) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Pmflab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ps, err := p.cat.PmfSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse pmf setting failed")
		}
		s := catalog.Summary{
			SID:        id,
			Name:       ps.SetupName,
			Shape:      ps.Shape.Name,
			Length:     ps.Length,
			Coarseness: ps.Coarseness,
			Precision:  ps.Precision,
		}
		cs = append(cs, s)
	}
	p.sum = cs
	return p.sum, nil
}

// NewPMF 依據 Catalog 內的 setup ID 建立逼近結構。
//
// 行為：
//  1. 由 Catalog 取得對應的 PmfSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 以 massgen 依形狀合成質量函數（不含擾動；擾動屬於模擬器的掃描範圍）。
//  3. 走完整管線建出 ConcretePMF。
//
// uniform 形狀會走閉式解的 UniformPMF：平坦輸入的逼近結果有解析解，
// 不需要重取樣與建樹（兩者對同樣的 C/P 查詢結果一致，見測試）。
func (p *Pmflab) NewPMF(id spec.SID) (ProbabilityMassFunction, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ps, err := p.cat.PmfSettingById(id)
	if err != nil {
		return nil, err
	}
	return buildFromSetting(ps)
}

// NewPMFByName 與 NewPMF 相同，但以 setup 名稱查詢（大小寫不敏感）。
func (p *Pmflab) NewPMFByName(name string) (ProbabilityMassFunction, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ps, err := p.cat.PmfSettingByName(name)
	if err != nil {
		return nil, err
	}
	return buildFromSetting(ps)
}

// NewPMFByYAML 允許呼叫端直接提供一份設定檔內容做 ad-hoc 建構。
// 設定仍需通過與 catalog 相同的基本檢查，但不要求已註冊。
func (p *Pmflab) NewPMFByYAML(raw []byte) (ProbabilityMassFunction, error) {
	ps, err := spec.GetPmfSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return buildFromSetting(ps)
}

// NewPMFByJSON 同 NewPMFByYAML，但輸入為 JSON。
func (p *Pmflab) NewPMFByJSON(raw []byte) (ProbabilityMassFunction, error) {
	ps, err := spec.GetPmfSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return buildFromSetting(ps)
}

func buildFromSetting(ps *spec.PmfSetting) (ProbabilityMassFunction, error) {
	shape, err := massgen.ParseShape(ps.Shape.Name)
	if err != nil {
		return nil, err
	}
	if shape == massgen.ShapeUniform {
		return NewUniformPMF(ps.Coarseness, ps.Precision)
	}
	mass, err := massgen.Generate(shape, ps.Length, massgen.Params{P1: ps.Shape.P1, P2: ps.Shape.P2})
	if err != nil {
		return nil, err
	}
	return NewConcretePMF(mass, ps.Coarseness, ps.Precision)
}

// NewSimulator 依據 setup ID 建立模擬器，seed 由系統亂數決定。
func (p *Pmflab) NewSimulator(id spec.SID) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ps, err := p.cat.PmfSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ps, p.cf)
}

// NewSimulatorWithSeed 與 NewSimulator 相同，但由呼叫端指定初始 seed。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的掃描結果。
func (p *Pmflab) NewSimulatorWithSeed(id spec.SID, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ps, err := p.cat.PmfSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps, p.cf, seed)
}

// NewSimulatorByYAML 允許呼叫端直接提供設定檔內容建立模擬器（ad-hoc 分析）。
func (p *Pmflab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	ps, err := spec.GetPmfSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps, p.cf, seed)
}

// NewSimulatorByJSON 同 NewSimulatorByYAML，但輸入為 JSON。
func (p *Pmflab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	ps, err := spec.GetPmfSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ps, p.cf, seed)
}
