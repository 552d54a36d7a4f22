// Package dev 提供 Pmflab 的「內部 Dev Panel」HTTP endpoints。
//
// 目的（ explain the why ）：
//   - 給數學家 / 後端在開發期快速驗證：指定 setup、Seed，然後建構查表或執行 Sim。
//   - 查表（Tables）會把兩個方向的完整映射一次攤開，肉眼就能檢查單調性與空 rod。
//
// 注意（ contract ）：
//   - 這不是 production API；它偏向 debug / tooling，行為允許更寬鬆，但仍需維持 deterministic concludes。
//   - 這裡的錯誤處理走 `httperr.Errs`（以 errs 分級/類別 對應 HTTP response）。
package dev

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/pmflab"
	"github.com/zintix-labs/pmflab/catalog"
	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/server/httperr"
	"github.com/zintix-labs/pmflab/server/netsvr"
	"github.com/zintix-labs/pmflab/server/svrcfg"
	"github.com/zintix-labs/pmflab/spec"
)

// devRequest 是 Dev Panel 的「輸入 payload」。
//
// Seed / Snap：
//   - Seed（int64 string）用於 deterministic 起始；若為空字串則自動生成（crypto/rand）。
//   - Snap（base64url）若非空，單線掃描會先把 PRNG 還原到該快照再跑，
//     搭配回報裡的 before/after 快照即可逐段重放。
//
// 注意：
//   - 這個 struct 是 API 邊界用的 DTO；不要把它滲透到 math domain。
type devRequest struct {
	SID     int64  `json:"sid"`
	Setup   string `json:"setup"`
	Sweeps  int    `json:"sweeps"`
	Workers int    `json:"workers"`
	Seed    string `json:"seed"`
	Snap    string `json:"snap"`
}

// Register 註冊 Dev Panel 的 routes。
//
// Routes：
//   - GET  /dev         ：Dev Panel HTML（內嵌 JS）。
//   - GET  /dev/meta    ：回傳 Catalog summary（供前端下拉選單）。
//   - POST /dev/tables  ：建構指定 setup 並回傳兩個方向的完整查表。
//   - POST /dev/sim     ：執行掃描模擬並回傳統計報表。
//
// 依賴（dependency）：
//   - 需要 cfg.Pmflab 已被上層組裝完成並注入；否則會回 errs.Fatal。
func Register(svr netsvr.NetRouter, cfg *svrcfg.SvrCfg) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", devMeta(cfg))
	svr.Post("/dev/tables", devTables(cfg))
	svr.Post("/dev/sim", devSim(cfg))
}

const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>PmfLab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; box-shadow:0 12px 50px rgba(0,0,0,0.35); }
    h1 { margin: 0 0 16px; font-size: 22px; letter-spacing: 0.3px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(180px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    input:focus, select:focus { outline:1px solid #38bdf8; border-color:#38bdf8; }
    .actions { display:flex; gap:10px; align-items:center; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; letter-spacing:0.2px; }
    #btn-tables { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    #btn-clear { background:#1f2937; color:#e2e8f0; border:1px solid #334155; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    #out { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:220px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>PmfLab Dev Panel</h1>
    <div class="grid">
      <label>Setup
        <select id="setup"></select>
      </label>
      <label>Seed (int64)
        <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" />
      </label>
      <label>Snapshot (base64url)
        <input id="snap" type="text" placeholder="Empty = fresh run" />
      </label>
      <label>Sweeps
        <input id="sweeps" type="number" min="1" max="3000000" value="1000" />
      </label>
      <label>Workers
        <input id="workers" type="number" min="1" max="32" value="1" />
      </label>
    </div>
    <div class="actions">
      <button id="btn-tables">Tables</button>
      <button id="btn-sim">Sim</button>
      <button id="btn-clear">Clear</button>
    </div>
    <pre id="out"></pre>
  </div>
<script>
const setupSel = document.getElementById('setup');
const seedInput = document.getElementById('seed');
const snapInput = document.getElementById('snap');
const sweepsInput = document.getElementById('sweeps');
const workersInput = document.getElementById('workers');
const out = document.getElementById('out');

async function loadMeta() {
  try {
    const res = await fetch('/dev/meta');
    if (!res.ok) throw new Error(await res.text());
    const setups = await res.json();
    setupSel.innerHTML = '';
    setups.forEach((s) => {
      const opt = document.createElement('option');
      opt.value = String(s.sid);
      opt.textContent = s.setup + ' (' + s.shape + ' C=' + s.coarseness + ' P=' + s.precision + ')';
      setupSel.appendChild(opt);
    });
  } catch (err) {
    out.textContent = 'Failed to load meta: ' + err.message;
  }
}

function payload() {
  return {
    sid: Number(setupSel.value),
    sweeps: Number(sweepsInput.value) || 1,
    workers: Number(workersInput.value) || 1,
    seed: seedInput.value.trim(),
    snap: snapInput.value.trim(),
  };
}

async function post(path) {
  out.textContent = 'Running…';
  try {
    const res = await fetch(path, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload()),
    });
    if (!res.ok) throw new Error(await res.text());
    out.textContent = JSON.stringify(await res.json(), null, 2);
  } catch (err) {
    out.textContent = 'Request failed: ' + err.message;
  }
}

document.getElementById('btn-tables').addEventListener('click', () => post('/dev/tables'));
document.getElementById('btn-sim').addEventListener('click', () => post('/dev/sim'));
document.getElementById('btn-clear').addEventListener('click', () => { out.textContent = ''; });
loadMeta();
</script>
</body>
</html>`

// devPage 回傳內嵌 HTML（single page）。這裡不做 templating，降低 dev tool 維護成本。
func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

// favicon 提供 Dev Panel 的 favicon.svg。
func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

// devMeta 回傳 Catalog summary（JSON）。
//
// 前端依賴欄位：sid / setup / shape / coarseness / precision。
func devMeta(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		pb, ok := getPmflab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("pmflab is required"))
			return
		}
		sum, err := pb.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.NewSetupSummaryDTO(sum))
	}
}

// devTables 建構指定 setup 並攤開兩個方向的完整映射。
//
// 回傳：
//   - precision[c]  ：每個取樣點所屬的 rod（長度 C，單調不減）。
//   - coarseness[r] ：每根 rod 的最右取樣點（長度 P；-1 表示空 rod）。
//
// 這是 dev 工具最有用的視角：一眼就能看出 rod 邊界與空 rod 分布。
func devTables(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		pb, ok := getPmflab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("pmflab is required"))
			return
		}
		sum, err := resolveSummary(pb, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		p, err := pb.NewPMF(sum.SID)
		if err != nil {
			httperr.Errs(w, err)
			return
		}

		type devTablesResponse struct {
			Setup      string   `json:"setup"`
			SID        spec.SID `json:"sid"`
			Coarseness int      `json:"coarseness"`
			Precision  int      `json:"precision"`
			Leaves     int      `json:"leaves,omitempty"`
			PrecTable  []int    `json:"precision_table"`
			CoarTable  []int    `json:"coarseness_table"`
		}
		resp := devTablesResponse{
			Setup:      sum.Name,
			SID:        sum.SID,
			Coarseness: p.Coarseness(),
			Precision:  p.Precision(),
			PrecTable:  make([]int, p.Coarseness()),
			CoarTable:  make([]int, p.Precision()),
		}
		if c, ok := p.(*pmflab.ConcretePMF); ok {
			resp.Leaves = c.LeafCount()
		}
		for c := 0; c < p.Coarseness(); c++ {
			v, err := p.GetPrecision(c)
			if err != nil {
				httperr.Errs(w, err)
				return
			}
			resp.PrecTable[c] = v
		}
		for rod := 0; rod < p.Precision(); rod++ {
			v, err := p.GetCoarseness(rod)
			if err != nil {
				httperr.Errs(w, err)
				return
			}
			resp.CoarTable[rod] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// devSim 執行統計模擬（simulation）。
//
// 和 devTables 的差異：
//   - devSim 不回查表，只回統計報告（降低 response size）。
//   - workers > 1 時走平行掃描，總掃描數約為 sweeps（平行掃描不提供快照）。
//   - workers == 1 時走 DevSimulator：回報帶 before/after PRNG 快照，
//     可把 after 貼回 Snapshot 欄位接續掃，或把 before 貼回重放同一段。
func devSim(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		pb, ok := getPmflab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("pmflab is required"))
			return
		}
		sum, err := resolveSummary(pb, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		if req.Sweeps < 1 {
			httperr.Errs(w, errs.NewWarn("sweeps is required"))
			return
		}
		workers := max(1, req.Workers)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		if workers > 1 {
			sim, err := pb.NewSimulatorWithSeed(sum.SID, seed)
			if err != nil {
				httperr.Errs(w, err)
				return
			}
			per := max(1, req.Sweeps/workers)
			st, used, err := sim.SimMP(per, workers, false)
			if err != nil {
				httperr.Errs(w, err)
				return
			}
			resp, err := dto.NewSimResultDTO(st, used, seed)
			if err != nil {
				httperr.Errs(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		dev, err := pb.NewDevSimulatorWithSeed(sum.SID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var rep pmflab.DevSimReport
		if req.Snap != "" {
			rep, err = dev.RestoreSim(req.Snap, req.Sweeps)
		} else {
			rep, err = dev.Sim(req.Sweeps)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// getPmflab 從 server config 取得已組裝的 Pmflab instance。
// Dev routes 不負責組裝（assembler），只負責使用（runtime entry）。
func getPmflab(cfg *svrcfg.SvrCfg) (*pmflab.Pmflab, bool) {
	if cfg == nil || cfg.Pmflab == nil {
		return nil, false
	}
	return cfg.Pmflab, true
}

// resolveSummary 解析使用者指定的 setup：
//   - 若 sid > 0：以 sid 精準匹配（fast path）。
//   - 否則若 setup(name) 非空：先做 case-insensitive name 匹配；也允許把 setup 當作數字字串解析成 sid。
func resolveSummary(pb *pmflab.Pmflab, req *devRequest) (catalog.Summary, error) {
	sums, err := pb.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	if req.SID > 0 {
		sid := spec.SID(req.SID)
		for _, s := range sums {
			if s.SID == sid {
				return s, nil
			}
		}
		return catalog.Summary{}, errs.NewNotFound("sid not found")
	}
	name := strings.TrimSpace(req.Setup)
	if name != "" {
		for _, s := range sums {
			if strings.EqualFold(s.Name, name) {
				return s, nil
			}
		}
		if sid, err := strconv.ParseUint(name, 10, 32); err == nil {
			sg := spec.SID(sid)
			for _, s := range sums {
				if s.SID == sg {
					return s, nil
				}
			}
		}
		return catalog.Summary{}, errs.NewNotFound("setup not found")
	}
	return catalog.Summary{}, errs.NewWarn("setup is required")
}

// resolveSeed 解析 seed（int64 string）。
//   - 空字串：自動生成 seed（crypto/rand），方便快速測試。
//   - 非空：必須為合法 int64。
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return randomSeed()
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}

// randomSeed 使用 crypto/rand 產生 [0, MaxInt64) 的種子。
// 目的：避免 math/rand 的 deterministic 來源造成 seed 品質偏差（dev tool 也要可依賴）。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

//go:embed favicon.svg
var faviconSVG string

// keep embed imported even if only used for directives
var _ embed.FS
