package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zintix-labs/pmflab"
	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/server/httperr"
	"github.com/zintix-labs/pmflab/spec"
)

const maxSweeps = 3000000

type SimHandler struct {
	Pmflab     *pmflab.Pmflab
	MaxWorkers int
}

func NewSimHandler(pb *pmflab.Pmflab, maxWorkers int) (*SimHandler, error) {
	return &SimHandler{Pmflab: pb, MaxWorkers: max(1, maxWorkers)}, nil
}

// Sim 處理 GET/POST /v1/sim：對指定 setup 跑一批掃描並回傳統計報告。
func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeSimRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 業務檢驗
	id, err := resolveSid(sh.Pmflab, req.HasId, req.SetupId, req.SetupName)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Sweeps < 0 || req.Sweeps > maxSweeps {
		httperr.Errs(w, errs.NewWarn("sweeps must be between 0 and 3,000,000"))
		return
	}
	if req.Workers < 0 || req.Workers > sh.MaxWorkers {
		httperr.Errs(w, errs.Warnf("workers must be between 0 and %d", sh.MaxWorkers))
		return
	}

	var sim *pmflab.Simulator
	if req.HasSeed {
		sim, err = sh.Pmflab.NewSimulatorWithSeed(id, req.Seed)
	} else {
		sim, err = sh.Pmflab.NewSimulator(id)
	}
	if err != nil {
		// 這裡的錯誤是來自pmflab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", id)))
		return
	}

	sh.runAndRespond(w, sim, req.Sweeps, req.Workers)
}

func (sh *SimHandler) runAndRespond(w http.ResponseWriter, sim *pmflab.Simulator, sweeps, workers int) {
	if sweeps == 0 {
		sweeps = sim.DefaultSweeps()
	}

	rep, err := runSim(sim, sweeps, workers)
	if err != nil {
		// 這裡的錯誤來自simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}

func runSim(sim *pmflab.Simulator, sweeps, workers int) (dto.SimResult, error) {
	if workers > 1 {
		// 總掃描數約為 sweeps，平均拆給 workers 平行跑
		per := max(1, sweeps/workers)
		st, used, err := sim.SimMP(per, workers, false)
		if err != nil {
			return dto.SimResult{}, err
		}
		return dto.NewSimResultDTO(st, used, sim.InitSeed())
	}
	st, used, err := sim.Sim(sweeps, false)
	if err != nil {
		return dto.SimResult{}, err
	}
	return dto.NewSimResultDTO(st, used, sim.InitSeed())
}

// 仍保留 SID 解析給其他 handler 共用
func resolveSid(pb *pmflab.Pmflab, hasId bool, id spec.SID, name string) (spec.SID, error) {
	if hasId {
		if _, ok := pb.EntryById(id); !ok {
			return 0, errs.NewNotFound("sid not found")
		}
		return id, nil
	}
	if name == "" {
		return 0, errs.NewWarn("setup or sid is required")
	}
	ent, ok := pb.EntryByName(name)
	if !ok {
		return 0, errs.NewNotFound("setup not found")
	}
	return ent.SID, nil
}
