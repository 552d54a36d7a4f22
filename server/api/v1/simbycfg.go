package v1

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"net/http"

	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/server/httperr"
)

// SetByJson 傳入 JSON 設定格式 以及希望模擬的掃描次數
func (sh *SimHandler) SetByJson(w http.ResponseWriter, r *http.Request) {
	type SimRequestByJson struct {
		Sweeps     int             `json:"sweeps"`
		Workers    int             `json:"workers,omitempty"`
		PmfSetting json.RawMessage `json:"cfg"`
		Seed       *int64          `json:"seed,omitempty"`
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. decode request
	req := new(SimRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Wrap(err, "json decode failed"))
		return
	}

	// 2. vaild sweeps/workers
	if req.Sweeps < 0 || req.Sweeps > maxSweeps {
		httperr.Errs(w, errs.NewWarn("sweeps must be between 0 and 3,000,000"))
		return
	}
	if req.Workers < 0 || req.Workers > sh.MaxWorkers {
		httperr.Errs(w, errs.Warnf("workers must be between 0 and %d", sh.MaxWorkers))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}

	// 3. NewSimulator
	sim, err := sh.Pmflab.NewSimulatorByJSON(req.PmfSetting, *req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	sh.runAndRespond(w, sim, req.Sweeps, req.Workers)
}
