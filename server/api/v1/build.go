package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/pmflab"
	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/server/httperr"
	"github.com/zintix-labs/pmflab/server/svrcfg"
	"github.com/zintix-labs/pmflab/spec"
)

// Build 處理 POST /v1/build：用 body 裡的 setup 設定做一次 ad-hoc 建構，
// 回報結構的維度與壓縮成果，不會註冊進 catalog。
func Build(sCfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := dto.ReadBuildBody(r)
		if err != nil {
			httperr.Errs(w, err)
			return
		}

		// 同一份 body 解兩次：一次取設定欄位，一次建結構。
		// 建構路徑自己會再跑完整驗證，這裡不重複。
		ps, err := spec.GetPmfSettingByJSON(raw)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		p, err := sCfg.Pmflab.NewPMFByJSON(raw)
		if err != nil {
			httperr.Errs(w, err)
			return
		}

		resp := dto.BuildResult{
			SetupName:  ps.SetupName,
			SetupId:    ps.SetupID,
			Shape:      ps.Shape.Name,
			Coarseness: p.Coarseness(),
			Precision:  p.Precision(),
		}
		if c, ok := p.(*pmflab.ConcretePMF); ok {
			resp.Leaves = c.LeafCount()
		} else {
			resp.ClosedForm = true
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
