package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/pmflab"
	"github.com/zintix-labs/pmflab/dto"
	"github.com/zintix-labs/pmflab/errs"
	"github.com/zintix-labs/pmflab/server/httperr"
	"github.com/zintix-labs/pmflab/server/svrcfg"
	"github.com/zintix-labs/pmflab/spec"
)

// QueryHandler 服務兩個查詢端點，背後是常駐的 QueryRuntime（每個 setup
// 一份唯讀結構，建一次、查到關站）。
type QueryHandler struct {
	rt *pmflab.QueryRuntime
}

func NewQueryHandler(sCfg *svrcfg.SvrCfg) (*QueryHandler, error) {
	rt, err := sCfg.Pmflab.BuildRuntime()
	if err != nil {
		return nil, errs.Wrap(err, "build query handler error")
	}
	return &QueryHandler{rt: rt}, nil
}

// Precision 處理 GET/POST /v1/precision：取樣點 → 所屬 rod。
func (qh *QueryHandler) Precision(w http.ResponseWriter, q *http.Request) {
	qh.serve(w, q, qh.rt.Precision)
}

// Coarseness 處理 GET/POST /v1/coarseness：rod → 最右取樣點（-1 表示空 rod）。
func (qh *QueryHandler) Coarseness(w http.ResponseWriter, q *http.Request) {
	qh.serve(w, q, qh.rt.Coarseness)
}

func (qh *QueryHandler) serve(w http.ResponseWriter, q *http.Request, query func(context.Context, spec.SID, int) (dto.QueryResult, error)) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeQueryRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := req.SetupId
	if !req.HasId {
		if req.SetupName == "" {
			httperr.Errs(w, errs.NewWarn("setup or sid is required"))
			return
		}
		var ok bool
		id, ok = qh.rt.ResolveId(req.SetupName)
		if !ok {
			httperr.Errs(w, errs.NewNotFound("setup not found"))
			return
		}
	}

	// 請求解析完成，設置超時 context
	ctx, cancel := context.WithTimeout(q.Context(), 5*time.Second)
	defer cancel()

	result, err := query(ctx, id, req.Value)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Setups 處理 GET /v1/setups：列出 catalog 內全部 setup 的摘要。
func Setups(sCfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sum, err := sCfg.Pmflab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.NewSetupSummaryDTO(sum))
	}
}
