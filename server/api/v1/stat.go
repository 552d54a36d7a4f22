package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/pmflab/recorder"
	"github.com/zintix-labs/pmflab/stats"
)

// DistStat 承載一批外部所得的掃描量測值，讓呼叫端可以離線重算統計
// （例如從舊 log 撈出的量測重新聚合成 QualityReport）。
type DistStat struct {
	SetupName  string `json:"setup_name"`
	Length     int    `json:"length"`
	Coarseness int    `json:"coarseness"`
	Precision  int    `json:"precision"`
	// 每個 index 是一次掃描的量測
	MassErrs   []float64 `json:"mass_errs"`
	Leaves     []int     `json:"leaves"`
	EmptyRods  []int     `json:"empty_rods"`
	Violations []int     `json:"violations"`
}

func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 對齊掃描數
	sweeps := min(len(dst.MassErrs), len(dst.Leaves), len(dst.EmptyRods), len(dst.Violations))
	if sweeps < 1 {
		http.Error(w, "sweeps must > 0", http.StatusBadRequest)
		return
	}
	if dst.Coarseness < 1 || dst.Precision < 1 {
		http.Error(w, "coarseness and precision must > 0", http.StatusBadRequest)
		return
	}

	// 繞過New方法，自己構造 SweepRecorder (量測來自外部，不要求完整 setup)
	rec := &recorder.SweepRecorder{
		SetupName:  dst.SetupName,
		Length:     dst.Length,
		Coarseness: dst.Coarseness,
		Precision:  dst.Precision,
		Basic:      new(recorder.BasicRecord),
		Dist:       new(recorder.DistRecord),
	}
	rec.Dist.Bucket = stats.Buckets
	rec.Dist.ErrCollect = make([]int, stats.Buckets.Len())

	sr := new(recorder.SweepResult)
	for i := 0; i < sweeps; i++ {
		sr.MassErr = dst.MassErrs[i]
		sr.Leaves = dst.Leaves[i]
		sr.EmptyRods = dst.EmptyRods[i]
		sr.Violations = dst.Violations[i]
		rec.Record(sr)
	}
	st := rec.Done()
	st.Done()
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
