package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/pmflab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// QualityReport 逼近品質統計報告
//
// 一個報告彙整一批掃描（sweep）的結果：每次掃描把擾動後的質量函數
// 走完整管線建一次結構，並量測 rod 質量偏差、壓縮率與查詢一致性。
type QualityReport struct {
	Summary *SummaryReport `json:"Summary"`
	Dist    *DistReport    `json:"Dist"`
	isDone  bool
}

type SummaryReport struct {
	SetupName    string   `json:"SetupName"`
	SetupId      spec.SID `json:"SetupId"`
	Shape        string   `json:"Shape"`
	Length       int      `json:"Length"`
	Coarseness   int      `json:"Coarseness"`
	Precision    int      `json:"Precision"`
	Sweeps       int      `json:"Sweeps"`
	MeanMassErr  float64  `json:"MeanMassErr"`
	MassErrCI    CI       `json:"MassErrCI"`
	WorstMassErr float64  `json:"WorstMassErr"`
	Std          float64  `json:"Std"`
	MeanLeaves   float64  `json:"MeanLeaves"`
	Compression  float64  `json:"Compression"`
	EmptyRods    int      `json:"EmptyRods"`
	EmptyRodRate float64  `json:"EmptyRodRate"`
	EmptyRodCI   CI       `json:"EmptyRodCI"`
	Violations   int      `json:"Violations"`

	// 累積量，Done() 之後才會換算成上面的統計值
	MassErrSum   float64 `json:"MassErrSum"`
	MassErrSqSum float64 `json:"MassErrSqSum"` // 平方和
	LeavesSum    int     `json:"LeavesSum"`
}

// DistReport 質量偏差區間落點統計
type DistReport struct {
	ErrBucket  []string  `json:"ErrBucket"`
	ErrCollect []int     `json:"ErrCollect"`
	ErrDist    []float64 `json:"ErrDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 掃描過程因為性能原因只累積和與平方和，統計完成後
// 請使用 Done 一次性計算統計結果。
func (s *QualityReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.MeanMassErr = s.MeanErr()
	s.Summary.MassErrCI = s.Ci()
	s.Summary.Std = s.Std()

	if s.Summary.Sweeps > 0 {
		s.Summary.MeanLeaves = float64(s.Summary.LeavesSum) / float64(s.Summary.Sweeps)
		rods := s.Summary.Sweeps * s.Summary.Precision
		s.Summary.EmptyRodRate = float64(s.Summary.EmptyRods) / float64(rods)
		_, s.Summary.EmptyRodCI = proportionCICP(s.Summary.EmptyRods, rods, 0.95)
	}
	if s.Summary.Coarseness > 0 {
		s.Summary.Compression = s.Summary.MeanLeaves / float64(s.Summary.Coarseness)
	}

	if s.Dist != nil && s.Summary.Sweeps > 0 {
		dist := make([]float64, len(s.Dist.ErrCollect))
		sf := float64(s.Summary.Sweeps)
		for i, c := range s.Dist.ErrCollect {
			dist[i] = float64(c) / sf
		}
		s.Dist.ErrDist = dist
	}

	s.isDone = true
}

// MeanErr 回傳平均每次掃描的最大 rod 質量偏差
func (s *QualityReport) MeanErr() float64 {
	if s.Summary.Sweeps == 0 {
		return 0
	}
	return s.Summary.MassErrSum / float64(s.Summary.Sweeps)
}

// Std 回傳掃描間質量偏差的標準差
func (s *QualityReport) Std() float64 {
	if s.Summary.Sweeps < 2 {
		return 0
	}
	sweeps := float64(s.Summary.Sweeps)

	errPow := s.Summary.MassErrSum * s.Summary.MassErrSum
	variance := (s.Summary.MassErrSqSum - errPow/sweeps) / (sweeps - 1)

	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance)
}

// Ci 回傳(95% 平均偏差)信賴區間
func (s *QualityReport) Ci() CI {
	mean := s.MeanErr()
	std := s.Std()
	se := float64(0)
	if s.Summary.Sweeps > 1 {
		se = std / math.Sqrt(float64(s.Summary.Sweeps))
	}
	return CI{
		Lo: max(mean-1.96*se, 0.0),
		Hi: mean + 1.96*se,
	}
}

func (s *QualityReport) WriteWith(w io.Writer, rep QualityReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *QualityReport) StdOut(ut time.Duration) {
	formatDuration(ut, s.Summary.Sweeps)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.SetupName, sk, sm)
	fmt.Println(str)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, sweeps int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(sweeps) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nsps : %d sweeps/sec\n", sec, sps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\nsps : %d sweeps/sec\n", m, s, sps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nsps : %d sweeps/sec\n", h, m, s, sps)
}

// StdOut

func (s *QualityReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Setup Name":     p.Sprintf("%s", s.Summary.SetupName),
		"Setup ID":       fmt.Sprintf("%d", s.Summary.SetupId),
		"Shape":          s.Summary.Shape,
		"Dimensions":     p.Sprintf("L=%d C=%d P=%d", s.Summary.Length, s.Summary.Coarseness, s.Summary.Precision),
		"Total Sweeps":   p.Sprintf("%d", s.Summary.Sweeps),
		"Mean Mass Err":  p.Sprintf("%.4f %%", 100.0*s.Summary.MeanMassErr),
		"Err 95% CI":     p.Sprintf("[%.4f%%,%.4f%%]", 100.0*s.Summary.MassErrCI.Lo, 100.0*s.Summary.MassErrCI.Hi),
		"Worst Mass Err": p.Sprintf("%.4f %%", 100.0*s.Summary.WorstMassErr),
		"STD":            p.Sprintf("%.5f", s.Summary.Std),
		"Mean Leaves":    p.Sprintf("%.1f", s.Summary.MeanLeaves),
		"Compression":    p.Sprintf("%.2f %%", 100.0*s.Summary.Compression),
		"Empty Rods":     p.Sprintf("%d (%.2f %%)", s.Summary.EmptyRods, 100.0*s.Summary.EmptyRodRate),
		"Violations":     p.Sprintf("%d", s.Summary.Violations),
	}
	keys := []string{"Setup Name", "Setup ID", "Shape", "Dimensions", "Total Sweeps", "Mean Mass Err", "Err 95% CI", "Worst Mass Err", "STD", "Mean Leaves", "Compression", "Empty Rods", "Violations"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
