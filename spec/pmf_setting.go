package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/pmflab/errs"
)

// PmfSetting 包含建出一個 PMF 逼近結構所需的所有高階設定。
//
// 注意：設定檔描述的是「如何合成質量函數」（形狀 + 長度 + 擾動），
// 而不是質量函數本身的數值；實際的質量陣列由 massgen 在載入後合成。
type PmfSetting struct {
	SetupName  string       `yaml:"setup_name"  json:"setup_name"`
	SetupID    SID          `yaml:"setup_id"    json:"setup_id"`
	Shape      ShapeSetting `yaml:"shape"       json:"shape"`
	Length     int          `yaml:"length"      json:"length"`
	Coarseness int          `yaml:"coarseness"  json:"coarseness"`
	Precision  int          `yaml:"precision"   json:"precision"`
	Sim        SimSetting   `yaml:"sim"         json:"sim"`
}

// ShapeSetting 描述合成質量函數的分布形狀。
// P1/P2 的解讀依 Name 而定（見 massgen.Params），0 表示採用該形狀的預設值。
type ShapeSetting struct {
	Name string  `yaml:"name" json:"name"`
	P1   float64 `yaml:"p1"   json:"p1"`
	P2   float64 `yaml:"p2"   json:"p2"`
}

// SimSetting 描述模擬器掃描這個 setup 時的預設參數。
type SimSetting struct {
	Sweeps    int     `yaml:"sweeps"     json:"sweeps"`
	JitterAmp float64 `yaml:"jitter_amp" json:"jitter_amp"`
}

// init
func (ps *PmfSetting) init() error {
	if ps.Shape.Name == "" {
		ps.Shape.Name = "uniform"
	}
	if ps.Sim.Sweeps == 0 {
		ps.Sim.Sweeps = 1
	}
	return ps.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (ps *PmfSetting) valid() error {

	if strings.TrimSpace(ps.SetupName) == "" {
		return errs.NewInvalidInput("empty setup_name")
	}

	if ps.Length < 2 {
		return errs.InvalidInputf("setup_name: %s err:length must be >= 2, got %d", ps.SetupName, ps.Length)
	}
	if ps.Coarseness < 1 {
		return errs.InvalidInputf("setup_name: %s err:coarseness must be >= 1, got %d", ps.SetupName, ps.Coarseness)
	}
	if ps.Coarseness&(ps.Coarseness-1) != 0 {
		return errs.InvalidInputf("setup_name: %s err:coarseness must be a power of two, got %d", ps.SetupName, ps.Coarseness)
	}
	if ps.Precision < 1 {
		return errs.InvalidInputf("setup_name: %s err:precision must be >= 1, got %d", ps.SetupName, ps.Precision)
	}

	if ps.Sim.Sweeps < 1 {
		return errs.InvalidInputf("setup_name: %s err:sweeps must be >= 1, got %d", ps.SetupName, ps.Sim.Sweeps)
	}
	if ps.Sim.JitterAmp < 0 || ps.Sim.JitterAmp > 1 {
		return errs.NewInvalidInput(fmt.Sprintf("setup_name: %s err:jitter_amp must be in [0,1], got %v", ps.SetupName, ps.Sim.JitterAmp))
	}

	return nil
}
