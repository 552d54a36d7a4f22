package spec

import (
	"testing"

	"github.com/zintix-labs/pmflab/errs"
)

const goodYAML = `
setup_name: demo_normal
setup_id: 1001
shape:
  name: normal
  p1: 0.5
  p2: 0.15
length: 64
coarseness: 16
precision: 4
sim:
  sweeps: 10
  jitter_amp: 0.2
`

func TestGetPmfSettingByYAML(t *testing.T) {
	ps, err := GetPmfSettingByYAML([]byte(goodYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ps.SetupID != 1001 || ps.Coarseness != 16 || ps.Precision != 4 {
		t.Fatalf("unexpected setting: %+v", ps)
	}
	if ps.Shape.Name != "normal" {
		t.Fatalf("unexpected shape: %+v", ps.Shape)
	}
}

func TestYAMLRejectsUnknownFields(t *testing.T) {
	bad := goodYAML + "\nbogus_field: 1\n"
	if _, err := GetPmfSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("expected strict decode to fail on unknown field")
	}
}

func TestSettingValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*PmfSetting)
	}{
		{"empty name", func(ps *PmfSetting) { ps.SetupName = " " }},
		{"short length", func(ps *PmfSetting) { ps.Length = 1 }},
		{"zero coarseness", func(ps *PmfSetting) { ps.Coarseness = 0 }},
		{"non power of two", func(ps *PmfSetting) { ps.Coarseness = 6 }},
		{"zero precision", func(ps *PmfSetting) { ps.Precision = 0 }},
		{"jitter too big", func(ps *PmfSetting) { ps.Sim.JitterAmp = 1.5 }},
	}
	for _, tc := range cases {
		ps := &PmfSetting{
			SetupName:  "x",
			SetupID:    1,
			Shape:      ShapeSetting{Name: "uniform"},
			Length:     8,
			Coarseness: 4,
			Precision:  2,
			Sim:        SimSetting{Sweeps: 1},
		}
		tc.mut(ps)
		err := ps.init()
		if !errs.IsKind(err, errs.KindInvalidInput) {
			t.Fatalf("%s: expected invalid-input error, got %v", tc.name, err)
		}
	}
}

func TestDefaultsApplied(t *testing.T) {
	ps := &PmfSetting{SetupName: "d", Length: 4, Coarseness: 4, Precision: 2}
	if err := ps.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if ps.Shape.Name != "uniform" || ps.Sim.Sweeps != 1 {
		t.Fatalf("defaults not applied: %+v", ps)
	}
}
