package catalog

import (
	"testing"
	"testing/fstest"
)

const setupYAML = `
setup_name: flat_demo
setup_id: 1
shape:
  name: uniform
length: 8
coarseness: 4
precision: 2
`

func demoFS() fstest.MapFS {
	return fstest.MapFS{
		"flat_demo.yaml": &fstest.MapFile{Data: []byte(setupYAML)},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	c, err := New(demoFS())
	if err != nil {
		t.Fatalf("new catalog failed: %v", err)
	}
	if err := c.Register(Entry{SID: 1, Name: "Flat_Demo", ConfigName: "flat_demo.yaml"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, ok := c.GetByID(1); !ok {
		t.Fatalf("lookup by id failed")
	}
	// 名稱查詢大小寫不敏感
	if _, ok := c.GetByName("flat_demo"); !ok {
		t.Fatalf("lookup by normalized name failed")
	}

	ps, err := c.PmfSettingById(1)
	if err != nil {
		t.Fatalf("setting load failed: %v", err)
	}
	if ps.Coarseness != 4 || ps.Precision != 2 {
		t.Fatalf("unexpected setting: %+v", ps)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	fsys := demoFS()
	fsys["other.yaml"] = &fstest.MapFile{Data: []byte(setupYAML)}

	c, err := New(fsys)
	if err != nil {
		t.Fatalf("new catalog failed: %v", err)
	}
	err = c.Register(
		Entry{SID: 1, Name: "a", ConfigName: "flat_demo.yaml"},
		Entry{SID: 1, Name: "b", ConfigName: "other.yaml"},
	)
	if err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
}

func TestRegisterAfterFreezeFails(t *testing.T) {
	c, err := New(demoFS())
	if err != nil {
		t.Fatalf("new catalog failed: %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{SID: 2, Name: "x", ConfigName: "flat_demo.yaml"}); err == nil {
		t.Fatalf("expected register-after-freeze to fail")
	}
}

func TestMissingConfigFile(t *testing.T) {
	c, err := New(demoFS())
	if err != nil {
		t.Fatalf("new catalog failed: %v", err)
	}
	if err := c.Register(Entry{SID: 3, Name: "missing", ConfigName: "nope.yaml"}); err == nil {
		t.Fatalf("expected missing config rejection")
	}
}

func TestNestedConfigFSRejected(t *testing.T) {
	fsys := fstest.MapFS{
		"sub/flat_demo.yaml": &fstest.MapFile{Data: []byte(setupYAML)},
	}
	if _, err := New(fsys); err == nil {
		t.Fatalf("expected nested config FS rejection")
	}
}
