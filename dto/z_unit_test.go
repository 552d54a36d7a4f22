// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dto

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zintix-labs/pmflab/catalog"
)

func TestDecodeQueryRequestGet(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/precision?sid=7&value=12", nil)
	req, err := DecodeQueryRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !req.HasId || req.SetupId != 7 || req.Value != 12 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest("GET", "/v1/precision?setup=bell&value=3", nil)
	req, err = DecodeQueryRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.HasId || req.SetupName != "bell" || req.Value != 3 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest("GET", "/v1/precision?sid=abc", nil)
	if _, err := DecodeQueryRequest(r); err == nil {
		t.Fatal("expected rejection for non-numeric sid")
	}
}

func TestDecodeQueryRequestPost(t *testing.T) {
	body := `{"sid":7,"has_id":true,"value":12}`
	r := httptest.NewRequest("POST", "/v1/precision", bytes.NewBufferString(body))
	req, err := DecodeQueryRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !req.HasId || req.SetupId != 7 || req.Value != 12 {
		t.Fatalf("unexpected request: %+v", req)
	}

	// 未知欄位必須嚴格拒絕
	bad := `{"sid":7,"has_id":true,"value":12,"extra":1}`
	r = httptest.NewRequest("POST", "/v1/precision", bytes.NewBufferString(bad))
	if _, err := DecodeQueryRequest(r); err == nil {
		t.Fatal("expected rejection for unknown field")
	}

	// has_id=false 時不允許帶 sid
	bad = `{"sid":7,"value":12}`
	r = httptest.NewRequest("POST", "/v1/precision", bytes.NewBufferString(bad))
	if _, err := DecodeQueryRequest(r); err == nil {
		t.Fatal("expected rejection for sid without has_id")
	}

	r = httptest.NewRequest("DELETE", "/v1/precision", nil)
	if _, err := DecodeQueryRequest(r); err == nil {
		t.Fatal("expected rejection for method")
	}
}

func TestDecodeSimRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/sim?sid=3&sweeps=100&workers=4&seed=42", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !req.HasSeed || req.Seed != 42 || req.Sweeps != 100 || req.Workers != 4 {
		t.Fatalf("unexpected request: %+v", req)
	}

	// has_seed=false 時不允許帶 seed
	bad := `{"sid":3,"has_id":true,"sweeps":10,"seed":42}`
	r = httptest.NewRequest("POST", "/v1/sim", bytes.NewBufferString(bad))
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatal("expected rejection for seed without has_seed")
	}
}

func TestCoreStateRoundTrip(t *testing.T) {
	snap := []byte{0x01, 0x02, 0xFF, 0x00, 0x7E}
	cs := NewCoreStateDTO(snap)
	got, err := cs.Decode()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	empty := &CoreState{}
	if _, err := empty.Decode(); err == nil {
		t.Fatal("expected rejection for empty snapshot")
	}
}

func TestSetupSummaryDTO(t *testing.T) {
	sum := []catalog.Summary{
		{SID: 7, Name: "bell", Shape: "normal", Length: 40, Coarseness: 16, Precision: 4},
	}
	out := NewSetupSummaryDTO(sum)
	if len(out) != 1 || out[0].SetupId != 7 || out[0].Shape != "normal" || out[0].Coarseness != 16 {
		t.Fatalf("unexpected dto: %+v", out)
	}
}
