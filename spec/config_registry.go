package spec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/zintix-labs/pmflab/errs"
	"gopkg.in/yaml.v3"
)

// GetPmfSettingByYAML
// 會讀取 YAML 設定、初始化並執行基本檢查後回傳。
// 解碼採嚴格模式：多寫/拼錯欄位直接報錯，避免設定靜默失效。
func GetPmfSettingByYAML(data []byte) (*PmfSetting, error) {
	ps := &PmfSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ps); err != nil && err != io.EOF {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ps.init(); err != nil {
		return nil, errs.Wrap(err, "pmf setting initialized err")
	}

	return ps, nil
}

// GetPmfSettingByJSON
// 會讀取 Json 設定、初始化並執行基本檢查後回傳
func GetPmfSettingByJSON(data []byte) (*PmfSetting, error) {
	ps := &PmfSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ps); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := ps.init(); err != nil {
		return nil, errs.Wrap(err, "pmf setting initialized err")
	}

	return ps, nil
}
