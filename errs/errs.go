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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// ErrKind : 錯誤種類，描述「這個錯誤屬於哪一類合約違反」。
//
// 與 ErrLevel 是正交的兩個維度：
//   - ErrLevel 回答「多嚴重」（要不要中止、要不要告警）。
//   - ErrKind  回答「哪一種」（輸入壞掉？查詢越界？查無資料？）。
//
// 邊界層（HTTP handler 等）依 Kind 作狀態碼映射，核心層只負責標記。
type ErrKind uint8

const (
	KindNone ErrKind = iota
	// KindInvalidInput 建構輸入不合法（長度、正負、2 的冪次等前置條件）
	KindInvalidInput
	// KindOutOfRange 查詢參數超出文件化的合法區間
	KindOutOfRange
	// KindNotFound 查詢合法但查無對應資料
	KindNotFound
)

var errKindMap = map[ErrKind]string{
	KindNone:         "",
	KindInvalidInput: "invalid_input",
	KindOutOfRange:   "out_of_range",
	KindNotFound:     "not_found",
}

func KindStr(k ErrKind) string {
	if str, ok := errKindMap[k]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重度；Kind 表示錯誤種類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    ErrKind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), KindStr(e.Kind), e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤分級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewInvalidInput 建構期輸入違反前置條件。
// 分級固定為 Warn：呼叫端給錯參數屬於「可預期且可處理」，不需中止程序。
func NewInvalidInput(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Kind: KindInvalidInput}
}

func InvalidInputf(format string, a ...any) *E {
	return NewInvalidInput(fmt.Sprintf(format, a...))
}

// NewOutOfRange 查詢參數越界。
func NewOutOfRange(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Kind: KindOutOfRange}
}

func OutOfRangef(format string, a ...any) *E {
	return NewOutOfRange(fmt.Sprintf(format, a...))
}

// NewNotFound 查詢合法但查無資料。
func NewNotFound(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Kind: KindNotFound}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Kind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本分類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
//
// 建議使用方式：
//   - 若你已判斷該錯誤是「可預期且可處理」的情境，請直接建立一個 *E
//     （使用 New / NewWithExtra 並自行指定 ErrLv），而不要對其呼叫 Wrap。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 使用給定的訊息與上下文包裝底層錯誤，建立一個 *E。
// 分級 / 種類規則同 Wrap。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsKind 檢查 err（或其包裹鏈上任一層）是否屬於指定種類。
func IsKind(err error, k ErrKind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
