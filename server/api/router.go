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

package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/pmflab/server/api/dev"
	v1 "github.com/zintix-labs/pmflab/server/api/v1"
	"github.com/zintix-labs/pmflab/server/netsvr"
	"github.com/zintix-labs/pmflab/server/netsvr/middleware"
	"github.com/zintix-labs/pmflab/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerIndex(svr)                // 2. 註冊主頁
	dev.Register(svr, sCfg)           // 3. 開發者工具頁
	return registerV1API(svr, sCfg)   // 4. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover)
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetSvr) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("pmflab api\n\nGET  /v1/setups\nGET  /v1/precision\nGET  /v1/coarseness\nGET  /v1/sim\nPOST /v1/simbycfg\nPOST /v1/build\nPOST /v1/stat\nGET  /dev\n"))
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	q, err := v1.NewQueryHandler(sCfg)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(sCfg.Pmflab, sCfg.MaxWorkers)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/setups", v1.Setups(sCfg))
		vOne.Get("/precision", q.Precision)
		vOne.Get("/coarseness", q.Coarseness)
		vOne.Get("/sim", s.Sim)

		vOne.Post("/precision", q.Precision)
		vOne.Post("/coarseness", q.Coarseness)
		vOne.Post("/sim", s.Sim)
		vOne.Post("/simbycfg", s.SetByJson)
		vOne.Post("/build", v1.Build(sCfg))
		vOne.Post("/stat", v1.Stat)
	})
	return nil
}
