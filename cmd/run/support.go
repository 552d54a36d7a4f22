package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math"
	"math/big"
	"strconv"

	"github.com/zintix-labs/pmflab"
	"github.com/zintix-labs/pmflab/demo/demo_configs"
	"github.com/zintix-labs/pmflab/sdk/core"
	"github.com/zintix-labs/pmflab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.SID
	worker    int
	sweeps    int
	seed      int64
	pprofmode string
}

type sidFlag struct{ p *spec.SID }

func (f sidFlag) String() string { return fmt.Sprint(uint32(*f.p)) }
func (f sidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*f.p = spec.SID(u)
	return nil
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.Var(sidFlag{&cfg.id}, "setup", "target setup id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.sweeps, "sweeps", 100000, "sweeps per worker")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	lab, err := pmflab.NewAuto(
		core.Default(),
		pmflab.Configs(demo_configs.FS),
	)
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.worker == 1 { // 單線程
		p.Printf("%s[SETUP:%s] [SEED:%d] [SWEEPS:%d]%s\n", green, cfg.name, cfg.seed, cfg.sweeps, reset)
		st, used, err := s.Sim(cfg.sweeps, true)
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
	} else {
		p.Printf("%s[WORKERS:%d] [SETUP:%s] [SEED:%d] [SWEEPS:%d]%s\n", green, cfg.worker, cfg.name, cfg.seed, cfg.worker*cfg.sweeps, reset)
		st, used, err := s.SimMP(cfg.sweeps, cfg.worker, true) // 併發
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// 掃描數檢查
	if cfg.sweeps < 1 {
		log.Fatal("value err : sweeps must > 0")
	}

	// 單次執行的總掃描量設上限，避免一個指令吃掉整台機器
	if cfg.worker*cfg.sweeps > 100000000 {
		p.Printf("too much sweeps: %d resized to 100M total\n", cfg.worker*cfg.sweeps)
		cfg.sweeps = 100000000 / cfg.worker
	}
}
