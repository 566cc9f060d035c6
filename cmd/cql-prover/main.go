/*
 * Copyright 2019 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/conf"
	"github.com/CovenantSQL/sequent/formula"
	"github.com/CovenantSQL/sequent/metric"
	"github.com/CovenantSQL/sequent/sequent"
	"github.com/CovenantSQL/sequent/utils"
	"github.com/CovenantSQL/sequent/utils/log"
)

var (
	version = "unknown"
)

var (
	// config
	configFile string
	maxWorkers int
	noCache    bool
	logLevel   string
	timeout    time.Duration

	// proof
	left  string
	right string
	suite bool
	dump  bool
	debug bool

	// metric and profile
	metricWeb      string
	metricGraphite string
	metricLog      bool
	cpuProfile     string
	memProfile     string

	showVersion bool
)

const name = `cql-prover`
const desc = `cql-prover decides classical propositional sequents`

func init() {
	flag.StringVar(&configFile, "config", "", "Config file path, built-in defaults when empty")
	flag.IntVar(&maxWorkers, "max-workers", -1, "Live worker ceiling of every parallel run, 0 is unlimited")
	flag.BoolVar(&noCache, "no-cache", false, "Disable the equality cache")
	flag.StringVar(&logLevel, "log-level", "", "Log level")
	flag.DurationVar(&timeout, "timeout", 0, "Give up proving after this duration, 0 waits forever")

	flag.StringVar(&left, "left", "", "Comma separated antecedent formulas, e.g. \"Impl(a, b), a\"")
	flag.StringVar(&right, "right", "", "Comma separated succedent formulas, e.g. \"b\"")
	flag.BoolVar(&suite, "suite", false, "Run the built-in scenario suite")
	flag.BoolVar(&dump, "dump", false, "Dump parsed formulas and config")
	flag.BoolVar(&debug, "debug", false, "Check prover invariants")

	flag.StringVar(&metricWeb, "metric-web", "", "Address and port to get internal metrics")
	flag.StringVar(&metricGraphite, "metric-graphite-server", "", "Metric graphite server to push metrics")
	flag.BoolVar(&metricLog, "metric-log", false, "Print metrics in log")
	flag.StringVar(&cpuProfile, "cpu-profile", "", "Path to file for CPU profiling information")
	flag.StringVar(&memProfile, "mem-profile", "", "Path to file for memory profiling information")

	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "\n%s\n\n", desc)
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [arguments]\n", name)
		flag.PrintDefaults()
	}
}

func loadConfig() (cfg *conf.Config, err error) {
	if configFile == "" {
		cfg = conf.Default()
	} else if cfg, err = conf.LoadConfig(configFile); err != nil {
		return
	}
	if maxWorkers >= 0 {
		cfg.MaxWorkers = maxWorkers
	}
	if noCache {
		cfg.UseCache = false
	}
	if metricWeb != "" {
		cfg.Metric.Web = metricWeb
	}
	if metricGraphite != "" {
		cfg.Metric.Graphite = metricGraphite
	}
	cfg.Metric.Log = cfg.Metric.Log || metricLog
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	err = cfg.Validate()
	return
}

func startMetrics(cfg *conf.Config) (stop func()) {
	stop = func() {}
	if cfg.Metric.Log {
		metric.StartLog(metrics.DefaultRegistry, cfg.Metric.Interval)
	}
	if cfg.Metric.Graphite != "" {
		if err := metric.StartGraphite(metrics.DefaultRegistry, cfg.Metric.Interval, name, cfg.Metric.Graphite); err != nil {
			log.WithError(err).Error("start graphite reporting failed")
		}
	}
	if cfg.Metric.Web != "" {
		web, err := metric.InitMetricWeb(cfg.Metric.Web, metric.StartMetricCollector(metrics.DefaultRegistry), cfg.Metric.Interval)
		if err != nil {
			log.WithField("listen", cfg.Metric.Web).WithError(err).Fatal("start metric web server failed")
		}
		stop = func() { _ = web.Close() }
	}
	return
}

func runSuite(ctx context.Context, p *sequent.Prover) (failed int) {
	for _, s := range sequent.Scenarios {
		matched, err := s.Run(ctx, p)
		switch {
		case err != nil:
			failed++
			fmt.Printf("ERROR %s: %v\n", s, err)
		case !matched:
			failed++
			fmt.Printf("FAIL  %s, want %v\n", s, s.Want)
		default:
			fmt.Printf("ok    %s\n", s)
		}
	}
	fmt.Printf("%d/%d scenarios passed\n", len(sequent.Scenarios)-failed, len(sequent.Scenarios))
	return
}

func runSequent(ctx context.Context, p *sequent.Prover) (proved bool, err error) {
	lf, err := formula.ParseList(left)
	if err != nil {
		return
	}
	rf, err := formula.ParseList(right)
	if err != nil {
		return
	}
	if dump {
		spewCfg := spew.NewDefaultConfig()
		spewCfg.MaxDepth = 6
		spewCfg.DisablePointerAddresses = true
		spewCfg.Fdump(os.Stderr, lf, rf)
	}
	return p.Prove(ctx, lf, rf)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("%v %v %v %v %v\n",
			name, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		os.Exit(0)
	}

	os.Exit(run())
}

// run returns the exit code: 0 proved, 1 not proved, 2 failed.
func run() (code int) {
	cfg, err := loadConfig()
	log.SetStringLevel(logLevel, log.InfoLevel)
	if err != nil {
		log.WithField("config", configFile).WithError(err).Fatal("load config failed")
	}
	conf.GConf = cfg
	sequent.Debug = debug
	if dump {
		spew.Fdump(os.Stderr, cfg)
	}

	flag.Visit(func(f *flag.Flag) {
		log.Debugf("args %#v : %s", f.Name, f.Value)
	})

	if err = utils.StartProfile(cpuProfile, memProfile); err != nil {
		log.WithError(err).Error("start profile failed")
	}
	defer utils.StopProfile()

	stopMetrics := startMetrics(cfg)
	defer stopMetrics()

	p, closer, err := sequent.Open(cfg, metrics.DefaultRegistry)
	if err != nil {
		log.WithError(err).Fatal("init prover failed")
	}
	defer func() {
		if err := closer(); err != nil {
			log.WithError(err).Error("close cache stores failed")
		}
	}()

	// exit signals cancel every running proof
	stopSignals := make(chan struct{})
	defer close(stopSignals)
	utils.OnExit(stopSignals, func(sig os.Signal) {
		log.WithField("signal", sig).Warning("cancelling proofs")
		p.Executor().Control().Cancel()
	})

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if suite {
		if runSuite(ctx, p) > 0 {
			code = 1
		}
	} else {
		proved, err := runSequent(ctx, p)
		if err != nil {
			log.WithError(err).Error("prove failed")
			code = 2
		} else {
			fmt.Println(proved)
			if !proved {
				code = 1
			}
		}
	}
	return
}
