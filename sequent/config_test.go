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

package sequent

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcrowley/go-metrics"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/sequent/conf"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	suite := func(p *Prover) {
		for _, s := range Scenarios {
			matched, err := s.Run(ctx, p)
			So(err, ShouldBeNil)
			So(matched, ShouldBeTrue)
		}
	}

	Convey("Provers follow the config", t, func() {
		cfg := conf.Default()
		cfg.MaxWorkers = 2

		p, closer, err := Open(cfg, metrics.NewRegistry())
		So(err, ShouldBeNil)
		So(p.cache, ShouldNotBeNil)
		So(p.Executor().Control().MaxWorkers(), ShouldEqual, 2)
		suite(p)
		So(closer(), ShouldBeNil)

		cfg.UseCache = false
		p, closer, err = Open(cfg, metrics.NewRegistry())
		So(err, ShouldBeNil)
		So(p.cache, ShouldBeNil)
		suite(p)
		So(closer(), ShouldBeNil)
	})
	Convey("The leveldb cache directory is emptied on open", t, func() {
		dir, err := ioutil.TempDir("", "sequent-cache")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		cfg := conf.Default()
		cfg.Cache.Backend = conf.LevelDBBackend
		cfg.Cache.Path = dir
		for i := 0; i < 2; i++ {
			p, closer, err := Open(cfg, metrics.NewRegistry())
			So(err, ShouldBeNil)
			suite(p)
			So(closer(), ShouldBeNil)
		}
		_, err = os.Stat(filepath.Join(dir, "parents"))
		So(err, ShouldBeNil)
	})
	Convey("Invalid configs are rejected", t, func() {
		cfg := conf.Default()
		cfg.Cache.Backend = "tape"
		_, _, err := Open(cfg, nil)
		So(err, ShouldNotBeNil)
	})
}
