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

package conf

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testFile = "./.configtest"

func TestConf(t *testing.T) {
	Convey("Defaults are valid", t, func() {
		c := Default()
		So(c.Validate(), ShouldBeNil)
		So(c.UseCache, ShouldBeTrue)
		So(c.Cache.LockedEqualRetries, ShouldEqual, DefaultLockedEqualRetries)
	})
	Convey("LoadConfig", t, func() {
		defer os.Remove(testFile)
		config := Default()
		config.MaxWorkers = 8
		config.Cache.Backend = LevelDBBackend
		config.Metric.Web = "127.0.0.1:9100"
		sConfig, err := yaml.Marshal(config)
		So(err, ShouldBeNil)
		So(ioutil.WriteFile(testFile, sConfig, 0600), ShouldBeNil)

		configNew, err := LoadConfig(testFile)
		So(err, ShouldBeNil)
		So(configNew, ShouldResemble, config)
	})
	Convey("Partial files keep the defaults", t, func() {
		defer os.Remove(testFile)
		So(ioutil.WriteFile(testFile, []byte("MaxWorkers: 3\nWakeupInterval: 100ms\n"), 0600), ShouldBeNil)
		c, err := LoadConfig(testFile)
		So(err, ShouldBeNil)
		So(c.MaxWorkers, ShouldEqual, 3)
		So(c.WakeupInterval, ShouldEqual, 100*time.Millisecond)
		So(c.Cache.HashRetries, ShouldEqual, DefaultHashRetries)
	})
	Convey("Invalid files are rejected", t, func() {
		defer os.Remove(testFile)
		_, err := LoadConfig("./.no-such-config")
		So(err, ShouldNotBeNil)

		So(ioutil.WriteFile(testFile, []byte("Cache:\n  Backend: redis\n"), 0600), ShouldBeNil)
		_, err = LoadConfig(testFile)
		So(err, ShouldNotBeNil)

		So(ioutil.WriteFile(testFile, []byte("Cache:\n  LockedEqualRetries: 2\n"), 0600), ShouldBeNil)
		_, err = LoadConfig(testFile)
		So(err, ShouldNotBeNil)
	})
}
