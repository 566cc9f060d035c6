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

package utils

import (
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type entry struct {
	Parent uint64
	Name   string
}

func TestMsgPack(t *testing.T) {
	Convey("Values survive a msgpack round trip", t, func() {
		buf, err := EncodeMsgPack(&entry{Parent: 42, Name: "root"})
		So(err, ShouldBeNil)
		var out entry
		So(DecodeMsgPack(buf.Bytes(), &out), ShouldBeNil)
		So(out, ShouldResemble, entry{Parent: 42, Name: "root"})
	})
	Convey("Strings decode as strings inside interfaces", t, func() {
		buf, err := EncodeMsgPack(map[string]interface{}{"name": "root"})
		So(err, ShouldBeNil)
		var out map[string]interface{}
		So(DecodeMsgPack(buf.Bytes(), &out), ShouldBeNil)
		So(out["name"], ShouldEqual, "root")
		So(msgpackHandle.RawToString, ShouldBeTrue)
		So(msgpackHandle.WriteExt, ShouldBeTrue)
	})
	Convey("Decoding garbage fails", t, func() {
		var out uint64
		So(DecodeMsgPack([]byte{0xc1}, &out), ShouldNotBeNil)
	})
}

func TestWaitForExit(t *testing.T) {
	Convey("The exit channel can be released", t, func() {
		ch := WaitForExit()
		So(cap(ch), ShouldEqual, 1)
		signal.Stop(ch)
	})
}

func TestOnExit(t *testing.T) {
	Convey("The exit callback sees the signal", t, func() {
		got := make(chan os.Signal, 1)
		stop := make(chan struct{})
		defer close(stop)
		OnExit(stop, func(sig os.Signal) { got <- sig })
		time.Sleep(10 * time.Millisecond)
		So(syscall.Kill(os.Getpid(), syscall.SIGTERM), ShouldBeNil)
		select {
		case sig := <-got:
			So(sig, ShouldEqual, syscall.SIGTERM)
		case <-time.After(time.Second):
			So("signal", ShouldBeEmpty)
		}
	})
}

func TestProfile(t *testing.T) {
	Convey("Profiles are written to the given files", t, func() {
		dir, err := ioutil.TempDir("", "profile")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		cpu, mem := filepath.Join(dir, "cpu"), filepath.Join(dir, "mem")
		So(StartProfile(cpu, mem), ShouldBeNil)
		StopProfile()
		st, err := os.Stat(mem)
		So(err, ShouldBeNil)
		So(st.Size(), ShouldBeGreaterThan, 0)
		_, err = os.Stat(cpu)
		So(err, ShouldBeNil)
	})
	Convey("Unwritable profile paths are reported", t, func() {
		dir, err := ioutil.TempDir("", "profile")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		missing := filepath.Join(dir, "missing", "cpu")
		So(StartProfile(missing, ""), ShouldNotBeNil)
		So(StartProfile("", missing), ShouldNotBeNil)
		StopProfile()
	})
}
