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
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/CovenantSQL/sequent/utils/log"
)

// CacheConfig defines the equality cache settings.
type CacheConfig struct {
	// Backend is MemoryBackend or LevelDBBackend.
	Backend string `yaml:"Backend"`
	// Path is the leveldb directory, empty keeps leveldb in memory.
	Path string `yaml:"Path"`

	HashRetries          int `yaml:"HashRetries"`
	JoinRetries          int `yaml:"JoinRetries"`
	FindRetries          int `yaml:"FindRetries"`
	UnlockedEqualRetries int `yaml:"UnlockedEqualRetries"`
	LockedEqualRetries   int `yaml:"LockedEqualRetries"`
}

// MetricConfig defines metric reporting.
type MetricConfig struct {
	// Web is the listen address of the metric endpoints, empty disables it.
	Web string `yaml:"Web"`
	// Graphite is the graphite server to push metrics, empty disables it.
	Graphite string `yaml:"Graphite"`
	// Log prints metrics periodically into the log.
	Log      bool          `yaml:"Log"`
	Interval time.Duration `yaml:"Interval"`
}

// Config holds all the config read from yaml config file.
type Config struct {
	// MaxWorkers is the live worker ceiling of every parallel run, 0 is unlimited.
	MaxWorkers     int           `yaml:"MaxWorkers"`
	WakeupInterval time.Duration `yaml:"WakeupInterval"`
	// UseCache enables the shared equality cache.
	UseCache bool   `yaml:"UseCache"`
	LogLevel string `yaml:"LogLevel"`

	Cache  CacheConfig  `yaml:"Cache"`
	Metric MetricConfig `yaml:"Metric"`
}

// GConf is the global config pointer.
var GConf = Default()

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WakeupInterval: DefaultWakeupInterval,
		UseCache:       true,
		LogLevel:       DefaultLogLevel,
		Cache: CacheConfig{
			Backend:              MemoryBackend,
			HashRetries:          DefaultHashRetries,
			JoinRetries:          DefaultJoinRetries,
			FindRetries:          DefaultFindRetries,
			UnlockedEqualRetries: DefaultUnlockedEqualRetries,
			LockedEqualRetries:   DefaultLockedEqualRetries,
		},
		Metric: MetricConfig{
			Interval: DefaultMetricInterval,
		},
	}
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if c.MaxWorkers < 0 {
		return errors.Errorf("invalid MaxWorkers %d", c.MaxWorkers)
	}
	if c.WakeupInterval <= 0 {
		return errors.Errorf("invalid WakeupInterval %s", c.WakeupInterval)
	}
	switch c.Cache.Backend {
	case MemoryBackend, LevelDBBackend:
	default:
		return errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	r := c.Cache
	if r.HashRetries < 1 || r.JoinRetries < 1 || r.FindRetries < 1 || r.UnlockedEqualRetries < 1 {
		return errors.New("cache retry limits must be positive")
	}
	if r.LockedEqualRetries <= r.UnlockedEqualRetries {
		return errors.Errorf("LockedEqualRetries %d must exceed UnlockedEqualRetries %d",
			r.LockedEqualRetries, r.UnlockedEqualRetries)
	}
	return nil
}

// LoadConfig loads config from configPath over the defaults.
func LoadConfig(configPath string) (config *Config, err error) {
	configBytes, err := ioutil.ReadFile(configPath)
	if err != nil {
		log.WithError(err).Error("read config file failed")
		return nil, errors.Wrap(err, "read config file failed")
	}
	config = Default()
	if err = yaml.Unmarshal(configBytes, config); err != nil {
		log.WithError(err).Error("unmarshal config file failed")
		return nil, errors.Wrap(err, "unmarshal config file failed")
	}
	if err = config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return
}
