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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/compare"
	"github.com/CovenantSQL/sequent/conf"
	"github.com/CovenantSQL/sequent/executor"
	"github.com/CovenantSQL/sequent/store"
)

// Open builds a prover and its executor from cfg. The returned closer
// releases the cache backends. A leveldb cache directory is scratch space,
// it is emptied on open.
func Open(cfg *conf.Config, registry metrics.Registry) (p *Prover, closer func() error, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid config")
	}

	exec := executor.New(&executor.Config{
		Control:        executor.NewControl(cfg.MaxWorkers),
		WakeupInterval: cfg.WakeupInterval,
		Registry:       registry,
	})
	closer = func() error { return nil }
	if !cfg.UseCache {
		return New(exec, &Config{}), closer, nil
	}

	cacheCfg := &compare.Config{
		Limits:   compare.LimitsFromConfig(&cfg.Cache),
		Registry: registry,
	}
	if cfg.Cache.Backend == conf.LevelDBBackend {
		var parents, hashes *store.LevelDB[uint64, uint64]
		parentsPath, hashesPath := "", ""
		if cfg.Cache.Path != "" {
			// identities are only unique within a process, stale classes must go
			parentsPath = filepath.Join(cfg.Cache.Path, "parents")
			hashesPath = filepath.Join(cfg.Cache.Path, "hashes")
			for _, dir := range []string{parentsPath, hashesPath} {
				if err = os.RemoveAll(dir); err != nil {
					return nil, nil, errors.Wrapf(err, "clear cache store %s failed", dir)
				}
			}
		}
		if parents, err = store.OpenLevelDB[uint64, uint64](parentsPath); err != nil {
			return nil, nil, errors.Wrap(err, "open parents store failed")
		}
		if hashes, err = store.OpenLevelDB[uint64, uint64](hashesPath); err != nil {
			_ = parents.Close()
			return nil, nil, errors.Wrap(err, "open hashes store failed")
		}
		cacheCfg.Parents, cacheCfg.Hashes = parents, hashes
		closer = func() error {
			errParents, errHashes := parents.Close(), hashes.Close()
			if errParents != nil {
				return errParents
			}
			return errHashes
		}
	}

	return New(exec, &Config{UseCache: true, Cache: cacheCfg}), closer, nil
}
