// Copyright 2025 Trustline Labs
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

package badger

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	badgerGcInterval     = 5 * time.Minute
	badgerGcDiscardRatio = 0.5
)

// BlobStoreBadger stores payment proof binaries in badger. Runs fully
// in memory when no data directory is provided.
type BlobStoreBadger struct {
	db       *badger.DB
	logger   *slog.Logger
	dataDir  string
	gcTimer  *time.Ticker
	gcDoneCh chan struct{}
}

// New creates a badger-backed blob store
func New(
	dataDir string,
	logger *slog.Logger,
) (*BlobStoreBadger, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var badgerOpts badger.Options
	if dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(NewBadgerLogger(logger))
	} else {
		blobDir := filepath.Join(dataDir, "blob")
		badgerOpts = badger.DefaultOptions(blobDir).
			WithLogger(NewBadgerLogger(logger)).
			// The default of 1GB is usually overkill for proof files
			WithValueLogFileSize(64 << 20).
			// Disable badger's conflict detection, since we don't need it
			WithDetectConflicts(false)
	}
	badgerDb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	b := &BlobStoreBadger{
		db:       badgerDb,
		logger:   logger,
		dataDir:  dataDir,
		gcDoneCh: make(chan struct{}),
	}
	if dataDir != "" {
		b.gcTimer = time.NewTicker(badgerGcInterval)
		go b.gcWorker()
	}
	return b, nil
}

// gcWorker periodically runs badger value log GC to reclaim space
func (b *BlobStoreBadger) gcWorker() {
	for {
		select {
		case <-b.gcDoneCh:
			return
		case <-b.gcTimer.C:
			// RunValueLogGC rewrites at most one value log file per call
			for {
				if err := b.db.RunValueLogGC(badgerGcDiscardRatio); err != nil {
					break
				}
			}
		}
	}
}

// NewTransaction starts a new badger transaction
func (b *BlobStoreBadger) NewTransaction(readWrite bool) *badger.Txn {
	return b.db.NewTransaction(readWrite)
}

// Close stops the GC worker and closes the badger DB
func (b *BlobStoreBadger) Close() error {
	if b.gcTimer != nil {
		b.gcTimer.Stop()
		close(b.gcDoneCh)
	}
	return b.db.Close()
}

// Drop removes all keys with the given prefix
func (b *BlobStoreBadger) Drop(prefix []byte) error {
	return b.db.DropPrefix(prefix)
}

// Size returns the LSM and value log sizes
func (b *BlobStoreBadger) Size() (int64, int64) {
	lsm, vlog := b.db.Size()
	if lsm < 0 || vlog < 0 {
		return math.MaxInt64, math.MaxInt64
	}
	return lsm, vlog
}
