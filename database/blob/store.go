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

package blob

import (
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	badgerstore "github.com/trustline-labs/trustline/database/blob/badger"
)

type BlobStore interface {
	// matches badger.DB
	Close() error
	NewTransaction(bool) *badger.Txn
}

// For now, this always returns a badger store
func New(
	storeName, dataDir string,
	logger *slog.Logger,
) (BlobStore, error) {
	return badgerstore.New(dataDir, logger)
}
