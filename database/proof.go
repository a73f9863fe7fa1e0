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

package database

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrProofNotFound is returned when no proof blob exists for a transaction
var ErrProofNotFound = errors.New("proof not found")

func proofBlobKey(transactionId string) []byte {
	return fmt.Appendf(nil, "proof/%s", transactionId)
}

// StoreProof writes a payment proof blob for a transaction. Last write
// wins; prior proof content is overwritten.
func (d *Database) StoreProof(
	transactionId string,
	contentType string,
	data []byte,
	txn *Txn,
) error {
	tmpTxn := txn
	if tmpTxn == nil {
		tmpTxn = NewBlobOnlyTxn(d, true)
	}
	key := proofBlobKey(transactionId)
	if err := tmpTxn.Blob().Set(key, data); err != nil {
		if txn == nil {
			tmpTxn.Release()
		}
		return fmt.Errorf("failed to store proof: %w", err)
	}
	ctKey := fmt.Appendf(nil, "proofct/%s", transactionId)
	if err := tmpTxn.Blob().Set(ctKey, []byte(contentType)); err != nil {
		if txn == nil {
			tmpTxn.Release()
		}
		return fmt.Errorf("failed to store proof content type: %w", err)
	}
	if txn == nil {
		return tmpTxn.Commit()
	}
	return nil
}

// GetProof reads a payment proof blob and its content type
func (d *Database) GetProof(
	transactionId string,
	txn *Txn,
) ([]byte, string, error) {
	tmpTxn := txn
	if tmpTxn == nil {
		tmpTxn = NewBlobOnlyTxn(d, false)
		defer tmpTxn.Release()
	}
	item, err := tmpTxn.Blob().Get(proofBlobKey(transactionId))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, "", ErrProofNotFound
		}
		return nil, "", fmt.Errorf("failed to read proof: %w", err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read proof value: %w", err)
	}
	contentType := "application/octet-stream"
	ctKey := fmt.Appendf(nil, "proofct/%s", transactionId)
	if ctItem, err := tmpTxn.Blob().Get(ctKey); err == nil {
		if ctVal, err := ctItem.ValueCopy(nil); err == nil && len(ctVal) > 0 {
			contentType = string(ctVal)
		}
	}
	return data, contentType, nil
}
