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

package database_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/database"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProofRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	transactionId := uuid.NewString()
	payload := []byte("not really a png")

	err := db.StoreProof(transactionId, "image/png", payload, nil)
	require.NoError(t, err)

	data, contentType, err := db.GetProof(transactionId, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/png", contentType)
}

func TestProofNotFound(t *testing.T) {
	db := newTestDatabase(t)
	_, _, err := db.GetProof(uuid.NewString(), nil)
	assert.ErrorIs(t, err, database.ErrProofNotFound)
}

func TestProofOverwrite(t *testing.T) {
	db := newTestDatabase(t)
	transactionId := uuid.NewString()

	require.NoError(
		t,
		db.StoreProof(transactionId, "image/png", []byte("first"), nil),
	)
	require.NoError(
		t,
		db.StoreProof(
			transactionId,
			"application/pdf",
			[]byte("second"),
			nil,
		),
	)

	data, contentType, err := db.GetProof(transactionId, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, "application/pdf", contentType)
}

func TestProofEmptyContentTypeDefaults(t *testing.T) {
	db := newTestDatabase(t)
	transactionId := uuid.NewString()

	require.NoError(
		t,
		db.StoreProof(transactionId, "", []byte("blob"), nil),
	)

	_, contentType, err := db.GetProof(transactionId, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestProofWithinSharedTxn(t *testing.T) {
	db := newTestDatabase(t)
	transactionId := uuid.NewString()

	// Writes inside an uncommitted transaction are invisible to readers
	txn := db.Transaction(true)
	require.NoError(
		t,
		db.StoreProof(transactionId, "image/jpeg", []byte("receipt"), txn),
	)
	_, _, err := db.GetProof(transactionId, nil)
	assert.ErrorIs(t, err, database.ErrProofNotFound)

	require.NoError(t, txn.Commit())
	data, contentType, err := db.GetProof(transactionId, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("receipt"), data)
	assert.Equal(t, "image/jpeg", contentType)
}
