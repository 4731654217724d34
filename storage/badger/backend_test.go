package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir() + "/kb"
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestWithTx_Closed(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestIteratePrefix_Reverse(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithTx(func(tx *badger.Txn) error {
		for i := 1; i <= 3; i++ {
			if err := tx.Set(makeSearchLogKey(idOf(i)), []byte{byte(i)}); err != nil {
				return err
			}
		}
		// Neighbouring prefix must not leak into the scan
		if err := tx.Set(makeArticleKey(1), []byte{9}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	var forward, backward []byte
	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := iteratePrefix(tx, []byte(searchLogPrefix), false, func(_, val []byte) (bool, error) {
			forward = append(forward, val[0])
			return true, nil
		}); err != nil {
			return err
		}
		return iteratePrefix(tx, []byte(searchLogPrefix), true, func(_, val []byte) (bool, error) {
			backward = append(backward, val[0])
			return true, nil
		})
	}, false)
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 2, 3}, forward)
	assert.Equal(t, []byte{3, 2, 1}, backward)
}
