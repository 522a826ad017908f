package ledger

import (
	"path/filepath"
	"testing"

	"github.com/forest-guardian/cropharvest-cli/internal/augment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ augment.Recorder = (*Ledger)(nil)

func TestLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "augment.db")
	l, err := Open(path)
	require.NoError(t, err)

	recorded, err := l.Recorded("0_kenya")
	require.NoError(t, err)
	assert.False(t, recorded)

	require.NoError(t, l.Record("0_kenya", 23))
	require.NoError(t, l.Record("1_kenya", 23))
	require.NoError(t, l.Record("0_kenya", 28))

	recorded, err = l.Recorded("0_kenya")
	require.NoError(t, err)
	assert.True(t, recorded)

	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	e, ok, err := l.Get("0_kenya")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 28, e.Channels)
	assert.False(t, e.AugmentedAt.IsZero())

	_, ok, err = l.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	n, err = reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
