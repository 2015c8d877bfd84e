package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	d := NewLocal(root)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "reports/a.csv", strings.NewReader("id,total"), "text/csv"))
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(root, "reports", "a.csv")), d.URL("reports/a.csv"))

	rc, err := d.Open(ctx, "reports/a.csv")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "id,total", string(b))

	require.NoError(t, d.Delete(ctx, "reports/a.csv"))
	require.NoError(t, d.Delete(ctx, "reports/a.csv"), "deleting twice is fine")
	_, err = d.Open(ctx, "reports/a.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	d := NewLocal(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"../x", "a/../../x", "", "a//b"} {
		assert.Error(t, d.Put(ctx, key, strings.NewReader("x"), ""), key)
	}
}

func TestS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
