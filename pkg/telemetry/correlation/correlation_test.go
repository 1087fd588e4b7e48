package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDGeneratesULID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	_, err := ulid.Parse(cid)
	require.NoError(t, err)
	assert.Equal(t, cid, ExtractCorrelationID(ctx))

	_, again := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, again)
}

func TestEnsureCorrelationIDPerCommand(t *testing.T) {
	root := context.Background()
	_, first := EnsureCorrelationID(root)
	_, second := EnsureCorrelationID(root)
	assert.NotEqual(t, first, second)
}

func TestContextWithCorrelationIDIgnoresEmpty(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "")
	assert.Equal(t, "", ExtractCorrelationID(ctx))

	//nolint:staticcheck
	assert.Equal(t, "", ExtractCorrelationID(nil))
}
