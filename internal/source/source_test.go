package source

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealguard/internal/order"
)

func TestLineSource_ReadBatch(t *testing.T) {
	in := "2\r\n1,1,a@x.com,1 Main,C,IL,1,1111\r\n2,1,a@x.com,1 Main,C,IL,1,2222\n"
	lines, err := NewLineSource(strings.NewReader(in)).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1,1,a@x.com,1 Main,C,IL,1,1111",
		"2,1,a@x.com,1 Main,C,IL,1,2222",
	}, lines)
}

func TestLineSource_IgnoresLinesPastCount(t *testing.T) {
	in := "1\n1,1,a@x.com,1 Main,C,IL,1,1111\nextra\n"
	lines, err := NewLineSource(strings.NewReader(in)).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestLineSource_ZeroCount(t *testing.T) {
	lines, err := NewLineSource(strings.NewReader(" 0 \n")).ReadBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLineSource_InvalidCount(t *testing.T) {
	for _, in := range []string{"", "abc\n", "-1\n", "1.5\n"} {
		_, err := NewLineSource(strings.NewReader(in)).ReadBatch(context.Background())
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidCount), in)
	}
}

func TestLineSource_MissingRecords(t *testing.T) {
	_, err := NewLineSource(strings.NewReader("3\nonly one\n")).ReadBatch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, order.ErrMalformedRecord))
	assert.Contains(t, err.Error(), "missing record 2 of 3")
}

func TestLineSource_HugeCount(t *testing.T) {
	for _, header := range []string{"9223372036854775807", "1099511627776"} {
		in := header + "\n1,1,a@x.com,1 Main,C,IL,1,1111\n"
		_, err := NewLineSource(strings.NewReader(in)).ReadBatch(context.Background())
		require.Error(t, err, header)
		assert.True(t, errors.Is(err, order.ErrMalformedRecord), header)
		assert.Contains(t, err.Error(), "missing record 2 of "+header)
	}
}
