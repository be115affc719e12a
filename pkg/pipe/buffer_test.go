package pipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	b, err := NewBuffer(10)
	require.NoError(t, err)

	_, err = b.W.WriteString("hello")
	require.NoError(t, err)
	b.Wait()

	assert.Equal(t, "hello", string(b.Bytes()))
	assert.False(t, b.Truncated())
	assert.Equal(t, "Buffer[5/10]", b.String())
}

func TestBuffer_Truncated(t *testing.T) {
	b, err := NewBuffer(5)
	require.NoError(t, err)

	// larger than the pipe capacity, the writer must not block
	_, err = b.W.WriteString(strings.Repeat("x", 1<<20))
	require.NoError(t, err)
	b.Wait()

	assert.Equal(t, "xxxxx", string(b.Bytes()))
	assert.True(t, b.Truncated())
}
