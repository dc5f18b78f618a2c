package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter("")
	require.NoError(t, err)

	n, err := c.Count("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTiktokenCounterUnknownEncoding(t *testing.T) {
	_, err := NewTiktokenCounter("no_such_encoding")
	assert.Error(t, err)
}

func TestCounterFunc(t *testing.T) {
	var c Counter = CounterFunc(func(text string) (int, error) { return len(text), nil })
	n, err := c.Count("abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
