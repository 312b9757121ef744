package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem_WriteText(t *testing.T) {
	var got string
	s := &System{write: func(text string) error { got = text; return nil }}

	require.NoError(t, s.WriteText("s3cr3t!"))
	assert.Equal(t, "s3cr3t!", got)
	assert.True(t, s.Available())
}

func TestSystem_WriteTextError(t *testing.T) {
	boom := errors.New("exit status 1")
	s := &System{write: func(string) error { return boom }}

	assert.ErrorIs(t, s.WriteText("x"), boom)
}

func TestSystem_Unsupported(t *testing.T) {
	called := false
	s := &System{write: func(string) error { called = true; return nil }, unsupported: true}

	assert.ErrorIs(t, s.WriteText("x"), ErrUnsupported)
	assert.False(t, called)
	assert.False(t, s.Available())
}
