package rtmlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLReturnsSameLoggerInstance(t *testing.T) {
	a := L()
	b := L()
	require.NotNil(t, a)
	require.Same(t, a, b)
}
