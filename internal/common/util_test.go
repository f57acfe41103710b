package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	require.Len(t, s, n*2)

	_, err = hex.DecodeString(s)
	require.NoError(t, err)

	other, err := MakeRandHexString(n)
	require.NoError(t, err)
	require.NotEqual(t, s, other)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	require.Equal(t, make([]byte, 5), buf)

	WipeByteArray(nil) // must not panic
}
