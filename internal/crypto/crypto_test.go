package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := New(key)
	require.NoError(t, err)

	sealed, err := s.SealString("hunter2")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "hunter2")

	again, err := s.SealString("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	pt, err := s.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pt)
}

func TestOpenRejectsTampering(t *testing.T) {
	key, _ := GenerateKey()
	s, _ := New(key)
	sealed, _ := s.SealString("hunter2")

	b := []byte(sealed)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	_, err := s.OpenString(string(b))
	assert.Error(t, err)

	other, _ := GenerateKey()
	s2, _ := New(other)
	_, err = s2.OpenString(sealed)
	assert.Error(t, err)

	_, err = s.OpenString("c2hvcnQ")
	assert.Error(t, err)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New(make([]byte, 16))
	assert.Error(t, err)
}
