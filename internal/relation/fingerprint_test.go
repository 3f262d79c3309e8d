package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFingerprint_Deterministic(t *testing.T) {
	a := NewFingerprint("parents", "DS-1", map[string]string{"collection": "/DDB/CK/FASTA", "limit": "50"})
	b := NewFingerprint("parents", "DS-1", map[string]string{"limit": "50", "collection": "/DDB/CK/FASTA"})
	assert.Equal(t, a, b)
}

func TestNewFingerprint_Distinguishes(t *testing.T) {
	base := NewFingerprint("parents", "DS-1", map[string]string{"limit": "50"})

	assert.NotEqual(t, base, NewFingerprint("children", "DS-1", map[string]string{"limit": "50"}))
	assert.NotEqual(t, base, NewFingerprint("parents", "DS-2", map[string]string{"limit": "50"}))
	assert.NotEqual(t, base, NewFingerprint("parents", "DS-1", map[string]string{"limit": "100"}))
	assert.NotEqual(t, base, NewFingerprint("parents", "DS-1", nil))
}

func TestNewFingerprint_Shape(t *testing.T) {
	fp := string(NewFingerprint("children", "DS-1", nil))
	assert.Len(t, fp, len("rel:")+32)
	assert.Contains(t, fp, "rel:")
}
