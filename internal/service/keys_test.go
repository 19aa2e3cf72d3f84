package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyScheme(t *testing.T) {
	plain := KeyScheme{}
	assert.Equal(t, "owner-scope:1", plain.OwnerScope(1))
	assert.Equal(t, "resource-scope:7:1", plain.ResourceScope(7, 1))
	assert.Equal(t, "lock:7:1", plain.Lock(7, 1))

	ns := KeyScheme{Namespace: "tenant-a"}
	assert.Equal(t, "tenant-a:owner-scope:1", ns.OwnerScope(1))
	assert.Equal(t, "tenant-a:resource-scope:7:1", ns.ResourceScope(7, 1))
	assert.Equal(t, "tenant-a:lock:7:1", ns.Lock(7, 1))
}

func TestKeySchemeKeysAreDistinct(t *testing.T) {
	k := KeyScheme{}
	assert.NotEqual(t, k.ResourceScope(1, 23), k.ResourceScope(12, 3))
	assert.NotEqual(t, k.Lock(7, 1), k.ResourceScope(7, 1))
	assert.NotEqual(t, k.OwnerScope(1), KeyScheme{Namespace: "x"}.OwnerScope(1))
}
