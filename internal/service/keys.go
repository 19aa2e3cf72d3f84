package service

import (
	"strconv"
	"strings"
)

// KeyScheme derives cache and lock keys. The zero value produces the plain
// keys; a Namespace isolates deployments or tenants sharing one store.
type KeyScheme struct {
	Namespace string
}

// OwnerScope is the cache key of an owner's full task list.
func (k KeyScheme) OwnerScope(ownerID int64) string {
	return k.join("owner-scope", strconv.FormatInt(ownerID, 10))
}

// ResourceScope is the cache key of one task.
func (k KeyScheme) ResourceScope(taskID, ownerID int64) string {
	return k.join("resource-scope", strconv.FormatInt(taskID, 10), strconv.FormatInt(ownerID, 10))
}

// Lock is the lock key guarding writes to one task.
func (k KeyScheme) Lock(taskID, ownerID int64) string {
	return k.join("lock", strconv.FormatInt(taskID, 10), strconv.FormatInt(ownerID, 10))
}

func (k KeyScheme) join(parts ...string) string {
	key := strings.Join(parts, ":")
	if k.Namespace == "" {
		return key
	}
	return k.Namespace + ":" + key
}
