package cache

import "time"

// Cache is a small byte cache used for expensive read paths, most notably the
// per-user conversation listing. Delete exists so writers can drop an entry
// when the underlying data changes rather than waiting out the TTL.
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, content []byte, duration time.Duration) error
	Delete(key string) error
}
