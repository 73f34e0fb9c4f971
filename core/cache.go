package core

import "time"

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	// Take returns and removes the value of key in one step.
	Take(key string) (interface{}, bool)
}
