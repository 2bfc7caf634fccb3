package cache

import "errors"

// ErrCacheMiss indicates the key was not found or has expired
var ErrCacheMiss = errors.New("cache: key not found")
