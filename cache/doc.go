// Package cache provides the in-process byte cache served by the localcache
// plugin.
//
// Two implementations satisfy Cache: MemoryCache, a map with lazy TTL
// expiry and an optional entry bound, and RistrettoCache, backed by
// github.com/dgraph-io/ristretto for admission-controlled caching of large
// working sets. Policy supplies default and maximum TTLs to both.
package cache
