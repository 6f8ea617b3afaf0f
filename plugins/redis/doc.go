// Package redis provides a plugin owning a go-redis client.
//
// Three connection types are supported:
//
//   - "redis": a single server addressed by URL or host, port and db
//   - "sentinel": a master-routing failover client over a sentinel list
//   - "fakeredis": an in-process miniredis server, for tests and demos
//
// Init dials the server under the prestart retry policy, then pings the new
// client once. A failed ping is not retried.
//
// Usage:
//
//	p := redis.New("redis")
//	h.Use(p, redis.Config{Type: redis.TypeRedis, Host: "cache", Port: 6379})
//	...
//	client, err := p.Client()
package redis
