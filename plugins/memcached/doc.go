// Package memcached provides a plugin owning a gomemcache client.
//
// Init retries a version probe against the server under the prestart
// policy. Terminate flushes the server unless FlushOnTerminate is off.
package memcached
