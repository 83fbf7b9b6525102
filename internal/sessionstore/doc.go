// Package sessionstore keeps in-progress assignment sessions between HTTP
// requests. MemoryStore serves single-process deployments; RedisStore lets
// several API instances share sessions.
package sessionstore
