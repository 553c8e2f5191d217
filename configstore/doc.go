// Package configstore holds the admin-editable configuration: its data
// model, defaults, validation, sanitizing, and persistence.
//
// The active configuration is read once when an engine is built and written
// on every accepted admin edit. A missing or unusable record is never an
// error for readers; [Store.Load] substitutes [Default] and logs the reason.
//
// Backends: [RedisBackend] (plain GET/SET), [SQLiteBackend] (kv table upsert)
// and [MemoryBackend].
package configstore
