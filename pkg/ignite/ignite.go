// Package ignite is the public entry point for ignitedb, a Bitcask-model
// key/value store: an append-only on-disk log paired with an in-memory
// index, tuned for fast point reads and sequential writes.
//
// Instance is the only type callers need. Open it once per database
// directory, use Get/Put/Delete/Keys/Compact freely from multiple
// goroutines, and Close it when done.
package ignite

import (
	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

// Instance is an open handle to an ignitedb database directory. It is safe
// for concurrent use by multiple goroutines.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// Open opens (creating, if Options.Create allows it) the database directory
// at path, recovering its index from existing segments and starting the
// configured background sync and compaction goroutines.
//
// service names the logger this instance and its subsystems share; it shows
// up on every log line, which is useful when a process holds more than one
// ignitedb instance open.
func Open(path string, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)
	resolved := options.Apply(opts...)

	eng, err := engine.New(&engine.Config{Dir: path, Options: &resolved, Logger: log})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &resolved}, nil
}

// Get returns the current value for key. It returns engine.ErrKeyNotFound
// if key has no live value.
func (i *Instance) Get(key []byte) ([]byte, error) {
	return i.engine.Get(key)
}

// Put stores value under key, overwriting whatever was there before.
func (i *Instance) Put(key, value []byte) error {
	return i.engine.Put(key, value)
}

// Delete removes key. It is a no-op if key has no live value.
func (i *Instance) Delete(key []byte) error {
	return i.engine.Delete(key)
}

// Keys returns a snapshot of every live key currently in the store.
func (i *Instance) Keys() ([][]byte, error) {
	return i.engine.Keys()
}

// Compact runs an immediate, synchronous compaction pass, independent of
// the background compaction schedule.
func (i *Instance) Compact() error {
	return i.engine.Compact()
}

// Options returns the resolved configuration this instance was opened with.
func (i *Instance) Options() options.Options {
	return *i.options
}

// Close stops the background sync and compaction goroutines, flushes and
// releases every open file handle, and releases the directory lock.
// Subsequent calls on i return engine.ErrEngineClosed.
func (i *Instance) Close() error {
	return i.engine.Close()
}
