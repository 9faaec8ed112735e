package store

// Store is a durable key-value mapping shared by the response cache,
// the usage trackers and the position store. Implementations must make
// each operation atomic with respect to concurrent scans; Update runs
// the full read-modify-write under the store's lock.
//
// A missing key is not an error: Get returns ok=false.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
	Update(key string, fn func(old []byte) ([]byte, error)) error
	Keys() ([]string, error)
	Close() error
}
