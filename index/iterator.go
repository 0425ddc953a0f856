package index

// Iterator walks entries in ascending key order.
type Iterator interface {
	Next() bool
	Key() int64
	Value() Locator
	Error() error
	Close() error
}
