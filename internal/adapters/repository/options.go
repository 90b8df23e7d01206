package repository

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBusyTimeout sets the SQLite busy_timeout pragma in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(s *SQLiteStore) {
		if ms > 0 {
			s.busyTimeout = ms
		}
	}
}
