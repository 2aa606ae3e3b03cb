package storage

// InitStore opens a PostgresStore for the given connection string.
func InitStore(dbConnStr string) (*PostgresStore, error) {
	return NewPostgresStore(dbConnStr)
}
