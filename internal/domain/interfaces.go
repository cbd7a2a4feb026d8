package domain

import "context"

// KVStore is the persistence backend: a string key/value store.
// Get reports ok=false with a nil error when key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// EmployeeDirectory is what the UI collaborator needs from the record store.
type EmployeeDirectory interface {
	All() []Employee
	Get(id int64) (Employee, error)
	Create(ctx context.Context, fields EmployeeFields) (Employee, error)
	Update(ctx context.Context, id int64, fields EmployeeFields) (Employee, error)
	Delete(ctx context.Context, id int64) (Employee, error)
	Validate(fields EmployeeFields, excludeID int64) error
}
