package audit

import "context"

// Store is the durable sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEmployee(ctx context.Context, employeeID string) ([]Event, error)
}
