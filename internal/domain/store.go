package domain

// Datastore groups the repositories behind a single handle so services can
// run multi-repository work inside one database transaction. The Datastore
// passed to the WithTransaction callback shares that transaction; the outer
// Datastore must not be used inside the callback.
type Datastore interface {
	Users() UserRepository
	Accounts() AccountRepository
	Payments() PaymentRepository
	WithTransaction(fn func(Datastore) error) error
}
