package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	SubscriptionEvent() SubscriptionEventRepository
	MemberThread() MemberThreadRepository
	Cancellation() CancellationRepository

	Close() error
}
