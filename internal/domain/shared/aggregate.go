package shared

// BaseAggregateRoot is embedded by Category, Product and InventoryItem.
// Version backs optimistic locking on plain updates; stock movements lock
// the row instead and still bump it so readers can detect a change.
type BaseAggregateRoot struct {
	BaseEntity
	Version int           `gorm:"not null;default:1"`
	pending []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot starts a fresh aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the optimistic-lock version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// MarkChanged refreshes UpdatedAt and bumps the version
func (a *BaseAggregateRoot) MarkChanged() {
	a.Touch()
	a.Version++
}

// AddDomainEvent queues an event until the caller has persisted the aggregate
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events without draining them
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// PullDomainEvents hands the queued events to the caller and empties the
// queue, so an event is published at most once per aggregate instance.
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// ClearDomainEvents drops queued events, e.g. after a rolled-back write
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
