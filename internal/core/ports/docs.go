// Package ports defines the contracts between the parcel locker core and its
// infrastructure: repositories for the locker, order and payment aggregates,
// and the external collaborators (payment gateway, SMS, unlock channel, event
// stream). Adapters under internal/adapters implement them.
package ports
