// Package services provides domain services of the parcel locker system: logic
// that belongs to no single aggregate.
//
// The package includes:
//   - PickupCodeGenerator: draws random fixed-width codes and claims them atomically
//   - PriceCalculator: computes the pickup charge for a container
package services
