// Package locker models the physical side of the system: containers (cabinets
// addressed by their controller board id) and the lockers inside them.
//
// Key business rules:
//   - A board id identifies exactly one container
//   - A locker number is unique within its container, not globally
//   - A locker leaves Available only through Reserve; anything else is a conflict
//   - Release is idempotent and never takes a locker out of Maintenance
package locker
