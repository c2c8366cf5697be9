// Package payment contains the Payment aggregate: a settlement request sent to
// the external payment gateway on behalf of a delivery order.
//
// Key business rules:
//   - Amounts are whole MNT and strictly positive
//   - Unpaid is the only non-terminal status
//   - Settle raises Settled; the storage layer guarantees only one caller can
//     persist that transition, so the event is delivered at most once
//   - An order may be re-invoiced only after its previous payment Failed
package payment
