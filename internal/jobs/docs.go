// Package jobs provides scheduled background tasks for the locker service.
//
// Jobs are cron-based, built on github.com/robfig/cron/v3 with second
// precision.
//
// # Available Jobs
//
// PaymentReconciliationJob runs every 30 seconds by default. It asks the
// payment gateway about invoiced payments still marked unpaid, settles the
// ones that were paid without a callback, and fails the ones older than the
// invoice TTL so the recipient can be invoiced again.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(reconcileHandler, jobs.ReconcileConfig{}, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failing pass is logged and retried on the next tick. A pass still
// running when the next tick fires makes that tick a no-op.
package jobs
