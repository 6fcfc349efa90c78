// Package slate routes AI-generated business action recommendations through
// a single-slot human approval step. A generation cycle publishes one
// recommendation at a time; a human approves or rejects it from the UI or a
// chat channel, every decision is recorded at most once in an append-only
// ledger, and approved actions are queued for downstream execution.
//
// The package assembles the pipeline from configuration:
//
//	svc, err := slate.New(ctx, slate.WithConfig(cfg))
//	if err != nil { ... }
//	go svc.Runtime().Start(ctx)
//
// Sub-packages hold the moving parts: service/approval/coordinator drives
// the state machine, service/approval/ledger records decisions,
// service/executor drains approved tasks, service/notifier delivers chat
// prompts and gateway exposes the HTTP surface.
package slate
