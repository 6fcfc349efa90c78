// Package approval implements the human-in-the-loop approval pipeline for
// generated business recommendations. Every recommendation is routed through
// a single outstanding approval request that can be decided from the in-app
// UI or the chat channel; the decision ledger guarantees each task is decided
// at most once.
package approval
