// Package jobs is the dispatch side of background work: it validates the
// queue name against the closed set, serializes typed payloads, applies
// the process-wide retry/retention policy, and reads job status and queue
// health back out. Execution belongs to a separate worker process.
package jobs
