// Package queue implements the Redis-backed durable job queues that sit
// behind the dispatcher. A queue holds typed payloads awaiting execution
// by an out-of-process worker; producers only ever add jobs and read
// status, the worker drives the claim/complete/fail lifecycle.
package queue
