// Package orchestrator coordinates AI content generation for study
// sessions: a per-session task registry enforcing one flight per
// (unit, kind), a wave-based batch scheduler with a concurrency ceiling,
// a status poller for out-of-band jobs, and the session facade that
// keeps the whole read path cache-first.
package orchestrator
