// Package domain contains the core business entities and logic of the
// application: content units, study artifacts, generation tasks and their
// state machine, and the job records behind asynchronous generation. It is
// independent of any storage or delivery mechanism.
package domain
