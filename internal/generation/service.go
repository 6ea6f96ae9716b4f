package generation

import (
	"context"
	"encoding/json"

	"github.com/caselight/caselight-api/internal/domain"
	"github.com/google/uuid"
)

// Request carries everything a generation backend needs to produce one
// artifact for one content unit.
type Request struct {
	UnitID     uuid.UUID
	Kind       domain.ArtifactKind
	SourceText string
	Locale     string
}

// ResponseStatus distinguishes the two completion modes of a generation
// call.
type ResponseStatus string

const (
	// StatusDone means the artifact was produced inline and is carried in
	// the response.
	StatusDone ResponseStatus = "done"

	// StatusAccepted means the work was handed to an out-of-band worker;
	// completion must be discovered by polling the job's status record.
	StatusAccepted ResponseStatus = "accepted"
)

// Response is the result of a generation call: either a finished
// artifact payload, or a job reference to poll.
type Response struct {
	Status ResponseStatus

	// Artifact is the inline payload when Status is StatusDone.
	Artifact json.RawMessage

	// JobRef identifies the status record to poll when Status is
	// StatusAccepted.
	JobRef uuid.UUID

	// Expected is the advisory sub-item total for progress display on the
	// accepted path. Zero when unknown.
	Expected int
}

// Service defines the boundary between the orchestration core and the
// external AI generation backends. Implementations may take from under a
// second to several minutes per call; callers must pass a cancellable
// context.
type Service interface {
	// Generate produces the artifact for the request, or accepts it for
	// out-of-band production. See errors.go for the failure taxonomy.
	Generate(ctx context.Context, req Request) (*Response, error)
}
