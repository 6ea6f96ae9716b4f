package generation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// questionSetSchema constrains the question-set artifact payload before
// it is persisted. Generated JSON that drifts from this shape would
// otherwise only fail at render time, long after the expensive call.
const questionSetSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["prompt", "choices", "answer_index"],
				"properties": {
					"prompt": {"type": "string", "minLength": 1},
					"choices": {
						"type": "array",
						"minItems": 2,
						"items": {"type": "string", "minLength": 1}
					},
					"answer_index": {"type": "integer", "minimum": 0},
					"explanation": {"type": "string"}
				}
			}
		}
	}
}`

var questionSetLoader = gojsonschema.NewStringLoader(questionSetSchema)

// ValidateQuestionSet checks a question-set payload against the artifact
// schema. Returns ErrInvalidResponse wrapping the first validation
// failure, or nil if the payload conforms.
func ValidateQuestionSet(payload []byte) error {
	result, err := gojsonschema.Validate(questionSetLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidResponse, errs[0])
		}
		return ErrInvalidResponse
	}

	return nil
}
