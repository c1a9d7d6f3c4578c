package source

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/feature-collection.json
var featureCollectionSchema []byte

// ErrMalformedJSON is returned when a document is not JSON at all.
var ErrMalformedJSON = errors.New("malformed JSON")

// Issue is one schema violation.
type Issue struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// String formats the issue as "field: description".
func (i Issue) String() string {
	return i.Field + ": " + i.Description
}

// SchemaReport is the result of checking a document against the schema.
type SchemaReport struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Schema returns the embedded FeatureCollection schema.
func Schema() []byte {
	return featureCollectionSchema
}

// Check validates doc against the FeatureCollection schema. The error is
// non-nil only when doc cannot be parsed as JSON.
func Check(doc []byte) (SchemaReport, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(featureCollectionSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return SchemaReport{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	report := SchemaReport{Valid: result.Valid()}

	for _, verr := range result.Errors() {
		report.Issues = append(report.Issues, Issue{
			Field:       verr.Field(),
			Description: verr.Description(),
		})
	}

	return report, nil
}

// Validate returns ErrInvalidDocument listing every violation, or nil.
func Validate(doc []byte) error {
	report, err := Check(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if report.Valid {
		return nil
	}

	msgs := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		msgs = append(msgs, issue.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
