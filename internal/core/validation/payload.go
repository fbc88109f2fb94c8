// Package validation normalizes and validates raw webhook payloads before
// they reach the shipment service. It performs no I/O: every rule here is a
// pure shape check over the decoded JSON body.
package validation

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
)

var (
	jobIDPattern      = regexp.MustCompile(`^B\d{8}$`)
	shipmentIDPattern = regexp.MustCompile(`^[A-Z]{4}\d{8}$`)
)

// JobPayload is the normalized job webhook body.
type JobPayload struct {
	JobID      string `validate:"required,job_id"`
	ShipmentID string `validate:"required,shipment_id"`
	Status     string `validate:"required,shipment_status"`
}

// LocationPayload is the normalized location webhook body. Status is
// optional; when present it must be a valid shipment status.
type LocationPayload struct {
	ShipmentID string `validate:"required,shipment_id"`
	Latitude   string `validate:"required,latitude"`
	Longitude  string `validate:"required,longitude"`
	Status     string `validate:"omitempty,shipment_status"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("job_id", patternRule(jobIDPattern))
	_ = v.RegisterValidation("shipment_id", patternRule(shipmentIDPattern))
	_ = v.RegisterValidation("shipment_status", func(fl validator.FieldLevel) bool {
		return domain.ShipmentStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("latitude", coordinateRule(-90, 90))
	_ = v.RegisterValidation("longitude", coordinateRule(-180, 180))
	return v
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// coordinateRule accepts strings parsing to a finite decimal within
// [min, max]. ParseFloat admits "NaN" and "Inf" spellings, so both are
// rejected explicitly.
func coordinateRule(min, max float64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(fl.Field().String(), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		return f >= min && f <= max
	}
}

// ParseJobPayload narrows a raw job webhook body into a JobPayload. String
// values are trimmed. In permissive mode (strict=false) unknown fields are
// dropped silently; in strict mode each one is a violation. On failure the
// returned error is a domain validation error carrying every violated rule.
func ParseJobPayload(raw map[string]any, strict bool) (*JobPayload, error) {
	var violations []string
	skip := map[string]bool{}

	p := &JobPayload{
		JobID:      stringField(raw, "job", "Job ID", "JobID", &violations, skip),
		ShipmentID: stringField(raw, "shipment", "Shipment ID", "ShipmentID", &violations, skip),
		Status:     stringField(raw, "status", "Status", "Status", &violations, skip),
	}

	violations = append(violations, structViolations(p, skip)...)
	if strict {
		violations = append(violations, unknownFieldViolations(raw, "job", "shipment", "status")...)
	}

	if len(violations) > 0 {
		return nil, domain.NewValidationError(violations)
	}
	return p, nil
}

// ParseLocationPayload narrows a raw location webhook body into a
// LocationPayload, with the same trimming and unknown-field rules as
// ParseJobPayload.
func ParseLocationPayload(raw map[string]any, strict bool) (*LocationPayload, error) {
	var violations []string
	skip := map[string]bool{}

	p := &LocationPayload{
		ShipmentID: stringField(raw, "shipment", "Shipment ID", "ShipmentID", &violations, skip),
		Latitude:   stringField(raw, "latitude", "Latitude", "Latitude", &violations, skip),
		Longitude:  stringField(raw, "longitude", "Longitude", "Longitude", &violations, skip),
		Status:     stringField(raw, "status", "Status", "Status", &violations, skip),
	}

	violations = append(violations, structViolations(p, skip)...)
	if strict {
		violations = append(violations, unknownFieldViolations(raw, "shipment", "latitude", "longitude", "status")...)
	}

	if len(violations) > 0 {
		return nil, domain.NewValidationError(violations)
	}
	return p, nil
}

// ParseJobID validates the jobId path parameter of the query endpoint.
func ParseJobID(raw string) (string, error) {
	jobID := strings.TrimSpace(raw)
	switch {
	case jobID == "":
		return "", domain.NewValidationError([]string{"Job ID is required"})
	case !jobIDPattern.MatchString(jobID):
		return "", domain.NewValidationError([]string{"Job ID must match pattern B00000000"})
	}
	return jobID, nil
}

// stringField extracts and trims one known key. A present non-string value is
// a violation; the field is then excluded from struct validation so it is not
// reported twice.
func stringField(raw map[string]any, key, label, structField string, violations *[]string, skip map[string]bool) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		*violations = append(*violations, label+" must be a string")
		skip[structField] = true
		return ""
	}
	return strings.TrimSpace(s)
}

func structViolations(payload any, skip map[string]bool) []string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid payload"}
	}

	var out []string
	for _, fe := range ve {
		if skip[fe.StructField()] {
			continue
		}
		out = append(out, violationMessage(fe))
	}
	return out
}

// violationMessage mirrors the per-rule messages the webhook consumers rely on.
func violationMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "JobID":
		if fe.Tag() == "required" {
			return "Job ID is required"
		}
		return "Job ID must match pattern B00000000"
	case "ShipmentID":
		if fe.Tag() == "required" {
			return "Shipment ID is required"
		}
		return "Shipment ID must match pattern ABCD12345678"
	case "Status":
		if fe.Tag() == "required" {
			return "Status is required"
		}
		return "Invalid status"
	case "Latitude":
		if fe.Tag() == "required" {
			return "Latitude is required"
		}
		return "Invalid latitude: must be between -90 and 90"
	case "Longitude":
		if fe.Tag() == "required" {
			return "Longitude is required"
		}
		return "Invalid longitude: must be between -180 and 180"
	}
	return fe.StructField() + " failed validation (" + fe.Tag() + ")"
}

func unknownFieldViolations(raw map[string]any, known ...string) []string {
	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}

	var unknown []string
	for k := range raw {
		if !knownSet[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	out := make([]string, 0, len(unknown))
	for _, k := range unknown {
		out = append(out, "Unknown field \""+k+"\" is not allowed")
	}
	return out
}
