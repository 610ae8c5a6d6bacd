package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xeipuuv/gojsonschema"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		if err.Field == "" {
			msgs = append(msgs, err.Message)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(msgs, "; ")
}

// Add appends one issue.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: message})
}

// Merge appends the issues of err under prefix. Non validation errors are
// recorded as a single message.
func (e *ValidationErrors) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	ve := GetValidationErrors(err)
	if ve == nil {
		e.Add(prefix, err.Error())
		return
	}
	for _, item := range ve.Errors {
		e.Add(joinPath(prefix, item.Field), item.Message)
	}
}

// OrNil returns nil when no issue was recorded.
func (e *ValidationErrors) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// New returns a ValidationErrors holding a single issue.
func New(field, message string) *ValidationErrors {
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Message: message}}}
}

// FromOzzo flattens ozzo-validation results (nested by field and by index)
// into dotted field paths. Internal errors are returned unchanged.
func FromOzzo(err error) error {
	if err == nil {
		return nil
	}
	var internal ozzo.InternalError
	if errors.As(err, &internal) {
		return err
	}
	out := &ValidationErrors{}
	flattenOzzo(out, "", err)
	return out.OrNil()
}

func flattenOzzo(out *ValidationErrors, prefix string, err error) {
	var errs ozzo.Errors
	if errors.As(err, &errs) {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if errs[k] == nil {
				continue
			}
			flattenOzzo(out, joinPath(prefix, k), errs[k])
		}
		return
	}
	out.Add(prefix, err.Error())
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks data against a JSON schema document.
func (v *Validator) Validate(data map[string]interface{}, schema map[string]interface{}) error {
	if len(schema) == 0 {
		// No schema defined, allow any data
		return nil
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return err
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(dataJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var validationErrors []ValidationError
		for _, desc := range result.Errors() {
			validationErrors = append(validationErrors, ValidationError{
				Field:   desc.Field(),
				Message: desc.Description(),
			})
		}
		return &ValidationErrors{Errors: validationErrors}
	}

	return nil
}

func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

func GetValidationErrors(err error) *ValidationErrors {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
