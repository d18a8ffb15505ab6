package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeObservables validates a request body against the expected shape:
// a JSON array of {"type": ..., "value": ...} objects with non-empty string
// fields and no extra keys.
func DecodeObservables(body io.Reader) ([]Observable, *APIError) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, invalidPayload(err.Error())
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var observables []Observable
	if err := dec.Decode(&observables); err != nil {
		return nil, invalidPayload(err.Error())
	}
	if dec.More() {
		return nil, invalidPayload("trailing data after observable list")
	}

	for i, observable := range observables {
		if observable.Type == "" || observable.Value == "" {
			return nil, invalidPayload(
				fmt.Sprintf("observable %d must have a non-empty type and value", i))
		}
	}

	return observables, nil
}

func invalidPayload(detail string) *APIError {
	return NewAPIError(
		CodeInvalidPayload,
		fmt.Sprintf("Invalid JSON payload received. %s.", detail),
	)
}

// Emails extracts the values of email-type observables, preserving order.
// Other observable types are accepted but not enrichable by this module.
func Emails(observables []Observable) []string {
	var emails []string
	for _, observable := range observables {
		if observable.Type == "email" {
			emails = append(emails, observable.Value)
		}
	}
	return emails
}
