package report

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeJSON returns the report as compact JSON.
func EncodeJSON(r TechnicalReportData) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, NewGenerationError(r.TestCaseTitle, "encode", err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, NewGenerationError(r.TestCaseTitle, "encode", err)
	}
	return data, nil
}

// DecodeJSON parses and validates a JSON report. Unknown keys are rejected.
func DecodeJSON(data []byte) (TechnicalReportData, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var r TechnicalReportData
	if err := dec.Decode(&r); err != nil {
		return TechnicalReportData{}, fmt.Errorf("decode report json: %w", err)
	}
	if err := r.Validate(); err != nil {
		return TechnicalReportData{}, err
	}
	return r, nil
}
