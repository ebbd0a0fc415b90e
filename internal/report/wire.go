package report

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the TechnicalReportData message.
const (
	fieldTestCaseTitle              protowire.Number = 1
	fieldStatus                     protowire.Number = 2
	fieldFailingPhrase              protowire.Number = 3
	fieldFailureReason              protowire.Number = 4
	fieldFailingPhraseIndex         protowire.Number = 5
	fieldFilteredPhraseBody         protowire.Number = 6
	fieldPhrasesSkippedDueToFailure protowire.Number = 7
)

// maxMessageSize bounds a single delimited message on read.
const maxMessageSize = 64 << 20

// MarshalBinary encodes the report in protobuf wire format. Fields are written
// in field-number order and proto3 zero values are omitted, so equal reports
// always encode to identical bytes.
func (r TechnicalReportData) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, NewGenerationError(r.TestCaseTitle, "encode", err)
	}
	return r.appendWire(nil), nil
}

func (r TechnicalReportData) appendWire(b []byte) []byte {
	b = appendString(b, fieldTestCaseTitle, r.TestCaseTitle)
	if r.Status != StatusNotRun {
		b = protowire.AppendTag(b, fieldStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Status))
	}
	b = appendString(b, fieldFailingPhrase, r.FailingPhrase)
	b = appendString(b, fieldFailureReason, r.FailureReason)
	if r.FailingPhraseIndex != 0 {
		b = protowire.AppendTag(b, fieldFailingPhraseIndex, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.FailingPhraseIndex))
	}
	for _, body := range r.FilteredPhraseBody {
		// repeated elements are written even when empty
		b = protowire.AppendTag(b, fieldFilteredPhraseBody, protowire.BytesType)
		b = protowire.AppendString(b, body)
	}
	if r.PhrasesSkippedDueToFailure != 0 {
		b = protowire.AppendTag(b, fieldPhrasesSkippedDueToFailure, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.PhrasesSkippedDueToFailure))
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// UnmarshalBinary decodes a protobuf-encoded report. Unknown fields are
// skipped; an unknown status value is rejected. The decoded report must pass
// Validate.
func (r *TechnicalReportData) UnmarshalBinary(data []byte) error {
	var out TechnicalReportData
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldTestCaseTitle, fieldFailingPhrase, fieldFailureReason, fieldFilteredPhraseBody:
			if typ != protowire.BytesType {
				return fmt.Errorf("decode field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldTestCaseTitle:
				out.TestCaseTitle = v
			case fieldFailingPhrase:
				out.FailingPhrase = v
			case fieldFailureReason:
				out.FailureReason = v
			default:
				out.FilteredPhraseBody = append(out.FilteredPhraseBody, v)
			}
		case fieldStatus, fieldFailingPhraseIndex, fieldPhrasesSkippedDueToFailure:
			if typ != protowire.VarintType {
				return fmt.Errorf("decode field %d: unexpected wire type %d", num, typ)
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldStatus:
				// enums are int32 on the wire; larger values cannot be a known status
				if v > math.MaxInt32 {
					return fmt.Errorf("%w: %d", ErrUnknownStatus, v)
				}
				s, err := StatusFromNumber(int32(v))
				if err != nil {
					return err
				}
				out.Status = s
			case fieldFailingPhraseIndex:
				if v > math.MaxUint32 {
					return fmt.Errorf("decode field %d: value %d overflows uint32", num, v)
				}
				out.FailingPhraseIndex = uint32(v)
			default:
				if v > math.MaxUint32 {
					return fmt.Errorf("decode field %d: value %d overflows uint32", num, v)
				}
				out.PhrasesSkippedDueToFailure = uint32(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Decode parses a single protobuf-encoded report.
func Decode(data []byte) (TechnicalReportData, error) {
	var r TechnicalReportData
	if err := r.UnmarshalBinary(data); err != nil {
		return TechnicalReportData{}, err
	}
	return r, nil
}

// AppendDelimited appends the report to b prefixed with its varint length.
func AppendDelimited(b []byte, r TechnicalReportData) ([]byte, error) {
	msg, err := r.MarshalBinary()
	if err != nil {
		return b, err
	}
	b = protowire.AppendVarint(b, uint64(len(msg)))
	return append(b, msg...), nil
}

// ReadDelimited reads every length-prefixed report from rd until EOF.
func ReadDelimited(rd io.Reader) ([]TechnicalReportData, error) {
	br := bufio.NewReader(rd)
	var out []TechnicalReportData
	for {
		size, err := binary.ReadUvarint(br)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read message %d length: %w", len(out), err)
		}
		if size > maxMessageSize {
			return out, fmt.Errorf("read message %d: length %d exceeds limit", len(out), size)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return out, fmt.Errorf("read message %d: %w", len(out), err)
		}
		r, err := Decode(buf)
		if err != nil {
			return out, fmt.Errorf("decode message %d: %w", len(out), err)
		}
		out = append(out, r)
	}
}
