package output

import (
	"io"

	"github.com/bgricker/phrasereport/internal/report"
)

// ProtoRenderer emits reports as a varint-length-delimited protobuf stream.
// The summary and warnings are not part of the wire schema and are dropped.
type ProtoRenderer struct {
	out io.Writer
}

// NewProto creates a protobuf stream renderer writing to out.
func NewProto(out io.Writer) *ProtoRenderer {
	return &ProtoRenderer{out: out}
}

// Render encodes every report before writing anything, so a bad report leaves
// the sink untouched.
func (p *ProtoRenderer) Render(doc Document) error {
	var buf []byte
	for _, r := range doc.Reports {
		var err error
		buf, err = report.AppendDelimited(buf, r)
		if err != nil {
			return err
		}
	}
	if _, err := p.out.Write(buf); err != nil {
		return report.NewGenerationError("", "write proto", err)
	}
	return nil
}
