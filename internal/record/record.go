package record

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/riichi-tools/mjview/pkg/types"
)

// RecordError reports a single malformed log line. It never invalidates
// the whole file by itself; that policy belongs to the batch layer.
type RecordError struct {
	Line int
	Raw  string
	Err  error
}

func (e *RecordError) Error() string {
	raw := e.Raw
	if len(raw) > 100 {
		raw = raw[:100] + "..."
	}
	return fmt.Sprintf("invalid record at line %d: %v: %s", e.Line, e.Err, raw)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Validator checks that each decoded line is a well-formed JSON event.
// Safe for concurrent use; parsers are pooled.
type Validator struct {
	pool fastjson.ParserPool
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate parses one decoded line. The raw text is preserved verbatim
// in the returned record so the viewer receives exactly the bytes the
// game client wrote.
func (v *Validator) Validate(line int, raw string) (types.Record, error) {
	p := v.pool.Get()
	defer v.pool.Put(p)

	if _, err := p.Parse(raw); err != nil {
		return types.Record{}, &RecordError{Line: line, Raw: raw, Err: err}
	}

	return types.Record{Line: line, Raw: raw}, nil
}
