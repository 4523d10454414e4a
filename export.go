// Debug export.
//
// Export snapshots the document as JSON: where it came from, its size and
// hash, and every field in the table with its decoded value or the error
// that decoding produced. When the table has no money descriptor the
// locator's guess is included and marked as a candidate. The snapshot is
// meant for bug reports and diffing two saves, not for loading back.
package savedit

import (
	"fmt"
	"io"
	"math"

	json "github.com/goccy/go-json"
)

// Snapshot is the exported view of a document.
type Snapshot struct {
	Path      string          `json:"path,omitempty"`
	Size      int             `json:"size"`
	State     string          `json:"state"`
	Container string          `json:"container"`
	Hash      string          `json:"hash"`
	Checksum8 byte            `json:"checksum8"`
	Fields    []FieldSnapshot `json:"fields"`
}

// FieldSnapshot is one field in a Snapshot. Raw values appear in Hex only.
type FieldSnapshot struct {
	FieldDescriptor
	Value     any    `json:"value,omitempty"`
	Hex       string `json:"hex,omitempty"`
	Candidate bool   `json:"candidate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Snapshot captures the document's current state.
func (d *Document) Snapshot() Snapshot {
	data := d.buf.Bytes()
	snap := Snapshot{
		Path:      d.path,
		Size:      len(data),
		State:     d.state.String(),
		Container: d.container.String(),
		Hash:      d.Hash(),
		Checksum8: Checksum8(data),
	}
	if d.state == StateUnloaded {
		return snap
	}
	for f := range d.Fields() {
		fs := FieldSnapshot{FieldDescriptor: f}
		if raw, err := d.buf.ReadSlice(f.Offset, f.Size); err == nil {
			fs.Hex = FormatHex(raw, true, true)
		}
		r, err := d.Resolve(f.Name)
		if err != nil {
			fs.Error = err.Error()
		} else if f.Kind != KindRaw {
			fs.Value = jsonSafe(r.Value)
		}
		snap.Fields = append(snap.Fields, fs)
	}
	if _, ok := d.fields[MoneyField]; !ok {
		if r, err := d.Resolve(MoneyField); err == nil {
			raw, _ := d.buf.ReadSlice(r.Field.Offset, r.Field.Size)
			snap.Fields = append(snap.Fields, FieldSnapshot{
				FieldDescriptor: r.Field,
				Value:           r.Value,
				Hex:             FormatHex(raw, true, true),
				Candidate:       true,
			})
		}
	}
	return snap
}

// jsonSafe replaces values JSON cannot represent (NaN, ±Inf) with their
// text form.
func jsonSafe(v any) any {
	switch f := v.(type) {
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Sprint(f)
		}
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(f)
		}
	}
	return v
}

// Export writes the snapshot as indented JSON.
func (d *Document) Export(w io.Writer) error {
	b, err := json.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// ExportFile writes the snapshot to path atomically.
func (d *Document) ExportFile(path string) error {
	b, err := json.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := writeAtomic(path, append(b, '\n')); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
