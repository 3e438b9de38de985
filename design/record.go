package design

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/gogpu/engrave"
)

// Record is the persisted form of a decoration. Rasters are not stored;
// art is reloaded from Source.
type Record struct {
	ID       string     `json:"id"`
	HostID   string     `json:"hostId,omitzero"`
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
	Payload  Payload    `json:"payload"`
}

// Payload holds the kind-specific fields of a Record.
type Payload struct {
	// Type is "art" or "text".
	Type string `json:"type"`

	Source string `json:"source,omitzero"`

	Text        string  `json:"text,omitzero"`
	FontID      string  `json:"fontId,omitzero"`
	Size        float64 `json:"size,omitzero"`
	Align       string  `json:"align,omitzero"`
	LineSpacing float64 `json:"lineSpacing,omitzero"`
	CharSpacing float64 `json:"charSpacing,omitzero"`
	Curvature   float64 `json:"curvature,omitzero"`
	Finish      string  `json:"finish,omitzero"`
}

// RecordOf converts a decoration to its persisted form.
func RecordOf(d engrave.Decoration) Record {
	r := Record{
		ID:       d.ID,
		HostID:   d.HostID,
		Position: d.Position.Array(),
		Rotation: d.Rotation.Array(),
		Scale:    d.Scale.Array(),
		Payload:  Payload{Type: d.Kind.String()},
	}
	if d.Art != nil {
		r.Payload.Source = d.Art.Source
	}
	if t := d.Text; t != nil {
		r.Payload.Text = t.Text
		r.Payload.FontID = t.FontID
		r.Payload.Size = t.Size
		r.Payload.Align = t.Align.String()
		r.Payload.LineSpacing = t.LineSpacing
		r.Payload.CharSpacing = t.CharSpacing
		r.Payload.Curvature = t.Curvature
		r.Payload.Finish = t.Finish.String()
	}
	return r
}

// Decoration converts a record back. Unknown payload types and enum
// values are errors.
func (r Record) Decoration() (engrave.Decoration, error) {
	kind, ok := engrave.ParseKind(r.Payload.Type)
	if !ok {
		return engrave.Decoration{}, fmt.Errorf("design: record %s: unknown payload type %q", r.ID, r.Payload.Type)
	}
	d := engrave.Decoration{
		ID:       r.ID,
		HostID:   r.HostID,
		Kind:     kind,
		Position: engrave.Vec3FromArray(r.Position),
		Rotation: engrave.Vec3FromArray(r.Rotation),
		Scale:    engrave.Vec3FromArray(r.Scale),
	}
	switch kind {
	case engrave.KindArt:
		d.Art = &engrave.ArtPayload{Source: r.Payload.Source}
	case engrave.KindText:
		align := engrave.AlignCenter
		if r.Payload.Align != "" {
			if align, ok = engrave.ParseAlignment(r.Payload.Align); !ok {
				return engrave.Decoration{}, fmt.Errorf("design: record %s: unknown alignment %q", r.ID, r.Payload.Align)
			}
		}
		finish := engrave.FinishFlush
		if r.Payload.Finish != "" {
			if finish, ok = engrave.ParseFinish(r.Payload.Finish); !ok {
				return engrave.Decoration{}, fmt.Errorf("design: record %s: unknown finish %q", r.ID, r.Payload.Finish)
			}
		}
		d.Text = &engrave.TextPayload{
			Text:        r.Payload.Text,
			FontID:      r.Payload.FontID,
			Size:        r.Payload.Size,
			Align:       align,
			LineSpacing: r.Payload.LineSpacing,
			CharSpacing: r.Payload.CharSpacing,
			Curvature:   r.Payload.Curvature,
			Finish:      finish,
		}
	}
	return d, nil
}

// MarshalRecords encodes records as indented, deterministic JSON.
func MarshalRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records, json.Deterministic(true), jsontext.WithIndent("\t"))
}

// UnmarshalRecords decodes records, rejecting unknown fields.
func UnmarshalRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records, json.RejectUnknownMembers(true)); err != nil {
		return nil, fmt.Errorf("design: decode records: %w", err)
	}
	return records, nil
}

// Records returns the persisted form of every decoration.
func (s *Store) Records() []Record {
	ds := s.Decorations()
	out := make([]Record, len(ds))
	for i, d := range ds {
		out[i] = RecordOf(d)
	}
	return out
}

// Save writes the store as JSON.
func (s *Store) Save(w io.Writer) error {
	data, err := MarshalRecords(s.Records())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Load reads JSON records into an empty store. On error the store is left
// unchanged.
func (s *Store) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	records, err := UnmarshalRecords(data)
	if err != nil {
		return err
	}
	ds := make([]engrave.Decoration, len(records))
	for i, rec := range records {
		if ds[i], err = rec.Decoration(); err != nil {
			return err
		}
	}
	if s.Len() != 0 {
		return fmt.Errorf("design: load into non-empty store")
	}
	for _, d := range ds {
		if _, err := s.Insert(d); err != nil {
			return err
		}
	}
	return nil
}
