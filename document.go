// Save document: a loaded buffer plus its field table.
//
// A Document moves through three states. New returns it Unloaded; Load
// puts it in Loaded with a clean dirty flag; any successful write moves it
// to Modified; a successful Persist returns it to Loaded. Loading performs
// no structural validation. The format is undocumented, so any byte
// sequence is accepted as-is.
//
// Field access goes through the descriptor table first. Only when a name
// has no descriptor does Get fall back to the slot locator, and the value
// it returns is flagged as a candidate by Resolve. Set never guesses: it
// needs a descriptor, either from the table, from Define, or from Discover.
//
// A Document is not safe for concurrent use. Callers such as a UI event
// loop must serialise calls.
package savedit

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"

	"golang.org/x/text/encoding/charmap"
)

// Document states.
const (
	StateUnloaded State = iota
	StateLoaded
	StateModified
)

// State is the lifecycle state of a Document.
type State int

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateModified:
		return "modified"
	}
	return "unloaded"
}

// Config holds document configuration. Zero values select defaults.
type Config struct {
	// Fields seeds the descriptor table. nil selects DefaultFields; pass an
	// empty non-nil slice for an empty table.
	Fields []FieldDescriptor
	// Locate configures the fallback slot scan used by Get and Discover.
	Locate LocateOptions
	// Strings is the encoding of string fields; nil means UTF-8.
	Strings *charmap.Charmap
	// Containers enables zstd/LZ4 frame detection on Load.
	Containers bool
	// Backups is used by Persist when a backup is requested.
	Backups *BackupStore
	// Logger receives operation logs; nil discards them.
	Logger *Logger
}

// Document is one loaded save and its field table.
type Document struct {
	config    Config
	codec     Codec
	buf       *Buffer
	fields    map[string]FieldDescriptor
	state     State
	path      string
	container Container
	log       *Logger
}

// New returns an Unloaded document. Invalid seed descriptors are an error.
func New(config Config) (*Document, error) {
	if config.Fields == nil {
		config.Fields = DefaultFields()
	}
	config.Locate = config.Locate.withDefaults()
	if config.Logger == nil {
		config.Logger = NoopLogger()
	}

	d := &Document{
		config: config,
		codec:  Codec{Strings: config.Strings},
		buf:    NewBuffer(nil),
		fields: make(map[string]FieldDescriptor, len(config.Fields)),
		log:    config.Logger,
	}
	for _, f := range config.Fields {
		if err := d.Define(f); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Open creates a document and loads the file at path into it.
func Open(path string, config Config) (*Document, error) {
	d, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := d.LoadFile(path); err != nil {
		return nil, err
	}
	return d, nil
}

// Load replaces the buffer with everything read from r and clears the
// dirty flag. It fails with ErrMalformedInput only when r cannot be read
// (or, with Containers enabled, when a detected frame does not decode).
func (d *Document) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedInput, err)
		d.log.LogLoad(context.Background(), 0, ContainerRaw, err)
		return err
	}
	return d.load(data)
}

// LoadFile loads the file at path and remembers path as the default
// Persist target.
func (d *Document) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedInput, err)
		d.log.WithPath(path).LogLoad(context.Background(), 0, ContainerRaw, err)
		return err
	}
	if err := d.load(data); err != nil {
		return err
	}
	d.path = path
	return nil
}

func (d *Document) load(data []byte) error {
	container := ContainerRaw
	if d.config.Containers {
		container = detectContainer(data)
		body, err := unwrap(data, container)
		if err != nil {
			d.log.LogLoad(context.Background(), len(data), container, err)
			return err
		}
		data = body
	}
	d.buf = NewBuffer(data)
	d.container = container
	d.state = StateLoaded
	d.log.LogLoad(context.Background(), len(data), container, nil)
	return nil
}

// State returns the lifecycle state.
func (d *Document) State() State {
	return d.state
}

// Dirty reports whether the buffer has changed since the last Load or
// Persist.
func (d *Document) Dirty() bool {
	return d.state == StateModified
}

// Path returns the file the document was loaded from or last persisted to.
func (d *Document) Path() string {
	return d.path
}

// Container returns the on-disk wrapping detected at load.
func (d *Document) Container() Container {
	return d.container
}

// Len returns the buffer size.
func (d *Document) Len() int {
	return d.buf.Len()
}

// Buffer exposes the underlying buffer for read-only inspection (hex
// views, searching). Writes must go through WriteSlice or Set so the dirty
// flag stays correct.
func (d *Document) Buffer() *Buffer {
	return d.buf
}

// ReadSlice returns a copy of n bytes at off.
func (d *Document) ReadSlice(off, n int) ([]byte, error) {
	if d.state == StateUnloaded {
		return nil, ErrNotLoaded
	}
	return d.buf.ReadSlice(off, n)
}

// WriteSlice overwrites bytes at off and marks the document modified.
func (d *Document) WriteSlice(off int, p []byte) error {
	if d.state == StateUnloaded {
		return ErrNotLoaded
	}
	if err := d.buf.WriteSlice(off, p); err != nil {
		return err
	}
	d.state = StateModified
	return nil
}

// Define adds or replaces a descriptor.
func (d *Document) Define(desc FieldDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	d.fields[desc.Name] = desc
	return nil
}

// Undefine removes a descriptor. It reports whether one existed.
func (d *Document) Undefine(name string) bool {
	_, ok := d.fields[name]
	delete(d.fields, name)
	return ok
}

// Field returns the descriptor for name.
func (d *Document) Field(name string) (FieldDescriptor, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Fields yields descriptors ordered by offset, then name.
func (d *Document) Fields() iter.Seq[FieldDescriptor] {
	sorted := make([]FieldDescriptor, 0, len(d.fields))
	for _, f := range d.fields {
		sorted = append(sorted, f)
	}
	slices.SortFunc(sorted, func(a, b FieldDescriptor) int {
		return cmp.Or(cmp.Compare(a.Offset, b.Offset), cmp.Compare(a.Name, b.Name))
	})
	return slices.Values(sorted)
}

// Resolved is the outcome of a field lookup. Candidate is set when the
// value came from the slot locator rather than a descriptor; treat it as
// a guess to be confirmed.
type Resolved struct {
	Field     FieldDescriptor
	Value     any
	Candidate bool
}

// Resolve decodes a field, falling back to the locator when name has no
// descriptor. A descriptor that does not fit the buffer is an error, not a
// reason to guess.
func (d *Document) Resolve(name string) (Resolved, error) {
	if d.state == StateUnloaded {
		return Resolved{}, ErrNotLoaded
	}
	if f, ok := d.fields[name]; ok {
		v, err := d.codec.Decode(d.buf.Bytes(), f.Offset, f.Kind, f.Size, f.Endian)
		if err != nil {
			return Resolved{}, &FieldError{Field: name, Offset: f.Offset, Size: f.Size, Err: err}
		}
		return Resolved{Field: f, Value: v}, nil
	}

	c, ok, err := LocatePlausibleInteger(d.buf.Bytes(), d.config.Locate)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %q: %w", ErrUnknownField, name, err)
	}
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return Resolved{Field: candidateField(name, c), Value: c.Value, Candidate: true}, nil
}

// Get returns the decoded value of a field. See Resolve.
func (d *Document) Get(name string) (any, error) {
	r, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

// Set encodes value with the field's descriptor and writes it in place.
// The encoded length must equal the descriptor size exactly; nothing is
// written otherwise.
func (d *Document) Set(name string, value any) error {
	if d.state == StateUnloaded {
		return ErrNotLoaded
	}
	f, ok := d.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	b, err := d.codec.Encode(value, f.Kind, f.Size, f.Endian)
	if err != nil {
		return &FieldError{Field: name, Offset: f.Offset, Size: f.Size, Err: err}
	}
	if len(b) != f.Size {
		return &FieldError{Field: name, Offset: f.Offset, Size: f.Size,
			Err: fmt.Errorf("%w: encoded %d bytes", ErrFieldTooSmall, len(b))}
	}
	if err := d.buf.WriteSlice(f.Offset, b); err != nil {
		return &FieldError{Field: name, Offset: f.Offset, Size: f.Size, Err: err}
	}
	d.state = StateModified
	return nil
}

// Discover runs the slot locator and records the first candidate as the
// descriptor for name, replacing any existing one. The new descriptor is
// a signed little-endian integer of the slot size.
func (d *Document) Discover(name string, opts LocateOptions) (Candidate, error) {
	if d.state == StateUnloaded {
		return Candidate{}, ErrNotLoaded
	}
	if opts == (LocateOptions{}) {
		opts = d.config.Locate
	}
	c, ok, err := LocatePlausibleInteger(d.buf.Bytes(), opts)
	if err != nil {
		return Candidate{}, err
	}
	if !ok {
		return Candidate{}, fmt.Errorf("%w: %q: no plausible slot", ErrUnknownField, name)
	}
	if err := d.Define(candidateField(name, c)); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func candidateField(name string, c Candidate) FieldDescriptor {
	kinds := map[int]Kind{1: KindInt8, 2: KindInt16, 4: KindInt32, 8: KindInt64}
	return FieldDescriptor{
		Name:        name,
		Offset:      c.Offset,
		Size:        c.SlotSize,
		Kind:        kinds[c.SlotSize],
		Endian:      LittleEndian,
		Description: "discovered candidate",
	}
}

// Hash returns the xxHash3 digest of the current buffer.
func (d *Document) Hash() string {
	return hashBytes(d.buf.Bytes(), AlgXXHash3)
}
