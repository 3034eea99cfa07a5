package trace

//go:generate mockgen -destination mock_reader.go -package trace github.com/nareshdream/Champ-simulator/trace Reader

// Reader is the lazy instruction source contract the core front-end pulls
// from (spec.md §4.7). Next returns the next decoded instruction, or
// ok==false when the stream has ended without repeating — the driver's
// signal to drain the pipeline and stop fetching.
type Reader interface {
	Next() (instr Instruction, ok bool)
}

// SliceReader is a Reader backed by an in-memory instruction list, used by
// tests and by any driver that has already materialized a trace. Binary
// decoding of the standard/cloudsuite on-disk formats (spec.md §6) is an
// external collaborator's responsibility, not this package's.
type SliceReader struct {
	instrs []Instruction
	pos    int
	repeat bool
}

// NewSliceReader builds a SliceReader over instrs. When repeat is true,
// Next restarts from the beginning once the slice is exhausted instead of
// signaling end-of-stream (spec.md §4.7).
func NewSliceReader(instrs []Instruction, repeat bool) *SliceReader {
	return &SliceReader{instrs: instrs, repeat: repeat}
}

// Next implements Reader.
func (r *SliceReader) Next() (Instruction, bool) {
	if r.pos >= len(r.instrs) {
		if !r.repeat || len(r.instrs) == 0 {
			return Instruction{}, false
		}
		r.pos = 0
	}

	in := r.instrs[r.pos]
	r.pos++
	return in, true
}

// Remaining reports how many instructions are left before the current pass
// exhausts (not accounting for repeat wraparound).
func (r *SliceReader) Remaining() int {
	return len(r.instrs) - r.pos
}
