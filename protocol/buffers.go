package protocol

// InputBuffer is a source of received bytes that a decoder consumes from
// the front
type InputBuffer interface {
	// Data returns the unconsumed bytes
	Data() []byte

	// Available returns len(Data())
	Available() int

	// Pop discards n bytes from the front
	Pop(n int)
}

// OutputBuffer is the sink message blocks are encoded into. Encoders
// patch the length byte after the payload is written, hence Update.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer reads from a fixed byte slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput collects encoded blocks in a fixed array so encoding never
// allocates. Bytes past MessageMax are dropped and flagged.
type ScratchOutput struct {
	buf       [MessageMax]byte
	pos       int
	truncated bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.truncated = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Truncated reports whether any output was dropped since the last Reset
func (s *ScratchOutput) Truncated() bool {
	return s.truncated
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.truncated = false
}

// FifoBuffer queues received bytes for a decoder. Unread bytes always sit
// contiguously in buf[head:tail]; Write slides them to the front when the
// tail runs out of room, so Data never copies.
type FifoBuffer struct {
	buf  []byte
	head int
	tail int
}

// NewFifoBuffer creates a buffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns how much that was
func (f *FifoBuffer) Write(data []byte) int {
	if len(data) > len(f.buf)-f.tail && f.head > 0 {
		f.compact()
	}
	n := copy(f.buf[f.tail:], data)
	f.tail += n
	return n
}

// Read moves up to len(data) bytes out of the buffer
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.buf[f.head:f.tail])
	f.Pop(n)
	return n
}

func (f *FifoBuffer) Available() int {
	return f.tail - f.head
}

// Free returns how many bytes Write can still accept
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

// Data returns the unread bytes. The slice is only valid until the next
// Write.
func (f *FifoBuffer) Data() []byte {
	return f.buf[f.head:f.tail]
}

func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.head += n
	if f.head == f.tail {
		f.head, f.tail = 0, 0
	}
}

func (f *FifoBuffer) IsEmpty() bool {
	return f.head == f.tail
}

func (f *FifoBuffer) Reset() {
	f.head, f.tail = 0, 0
}

func (f *FifoBuffer) compact() {
	n := copy(f.buf, f.buf[f.head:f.tail])
	f.head, f.tail = 0, n
}
