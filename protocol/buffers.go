package protocol

// RxBufferSize matches the receive DMA buffer of the boards
const RxBufferSize = 32

// RxBuffer collects the bytes of one frame. It is written only from the
// receive interrupt and read by the foreground after FrameReceived.
type RxBuffer struct {
	buf     [RxBufferSize]byte
	n       int
	dropped uint32
}

// Put appends one byte; bytes past the capacity are read and discarded
func (r *RxBuffer) Put(b byte) bool {
	if r.n >= len(r.buf) {
		r.dropped++
		return false
	}
	r.buf[r.n] = b
	r.n++
	return true
}

// Len returns the number of bytes collected
func (r *RxBuffer) Len() int {
	return r.n
}

// Bytes returns the collected bytes
func (r *RxBuffer) Bytes() []byte {
	return r.buf[:r.n]
}

// Storage returns the whole backing array
func (r *RxBuffer) Storage() []byte {
	return r.buf[:]
}

// Dropped returns how many bytes overflowed since the last Reset
func (r *RxBuffer) Dropped() uint32 {
	return r.dropped
}

// Reset clears the buffer for the next frame
func (r *RxBuffer) Reset() {
	r.n = 0
	r.dropped = 0
}

// FifoBuffer is a circular buffer for serial I/O
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Peek copies the first len(dst) available bytes without consuming them
func (f *FifoBuffer) Peek(dst []byte) int {
	n := 0
	pos := f.read
	for n < len(dst) && pos != f.write {
		dst[n] = f.buf[pos]
		pos = (pos + 1) % f.size
		n++
	}
	return n
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
