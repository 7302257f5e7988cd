package protocol

import "testing"

func TestRxBuffer(t *testing.T) {
	var rx RxBuffer

	for i := 0; i < RxBufferSize; i++ {
		if !rx.Put(byte(i)) {
			t.Fatalf("Put failed at byte %d", i)
		}
	}

	if rx.Len() != RxBufferSize {
		t.Errorf("Expected %d bytes, got %d", RxBufferSize, rx.Len())
	}

	// Overflow bytes are read and dropped
	if rx.Put(0xFF) {
		t.Error("Put past capacity should fail")
	}
	rx.Put(0xFE)
	if rx.Dropped() != 2 {
		t.Errorf("Expected 2 dropped bytes, got %d", rx.Dropped())
	}
	if rx.Bytes()[RxBufferSize-1] != RxBufferSize-1 {
		t.Errorf("Last byte overwritten: got %d", rx.Bytes()[RxBufferSize-1])
	}

	rx.Reset()
	if rx.Len() != 0 || rx.Dropped() != 0 {
		t.Errorf("After reset, expected empty buffer, got len=%d dropped=%d", rx.Len(), rx.Dropped())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("New FIFO should be empty")
	}

	if fifo.Available() != 0 {
		t.Errorf("Empty FIFO should have 0 available, got %d", fifo.Available())
	}

	// Write some data
	data := []byte{1, 2, 3, 4, 5}
	written := fifo.Write(data)

	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}

	if fifo.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", fifo.Available())
	}

	// Read some data
	readBuf := make([]byte, 3)
	read := fifo.Read(readBuf)

	if read != 3 {
		t.Errorf("Expected to read 3 bytes, read %d", read)
	}

	if readBuf[0] != 1 || readBuf[1] != 2 || readBuf[2] != 3 {
		t.Errorf("Read data mismatch: got %v", readBuf)
	}

	if fifo.Available() != 2 {
		t.Errorf("After reading 3, expected 2 available, got %d", fifo.Available())
	}

	// Test Peek
	peekBuf := make([]byte, 4)
	if n := fifo.Peek(peekBuf); n != 2 || peekBuf[0] != 4 {
		t.Errorf("Peek mismatch: n=%d data=%v", n, peekBuf)
	}

	// Test Pop
	fifo.Pop(1)
	if fifo.Available() != 1 {
		t.Errorf("After popping 1, expected 1 available, got %d", fifo.Available())
	}

	// Test wrap-around
	fifo.Reset()
	bigData := make([]byte, 12)
	for i := range bigData {
		bigData[i] = byte(i)
	}
	written = fifo.Write(bigData)
	if written != 9 { // Buffer size is 10, can only store 9 (one slot reserved)
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	// Fill buffer
	fifo.Write([]byte{1, 2, 3, 4})

	// Read some
	readBuf := make([]byte, 2)
	fifo.Read(readBuf)

	// Write more (will wrap around)
	written := fifo.Write([]byte{5, 6})
	if written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	// Verify order
	allData := make([]byte, 4)
	read := fifo.Read(allData)
	if read != 4 {
		t.Errorf("Expected to read 4 bytes, read %d", read)
	}
	if allData[0] != 3 || allData[1] != 4 || allData[2] != 5 || allData[3] != 6 {
		t.Errorf("Wrap-around data mismatch: got %v", allData)
	}
}
