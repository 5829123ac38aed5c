package parser

import (
	"bufio"
	"io"
	"sync"
)

const (
	scannerBufferSize    = 64 * 1024
	maxScannerBufferSize = 4 * 1024 * 1024
)

// scannerPool holds scanner buffers so that preloading a batch of fonts
// does not allocate a fresh 64KB buffer per file.
var scannerPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, scannerBufferSize)
		return &buf
	},
}

func acquireScannerBuffer() []byte {
	bufPtr, ok := scannerPool.Get().(*[]byte)
	if !ok {
		return make([]byte, 0, scannerBufferSize)
	}
	return (*bufPtr)[:0]
}

// releaseScannerBuffer pools buf unless it is too small to be useful or
// has grown past maxScannerBufferSize.
func releaseScannerBuffer(buf []byte) {
	if buf == nil || cap(buf) < scannerBufferSize/2 || cap(buf) > maxScannerBufferSize {
		return
	}
	buf = buf[:0]
	scannerPool.Put(&buf)
}

func createPooledScanner(r io.Reader) (*bufio.Scanner, []byte) {
	scanner := bufio.NewScanner(r)
	buf := acquireScannerBuffer()
	scanner.Buffer(buf, maxScannerBufferSize)
	return scanner, buf
}
