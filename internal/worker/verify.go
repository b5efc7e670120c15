package worker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// hashFile returns the BLAKE3 digest of the file at path, reusing buf.
func hashFile(path string, buf []byte) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// errMismatch reports differing content after a copy.
var errMismatch = errors.New("content mismatch")

// verifyCopy compares source and destination content.
func (w *Worker) verifyCopy(src, dst string) error {
	srcSum, err := hashFile(src, w.buf)
	if err != nil {
		return err
	}
	dstSum, err := hashFile(dst, w.buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(srcSum, dstSum) {
		return errMismatch
	}
	return nil
}
