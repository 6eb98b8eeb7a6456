package file

import (
	"context"
	"os"
	"sync"

	"github.com/xenking/kdelights/internal/domain/checkout"
)

var _ checkout.ReceiptWriter = (*ReceiptWriter)(nil)

// ReceiptWriter keeps the most recent receipt in a single file, replacing it
// on every write.
type ReceiptWriter struct {
	mu   sync.Mutex
	path string
}

// NewReceiptWriter returns a ReceiptWriter for path.
func NewReceiptWriter(path string) *ReceiptWriter {
	return &ReceiptWriter{path: path}
}

// Path returns the receipt file path.
func (w *ReceiptWriter) Path() string {
	return w.path
}

// WriteReceipt truncates the file and writes text.
func (w *ReceiptWriter) WriteReceipt(_ context.Context, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return os.WriteFile(w.path, []byte(text), filePerm)
}

// ReadReceipt returns the stored receipt. The error wraps os.ErrNotExist
// before the first write.
func (w *ReceiptWriter) ReadReceipt(_ context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := os.ReadFile(w.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
