package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// WritableDirCheck fails unless a file can be created in dir. The probe file
// is removed again.
func WritableDirCheck(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".healthz-*")
		if err != nil {
			return errors.Wrapf(err, "dir %s not writable", dir)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
}

// WritableFileDirCheck checks the directory holding path.
func WritableFileDirCheck(path string) CheckFunc {
	return WritableDirCheck(filepath.Dir(path))
}
