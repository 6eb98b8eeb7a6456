// Package file implements the flat-file persistence used by the register:
// the append-only coupon ledger, the redeemed-codes ledger, the receipt file
// and the optional wallet seed file.
//
// Writes are synchronous and not atomic. A crash mid-write can leave a
// truncated line, which the loaders skip.
package file

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
)

const filePerm = 0o644

// appendLine appends line and a newline to path, creating the file.
func appendLine(path, line string) (rerr error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, filePerm)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	_, err = io.WriteString(f, line+"\n")
	return err
}

// scanLines calls fn with each trimmed, non-empty line and its 1-based number.
// A missing file is treated as empty.
func scanLines(ctx context.Context, path string, fn func(n int, line string)) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(n, line)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
