// Package source reads raw record lines for one batch.
package source

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"dealguard/internal/order"
)

// ErrInvalidCount is returned when the batch header is not a non-negative integer.
var ErrInvalidCount = errors.New("invalid number of records")

// Source yields the raw lines of one batch.
type Source interface {
	ReadBatch(ctx context.Context) ([]string, error)
}

// LineSource reads a count header followed by that many record lines.
type LineSource struct {
	r io.Reader
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

func (s *LineSource) ReadBatch(ctx context.Context) ([]string, error) {
	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(err, "read count")
		}
		return nil, errors.Wrap(ErrInvalidCount, "empty input")
	}
	header := strings.TrimSpace(sc.Text())
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return nil, errors.Wrapf(ErrInvalidCount, "%q", header)
	}

	// The header may claim far more lines than the input holds.
	lines := make([]string, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, errors.Wrapf(err, "read record %d", i+1)
			}
			return nil, errors.Wrapf(order.ErrMalformedRecord, "missing record %d of %d", i+1, n)
		}
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, nil
}
