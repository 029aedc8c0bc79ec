package csvtable

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

// Decoder reads trial-balance CSV exports. The first record is always
// skipped and no record is trusted as a header.
type Decoder struct {
	encoding encoding.Encoding
}

// New returns a cp932 (Shift_JIS) decoder.
func New() *Decoder {
	return &Decoder{encoding: japanese.ShiftJIS}
}

func (d *Decoder) Decode(ctx context.Context, body io.Reader) (domain.RawTable, error) {
	raw, err := io.ReadAll(transform.NewReader(body, d.encoding.NewDecoder()))
	if err != nil {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "decode csv", err)
	}
	if bytes.ContainsRune(raw, utf8.RuneError) {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "decode csv", errors.New("input is not valid cp932 text"))
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows    [][]string
		skipped bool
		width   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return domain.RawTable{}, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "read csv", err)
		}

		if !skipped {
			skipped = true
			continue
		}
		// The first data record fixes the column count; wider records are malformed.
		if width == 0 {
			width = len(record)
		} else if len(record) > width {
			continue
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return domain.RawTable{}, domain.WrapError(domain.ErrIngestion, "read csv", fmt.Errorf("no data rows after the title row"))
	}
	return domain.RawTable{Rows: rows}, nil
}
