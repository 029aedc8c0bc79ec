// Package decoder picks the table decoder matching an upload's file name.
package decoder

import (
	"path/filepath"
	"strings"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/ports"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/decoder/csvtable"
	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/decoder/xlsxtable"
)

type Registry struct {
	csv  ports.TableDecoder
	xlsx ports.TableDecoder
}

func NewRegistry() *Registry {
	return &Registry{
		csv:  csvtable.New(),
		xlsx: xlsxtable.New(),
	}
}

// ForFile returns the xlsx decoder for Excel workbooks and the cp932 CSV
// decoder for everything else.
func (r *Registry) ForFile(filename string) ports.TableDecoder {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return r.xlsx
	default:
		return r.csv
	}
}
