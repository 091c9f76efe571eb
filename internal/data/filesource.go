package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantrun/quantrun/internal/domain"
)

// FileSource serves bars and fundamentals from JSON fixture files, one
// <TICKER>.json per symbol under dir/bars and dir/fundamentals. It backs
// offline scans and local development; production deployments decorate a
// real vendor client instead.
type FileSource struct {
	dir string
}

// NewFileSource points a source at a fixture directory.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// GetBars implements Source. The fixture holds the full history; the
// requested window is sliced out of it.
func (f *FileSource) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.dir, "bars", strings.ToUpper(ticker)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}
	var bars []domain.PriceBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fmt.Errorf("%w: corrupt bars fixture %s: %v", domain.ErrDataSourceUnavailable, path, err)
	}

	out := make([]domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GetFundamentals implements Source. A missing fixture means the vendor has
// nothing for the ticker, which is (nil, nil), not an error.
func (f *FileSource) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.dir, "fundamentals", strings.ToUpper(ticker)+".json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}
	var snap domain.FundamentalsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: corrupt fundamentals fixture %s: %v", domain.ErrDataSourceUnavailable, path, err)
	}
	return &snap, nil
}
