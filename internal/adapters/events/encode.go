package events

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

var gzipPool = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

func encodeEvent(event domain.ApiEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal api event: %w", err)
	}
	return payload, nil
}

// gzipBytes compresses payload; the returned slice is owned by the caller.
func gzipBytes(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzipPool.Get().(*gzip.Writer)
	defer gzipPool.Put(gz)
	gz.Reset(&buf)

	if _, err := gz.Write(payload); err != nil {
		_ = gz.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
