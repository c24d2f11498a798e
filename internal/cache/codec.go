package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/i474232898/travel-climate/internal/climate"
)

// Profiles are stored as zlib-compressed JSON. The payload is a time-series
// aggregate of similar-magnitude floats, which compresses well enough to
// justify the round trip.

func encodeProfile(profile climate.MonthlyProfile) ([]byte, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compressing profile: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing profile: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeProfile(data []byte) (climate.MonthlyProfile, error) {
	var profile climate.MonthlyProfile

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return profile, fmt.Errorf("decompressing profile: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return profile, fmt.Errorf("decompressing profile: %w", err)
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return profile, fmt.Errorf("unmarshaling profile: %w", err)
	}
	return profile, nil
}

// Key builds the cache key for a (city, month) pair. City names are
// normalized by lowercasing only; no locale-aware folding is applied.
func Key(city string, month int) string {
	return fmt.Sprintf("weather:%s:%d", strings.ToLower(city), month)
}
