// Binary encoding for record blobs.
//
// Ratings dominate the dataset size and every record shares the same small
// feature set, so records are stored as a dense matrix rather than as JSON
// maps. Record metadata is gob encoded.
//
// Record matrix format (little-endian):
//
//	columnCount: uint16
//	per column:
//	  nameLen: uint16
//	  name:    [nameLen]byte
//	recordCount: uint32
//	per record:
//	  id:      int64
//	  nameLen: uint16, name: [nameLen]byte
//	  urlLen:  uint16, url:  [urlLen]byte
//	  hasGeo:  uint8 (then latitude, longitude: float64 when 1)
//	  ratings: [columnCount]float64 (NaN = unrated)
package bbolt

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"github.com/corey/hscd/internal/domain/search"
)

// ratingColumns returns the sorted union of every feature any record is
// rated on.
func ratingColumns(records []search.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for f := range r.Rating {
			seen[f] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for f := range seen {
		cols = append(cols, f)
	}
	sort.Strings(cols)
	return cols
}

// encodeRecords encodes records to the binary matrix format. Column names are
// sorted for deterministic output. A single buffer is pre-allocated to avoid
// repeated growth.
func encodeRecords(records []search.Record) ([]byte, error) {
	cols := ratingColumns(records)
	if len(cols) > math.MaxUint16 {
		return nil, fmt.Errorf("too many rating columns: %d", len(cols))
	}

	size := 2 + 4
	for _, c := range cols {
		size += 2 + len(c)
	}
	for _, r := range records {
		size += 8 + 2 + len(r.Name) + 2 + len(r.URL) + 1 + 8*len(cols)
		if r.Geo != nil {
			size += 16
		}
	}

	buf := make([]byte, size)
	offset := 0

	putString := func(s string) error {
		if len(s) > math.MaxUint16 {
			return fmt.Errorf("string too long: %d bytes", len(s))
		}
		binary.LittleEndian.PutUint16(buf[offset:], uint16(len(s)))
		offset += 2
		copy(buf[offset:], s)
		offset += len(s)
		return nil
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(v))
		offset += 8
	}

	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(cols)))
	offset += 2
	for _, c := range cols {
		if err := putString(c); err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
	}

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(records)))
	offset += 4
	for i, r := range records {
		binary.LittleEndian.PutUint64(buf[offset:], uint64(int64(r.ID)))
		offset += 8
		if err := putString(r.Name); err != nil {
			return nil, fmt.Errorf("record %d name: %w", i, err)
		}
		if err := putString(r.URL); err != nil {
			return nil, fmt.Errorf("record %d url: %w", i, err)
		}

		if r.Geo != nil {
			buf[offset] = 1
			offset++
			putFloat(r.Geo.Latitude)
			putFloat(r.Geo.Longitude)
		} else {
			buf[offset] = 0
			offset++
		}

		for _, c := range cols {
			v, ok := r.Rating[c]
			if !ok {
				v = math.NaN()
			}
			putFloat(v)
		}
	}

	return buf, nil
}

// decodeRecords decodes the binary matrix back to records.
// Every read is bounds-checked to avoid panics on corrupt data.
func decodeRecords(data []byte) ([]search.Record, error) {
	offset := 0
	need := func(n int, what string) error {
		if offset+n > len(data) {
			return fmt.Errorf("truncated at %s (offset %d, need %d)", what, offset, n)
		}
		return nil
	}
	readString := func(what string) (string, error) {
		if err := need(2, what+" length"); err != nil {
			return "", err
		}
		n := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
		if err := need(n, what); err != nil {
			return "", err
		}
		s := string(data[offset : offset+n])
		offset += n
		return s, nil
	}
	readFloat := func() float64 {
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
		offset += 8
		return v
	}

	if err := need(2, "column count"); err != nil {
		return nil, err
	}
	colCount := int(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2

	cols := make([]string, colCount)
	for i := range cols {
		c, err := readString(fmt.Sprintf("column %d", i))
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	if err := need(4, "record count"); err != nil {
		return nil, err
	}
	recCount := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	records := make([]search.Record, 0, recCount)
	for i := uint32(0); i < recCount; i++ {
		if err := need(8, fmt.Sprintf("record %d id", i)); err != nil {
			return nil, err
		}
		r := search.Record{ID: int(int64(binary.LittleEndian.Uint64(data[offset:])))}
		offset += 8

		var err error
		if r.Name, err = readString(fmt.Sprintf("record %d name", i)); err != nil {
			return nil, err
		}
		if r.URL, err = readString(fmt.Sprintf("record %d url", i)); err != nil {
			return nil, err
		}

		if err := need(1, fmt.Sprintf("record %d geo flag", i)); err != nil {
			return nil, err
		}
		hasGeo := data[offset] == 1
		offset++
		if hasGeo {
			if err := need(16, fmt.Sprintf("record %d geo", i)); err != nil {
				return nil, err
			}
			r.Geo = &search.Geo{Latitude: readFloat(), Longitude: readFloat()}
		}

		if err := need(8*colCount, fmt.Sprintf("record %d ratings", i)); err != nil {
			return nil, err
		}
		r.Rating = make(map[string]float64, colCount)
		for _, c := range cols {
			if v := readFloat(); !math.IsNaN(v) {
				r.Rating[c] = v
			}
		}

		records = append(records, r)
	}

	return records, nil
}

// encodeGob encodes a value using gob. Used for the small dataset metadata
// blob.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob decodes gob-encoded data into target. Target must be a pointer.
func decodeGob(data []byte, target interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
