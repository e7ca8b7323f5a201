package caseloader

import "golang.org/x/xerrors"

// Split partitions rs into ordered chunks of at most size records.
// Only the last chunk may be smaller than size.
func Split(rs RecordSet, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, xerrors.Errorf("chunk size must be positive, got %d: %w", size, ErrInvalidConfig)
	}

	n := rs.Len()
	total := (n + size - 1) / size
	chunks := make([]Chunk, 0, total)

	for i := 0; i < n; i += size {
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Total:   total,
			Columns: rs.Columns,
			Records: rs.Records[i:min(i+size, n)],
		})
	}

	return chunks, nil
}
