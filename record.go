package caseloader

// Record is a single row keyed by destination column name.
// A nil value means the field is missing or empty in the source.
type Record map[string]*string

// RecordSet is a whole source file held in memory.
type RecordSet struct {
	// Columns lists column names in source order.
	Columns []string

	Records []Record
}

// Len returns the number of records.
func (rs RecordSet) Len() int {
	return len(rs.Records)
}

// Chunk is a contiguous slice of a RecordSet sent as one insert request.
type Chunk struct {
	// Index is 0-based position of the chunk within the run.
	Index int

	// Total is the number of chunks in the run.
	Total int

	Columns []string
	Records []Record
}

// Len returns the number of records in the chunk.
func (c Chunk) Len() int {
	return len(c.Records)
}

// String returns a pointer to s for building records.
func String(s string) *string {
	return &s
}
