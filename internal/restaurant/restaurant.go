// Package restaurant provides the restaurant catalog: the candidate record
// type, the pgvector-backed store, the query-side retriever, and the
// document-side ingest pipeline.
package restaurant

import (
	"fmt"
	"strconv"
	"strings"
)

// EmbeddingDimension is the pinned width of stored embedding vectors.
// Must match the vector(768) column in the restaurants migration; a model
// producing a different width silently returns zero search results, so both
// sides of the pipeline pin this value.
const EmbeddingDimension int32 = 768

// Restaurant is one retrieved candidate record.
//
// Optional catalog fields use pointers because the source dataset omits them
// for many rows; rendering must distinguish absent from zero.
// Immutable once retrieved.
type Restaurant struct {
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
	Borough string `json:"borough"`

	Stars          *float64 `json:"stars,omitempty"`
	PriceRange     *string  `json:"price_range,omitempty"`
	OutdoorSeating *bool    `json:"outdoor_seating,omitempty"`
	DogsAllowed    *bool    `json:"dogs_allowed,omitempty"`
	HappyHour      *bool    `json:"happy_hour,omitempty"`
	ReviewCount    *int32   `json:"review_count,omitempty"`

	// Score is the cosine similarity from the vector search, rounded to
	// 4 decimals in SQL for presentation. Zero for records not produced
	// by a search.
	Score float64 `json:"score"`
}

// ContextLine renders the record as a single grounding line for prompts.
// Every fact in the line comes from the record itself; absent optional
// fields render as N/A rather than being omitted, so the model can state
// that the data is missing instead of inventing it.
func (r Restaurant) ContextLine() string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(orUnknown(r.Name, "Unnamed"))
	b.WriteString(" (")
	b.WriteString(orUnknown(r.Cuisine, "Unknown cuisine"))
	b.WriteString("), Address: ")
	b.WriteString(orUnknown(r.Street, "N/A"))
	b.WriteString(", ")
	b.WriteString(r.Zipcode)
	b.WriteString(", Rating: ")
	if r.Stars != nil {
		b.WriteString("⭐ ")
		b.WriteString(strconv.FormatFloat(*r.Stars, 'g', -1, 64))
	} else {
		b.WriteString("N/A")
	}
	b.WriteString(", Price: ")
	if r.PriceRange != nil {
		b.WriteString(*r.PriceRange)
	} else {
		b.WriteString("N/A")
	}
	b.WriteString(", Outdoor: ")
	b.WriteString(boolOrNA(r.OutdoorSeating))
	b.WriteString(", Dogs: ")
	b.WriteString(boolOrNA(r.DogsAllowed))
	b.WriteString(", Score: ")
	b.WriteString(strconv.FormatFloat(r.Score, 'g', -1, 64))
	return b.String()
}

// EmbedText builds the text embedded for this record at ingest time.
// Retrieval quality depends on the same field order being used for every
// document in the index.
func (r Restaurant) EmbedText() string {
	return fmt.Sprintf("%s %s %s %s", r.Name, r.Cuisine, r.Street, r.Borough)
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func boolOrNA(b *bool) string {
	if b == nil {
		return "N/A"
	}
	if *b {
		return "yes"
	}
	return "no"
}
