package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters for a message search.
// It decouples the raw user input from the actual index engine requirements.
type Query struct {
	RawInput string // The original query string from the user
	Terms    string // The actual text to search in the index
	Lang     string // Optional ISO 639-3 language filter
	RoomID   string // Target room for the search
	Limit    int    // Number of results
}

// NewQuery parses a raw string to extract command-line style arguments.
// Example: invoice overdue --lang eng --limit 5
func NewQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    10, // Default limit
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --lang eng or --limit 5
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "room":
				query.RoomID = val
			case "lang":
				query.Lang = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
