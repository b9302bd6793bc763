// Package quiz ...
package quiz

import "strings"

// Record is a single quote paired with its attributed author.
type Record struct {
	Phrase string `json:"phrase"`
	Author string `json:"author"`
}

func (r *Record) Valid() bool {
	return r != nil && strings.TrimSpace(r.Phrase) != "" && strings.TrimSpace(r.Author) != ""
}

// Authors returns the author of every record, in order and with duplicates.
func Authors(records []*Record) []string {
	authors := make([]string, 0, len(records))
	for _, r := range records {
		authors = append(authors, r.Author)
	}
	return authors
}
