package github

import (
	"errors"

	"github.com/tidwall/gjson"
)

// RawIssue is one record from the issue-list endpoint, kept as raw JSON because
// issues and pull requests share the endpoint and carry different fields.
type RawIssue struct {
	doc gjson.Result
}

// ParseRawIssue parses a single JSON object into a RawIssue.
func ParseRawIssue(raw string) (RawIssue, error) {
	if !gjson.Valid(raw) {
		return RawIssue{}, errors.New("github: invalid issue json")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return RawIssue{}, errors.New("github: issue record is not an object")
	}
	return RawIssue{doc: doc}, nil
}

// Get looks up a dotted gjson path, e.g. "milestone.due_on".
func (i RawIssue) Get(path string) gjson.Result {
	return i.doc.Get(path)
}

// Has reports whether a top-level key is present on the record, even when its value is null.
func (i RawIssue) Has(key string) bool {
	return i.doc.Get(key).Exists()
}

// Number returns the issue number, or 0 when absent.
func (i RawIssue) Number() int64 {
	return i.doc.Get("number").Int()
}
