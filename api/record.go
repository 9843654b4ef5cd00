// Package api defines the wire types exchanged with portal clients.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chatri/govportal/content/domain"
)

// Record is the serialized form of a content record. Date fields are
// canonical UTC RFC 3339 strings or null.
type Record struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Content      string   `json:"content"`
	ContentHTML  string   `json:"contentHtml,omitempty"`
	Paragraphs   []string `json:"paragraphs,omitempty"`
	Date         string   `json:"date"`
	Published    bool     `json:"published"`
	DisplayFrom  *string  `json:"displayFrom"`
	DisplayUntil *string  `json:"displayUntil"`
	ImageURL     *string  `json:"imageUrl"`
}

// FromDomain converts a stored record to its wire form.
func FromDomain(r *domain.Record) *Record {
	return &Record{
		Slug:         r.Slug,
		Title:        r.Title,
		Summary:      r.Summary,
		Content:      r.Content,
		Date:         domain.FormatDate(r.Date),
		Published:    r.Published,
		DisplayFrom:  domain.FormatOptionalDate(r.DisplayFrom),
		DisplayUntil: domain.FormatOptionalDate(r.DisplayUntil),
		ImageURL:     r.ImageURL,
	}
}

type CreateRecordRequest struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Content      string   `json:"content"`
	Date         string   `json:"date"`
	Published    FlexBool `json:"published"`
	DisplayFrom  string   `json:"displayFrom"`
	DisplayUntil string   `json:"displayUntil"`
	ImageURL     string   `json:"imageUrl"`
}

// UpdateRecordRequest is a partial update. Optional fields distinguish
// "key absent" (untouched) from "key null or empty" (cleared).
type UpdateRecordRequest struct {
	Title        OptionalString `json:"title"`
	Summary      OptionalString `json:"summary"`
	Content      OptionalString `json:"content"`
	Date         OptionalString `json:"date"`
	Published    FlexBool       `json:"published"`
	DisplayFrom  OptionalString `json:"displayFrom"`
	DisplayUntil OptionalString `json:"displayUntil"`
	ImageURL     OptionalString `json:"imageUrl"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

// OptionalString records whether its JSON key was present at all.
// An explicit null decodes as present with a nil value.
type OptionalString struct {
	Present bool
	Value   *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Ptr returns the update pointer the content service expects: nil when
// the field was absent, a pointer to the value (empty string for an
// explicit null) when it was present.
func (o OptionalString) Ptr() *string {
	if !o.Present {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}

// FlexBool accepts the loose boolean forms admin clients send: JSON
// booleans, "true"/"false", "1"/"0", and numbers. The coercion lives here
// at the boundary; the content service only ever sees a strict bool.
type FlexBool struct {
	Present bool
	Value   bool
}

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	f.Present = true

	switch string(data) {
	case "null":
		f.Present = false
		return nil
	case "true", `"true"`, `"1"`, "1":
		f.Value = true
		return nil
	case "false", `"false"`, `"0"`, "0":
		f.Value = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("cannot interpret %s as a boolean", data)
	}
	f.Value = b
	return nil
}

// Ptr returns nil when the field was absent, otherwise the coerced value.
func (f FlexBool) Ptr() *bool {
	if !f.Present {
		return nil
	}
	v := f.Value
	return &v
}
