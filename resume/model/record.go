package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateCreatedLayout is the layout of Meta.DateCreated.
	DateCreatedLayout = "2006-01-02 15:04:05"
	// ExpectedResponseLayout parses Job.ExpectedResponseDate (m/d/yy). Month
	// and day may be zero padded or not.
	ExpectedResponseLayout = "1/2/06"
	// ShortDateLayout is how dates in the Job section are written (mm/dd/yy).
	ShortDateLayout = "01/02/06"
)

var (
	// ErrMalformedResponse indicates the model output is not a JSON object.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrMissingSection indicates a required top-level section is absent.
	ErrMissingSection = errors.New("missing section")
	// ErrMissingFileName indicates Meta.File Name is empty.
	ErrMissingFileName = errors.New("Meta.File Name is required")
)

// Sections every record must carry, in stored order.
var requiredSections = []string{"Meta", "Job", "Resume", "CoverLetter"}

// Record is one tailored job application. Top-level keys other than the four
// sections are kept as read.
type Record struct {
	Meta        Meta   `json:"Meta"`
	Job         Job    `json:"Job"`
	Resume      Fields `json:"Resume"`
	CoverLetter Fields `json:"CoverLetter"`

	src section
}

type recordFields Record

// UnmarshalJSON decodes the sections and remembers any other keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	var typed recordFields
	src, err := decodeSection(data, &typed)
	if err != nil {
		return err
	}
	*r = Record(typed)
	r.src = src
	return nil
}

// MarshalJSON writes the record back in its original key order.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.src.encode(recordFields(r), requiredSections...)
}

// Meta holds bookkeeping for a record. FileName is the storage key. Keys
// without a field here are kept as read.
type Meta struct {
	FileName        string `json:"File Name"`
	DateCreated     string `json:"Date Created"`
	Favorite        bool   `json:"Favorite"`
	Model           string `json:"Model"`
	ResumePath      string `json:"Resume Path"`
	CoverLetterPath string `json:"Cover Letter Path"`

	src section
}

type metaFields Meta

// UnmarshalJSON decodes the known keys and remembers the rest.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var typed metaFields
	src, err := decodeSection(data, &typed)
	if err != nil {
		return fmt.Errorf("Meta: %w", err)
	}
	*m = Meta(typed)
	m.src = src
	return nil
}

// MarshalJSON writes the section back in its original key order.
func (m Meta) MarshalJSON() ([]byte, error) {
	return m.src.encode(metaFields(m), "Favorite")
}

// Fields returns the section as it will be stored.
func (m Meta) Fields() Fields {
	return sectionFields(m)
}

// Job describes the posting the application targets.
type Job struct {
	Position             string   `json:"Position"`
	Company              string   `json:"Company"`
	Location             string   `json:"Location"`
	DateApplied          string   `json:"Date Applied"`
	ExpectedResponseDate string   `json:"Expected Response Date"`
	TechStack            []string `json:"Tech Stack"`
	Salary               string   `json:"Salary"`
	MatchRating          Rating   `json:"Match Rating"`
	InterestRating       Rating   `json:"Interest Rating"`
	PostingURL           string   `json:"Posting URL"`

	src section
}

type jobFields Job

// UnmarshalJSON decodes the known keys and remembers the rest.
func (j *Job) UnmarshalJSON(data []byte) error {
	var typed jobFields
	src, err := decodeSection(data, &typed)
	if err != nil {
		return fmt.Errorf("Job: %w", err)
	}
	*j = Job(typed)
	j.src = src
	return nil
}

// MarshalJSON writes the section back in its original key order.
func (j Job) MarshalJSON() ([]byte, error) {
	return j.src.encode(jobFields(j))
}

// Fields returns the section as it will be stored.
func (j Job) Fields() Fields {
	return sectionFields(j)
}

func sectionFields(v json.Marshaler) Fields {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil
	}
	var out Fields
	if err := out.UnmarshalJSON(data); err != nil {
		return nil
	}
	return out
}

// Rating is a numeric score. Model output sometimes quotes numbers, so a
// numeric string is accepted on decode. Anything else reads as 0; the stored
// value is left as written.
type Rating float64

// UnmarshalJSON accepts a number or a numeric string.
func (r *Rating) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*r = 0
		return nil
	}
	*r = Rating(v)
	return nil
}

// Validate checks the invariants enforced at the JSON boundary.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Meta.FileName) == "" {
		return ErrMissingFileName
	}
	return nil
}

// Created parses Meta.DateCreated.
func (r Record) Created() (time.Time, error) {
	return time.ParseInLocation(DateCreatedLayout, strings.TrimSpace(r.Meta.DateCreated), time.Local)
}

// ExpectedResponse parses Job.ExpectedResponseDate.
func (r Record) ExpectedResponse() (time.Time, error) {
	raw := strings.TrimSpace(r.Job.ExpectedResponseDate)
	if raw == "" {
		return time.Time{}, errors.New("expected response date is empty")
	}
	return time.ParseInLocation(ExpectedResponseLayout, raw, time.Local)
}

// SectionName returns the "File Name" of a document section, falling back to
// "<Meta.File Name> <suffix>".
func (r Record) SectionName(section Fields, suffix string) string {
	if name := strings.TrimSpace(section.String("File Name")); name != "" {
		return name
	}
	return strings.TrimSpace(r.Meta.FileName + " " + suffix)
}

// ParseResponse decodes model output into a Record. A surrounding Markdown
// code fence is tolerated.
func ParseResponse(raw string) (Record, error) {
	payload := []byte(stripCodeFence(raw))
	if !json.Valid(payload) {
		return Record{}, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(payload, &sections); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var missing []string
	for _, name := range requiredSections {
		if body, ok := sections[name]; !ok || strings.TrimSpace(string(body)) == "null" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrMissingSection, strings.Join(missing, ", "))
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = ""
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
