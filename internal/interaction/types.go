package interaction

import (
	"fmt"
	"strings"
)

// InteractionType is the channel the interaction happened over.
type InteractionType string

const (
	TypeMeeting InteractionType = "Meeting"
	TypeCall    InteractionType = "Call"
	TypeVirtual InteractionType = "Virtual"
	TypeEmail   InteractionType = "Email"
)

// Sentiment is the observed or inferred HCP sentiment. The zero value is unset.
type Sentiment string

const (
	SentimentUnset    Sentiment = ""
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// ParseSentiment accepts a canonical sentiment name in any casing, or the
// empty string for unset. It is stricter than NormalizeSentiment and is used
// for direct user edits.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SentimentUnset, nil
	case "positive":
		return SentimentPositive, nil
	case "neutral":
		return SentimentNeutral, nil
	case "negative":
		return SentimentNegative, nil
	}
	return SentimentUnset, fmt.Errorf("invalid sentiment %q", s)
}

// ParseInteractionType accepts a canonical interaction type in any casing.
func ParseInteractionType(s string) (InteractionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meeting":
		return TypeMeeting, nil
	case "call":
		return TypeCall, nil
	case "virtual":
		return TypeVirtual, nil
	case "email":
		return TypeEmail, nil
	}
	return "", fmt.Errorf("invalid interaction type %q", s)
}

// Field names a reconcilable record field. The values are the wire keys.
type Field string

const (
	FieldHCPName            Field = "hcp_name"
	FieldInteractionType    Field = "interaction_type"
	FieldDate               Field = "date"
	FieldTime               Field = "time"
	FieldAttendees          Field = "attendees"
	FieldTopicsDiscussed    Field = "topics_discussed"
	FieldMaterialsShared    Field = "materials_shared"
	FieldSamplesDistributed Field = "samples_distributed"
	FieldSentiment          Field = "sentiment"
	FieldSentimentSource    Field = "sentiment_source"
	FieldOutcomes           Field = "outcomes"
	FieldSummary            Field = "summary"
	FieldFollowUpDate       Field = "follow_up_date"
)

// Record is the canonical, user-visible interaction record for one session.
type Record struct {
	HCPName            string          `json:"hcp_name"`
	InteractionType    InteractionType `json:"interaction_type"`
	Date               string          `json:"date"`
	Time               string          `json:"time"`
	Attendees          string          `json:"attendees"`
	TopicsDiscussed    string          `json:"topics_discussed"`
	MaterialsShared    []string        `json:"materials_shared"`
	SamplesDistributed []string        `json:"samples_distributed"`
	Sentiment          Sentiment       `json:"sentiment"`
	SentimentSource    string          `json:"sentiment_source"`
	Outcomes           string          `json:"outcomes"`
	Summary            string          `json:"summary"`
	FollowUpDate       string          `json:"follow_up_date"`
}

// NewRecord returns the record a session starts with.
func NewRecord() Record {
	return Record{
		InteractionType:    TypeMeeting,
		MaterialsShared:    []string{},
		SamplesDistributed: []string{},
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.MaterialsShared = append([]string{}, r.MaterialsShared...)
	out.SamplesDistributed = append([]string{}, r.SamplesDistributed...)
	return out
}

// scalar returns a pointer to the string field backing f, or nil when f is not
// a plain text field.
func (r *Record) scalar(f Field) *string {
	switch f {
	case FieldHCPName:
		return &r.HCPName
	case FieldDate:
		return &r.Date
	case FieldTime:
		return &r.Time
	case FieldAttendees:
		return &r.Attendees
	case FieldTopicsDiscussed:
		return &r.TopicsDiscussed
	case FieldSentimentSource:
		return &r.SentimentSource
	case FieldOutcomes:
		return &r.Outcomes
	case FieldSummary:
		return &r.Summary
	case FieldFollowUpDate:
		return &r.FollowUpDate
	}
	return nil
}

func (r *Record) list(f Field) *[]string {
	switch f {
	case FieldMaterialsShared:
		return &r.MaterialsShared
	case FieldSamplesDistributed:
		return &r.SamplesDistributed
	}
	return nil
}
