package interaction

import (
	"fmt"
	"strings"
)

// Edit is a direct user change from the form surface. A nil field is left
// alone; a non-nil field replaces the record value, including with "".
type Edit struct {
	HCPName            *string   `json:"hcp_name,omitempty"`
	InteractionType    *string   `json:"interaction_type,omitempty"`
	Date               *string   `json:"date,omitempty"`
	Time               *string   `json:"time,omitempty"`
	Attendees          *string   `json:"attendees,omitempty"`
	TopicsDiscussed    *string   `json:"topics_discussed,omitempty"`
	MaterialsShared    *[]string `json:"materials_shared,omitempty"`
	SamplesDistributed *[]string `json:"samples_distributed,omitempty"`
	Sentiment          *string   `json:"sentiment,omitempty"`
	SentimentSource    *string   `json:"sentiment_source,omitempty"`
	Outcomes           *string   `json:"outcomes,omitempty"`
	Summary            *string   `json:"summary,omitempty"`
	FollowUpDate       *string   `json:"follow_up_date,omitempty"`
}

// Apply validates e and then applies all of it, or none of it on error.
func (r *Record) Apply(e Edit) error {
	next := r.Clone()

	if e.InteractionType != nil {
		t, err := ParseInteractionType(*e.InteractionType)
		if err != nil {
			return err
		}
		next.InteractionType = t
	}
	if e.Sentiment != nil {
		s, err := ParseSentiment(*e.Sentiment)
		if err != nil {
			return err
		}
		next.Sentiment = s
	}
	if e.Date != nil {
		if err := checkDate(FieldDate, *e.Date); err != nil {
			return err
		}
		next.Date = strings.TrimSpace(*e.Date)
	}
	if e.FollowUpDate != nil {
		if err := checkDate(FieldFollowUpDate, *e.FollowUpDate); err != nil {
			return err
		}
		next.FollowUpDate = strings.TrimSpace(*e.FollowUpDate)
	}
	if e.Time != nil {
		t := strings.TrimSpace(*e.Time)
		if t != "" && !validISOTime(t) {
			return fmt.Errorf("%s: want HH:MM, got %q", FieldTime, *e.Time)
		}
		next.Time = t
	}

	for p, v := range map[*string]*string{
		&next.HCPName:         e.HCPName,
		&next.Attendees:       e.Attendees,
		&next.TopicsDiscussed: e.TopicsDiscussed,
		&next.SentimentSource: e.SentimentSource,
		&next.Outcomes:        e.Outcomes,
		&next.Summary:         e.Summary,
	} {
		if v != nil {
			*p = *v
		}
	}

	if e.MaterialsShared != nil {
		next.MaterialsShared = cleanList(*e.MaterialsShared)
	}
	if e.SamplesDistributed != nil {
		next.SamplesDistributed = cleanList(*e.SamplesDistributed)
	}

	*r = next
	return nil
}

func checkDate(f Field, s string) error {
	s = strings.TrimSpace(s)
	if s != "" && !validISODate(s) {
		return fmt.Errorf("%s: want YYYY-MM-DD, got %q", f, s)
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
