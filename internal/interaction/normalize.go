package interaction

import (
	"strings"
)

// Fields is one normalized extraction result. Only fields that carried a
// usable value are present.
type Fields struct {
	Scalars         map[Field]string
	InteractionType InteractionType
	Sentiment       Sentiment
	Lists           map[Field][]string
}

// IsEmpty reports whether f would leave any record unchanged.
func (f Fields) IsEmpty() bool {
	return len(f.Scalars) == 0 && f.InteractionType == "" && f.Sentiment == SentimentUnset && len(f.Lists) == 0
}

var (
	scalarFields = []Field{
		FieldHCPName, FieldDate, FieldTime, FieldAttendees, FieldTopicsDiscussed,
		FieldSentimentSource, FieldOutcomes, FieldSummary, FieldFollowUpDate,
	}
	listFields = []Field{FieldMaterialsShared, FieldSamplesDistributed}
)

// Form placeholders older form versions write instead of leaving a field
// empty. They never carry data, scalar or list.
var placeholders = map[string]bool{
	"no materials added":     true,
	"no samples added":       true,
	"no samples distributed": true,
}

// Filler the extraction service emits as a list item. Scalars keep these
// since a dictated "Unknown" or "N/A" can be a real answer.
var listFiller = map[string]bool{
	"none":          true,
	"n/a":           true,
	"na":            true,
	"null":          true,
	"nil":           true,
	"-":             true,
	"unknown":       true,
	"not mentioned": true,
}

func fold(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func isPlaceholder(s string) bool {
	return placeholders[fold(s)]
}

func isListFiller(s string) bool {
	k := fold(s)
	return placeholders[k] || listFiller[k]
}

// Normalize decodes every known field of one raw extraction payload. Unknown
// keys are ignored. A bare string payload is only classified for sentiment.
func Normalize(payload Value) Fields {
	var out Fields

	switch payload.Kind {
	case KindObject:
	case KindString, KindNumber:
		out.Sentiment = NormalizeSentiment(payload)
		return out
	default:
		return out
	}

	for _, f := range scalarFields {
		raw, ok := payload.Get(string(f))
		if !ok {
			continue
		}
		var (
			s       string
			present bool
		)
		switch f {
		case FieldDate, FieldFollowUpDate:
			s, present = NormalizeDate(raw)
		case FieldTime:
			s, present = NormalizeTime(raw)
		default:
			s, present = NormalizeScalar(unwrap(raw, f))
		}
		if !present {
			continue
		}
		if out.Scalars == nil {
			out.Scalars = make(map[Field]string)
		}
		out.Scalars[f] = s
	}

	for _, f := range listFields {
		raw, ok := payload.Get(string(f))
		if !ok {
			continue
		}
		items := NormalizeList(unwrap(raw, f))
		if len(items) == 0 {
			continue
		}
		if out.Lists == nil {
			out.Lists = make(map[Field][]string)
		}
		out.Lists[f] = items
	}

	if raw, ok := payload.Get(string(FieldInteractionType)); ok {
		if t, ok := NormalizeInteractionType(raw); ok {
			out.InteractionType = t
		}
	}
	if raw, ok := payload.Get(string(FieldSentiment)); ok {
		out.Sentiment = NormalizeSentiment(raw)
	}

	return out
}

// unwrap replaces {"hcp_name": {"hcp_name": "x"}} style wrappers with the
// inner member.
func unwrap(v Value, f Field) Value {
	if m, ok := v.Get(string(f)); ok && !m.IsEmpty() {
		return m
	}
	return v
}

// NormalizeSentiment classifies any raw value as one of the three canonical
// sentiments, or unset. Substring checks run in the order pos, neg, neu.
func NormalizeSentiment(v Value) Sentiment {
	v = v.resolve(string(FieldSentiment))
	if v.IsEmpty() {
		return SentimentUnset
	}

	s := strings.ToLower(strings.TrimSpace(v.Text()))
	switch {
	case strings.Contains(s, "pos"):
		return SentimentPositive
	case strings.Contains(s, "neg"):
		return SentimentNegative
	case strings.Contains(s, "neu"):
		return SentimentNeutral
	}

	switch s {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	case "neutral":
		return SentimentNeutral
	}
	return SentimentUnset
}

// NormalizeList coerces a raw value into an ordered list of trimmed,
// non-placeholder strings. Strings are split on commas.
func NormalizeList(v Value) []string {
	out := []string{}
	appendList(&out, v, 0)
	return out
}

func appendList(out *[]string, v Value, depth int) {
	if depth > maxDepth {
		return
	}
	switch v.Kind {
	case KindList:
		for _, item := range v.Items {
			addItem(out, item.resolve("").Text())
		}
	case KindString:
		for _, part := range strings.Split(v.Str, ",") {
			addItem(out, part)
		}
	case KindNumber, KindBool:
		addItem(out, v.Text())
	case KindObject:
		appendList(out, v.firstNonEmpty(), depth+1)
	}
}

func addItem(out *[]string, s string) {
	s = strings.TrimSpace(s)
	if s == "" || isListFiller(s) {
		return
	}
	*out = append(*out, s)
}

// NormalizeScalar returns the trimmed text of a raw value. The second result
// is false when nothing usable is present, which callers must treat as "leave
// the existing value alone" rather than as an empty overwrite.
func NormalizeScalar(v Value) (string, bool) {
	var s string
	switch v.Kind {
	case KindList:
		parts := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if t := strings.TrimSpace(item.resolve("").Text()); t != "" && !isListFiller(t) {
				parts = append(parts, t)
			}
		}
		s = strings.Join(parts, ", ")
	case KindObject:
		s = v.resolve("").Text()
	default:
		s = v.Text()
	}

	s = strings.TrimSpace(s)
	if s == "" || isPlaceholder(s) {
		return "", false
	}
	return s, true
}

// NormalizeInteractionType maps a raw value onto one of the canonical
// interaction types, accepting common synonyms.
func NormalizeInteractionType(v Value) (InteractionType, bool) {
	s, ok := NormalizeScalar(v.resolve(string(FieldInteractionType)))
	if !ok {
		return "", false
	}
	if t, err := ParseInteractionType(s); err == nil {
		return t, true
	}

	s = strings.ToLower(s)
	switch {
	case containsAny(s, "virtual", "video", "zoom", "teams", "online", "webinar"):
		return TypeVirtual, true
	case containsAny(s, "email", "e-mail", "mail"):
		return TypeEmail, true
	case containsAny(s, "call", "phone"):
		return TypeCall, true
	case containsAny(s, "meeting", "in person", "in-person", "visit", "met "):
		return TypeMeeting, true
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
