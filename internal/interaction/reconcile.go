package interaction

// Reconcile merges one normalized extraction result into rec in place and
// returns the fields it changed, in field order.
//
// The merge is additive: a field missing from f never clears what rec already
// holds. Scalars and enums are overwritten when present; list fields
// accumulate across round-trips in arrival order without deduplication.
func Reconcile(rec *Record, f Fields) []Field {
	var changed []Field

	for _, name := range scalarFields {
		v, ok := f.Scalars[name]
		if !ok {
			continue
		}
		p := rec.scalar(name)
		if *p != v {
			*p = v
			changed = append(changed, name)
		}
	}

	if f.InteractionType != "" && rec.InteractionType != f.InteractionType {
		rec.InteractionType = f.InteractionType
		changed = append(changed, FieldInteractionType)
	}

	if f.Sentiment != SentimentUnset && rec.Sentiment != f.Sentiment {
		rec.Sentiment = f.Sentiment
		changed = append(changed, FieldSentiment)
	}

	for _, name := range listFields {
		items := f.Lists[name]
		if len(items) == 0 {
			continue
		}
		p := rec.list(name)
		*p = append(*p, items...)
		changed = append(changed, name)
	}

	return changed
}
