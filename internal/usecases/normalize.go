package usecases

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"

	"tweet-monitor/internal/domain"
)

// Normalize parses a webhook body into an Envelope.
//
// The body must be a single JSON object. A missing or null "tweets" field
// yields an empty tweet list. Every other field is optional and read
// leniently; tweet objects are kept verbatim in Tweet.Raw.
func Normalize(body []byte) (*domain.Envelope, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	tweets, err := extractTweets(fields["tweets"])
	if err != nil {
		return nil, err
	}

	root := make(map[string]any, len(fields))
	for k, raw := range fields {
		if k == "tweets" {
			continue
		}
		root[k] = decodeValue(raw)
	}

	return &domain.Envelope{
		EventType: stringField(root, "event_type"),
		RuleID:    stringField(root, "rule_id"),
		RuleTag:   stringField(root, "rule_tag"),
		Timestamp: intField(root, "timestamp"),
		Tweets:    tweets,
	}, nil
}

// decodeObject checks that body is exactly one JSON object and splits it
// into its top-level members. Keys are matched exactly.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewPayloadError("empty request body")
		}
		return nil, domain.NewPayloadError("invalid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewPayloadError("invalid JSON: unexpected data after top-level value")
	}

	if kind := rawKind(value); kind != "object" {
		return nil, domain.NewPayloadError("payload must be a JSON object, got %s", kind)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(value, &fields); err != nil {
		return nil, domain.NewPayloadError("invalid JSON: %v", err)
	}
	return fields, nil
}

// extractTweets validates the tweets member. The typed projection and
// Tweet.Raw of each element come from the same bytes.
func extractTweets(value json.RawMessage) ([]domain.Tweet, error) {
	kind := rawKind(value)
	if kind == "" || kind == "null" {
		return []domain.Tweet{}, nil
	}
	if kind != "array" {
		return nil, domain.NewPayloadError("tweets must be a JSON array, got %s", kind)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(value, &elems); err != nil {
		return nil, domain.NewPayloadError("invalid JSON: %v", err)
	}

	tweets := make([]domain.Tweet, 0, len(elems))
	for i, raw := range elems {
		obj, ok := decodeValue(raw).(map[string]any)
		if !ok {
			return nil, domain.NewPayloadError("tweets[%d] must be a JSON object, got %s", i, rawKind(raw))
		}
		tweets = append(tweets, projectTweet(obj, raw))
	}
	return tweets, nil
}

// decodeValue decodes an already validated JSON value, keeping numbers
// as json.Number.
func decodeValue(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func projectTweet(obj map[string]any, raw json.RawMessage) domain.Tweet {
	t := domain.Tweet{
		ID:        stringField(obj, "id"),
		Text:      stringField(obj, "text"),
		CreatedAt: stringField(obj, "created_at", "createdAt"),
		Metrics: domain.Metrics{
			RetweetCount: countField(obj, "retweet_count", "retweetCount"),
			LikeCount:    countField(obj, "like_count", "likeCount"),
			ReplyCount:   countField(obj, "reply_count", "replyCount"),
		},
		Raw: raw,
	}

	if author, ok := obj["author"].(map[string]any); ok {
		t.Author = domain.Author{
			ID:       stringField(author, "id"),
			Username: stringField(author, "username", "userName"),
			Name:     stringField(author, "name"),
		}
	}

	return t
}

// stringField returns the first key present as a string. Numbers are
// rendered in their JSON form so numeric ids survive.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// intField returns the first key present as an integer, or 0. Values
// outside the int64 range saturate.
func intField(m map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
			if f, err := v.Float64(); err == nil || errors.Is(err, strconv.ErrRange) {
				return saturate(f)
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// countField is intField for engagement counters, which are never negative.
func countField(m map[string]any, keys ...string) int64 {
	return max(intField(m, keys...), 0)
}

func saturate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// rawKind names the JSON type of raw from its first byte. Empty input
// (an absent member) yields "".
func rawKind(raw json.RawMessage) string {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
