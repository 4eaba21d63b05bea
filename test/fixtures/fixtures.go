// Package fixtures provides webhook payload fixtures for handler and normalizer tests.
package fixtures

import (
	"fmt"
	"strings"
)

// GenerateBasicWebhook creates a delivery with one fully populated tweet.
func GenerateBasicWebhook() string {
	return `{
	"event_type": "tweet",
	"rule_id": "rule-1",
	"rule_tag": "golang",
	"timestamp": 1735689600000,
	"tweets": [{
		"id": "1871",
		"text": "Go 1.24 is out",
		"author": {"id": "42", "username": "gopher", "name": "The Gopher"},
		"created_at": "2025-01-01T00:00:00Z",
		"retweet_count": 5,
		"like_count": 10,
		"reply_count": 1,
		"lang": "en"
	}]
}`
}

// GeneratePartialWebhook creates a delivery whose tweets miss optional fields.
func GeneratePartialWebhook() string {
	return `{"tweets":[{"id":"1"},{"text":"no id"},{"id":2,"author":null},{}]}`
}

// GenerateRTLWebhook creates a delivery with Arabic text (RTL) and emoji.
func GenerateRTLWebhook() string {
	return `{
	"rule_tag": "arabic",
	"tweets": [{
		"id": "555",
		"text": "مرحبا بالعالم 🌍",
		"author": {"username": "arabic_user", "name": "مستخدم"}
	}]
}`
}

// GenerateCamelCaseWebhook creates a delivery using camelCase field names.
func GenerateCamelCaseWebhook() string {
	return `{"tweets":[{"id":"9","createdAt":"Tue Jan 01","likeCount":7,"author":{"userName":"camel"}}]}`
}

// GeneratePingWebhook creates a delivery with no tweets (rule test event).
func GeneratePingWebhook() string {
	return `{"event_type":"ping","rule_id":"r1"}`
}

// GenerateBatchWebhook creates a delivery with n minimal tweets numbered from 0.
func GenerateBatchWebhook(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%d"}`, i)
	}
	return `{"tweets":[` + strings.Join(items, ",") + `]}`
}
