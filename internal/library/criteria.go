package library

import (
	"fmt"
	"regexp"
	"strings"
)

// excerptLen is the number of characters kept when a payload cannot be summarized.
const excerptLen = 100

var (
	conditionPattern = regexp.MustCompile(`(?s)<CONDITION\b[^>]*?/?>`)
	propertyPattern  = regexp.MustCompile(`PropertyName="([^"]*)"`)
	textValuePattern = regexp.MustCompile(`ValueLeft="([^"]+)"`)
	numValuePattern  = regexp.MustCompile(`ValueLeft="(\d+)"`)
	unitPattern      = regexp.MustCompile(`ValueUnit="([^"]*)"`)
)

// conditionRule summarizes one condition when its keyword is present.
type conditionRule struct {
	keyword   string
	summarize func(cond string) (string, bool)
}

var conditionRules = []conditionRule{
	{keyword: "artist", summarize: summarizeArtist},
	{keyword: "stockDate", summarize: summarizeRecency},
	{keyword: "counter", summarize: summarizePlayCount},
}

func summarizeArtist(cond string) (string, bool) {
	m := textValuePattern.FindStringSubmatch(cond)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("Artist contains '%s'", m[1]), true
}

func summarizeRecency(cond string) (string, bool) {
	v := numValuePattern.FindStringSubmatch(cond)
	u := unitPattern.FindStringSubmatch(cond)
	if v == nil || u == nil {
		return "", false
	}
	return fmt.Sprintf("Added in last %s %s(s)", v[1], u[1]), true
}

func summarizePlayCount(cond string) (string, bool) {
	m := numValuePattern.FindStringSubmatch(cond)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("Play count <= %s", m[1]), true
}

// DecodeCriteria produces a single-line summary of a smart-list payload.
//
// Each CONDITION element is matched against the known rule keywords (the
// whole payload is one condition when there are no elements). Recognized
// conditions are joined with "; ". When nothing is recognized the summary is
// an excerpt of the raw payload. DecodeCriteria never fails.
func DecodeCriteria(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}

	conditions := conditionPattern.FindAllString(payload, -1)
	if len(conditions) == 0 {
		conditions = []string{payload}
	}

	var parts []string
	for _, cond := range conditions {
		if s, ok := summarizeCondition(cond); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return excerpt(payload)
	}
	return strings.Join(parts, "; ")
}

// summarizeCondition matches the PropertyName attribute when the condition has one,
// and the keyword anywhere in the text otherwise.
func summarizeCondition(cond string) (string, bool) {
	property := propertyPattern.FindStringSubmatch(cond)
	for _, rule := range conditionRules {
		if property != nil && property[1] != rule.keyword {
			continue
		}
		if property == nil && !strings.Contains(cond, rule.keyword) {
			continue
		}
		return rule.summarize(cond)
	}
	return "", false
}

func excerpt(payload string) string {
	runes := []rune(strings.Join(strings.Fields(payload), " "))
	if len(runes) <= excerptLen {
		return string(runes)
	}
	return string(runes[:excerptLen]) + "..."
}
