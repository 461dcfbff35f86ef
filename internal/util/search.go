package util

import (
	"regexp"
	"strings"
)

// SearchQuery represents the parsed components of a search string.
type SearchQuery struct {
	Labels   []string
	Status   []string
	Priority []string
	Types    []string
	Text     []string
}

var (
	labelRegex    = regexp.MustCompile(`label:(\w+)`)
	statusRegex   = regexp.MustCompile(`status:(\w+)`)
	priorityRegex = regexp.MustCompile(`priority:(\w+)`)
	typeRegex     = regexp.MustCompile(`type:(\w+)`)
)

// ParseSearchQuery breaks down a raw query string into its structured components.
func ParseSearchQuery(query string) SearchQuery {
	sq := SearchQuery{}

	extract := func(re *regexp.Regexp) []string {
		matches := re.FindAllStringSubmatch(query, -1)
		if matches == nil {
			return nil
		}
		var values []string
		for _, match := range matches {
			if len(match) > 1 {
				values = append(values, match[1])
			}
		}
		query = re.ReplaceAllString(query, "")
		return values
	}

	sq.Labels = extract(labelRegex)
	sq.Status = extract(statusRegex)
	sq.Priority = extract(priorityRegex)
	sq.Types = extract(typeRegex)
	sq.Text = strings.Fields(query)

	return sq
}
