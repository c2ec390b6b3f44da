package jira

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var orderBy = regexp.MustCompile(`(?i)(^|\s)order\s+by\s`)

// UpdatedSince narrows jql to issues updated at or after t. A trailing
// ORDER BY clause is kept last.
func UpdatedSince(jql string, t time.Time) string {
	clause := fmt.Sprintf("updated >= %q", t.Format("2006-01-02 15:04"))

	query, order := strings.TrimSpace(jql), ""
	if loc := orderBy.FindStringIndex(query); loc != nil {
		order = strings.TrimSpace(query[loc[0]:])
		query = strings.TrimSpace(query[:loc[0]])
	}

	if query != "" {
		clause = "(" + query + ") AND " + clause
	}
	if order != "" {
		clause += " " + order
	}
	return clause
}
