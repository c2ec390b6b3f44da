package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchOptions narrows a JQL search.
type SearchOptions struct {
	Fields []string // Fields to return (default: Jira's navigable set)
	Expand []string // Entities to expand (e.g., "changelog")

	// MaxResults caps the total number of issues returned across all pages.
	// Zero means every issue the server reports.
	MaxResults int
}

type searchPage struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Search runs a JQL query and pages through the results in server order. It
// stops once the server-reported total is reached, a page comes back empty, or
// opts.MaxResults issues have been collected. Any failure yields nil.
func (c *Client) Search(ctx context.Context, jql string, opts SearchOptions) []Issue {
	issues := []Issue{}
	startAt := 0

	for {
		size := c.pageSize
		if opts.MaxResults > 0 {
			remaining := opts.MaxResults - len(issues)
			if remaining <= 0 {
				break
			}
			if remaining < size {
				size = remaining
			}
		}

		if c.limiter != nil && startAt > 0 {
			if err := c.limiter.Wait(ctx); err != nil {
				c.logger.Warn("jira search interrupted", "jql", jql, "error", err)
				return nil
			}
		}

		query := url.Values{}
		query.Set("jql", jql)
		query.Set("startAt", strconv.Itoa(startAt))
		query.Set("maxResults", strconv.Itoa(size))
		if len(opts.Fields) > 0 {
			query.Set("fields", strings.Join(opts.Fields, ","))
		}
		if len(opts.Expand) > 0 {
			query.Set("expand", strings.Join(opts.Expand, ","))
		}

		var page searchPage
		if !c.get(ctx, "search", "/rest/api/2/search", query, &page) {
			return nil
		}

		if len(page.Issues) == 0 {
			break
		}

		issues = append(issues, page.Issues...)
		startAt += len(page.Issues)

		if len(issues) >= page.Total {
			break
		}
	}

	if opts.MaxResults > 0 && len(issues) > opts.MaxResults {
		issues = issues[:opts.MaxResults]
	}

	c.logger.Debug("jira search complete", "jql", jql, "count", len(issues))
	return issues
}

// Issue returns a single issue, or nil when it cannot be fetched.
func (c *Client) Issue(ctx context.Context, key string) Issue {
	var issue Issue
	if !c.get(ctx, "issue", "/rest/api/2/issue/"+url.PathEscape(key), nil, &issue) {
		return nil
	}
	return issue
}

// ProjectVersions returns the versions of a project, or nil.
func (c *Client) ProjectVersions(ctx context.Context, projectKey string) []Record {
	var versions []Record
	path := fmt.Sprintf("/rest/api/2/project/%s/versions", url.PathEscape(projectKey))
	if !c.get(ctx, "project_versions", path, nil, &versions) {
		return nil
	}
	return versions
}

// Project returns a project. With includeVersions the project's versions are
// fetched separately and stored under "versions".
func (c *Client) Project(ctx context.Context, key string, includeVersions bool) Record {
	var project Record
	if !c.get(ctx, "project", "/rest/api/2/project/"+url.PathEscape(key), nil, &project) {
		return nil
	}

	if includeVersions {
		if versions := c.ProjectVersions(ctx, key); versions != nil {
			project["versions"] = versions
		}
	}

	return project
}

type sprintPage struct {
	IsLast bool     `json:"isLast"`
	Values []Record `json:"values"`
}

// Sprints returns the sprints of an agile board. state filters by sprint state
// ("active", "future", "closed", or a comma-separated combination).
func (c *Client) Sprints(ctx context.Context, boardID int, state string) []Record {
	sprints := []Record{}
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)

	for startAt := 0; ; {
		query := url.Values{}
		query.Set("startAt", strconv.Itoa(startAt))
		query.Set("maxResults", strconv.Itoa(c.pageSize))
		if state != "" {
			query.Set("state", state)
		}

		var page sprintPage
		if !c.get(ctx, "sprints", path, query, &page) {
			return nil
		}

		sprints = append(sprints, page.Values...)
		startAt += len(page.Values)

		if page.IsLast || len(page.Values) == 0 {
			break
		}
	}

	return sprints
}

// Votes returns the vote summary of an issue, or nil.
func (c *Client) Votes(ctx context.Context, key string) Record {
	var votes Record
	path := fmt.Sprintf("/rest/api/2/issue/%s/votes", url.PathEscape(key))
	if !c.get(ctx, "votes", path, nil, &votes) {
		return nil
	}
	return votes
}

// Comments returns the comments of an issue, or nil.
func (c *Client) Comments(ctx context.Context, key string) []Record {
	var resp struct {
		Comments []Record `json:"comments"`
	}
	path := fmt.Sprintf("/rest/api/2/issue/%s/comment", url.PathEscape(key))
	if !c.get(ctx, "comments", path, nil, &resp) {
		return nil
	}
	if resp.Comments == nil {
		return []Record{}
	}
	return resp.Comments
}

// Myself returns the service account's user record, or nil.
func (c *Client) Myself(ctx context.Context) Record {
	var me Record
	if !c.get(ctx, "myself", "/rest/api/2/myself", nil, &me) {
		return nil
	}
	return me
}

// CreateIssue creates an issue from a raw Jira payload
// (e.g., {"fields": {"project": {"key": "OPS"}, ...}}).
func (c *Client) CreateIssue(ctx context.Context, payload Record) (Record, error) {
	body, err := c.do(ctx, "create_issue", http.MethodPost, "/rest/api/2/issue", nil, payload, nil)
	if err != nil {
		c.logger.Error("failed to create issue", "error", err)
		return nil, err
	}

	created, err := decodeRecord(body)
	if err != nil {
		return nil, &Error{Op: "create_issue", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Info("created issue", "key", created["key"])
	return created, nil
}

// VoteAsUser casts a vote on behalf of an end user.
func (c *Client) VoteAsUser(ctx context.Context, key string, creds Credentials) bool {
	path := fmt.Sprintf("/rest/api/2/issue/%s/votes", url.PathEscape(key))
	if _, err := c.do(ctx, "vote_as_user", http.MethodPost, path, nil, nil, &creds); err != nil {
		c.logger.Warn("vote as user failed", "issue", key, "user", creds.Username, "error", err)
		return false
	}
	return true
}

// CommentAsUser adds a comment on behalf of an end user.
func (c *Client) CommentAsUser(ctx context.Context, key, comment string, creds Credentials) bool {
	path := fmt.Sprintf("/rest/api/2/issue/%s/comment", url.PathEscape(key))
	payload := map[string]string{"body": comment}
	if _, err := c.do(ctx, "comment_as_user", http.MethodPost, path, nil, payload, &creds); err != nil {
		c.logger.Warn("comment as user failed", "issue", key, "user", creds.Username, "error", err)
		return false
	}
	return true
}
