package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Page is a Confluence page with its storage-format body.
type Page struct {
	ID      string
	Type    string
	Title   string
	Version int
	Body    string // Storage format
	Raw     Record
}

type pageResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Version *struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

type pageUpdate struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Title   string             `json:"title"`
	Version pageUpdateVersion  `json:"version"`
	Body    map[string]storage `json:"body"`
}

type pageUpdateVersion struct {
	Number    int  `json:"number"`
	MinorEdit bool `json:"minorEdit"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

func contentPath(pageID string) string {
	return "/rest/api/content/" + url.PathEscape(pageID)
}

// Read fetches a page with its storage body and version.
func (c *Client) Read(ctx context.Context, pageID string) (*Page, error) {
	query := url.Values{}
	query.Set("expand", "body.storage,version")

	var raw Record
	if err := c.doJSON(ctx, "read", http.MethodGet, contentPath(pageID), query, nil, &raw); err != nil {
		return nil, err
	}

	return parsePage("read", raw)
}

// Write replaces the body of a page. The current version is read first and the
// update is sent as version+1 with the original title, marked as a minor edit.
// Concurrent writers are not detected: the last update wins.
func (c *Client) Write(ctx context.Context, pageID, storageHTML string) (*Page, error) {
	current, err := c.Read(ctx, pageID)
	if err != nil {
		writeErr := &Error{Op: "write", Err: fmt.Errorf("failed to read page %s before update: %w", pageID, err)}
		var readErr *Error
		if errors.As(err, &readErr) {
			writeErr.StatusCode = readErr.StatusCode
			writeErr.Body = readErr.Body
		}
		return nil, writeErr
	}

	pageType := current.Type
	if pageType == "" {
		pageType = "page"
	}

	update := pageUpdate{
		ID:    pageID,
		Type:  pageType,
		Title: current.Title,
		Version: pageUpdateVersion{
			Number:    current.Version + 1,
			MinorEdit: true,
		},
		Body: map[string]storage{
			"storage": {Value: storageHTML, Representation: "storage"},
		},
	}

	var raw Record
	if err := c.doJSON(ctx, "write", http.MethodPut, contentPath(pageID), nil, update, &raw); err != nil {
		return nil, err
	}

	c.logger.Info("updated page", "page_id", pageID, "version", update.Version.Number)

	if len(raw) == 0 {
		return &Page{
			ID:      pageID,
			Type:    pageType,
			Title:   current.Title,
			Version: update.Version.Number,
			Body:    storageHTML,
		}, nil
	}
	return parsePage("write", raw)
}

// ReadMarkdown fetches a page and converts its storage body to Markdown.
func (c *Client) ReadMarkdown(ctx context.Context, pageID string) (string, error) {
	page, err := c.Read(ctx, pageID)
	if err != nil {
		return "", err
	}

	converter := md.NewConverter(c.baseURL, true, nil)
	markdown, err := converter.ConvertString(page.Body)
	if err != nil {
		return "", &Error{Op: "read_markdown", Err: fmt.Errorf("failed to convert page %s: %w", pageID, err)}
	}
	return markdown, nil
}

// Search runs a CQL query and returns the raw result records.
func (c *Client) Search(ctx context.Context, cql string, limit int) ([]Record, error) {
	query := url.Values{}
	query.Set("cql", cql)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Results []Record `json:"results"`
	}
	if err := c.doJSON(ctx, "search", http.MethodGet, "/rest/api/content/search", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []Record{}, nil
	}
	return resp.Results, nil
}

// parsePage maps a content record onto a Page. A missing version number is an
// error because writes depend on it.
func parsePage(op string, raw Record) (*Page, error) {
	var resp pageResponse
	if err := remarshal(raw, &resp); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("failed to decode page: %w", err)}
	}
	if resp.Version == nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("page %s has no version number", resp.ID)}
	}

	return &Page{
		ID:      resp.ID,
		Type:    resp.Type,
		Title:   resp.Title,
		Version: resp.Version.Number,
		Body:    resp.Body.Storage.Value,
		Raw:     raw,
	}, nil
}
