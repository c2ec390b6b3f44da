package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Attachment is a file attached to a page.
type Attachment struct {
	ID           string
	Title        string
	MediaType    string
	FileSize     int64
	DownloadLink string // As returned by Confluence; may be relative
	Raw          Record
}

type attachmentResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Extensions struct {
		MediaType string `json:"mediaType"`
		FileSize  int64  `json:"fileSize"`
	} `json:"extensions"`
	Links struct {
		Download string `json:"download"`
	} `json:"_links"`
}

// Attachments lists the attachments of a page.
func (c *Client) Attachments(ctx context.Context, pageID string) ([]Attachment, error) {
	query := url.Values{}
	query.Set("expand", "version")

	var resp struct {
		Results []Record `json:"results"`
	}
	path := contentPath(pageID) + "/child/attachment"
	if err := c.doJSON(ctx, "attachments", http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}

	attachments := make([]Attachment, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var a attachmentResponse
		if err := remarshal(raw, &a); err != nil {
			return nil, &Error{Op: "attachments", Err: fmt.Errorf("failed to decode attachment: %w", err)}
		}
		attachments = append(attachments, Attachment{
			ID:           a.ID,
			Title:        a.Title,
			MediaType:    a.Extensions.MediaType,
			FileSize:     a.Extensions.FileSize,
			DownloadLink: a.Links.Download,
			Raw:          raw,
		})
	}

	return attachments, nil
}

// DownloadAttachment returns the content of the attachment titled filename.
// It returns nil, nil when the page has no attachment with that exact title.
func (c *Client) DownloadAttachment(ctx context.Context, pageID, filename string) ([]byte, error) {
	attachments, err := c.Attachments(ctx, pageID)
	if err != nil {
		return nil, err
	}

	for _, a := range attachments {
		if a.Title != filename {
			continue
		}
		if a.DownloadLink == "" {
			return nil, nil
		}

		data, err := c.doRaw(ctx, "download_attachment", http.MethodGet, c.resolve(a.DownloadLink), "*/*", nil)
		if err != nil {
			return nil, err
		}
		return data, nil
	}

	c.logger.Debug("attachment not found", "page_id", pageID, "filename", filename)
	return nil, nil
}

// remarshal converts a generic record into a typed struct.
func remarshal(in Record, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
