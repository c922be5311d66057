// Package drive lists and fetches documents from Google Drive folders.
// Google Sheets are exported as CSV so the tabular pipeline sees real rows;
// Google Docs are exported as plain text.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"github.com/akolanti/driveqa/pkg/retrypolicy"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	MimeTypeGoogleDoc   = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	MimeTypeFolder      = "application/vnd.google-apps.folder"

	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// File is the slice of drive metadata the indexer needs.
type File struct {
	Id       string
	Name     string
	MimeType string
}

// Content is a fetched document. Tabular reports whether the content is CSV,
// either natively or via sheet export.
type Content struct {
	Text     string
	MimeType string
	Tabular  bool
}

type Connector interface {
	ListFolder(ctx context.Context, folderId string) ([]File, error)
	Fetch(ctx context.Context, file File) (Content, error)
	FolderName(ctx context.Context, folderId string) (string, error)
}

type connector struct {
	svc    *drive.Service
	logger *logger_i.Logger
	retry  retrypolicy.Policy
}

func NewConnector(ctx context.Context, apikey string) (Connector, error) {
	if apikey == "" {
		return nil, fmt.Errorf("drive: API key is required")
	}
	svc, err := drive.NewService(ctx, option.WithAPIKey(apikey))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &connector{
		svc:    svc,
		logger: logger_i.NewLogger("Drive"),
		retry:  retrypolicy.Default,
	}, nil
}

func (c *connector) ListFolder(ctx context.Context, folderId string) ([]File, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "folderId", folderId)

	var files []File
	pageToken := ""
	for {
		var page *drive.FileList
		err := c.retry.Do(ctx, func() error {
			var callErr error
			call := c.svc.Files.List().
				Q(fmt.Sprintf("'%s' in parents and trashed = false", folderId)).
				Fields("nextPageToken, files(id, name, mimeType, size)").
				PageSize(config.DrivePageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			page, callErr = call.Do()
			return callErr
		}, isRetryable)
		if err != nil {
			return nil, fmt.Errorf("listing folder %s: %w", folderId, err)
		}

		for _, f := range page.Files {
			if f.MimeType == MimeTypeFolder {
				continue //no recursion, one folder is one collection
			}
			files = append(files, File{Id: f.Id, Name: f.Name, MimeType: f.MimeType})
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	log.Debug("Listed folder", "files", len(files))
	return files, nil
}

func (c *connector) Fetch(ctx context.Context, file File) (Content, error) {
	switch file.MimeType {
	case MimeTypeGoogleSheet:
		text, err := c.export(ctx, file.Id, ExportMimeCSV)
		return Content{Text: text, MimeType: ExportMimeCSV, Tabular: true}, err
	case MimeTypeGoogleDoc:
		text, err := c.export(ctx, file.Id, ExportMimeText)
		return Content{Text: text, MimeType: ExportMimeText, Tabular: false}, err
	}

	tabular := file.MimeType == "text/csv" || strings.HasSuffix(strings.ToLower(file.Name), ".csv")
	text, err := c.download(ctx, file.Id)
	return Content{Text: text, MimeType: file.MimeType, Tabular: tabular}, err
}

func (c *connector) FolderName(ctx context.Context, folderId string) (string, error) {
	var name string
	err := c.retry.Do(ctx, func() error {
		meta, callErr := c.svc.Files.Get(folderId).Fields("name").Context(ctx).Do()
		if callErr != nil {
			return callErr
		}
		name = meta.Name
		return nil
	}, isRetryable)
	if err != nil {
		return "", fmt.Errorf("resolving folder %s: %w", folderId, err)
	}
	return name, nil
}

func (c *connector) export(ctx context.Context, fileId string, exportMime string) (string, error) {
	var text string
	err := c.retry.Do(ctx, func() error {
		resp, callErr := c.svc.Files.Export(fileId, exportMime).Context(ctx).Download()
		if callErr != nil {
			return callErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, config.DriveMaxExportSize))
		if readErr != nil {
			return readErr
		}
		text = string(data)
		return nil
	}, isRetryable)
	if err != nil {
		return "", fmt.Errorf("exporting %s as %s: %w", fileId, exportMime, err)
	}
	return text, nil
}

func (c *connector) download(ctx context.Context, fileId string) (string, error) {
	var text string
	err := c.retry.Do(ctx, func() error {
		resp, callErr := c.svc.Files.Get(fileId).Context(ctx).Download()
		if callErr != nil {
			return callErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, config.DriveMaxExportSize))
		if readErr != nil {
			return readErr
		}
		text = string(data)
		return nil
	}, isRetryable)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", fileId, err)
	}
	return text, nil
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return false
}
