package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFileField is the form field the CSV server reads the upload from.
const DefaultFileField = "csv_file"

// File is the file part of an upload form.
type File struct {
	// FieldName is the form field name (default: csv_file)
	FieldName string
	Filename  string
	Content   io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadCSV posts fields and file to /csv as multipart/form-data.
//
// The body is streamed, so the file is never held in memory. Nothing about the
// file is checked here; size and format are the server's concern.
func (c *Client) UploadCSV(ctx context.Context, fields map[string]string, file File) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.newRequest(ctx, http.MethodPost, "/csv", pr)
	if err != nil {
		pw.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		pw.CloseWithError(writeForm(mw, fields, file))
	}()
	// Unblocks the writer if the server answers before reading the whole body
	defer pr.Close()

	return c.do(req, nil)
}

// writeForm writes the plain fields in key order, then the file part.
func writeForm(mw *multipart.Writer, fields map[string]string, file File) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}

	name := file.FieldName
	if name == "" {
		name = DefaultFileField
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(file.Filename)))
	h.Set("Content-Type", contentTypeFor(file.Filename))

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("copy file %s: %w", file.Filename, err)
		}
	}

	return mw.Close()
}

// contentTypeFor picks the part content type from the file extension.
// The server compares against the bare "text/csv", so .csv never gets a charset.
func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".csv" {
		return "text/csv"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
