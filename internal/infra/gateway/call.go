package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// Call describes one logical gateway request. Treat it as immutable once built.
type Call struct {
	Path   string
	Method string

	// Route is the path template used as a metrics label (e.g. "/cards/{id}").
	// Defaults to Path.
	Route string

	// At most one of Body and Form may be set.
	Body any
	Form *Form

	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration
}

// Form is a multipart/form-data payload. Field order is preserved on the wire.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is a scalar multipart field.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a file part of a multipart form.
type FormFile struct {
	Field    string
	FileName string
	Content  []byte
}

// AddField appends a scalar field.
func (f *Form) AddField(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// AddFile appends a file part.
func (f *Form) AddFile(field, fileName string, content []byte) {
	f.Files = append(f.Files, FormFile{Field: field, FileName: fileName, Content: content})
}

var (
	errBodyAndForm   = errors.New("call sets both a JSON body and a multipart form")
	errNoTimeout     = errors.New("call has no attempt timeout")
	errUnsupportedOp = errors.New("unsupported http method")
)

// Validate checks the descriptor invariants.
func (c Call) Validate() error {
	switch c.Method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %q", errUnsupportedOp, c.Method)
	}
	if c.Body != nil && c.Form != nil {
		return errBodyAndForm
	}
	if c.Timeout <= 0 {
		return errNoTimeout
	}
	return nil
}

func (c Call) route() string {
	if c.Route != "" {
		return c.Route
	}
	return c.Path
}

// encodeBody serializes the payload once, before any attempt is made.
// A multipart payload gets the encoder's boundary-bearing content type; a JSON
// body gets application/json; no payload yields neither.
func (c Call) encodeBody() (body []byte, contentType string, err error) {
	switch {
	case c.Form != nil:
		return c.Form.encode()
	case c.Body != nil:
		b, err := json.Marshal(c.Body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return b, "application/json", nil
	default:
		return nil, "", nil
	}
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, file := range f.Files {
		part, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", file.Field, err)
		}
	}
	for _, field := range f.Fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", field.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
