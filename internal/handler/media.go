package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"vidshare/internal/model"
)

// maxMultipartMemory is kept in memory before the form spills to disk.
const maxMultipartMemory = 32 << 20

// pickedFiles tracks the temp copies made for one request.
type pickedFiles struct {
	paths []string
}

func (p *pickedFiles) cleanup() {
	for _, name := range p.paths {
		os.Remove(name)
	}
}

// mediaFromForm returns the file posted under field. A multipart part wins;
// otherwise field_uri and field_type describe a remote file. A missing file
// yields nil without an error.
func (p *pickedFiles) mediaFromForm(r *http.Request, field string) (*model.MediaFile, error) {
	file, header, err := r.FormFile(field)
	switch {
	case err == nil:
		defer file.Close()
		return p.saveTemp(file, header)
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	uri := strings.TrimSpace(r.FormValue(field + "_uri"))
	if uri == "" {
		return nil, nil
	}
	// Clients may only point at remote files, never at server paths.
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%s_uri: %w", field, model.ErrUnsupportedScheme)
	}

	size, _ := strconv.ParseInt(r.FormValue(field+"_size"), 10, 64)
	name := r.FormValue(field + "_name")
	if name == "" {
		name = path.Base(u.Path)
	}
	return &model.MediaFile{
		Name: name,
		Type: r.FormValue(field + "_type"),
		Size: size,
		URI:  uri,
	}, nil
}

func (p *pickedFiles) saveTemp(file multipart.File, header *multipart.FileHeader) (*model.MediaFile, error) {
	tmp, err := os.CreateTemp("", "vidshare-upload-*"+path.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	p.paths = append(p.paths, tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, file)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &model.MediaFile{
		Name: header.Filename,
		Type: contentType,
		Size: size,
		URI:  tmp.Name(),
	}, nil
}

// parseUploadForm limits the body and parses it as multipart when it is one.
// URL-encoded forms are accepted for the *_uri variant.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxMultipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || (err != nil && strings.Contains(err.Error(), "request body too large")) {
		return fmt.Errorf("%w: request exceeds %d bytes", model.ErrFileTooLarge, maxBytes)
	}
	if err != nil {
		return &model.ValidationError{Message: "invalid form data"}
	}
	return nil
}
