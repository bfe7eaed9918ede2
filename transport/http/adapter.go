// Package http adapts the dispatch pipeline to net/http: it builds a
// web.Request from an inbound call, invokes the router, and writes the
// resulting web.Response back. Panics and dispatch errors surface here
// as 500 responses; the pipeline itself never sees them.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stallkit/stall/router"
	"github.com/stallkit/stall/web"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing.
const maxMultipartMemory = 32 << 20 // 32 MB

// maxJSONBody bounds how much of a JSON body is read.
const maxJSONBody = 1 << 20 // 1 MB

// Adapter is the http.Handler bridging net/http and the router.
type Adapter struct {
	router  *router.Router
	logger  *zap.Logger
	tempDir string
}

// NewAdapter creates an adapter. Uploaded file parts are spooled into
// tempDir; an empty tempDir falls back to the OS default.
func NewAdapter(r *router.Router, logger *zap.Logger, tempDir string) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{router: r, logger: logger, tempDir: tempDir}
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("panic in handler",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}()

	req, err := a.buildRequest(r)
	if err != nil {
		a.logger.Warn("malformed request",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp, err := a.router.Dispatch(req)
	if err != nil {
		a.logger.Error("dispatch failed",
			zap.Error(err),
			zap.String("method", req.Method()),
			zap.String("path", req.Path()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, resp)
}

// buildRequest normalizes an inbound call: the query string is
// stripped from the path, body fields are parsed by content type, and
// multipart file parts are spooled to disk as descriptors.
func (a *Adapter) buildRequest(r *http.Request) (*web.Request, error) {
	req := web.NewRequest(r.Method, r.URL.Path, r.URL.Query(), nil)

	for name, values := range r.Header {
		if len(values) > 0 {
			req.SetHeader(name, values[0])
		}
	}
	for _, c := range r.Cookies() {
		req.SetCookie(c.Name, c.Value)
	}
	req.Set("remote", remoteAddr(r))

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		if r.MultipartForm != nil {
			for key, values := range r.MultipartForm.Value {
				for _, v := range values {
					req.BodyParams().Add(key, v)
				}
			}
			for field, headers := range r.MultipartForm.File {
				if len(headers) == 0 {
					continue
				}
				fh, err := a.spoolFile(field, headers[0])
				if err != nil {
					return nil, err
				}
				req.SetFile(field, fh)
			}
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		for key, values := range r.PostForm {
			for _, v := range values {
				req.BodyParams().Add(key, v)
			}
		}
	case strings.HasPrefix(contentType, "application/json"):
		if err := parseJSONBody(r.Body, req.BodyParams()); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
	}

	return req, nil
}

// parseJSONBody flattens a top-level JSON object into body params, so
// JSON and form clients reach a handler through the same accessors.
// Scalars are stringified, array elements become repeated values, and
// nested objects are kept as raw JSON text.
func parseJSONBody(body io.Reader, params url.Values) error {
	data, err := io.ReadAll(io.LimitReader(body, maxJSONBody))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, value := range fields {
		if err := addJSONValue(params, key, value); err != nil {
			return err
		}
	}
	return nil
}

func addJSONValue(params url.Values, key string, value any) error {
	switch v := value.(type) {
	case nil:
	case string:
		params.Add(key, v)
	case float64:
		params.Add(key, strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		params.Add(key, strconv.FormatBool(v))
	case []any:
		for _, item := range v {
			if err := addJSONValue(params, key, item); err != nil {
				return err
			}
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		params.Add(key, string(raw))
	}
	return nil
}

// spoolFile copies one multipart file part to the temp dir and returns
// its descriptor.
func (a *Adapter) spoolFile(field string, header *multipart.FileHeader) (*web.FileHeader, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", field, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(a.tempDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("spool upload %q: %w", field, err)
	}
	defer tmp.Close()

	size, err := io.Copy(tmp, src)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("spool upload %q: %w", field, err)
	}

	return &web.FileHeader{
		FieldName: field,
		Filename:  header.Filename,
		TempPath:  tmp.Name(),
		Size:      size,
		MIME:      header.Header.Get("Content-Type"),
	}, nil
}

func writeResponse(w http.ResponseWriter, resp *web.Response) {
	for _, cookie := range resp.Cookies() {
		http.SetCookie(w, cookie)
	}
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

func remoteAddr(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}
