// SPDX-License-Identifier: EPL-2.0

// Package server exposes the converter over HTTP: an upload form, the upload
// endpoint that returns a WAV or a ZIP, and a couple of JSON helpers.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tucommenceapousser/squarew"
	"github.com/tucommenceapousser/squarew/audio"
	"github.com/tucommenceapousser/squarew/internal/archive"
	"github.com/tucommenceapousser/squarew/internal/config"
)

//go:embed web/index.html.tmpl
var indexSource string

var indexTemplate = template.Must(template.New("index").Parse(indexSource))

// FailedHeader lists the uploads that could not be converted when the
// response still carries the others.
const FailedHeader = "X-Squarew-Failed"

// multipart parts beyond this stay on disk until the request ends
const formMemory = 32 << 20

type Server struct {
	cfg      config.Config
	opts     squarew.Options
	registry *audio.Registry
	logger   *log.Logger
	mux      *http.ServeMux
	index    []byte
}

type indexData struct {
	Accept    string
	Mode      string
	Threshold float64
	LowPass   bool
	CutoffHz  float64
	MaxCutoff int
}

// New builds a server from cfg. A nil logger logs through log.Default.
func New(cfg config.Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := cfg.Options()
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		opts:     opts,
		registry: squarew.NewRegistry(),
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	index, err := s.renderIndex()
	if err != nil {
		return nil, err
	}
	s.index = index

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/formats", s.handleFormats)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. In-flight requests
// get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	s.logger.Printf("squarew listening on %s", ln.Addr())

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// renderIndex fills the upload form with the configured defaults.
func (s *Server) renderIndex() ([]byte, error) {
	formats := s.registry.Formats()
	accept := make([]string, len(formats))
	for i, f := range formats {
		accept[i] = "." + f
	}

	data := indexData{
		Accept:    strings.Join(accept, ","),
		Mode:      s.opts.Mode.String(),
		Threshold: s.opts.Threshold,
		LowPass:   s.opts.LowPass,
		CutoffHz:  s.opts.CutoffHz,
		MaxCutoff: (s.opts.SampleRate+1)/2 - 1,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.index)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"formats": s.registry.Formats()})
}

type result struct {
	upload string
	output string
	data   []byte
	err    error
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d MiB", s.cfg.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "expected a multipart form upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := requestOptions(s.opts, r.MultipartForm.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := uploadedFiles(r.MultipartForm)
	if len(files) == 0 {
		http.Error(w, "no file selected", http.StatusBadRequest)
		return
	}

	s.logger.Printf("upload: %d file(s), mode=%s lowpass=%t", len(files), opts.Mode, opts.LowPass)

	var converted, failed []result
	for _, fh := range files {
		res := s.convert(fh, opts)
		if res.err != nil {
			s.logger.Printf("upload: %s: %v", res.upload, res.err)
			failed = append(failed, res)
		} else {
			converted = append(converted, res)
		}
	}

	s.logger.Printf("upload: %d converted, %d failed in %v", len(converted), len(failed), time.Since(start).Round(time.Millisecond))

	switch {
	case len(converted) == 0:
		var msg strings.Builder
		msg.WriteString("no file could be converted\n")
		for _, res := range failed {
			fmt.Fprintf(&msg, "%s: %v\n", res.upload, res.err)
		}
		http.Error(w, msg.String(), http.StatusUnprocessableEntity)

	case len(files) == 1:
		res := converted[0]
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Disposition", attachment(res.output))
		w.Header().Set("Content-Length", strconv.Itoa(len(res.data)))
		w.Write(res.data)

	default:
		s.writeArchive(w, converted, failed)
	}
}

func (s *Server) writeArchive(w http.ResponseWriter, converted, failed []result) {
	if len(failed) > 0 {
		names := make([]string, len(failed))
		for i, res := range failed {
			names[i] = strconv.Quote(res.upload)
		}
		w.Header().Set(FailedHeader, strings.Join(names, ", "))
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(s.cfg.ArchiveName))

	zw := archive.NewWriter(w)
	for _, res := range converted {
		entry, err := zw.Create(res.output)
		if err == nil {
			_, err = entry.Write(res.data)
		}
		if err != nil {
			s.logger.Printf("upload: archive %s: %v", res.output, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.logger.Printf("upload: archive: %v", err)
	}
}

func (s *Server) convert(fh *multipart.FileHeader, opts squarew.Options) result {
	res := result{upload: fh.Filename, output: squarew.OutputName(fh.Filename)}

	dec, err := s.registry.ForFile(fh.Filename)
	if err != nil {
		res.err = err
		return res
	}

	f, err := fh.Open()
	if err != nil {
		res.err = fmt.Errorf("open upload: %w", err)
		return res
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := squarew.Convert(dec, f, &buf, opts); err != nil {
		res.err = err
		return res
	}

	res.data = buf.Bytes()
	return res
}

// uploadedFiles gathers the "files" and "file" fields, skipping parts sent
// without a file name.
func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for _, field := range []string{"files", "file"} {
		for _, fh := range form.File[field] {
			if fh.Filename != "" {
				files = append(files, fh)
			}
		}
	}
	return files
}

// requestOptions applies the optional form fields mode, threshold, lowpass
// and cutoff on top of base. A repeated field takes its last value, so the
// form's hidden lowpass=off is overridden by a checked box.
func requestOptions(base squarew.Options, values map[string][]string) (squarew.Options, error) {
	opts := base
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[len(v)-1])
		}
		return ""
	}

	if v := get("mode"); v != "" {
		mode, err := squarew.ParseMode(v)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}

	if v := get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("threshold: %q is not a number", v)
		}
		opts.Threshold = t
	}

	if v := get("lowpass"); v != "" {
		switch strings.ToLower(v) {
		case "on", "yes":
			opts.LowPass = true
		case "off", "no":
			opts.LowPass = false
		default:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("lowpass: %q is not a boolean", v)
			}
			opts.LowPass = b
		}
	}

	if v := get("cutoff"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("cutoff: %q is not a number", v)
		}
		opts.CutoffHz = c
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
