package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/logging"
	"github.com/JonMunkholm/fileconverter/internal/web/templates"
)

// renderPage writes an HTML component with status.
func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) indexData(r *http.Request) templates.IndexData {
	return templates.IndexData{
		Files:         s.service.List(r.Context()),
		MaxFileSizeMB: s.service.MaxFileSize() >> 20,
		MaxFiles:      s.cfg.Upload.MaxFiles,
	}
}

// handleIndex renders the upload page with the session's files.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, templates.IndexPage(s.indexData(r)))
}

// handleUploadPage stores the uploaded files and renders the workspace with
// a result line per file.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.storeUploads(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := s.indexData(r)
	status := http.StatusOK
	failed := 0
	for _, out := range outcomes {
		res := templates.UploadResult{Name: out.Name}
		if out.Err != nil {
			msg := core.MapError(out.Err)
			res.Err = &msg
			failed++
		} else {
			file := out.File
			res.File = &file
		}
		data.Uploads = append(data.Uploads, res)
	}
	if failed == len(outcomes) {
		status = statusFor(outcomes[0].Err)
	}

	renderPage(w, r, status, templates.IndexPage(data))
}

// handleFilePage runs the pipeline with the query options and renders the
// previews. Request errors are shown on the page next to the options form.
func (s *Server) handleFilePage(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Describe(r.Context(), fileID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.FileData{File: info}
	opts, err := requestOptions(r)
	data.Options = opts
	if err == nil {
		data.Result, err = s.service.Process(r.Context(), info.ID, opts)
	}
	if err != nil {
		if !core.IsClientError(err) {
			s.respondError(w, r, err)
			return
		}
		logging.FromContext(r.Context()).Info("file page options rejected", "file_id", info.ID, "error", err)
		msg := core.MapError(err)
		data.Err = &msg
		renderPage(w, r, http.StatusBadRequest, templates.FilePage(data))
		return
	}

	renderPage(w, r, http.StatusOK, templates.FilePage(data))
}

// handleDownload converts the file with the query options and returns the
// artifact. Shared by the page and API routes.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	opts, err := requestOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Convert(r.Context(), fileID(r), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeArtifact(w, res.Artifact)
}

// handleDeletePage removes a file and returns to the upload page.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(r.Context(), fileID(r)); err != nil && !isNotFound(err) {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
