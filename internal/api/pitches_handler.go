package api

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/pitches"
)

var (
	pitchesPageSize = 10
	postsPageSize   = 10
)

func (s *Server) routePitches(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/pitches", s.authed(s.handleListOwnPitches))
	mux.HandleFunc("POST /api/pitches", s.authed(s.handleCreatePitch))
	mux.HandleFunc("GET /api/pitches/browse", s.authed(s.handleBrowsePitches))
	mux.HandleFunc("GET /api/pitches/{id}", s.authed(s.handlePitchDetail))
	mux.HandleFunc("POST /api/pitches/{id}/interest", s.authed(s.handleAddInterest))
	mux.HandleFunc("DELETE /api/pitches/{id}/interest", s.authed(s.handleRemoveInterest))
	mux.HandleFunc("GET /api/pitch-files/{id}", s.authed(s.handlePitchFile))
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/posts", s.authed(s.handleFeed))
	mux.HandleFunc("POST /api/posts", s.authed(s.handleCreatePost))
	mux.HandleFunc("GET /api/posts/{id}", s.authed(s.handlePostDetail))
	mux.HandleFunc("GET /api/guidelines", s.handleGuidelines)
}

func (s *Server) handleListOwnPitches(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Pitches.ListOwn(r.Context(), userFrom(r.Context()), pageRequest(r, pitchesPageSize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleBrowsePitches(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Pitches.BrowseApproved(r.Context(), userFrom(r.Context()), pageRequest(r, pitchesPageSize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

type createPitchResponse struct {
	Pitch *db.Pitch `json:"pitch"`
	Files int       `json:"files_uploaded"`
}

// uploads collects the files form field. file_types and file_descriptions
// are matched to files by position.
func uploads(form *multipart.Form) ([]pitches.Upload, func(), error) {
	var (
		out    []pitches.Upload
		opened []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	types := form.Value["file_types"]
	descs := form.Value["file_descriptions"]
	for i, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		up := pitches.Upload{Filename: fh.Filename, FileType: db.FileOther, Size: fh.Size, Body: f}
		if i < len(types) && types[i] != "" {
			up.FileType = db.PitchFileType(types[i])
		}
		if i < len(descs) {
			up.Description = strings.TrimSpace(descs[i])
		}
		out = append(out, up)
	}
	return out, closeAll, nil
}

func (s *Server) handleCreatePitch(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxPitchBody) {
		return
	}
	budget, err := formDecimal(r, "budget_required")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := pitches.PitchInput{
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		CategoryID:     r.FormValue("category_id"),
		BudgetRequired: budget,
		Timeline:       r.FormValue("timeline"),
	}
	files, closeFiles, err := uploads(r.MultipartForm)
	if err != nil {
		badRequest(w, "could not read uploaded files")
		return
	}
	defer closeFiles()

	p, n, err := s.svc.Pitches.CreatePitch(r.Context(), userFrom(r.Context()), in, files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPitchResponse{Pitch: p, Files: n})
}

func (s *Server) handlePitchDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Pitches.Detail(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type interestRequest struct {
	Message string `json:"message"`
}

type interestResponse struct {
	Created bool         `json:"created"`
	Room    *db.ChatRoom `json:"room"`
}

func (s *Server) handleAddInterest(w http.ResponseWriter, r *http.Request) {
	var req interestRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	created, room, err := s.svc.Pitches.AddInterest(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, interestResponse{Created: created, Room: room})
}

func (s *Server) handleRemoveInterest(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pitches.RemoveInterest(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePitchFile(w http.ResponseWriter, r *http.Request) {
	f, body, err := s.svc.Pitches.OpenFile(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(f.OriginalFilename, `"`, "")+`"`)
	http.ServeContent(w, r, f.OriginalFilename, f.UploadedAt, body)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Pitches.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []*db.PitchCategory{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, pg, err := s.svc.Pitches.Feed(r.Context(), userFrom(r.Context()), q.Get("type"), q.Get("tag"), pageRequest(r, postsPageSize))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(posts, pg))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxUploadBody) {
		return
	}
	in := pitches.PostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Tags:    r.FormValue("tags"),
	}
	if v := r.FormValue("is_public"); v != "" {
		public := formBool(r, "is_public")
		in.IsPublic = &public
	}
	f, fh, err := formFile(r, "featured_image")
	if err != nil {
		badRequest(w, "could not read featured_image")
		return
	}
	var img *pitches.Image
	if f != nil {
		defer f.Close()
		img = &pitches.Image{Filename: fh.Filename, Body: f}
	}

	p, err := s.svc.Pitches.CreatePost(r.Context(), userFrom(r.Context()), in, img)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Pitches.PostDetail(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGuidelines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Pitches.Guidelines())
}
