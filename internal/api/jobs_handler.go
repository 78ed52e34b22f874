package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/jobs"
)

func (s *Server) routeJobs(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/search", s.handleSearchJobs)
	mux.HandleFunc("GET /api/jobs/mine", s.authed(s.handleMyPostings))
	mux.HandleFunc("POST /api/jobs", s.authed(s.handlePostJob))
	mux.HandleFunc("GET /api/jobs/{id}", s.optional(s.handleJobDetail))
	mux.HandleFunc("PUT /api/jobs/{id}", s.authed(s.handleEditJob))
	mux.HandleFunc("DELETE /api/jobs/{id}", s.authed(s.handleDeleteJob))
	mux.HandleFunc("POST /api/jobs/{id}/apply", s.authed(s.handleApply))
	mux.HandleFunc("GET /api/jobs/{id}/applications", s.authed(s.handleJobApplications))
	mux.HandleFunc("POST /api/jobs/{id}/save", s.authed(s.handleSaveJob))
	mux.HandleFunc("DELETE /api/jobs/{id}/save", s.authed(s.handleUnsaveJob))
	mux.HandleFunc("GET /api/saved-jobs", s.authed(s.handleSavedJobs))

	mux.HandleFunc("GET /api/applications", s.authed(s.handleMyApplications))
	mux.HandleFunc("GET /api/applications/{id}", s.authed(s.handleApplicationDetail))
	mux.HandleFunc("POST /api/applications/{id}/withdraw", s.authed(s.handleWithdraw))
	mux.HandleFunc("PATCH /api/applications/{id}/status", s.authed(s.handleApplicationStatus))

	mux.HandleFunc("GET /api/alerts", s.authed(s.handleListAlerts))
	mux.HandleFunc("POST /api/alerts", s.authed(s.handleCreateAlert))
	mux.HandleFunc("PUT /api/alerts/{id}", s.authed(s.handleEditAlert))
	mux.HandleFunc("DELETE /api/alerts/{id}", s.authed(s.handleDeleteAlert))
	mux.HandleFunc("POST /api/alerts/{id}/toggle", s.authed(s.handleToggleAlert))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Jobs.List(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sf := jobs.SearchFilters{
		Keywords:        q.Get("keywords"),
		Location:        q.Get("location"),
		JobType:         db.JobType(q.Get("job_type")),
		ExperienceLevel: db.ExperienceLevel(q.Get("experience_level")),
		Industry:        q.Get("industry"),
		RemoteOnly:      formBool(r, "remote_only"),
	}
	if v := q.Get("salary_min"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			badRequest(w, "invalid salary_min")
			return
		}
		sf.SalaryMin = &d
	}
	list, pg, err := s.svc.Jobs.Search(r.Context(), sf, pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Jobs.Detail(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMyPostings(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Jobs.MyPostings(r.Context(), userFrom(r.Context()), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handlePostJob(w http.ResponseWriter, r *http.Request) {
	var in jobs.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	j, err := s.svc.Jobs.Post(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (s *Server) handleEditJob(w http.ResponseWriter, r *http.Request) {
	var in jobs.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	j, err := s.svc.Jobs.Edit(r.Context(), userFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Jobs.Delete(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleApply accepts a JSON body, or a multipart form when a resume file
// is attached.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var in jobs.ApplyInput
	if isMultipart(r) {
		if !parseMultipart(w, r, maxUploadBody) {
			return
		}
		in.CoverLetter = r.FormValue("cover_letter")
		in.PortfolioLinks = r.FormValue("portfolio_links")
		f, fh, err := formFile(r, "resume")
		if err != nil {
			badRequest(w, "could not read resume")
			return
		}
		if f != nil {
			defer f.Close()
			in.Resume = &jobs.Resume{Filename: fh.Filename, Body: f}
		}
	} else if !decodeJSON(w, r, &in) {
		return
	}

	a, err := s.svc.Jobs.Apply(r.Context(), userFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type jobApplicationsResponse struct {
	Job *db.JobPosting `json:"job"`
	paged[*db.JobApplication]
}

func (s *Server) handleJobApplications(w http.ResponseWriter, r *http.Request) {
	status := db.ApplicationStatus(r.URL.Query().Get("status"))
	j, apps, pg, err := s.svc.Jobs.JobApplications(r.Context(), userFrom(r.Context()), r.PathValue("id"), status, pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobApplicationsResponse{Job: j, paged: newPaged(apps, pg)})
}

type saveRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.svc.Jobs.Save(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"saved": true, "created": created})
}

func (s *Server) handleUnsaveJob(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.Jobs.Unsave(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": false, "removed": removed})
}

func (s *Server) handleSavedJobs(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Jobs.SavedJobs(r.Context(), userFrom(r.Context()), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Jobs.MyApplications(r.Context(), userFrom(r.Context()), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleApplicationDetail(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Jobs.ApplicationDetail(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Jobs.Withdraw(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var in jobs.StatusUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := s.svc.Jobs.UpdateApplicationStatus(r.Context(), userFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Jobs.ListAlerts(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*db.JobAlert{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var in jobs.AlertInput
	if !decodeJSON(w, r, &in) {
		return
	}
	al, err := s.svc.Jobs.CreateAlert(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, al)
}

func (s *Server) handleEditAlert(w http.ResponseWriter, r *http.Request) {
	var in jobs.AlertInput
	if !decodeJSON(w, r, &in) {
		return
	}
	al, err := s.svc.Jobs.EditAlert(r.Context(), userFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Jobs.DeleteAlert(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleAlert(w http.ResponseWriter, r *http.Request) {
	al, err := s.svc.Jobs.ToggleAlert(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, al)
}
