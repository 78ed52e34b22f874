package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/admin"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/scheduler"
)

// runLogLimit is the number of recent run logs shown per job.
const runLogLimit = 20

func (s *Server) routeAdmin(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/dashboard", s.staff(s.handleAdminDashboard))

	mux.HandleFunc("GET /api/admin/categories", s.staff(s.handleAdminCategories))
	mux.HandleFunc("POST /api/admin/categories", s.staff(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/admin/categories/{id}", s.staff(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/admin/users", s.staff(s.handleAdminUsers))
	mux.HandleFunc("POST /api/admin/users/bulk", s.staff(s.handleBulkUsers))
	mux.HandleFunc("GET /api/admin/users/{id}", s.staff(s.handleAdminUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", s.staff(s.handleDeleteUser))
	mux.HandleFunc("POST /api/admin/users/{id}/verify", s.staff(s.handleVerifyUser))
	mux.HandleFunc("POST /api/admin/users/{id}/suspend", s.staff(s.handleSuspendUser))
	mux.HandleFunc("POST /api/admin/users/{id}/unsuspend", s.staff(s.handleUnsuspendUser))
	mux.HandleFunc("POST /api/admin/investors", s.staff(s.handleRegisterInvestor))

	mux.HandleFunc("GET /api/admin/pitches", s.staff(s.handleAdminPitches))
	mux.HandleFunc("POST /api/admin/pitches/{id}/review", s.staff(s.handleReviewPitch))
	mux.HandleFunc("GET /api/admin/payments", s.staff(s.handleAdminPayments))
	mux.HandleFunc("GET /api/admin/finance", s.staff(s.handleFinance))

	mux.HandleFunc("GET /api/admin/jobs", s.staff(s.handleAdminJobs))
	mux.HandleFunc("POST /api/admin/jobs/bulk", s.staff(s.handleBulkJobs))
	mux.HandleFunc("GET /api/admin/jobs/export", s.staff(s.handleExportJobs))
	mux.HandleFunc("GET /api/admin/jobs/analytics", s.staff(s.handleJobAnalytics))
	mux.HandleFunc("GET /api/admin/jobs/runs", s.staff(s.handleJobRuns))
	mux.HandleFunc("POST /api/admin/jobs/runs", s.staff(s.handleRunJob))
	mux.HandleFunc("POST /api/admin/jobs/{id}/toggle", s.staff(s.handleToggleJob))
	mux.HandleFunc("POST /api/admin/jobs/{id}/feature", s.staff(s.handleFeatureJob))
	mux.HandleFunc("DELETE /api/admin/jobs/{id}", s.staff(s.handleAdminDeleteJob))
	mux.HandleFunc("GET /api/admin/jobs/{id}/applications", s.staff(s.handleAdminJobApplications))
	mux.HandleFunc("GET /api/admin/jobs/{id}/applications/export", s.staff(s.handleExportApplications))

	mux.HandleFunc("GET /api/admin/applications/{id}", s.staff(s.handleAdminApplication))
	mux.HandleFunc("PATCH /api/admin/applications/{id}/status", s.staff(s.handleAdminApplicationStatus))
	mux.HandleFunc("DELETE /api/admin/applications/{id}", s.staff(s.handleAdminDeleteApplication))

	mux.HandleFunc("GET /api/admin/job-seekers", s.staff(s.handleJobSeekers))
	mux.HandleFunc("GET /api/admin/job-seekers/{id}", s.staff(s.handleJobSeeker))

	mux.HandleFunc("GET /api/admin/settings", s.staff(s.handleAdminSettings))
	mux.HandleFunc("PUT /api/admin/settings", s.staff(s.handleUpdateSettings))
	mux.HandleFunc("GET /api/admin/settings/history", s.staff(s.handleSettingsHistory))
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Admin.Dashboard(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Admin.ListCategories(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []*db.PitchCategory{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.svc.Admin.CreateCategory(r.Context(), userFrom(r.Context()), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Admin.DeleteCategory(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := admin.UserListFilter{
		UserType:      db.UserType(q.Get("user_type")),
		Verification:  q.Get("verification"),
		AccountStatus: db.AccountStatus(q.Get("account_status")),
		Search:        q.Get("search"),
		Page:          pageParam(r),
	}
	users, pg, err := s.svc.Admin.ListUsers(r.Context(), userFrom(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(users, pg))
}

func (s *Server) handleAdminUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	d, err := s.svc.Admin.UserDetail(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	u, err := s.svc.Admin.Verify(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type suspendRequest struct {
	Days   int    `json:"duration"`
	Reason string `json:"reason"`
}

func (s *Server) handleSuspendUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	var req suspendRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.svc.Admin.Suspend(r.Context(), userFrom(r.Context()), id, req.Days, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUnsuspendUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	u, err := s.svc.Admin.Unsuspend(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.Admin.Delete(r.Context(), userFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkUsers(w http.ResponseWriter, r *http.Request) {
	var req admin.BulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Admin.BulkAction(r.Context(), userFrom(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegisterInvestor(w http.ResponseWriter, r *http.Request) {
	var form accounts.InvestorForm
	if !decodeJSON(w, r, &form) {
		return
	}
	u, err := s.svc.Admin.RegisterInvestor(r.Context(), userFrom(r.Context()), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleAdminPitches(w http.ResponseWriter, r *http.Request) {
	status := db.PitchStatus(r.URL.Query().Get("status"))
	list, pg, err := s.svc.Admin.ListPitches(r.Context(), userFrom(r.Context()), status, pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

type reviewRequest struct {
	Status db.PitchStatus `json:"status"`
	Notes  string         `json:"admin_notes"`
}

func (s *Server) handleReviewPitch(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.svc.Admin.ReviewPitch(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.Status, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAdminPayments(w http.ResponseWriter, r *http.Request) {
	status := db.PaymentStatus(r.URL.Query().Get("status"))
	list, pg, err := s.svc.Admin.ListPayments(r.Context(), userFrom(r.Context()), status, pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.Admin.FinancialAnalysis(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func jobListFilter(r *http.Request) admin.JobListFilter {
	q := r.URL.Query()
	return admin.JobListFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Industry: q.Get("industry"),
		JobType:  db.JobType(q.Get("job_type")),
		Page:     pageParam(r),
		PerPage:  intParam(r, "per_page"),
	}
}

func (s *Server) handleAdminJobs(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Admin.ListJobs(r.Context(), userFrom(r.Context()), jobListFilter(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

type bulkJobsRequest struct {
	Action string   `json:"action"`
	JobIDs []string `json:"job_ids"`
}

func (s *Server) handleBulkJobs(w http.ResponseWriter, r *http.Request) {
	var req bulkJobsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.svc.Admin.BulkJobAction(r.Context(), userFrom(r.Context()), req.Action, req.JobIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"affected": n})
}

// writeCSV sends a rendered export as an attachment. Exports are buffered
// so a failure part way still yields a JSON error.
func (s *Server) writeCSV(w http.ResponseWriter, kind string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+admin.ExportFilename(kind, s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportJobs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Admin.ExportJobsCSV(r.Context(), userFrom(r.Context()), jobListFilter(r), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCSV(w, "jobs", &buf)
}

func (s *Server) handleJobAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Admin.JobAnalytics(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleToggleJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.svc.Admin.ToggleJob(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleFeatureJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.svc.Admin.FeatureJob(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleAdminDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Admin.DeleteJob(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminJobApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.svc.Admin.JobApplications(r.Context(), userFrom(r.Context()), r.PathValue("id"),
		db.ApplicationStatus(q.Get("status")), q.Get("search"), pageParam(r), intParam(r, "per_page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p.Applications == nil {
		p.Applications = []*db.JobApplication{}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExportApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var buf bytes.Buffer
	_, err := s.svc.Admin.ExportApplicationsCSV(r.Context(), userFrom(r.Context()), r.PathValue("id"),
		db.ApplicationStatus(q.Get("status")), q.Get("search"), &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCSV(w, "applications", &buf)
}

func (s *Server) handleAdminApplication(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Admin.ApplicationDetails(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type applicationStatusRequest struct {
	Status db.ApplicationStatus `json:"status"`
}

func (s *Server) handleAdminApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req applicationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.svc.Admin.UpdateApplicationStatus(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAdminDeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Admin.DeleteApplication(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJobSeekers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := admin.SeekerFilter{
		Verification: q.Get("verification"),
		Search:       q.Get("search"),
		Page:         pageParam(r),
	}
	list, pg, err := s.svc.Admin.JobSeekers(r.Context(), userFrom(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

func (s *Server) handleJobSeeker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	d, err := s.svc.Admin.JobSeekerDetail(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Admin.PlatformSettings(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type feesRequest struct {
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	SubscriptionFee decimal.Decimal `json:"subscription_fee"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req feesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ps, err := s.svc.Admin.UpdatePlatformSettings(r.Context(), userFrom(r.Context()), req.RegistrationFee, req.SubscriptionFee)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleSettingsHistory(w http.ResponseWriter, r *http.Request) {
	list, pg, err := s.svc.Admin.SettingsHistory(r.Context(), userFrom(r.Context()), pageParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPaged(list, pg))
}

type jobRunsResponse struct {
	Jobs []scheduler.JobInfo `json:"jobs"`
	Runs []*db.JobRunLog     `json:"runs"`
}

func (s *Server) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.svc.RunLogs.ListJobRunLogs(r.Context(), r.URL.Query().Get("job"), runLogLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := jobRunsResponse{Jobs: []scheduler.JobInfo{}, Runs: runs}
	if s.svc.Scheduler != nil {
		if jobs := s.svc.Scheduler.Jobs(); jobs != nil {
			resp.Jobs = jobs
		}
	}
	if resp.Runs == nil {
		resp.Runs = []*db.JobRunLog{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type runJobRequest struct {
	Job string `json:"job"`
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	var req runJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Job == "" {
		badRequest(w, "job is required")
		return
	}
	if s.svc.Scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Scheduler is not running."})
		return
	}
	runLog, err := s.svc.Scheduler.RunNow(r.Context(), req.Job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runLog)
}
