package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

const (
	defaultBranchLimit = 50
	maxBranchLimit     = 500
)

const branchColumns = `id, branch_code, branch_name, branch_city, branch_address, region,
	contact_phone, contact_email, is_active, created_on, updated_on`

// branchInput is the body of create and update requests. Nil fields are
// left unchanged on update.
type branchInput struct {
	BranchCode    *string `json:"branch_code"`
	BranchName    *string `json:"branch_name"`
	BranchCity    *string `json:"branch_city"`
	BranchAddress *string `json:"branch_address"`
	Region        *string `json:"region"`
	ContactPhone  *string `json:"contact_phone"`
	ContactEmail  *string `json:"contact_email"`
	IsActive      *bool   `json:"is_active"`
}

// trim strips surrounding whitespace from every field that was sent.
func (in *branchInput) trim() {
	for _, f := range []*string{in.BranchCode, in.BranchName, in.BranchCity,
		in.BranchAddress, in.Region, in.ContactPhone, in.ContactEmail} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// isUniqueViolation reports a duplicate branch_code.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// parseLimit returns the page size, falling back to the default for
// missing or invalid values and clamping to maxBranchLimit.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultBranchLimit
	}
	if n > maxBranchLimit {
		return maxBranchLimit
	}
	return n
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"))
	search := strings.TrimSpace(q.Get("search"))

	sql := `SELECT ` + branchColumns + ` FROM branches`
	var params []recorder.Value
	if search != "" {
		sql += ` WHERE branch_code ILIKE $1 OR branch_name ILIKE $1 OR branch_city ILIKE $1`
		params = append(params, recorder.String("%"+escapeLike(search)+"%"))
	}
	sql += ` ORDER BY branch_name LIMIT $` + strconv.Itoa(len(params)+1)
	params = append(params, recorder.Int(int64(limit)))

	rows, err := h.db.ExecuteRead(r.Context(), sql, params...)
	if err != nil {
		h.logger.Error("Error fetching branches: %v", err)
		h.writeFailure(w, err, "Failed to fetch branches")
		return
	}
	writeData(w, http.StatusOK, "", rows)
}

func (h *Handler) handleGetBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rows, err := h.db.ExecuteRead(r.Context(),
		`SELECT `+branchColumns+` FROM branches WHERE id = $1`, recorder.String(id))
	if err != nil {
		h.logger.Error("Error fetching branch %s: %v", id, err)
		h.writeFailure(w, err, "Failed to fetch branch")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "Branch not found")
		return
	}
	writeData(w, http.StatusOK, "", rows[0])
}

func (h *Handler) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var in branchInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if blank(in.BranchCode) || blank(in.BranchName) {
		writeError(w, http.StatusBadRequest, "Branch code and name are required")
		return
	}
	in.trim()

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	rows, err := h.writeReturning(r.Context(),
		`INSERT INTO branches (id, branch_code, branch_name, branch_city, branch_address, region,
			contact_phone, contact_email, is_active, created_on, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING `+branchColumns,
		recorder.String(h.newID()),
		recorder.String(*in.BranchCode),
		recorder.String(*in.BranchName),
		nullable(in.BranchCity),
		nullable(in.BranchAddress),
		nullable(in.Region),
		nullable(in.ContactPhone),
		nullable(in.ContactEmail),
		recorder.Bool(active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Branch code already exists")
			return
		}
		h.logger.Error("Error creating branch: %v", err)
		h.writeFailure(w, err, "Failed to create branch")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusInternalServerError, "Failed to create branch")
		return
	}
	writeData(w, http.StatusCreated, "Branch created successfully", rows[0])
}

func (h *Handler) handleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in branchInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if (in.BranchCode != nil && blank(in.BranchCode)) || (in.BranchName != nil && blank(in.BranchName)) {
		writeError(w, http.StatusBadRequest, "Branch code and name cannot be empty")
		return
	}
	in.trim()

	// Omitted fields bind as NULL and COALESCE keeps the stored value.
	params, err := recorder.Values(id, in.BranchCode, in.BranchName, in.BranchCity,
		in.BranchAddress, in.Region, in.ContactPhone, in.ContactEmail, in.IsActive)
	if err != nil {
		h.logger.Error("Error binding branch %s update: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update branch")
		return
	}

	rows, err := h.writeReturning(r.Context(),
		`UPDATE branches SET
			branch_code    = COALESCE($2, branch_code),
			branch_name    = COALESCE($3, branch_name),
			branch_city    = COALESCE($4, branch_city),
			branch_address = COALESCE($5, branch_address),
			region         = COALESCE($6, region),
			contact_phone  = COALESCE($7, contact_phone),
			contact_email  = COALESCE($8, contact_email),
			is_active      = COALESCE($9, is_active),
			updated_on     = NOW()
		 WHERE id = $1
		 RETURNING `+branchColumns,
		params...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Branch code already exists")
			return
		}
		h.logger.Error("Error updating branch %s: %v", id, err)
		h.writeFailure(w, err, "Failed to update branch")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "Branch not found")
		return
	}
	writeData(w, http.StatusOK, "Branch updated successfully", rows[0])
}

// handleDeleteBranch deactivates a branch. Devices, users and recordings
// keep pointing at it.
func (h *Handler) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.db.ExecuteWrite(r.Context(),
		`UPDATE branches SET is_active = FALSE, updated_on = NOW() WHERE id = $1`, recorder.String(id))
	if err != nil {
		h.logger.Error("Error deleting branch %s: %v", id, err)
		h.writeFailure(w, err, "Failed to delete branch")
		return
	}
	if res.AffectedRows == 0 {
		writeError(w, http.StatusNotFound, "Branch not found")
		return
	}
	writeData(w, http.StatusOK, "Branch deactivated successfully", nil)
}

// writeReturning runs an INSERT or UPDATE ... RETURNING statement. It goes
// through ExecuteRead because the caller needs the returned rows.
func (h *Handler) writeReturning(ctx context.Context, sql string, params ...recorder.Value) ([]recorder.Row, error) {
	return h.db.ExecuteRead(ctx, sql, params...)
}

// nullable stores missing and blank optional fields as NULL.
func nullable(s *string) recorder.Value {
	if s == nil {
		return recorder.Null()
	}
	return recorder.NullableString(strings.TrimSpace(*s))
}

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
