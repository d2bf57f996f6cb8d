package stub

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/logger"
)

// health reports liveness.
func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// issueToken implements the password grant for the demo accounts.
func (s *Server) issueToken(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	s.mu.RLock()
	var account row
	for _, a := range s.tables["accounts"] {
		if a["email"] == req.Email && a["password"] == req.Password {
			account = a
			break
		}
	}
	s.mu.RUnlock()

	if account == nil {
		log.Warn("Invalid credentials", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := s.jwt.GenerateToken(
		account["id"].(string),
		account["email"].(string),
		account["name"].(string),
	)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	log.Info("Session token issued", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   3600,
		"user": echo.Map{
			"id":    account["id"],
			"email": account["email"],
			"name":  account["name"],
		},
	})
}

// selectRows serves GET /rest/v1/:table with eq filters and ordering.
func (s *Server) selectRows(c echo.Context) error {
	table := c.Param("table")

	s.mu.RLock()
	rows, ok := s.tables[table]
	if !ok {
		s.mu.RUnlock()
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("relation %q does not exist", table)})
	}
	result := copyRows(rows)
	s.mu.RUnlock()

	result = applyFilters(result, c.QueryParams())

	if order := c.QueryParam("order"); order != "" {
		column, ascending := parseOrder(order)
		sort.SliceStable(result, func(i, j int) bool {
			a := fmt.Sprint(result[i][column])
			b := fmt.Sprint(result[j][column])
			if ascending {
				return a < b
			}
			return a > b
		})
	}

	if table == "organization_members" && strings.Contains(c.QueryParam("select"), "account") {
		s.embedAccounts(result)
	}

	for _, r := range result {
		delete(r, "password")
	}

	return c.JSON(http.StatusOK, result)
}

// insertRows serves POST /rest/v1/:table, returning the representation.
func (s *Server) insertRows(c echo.Context) error {
	log := logger.FromEcho(c)
	table := c.Param("table")

	var payload any
	if err := c.Bind(&payload); err != nil {
		log.Error("Failed to parse insert payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	}

	var incoming []row
	switch v := payload.(type) {
	case []any:
		for _, item := range v {
			r, ok := item.(map[string]any)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "rows must be objects"})
			}
			incoming = append(incoming, r)
		}
	case map[string]any:
		incoming = append(incoming, v)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	created := make([]row, 0, len(incoming))

	s.mu.Lock()
	if _, ok := s.tables[table]; !ok {
		s.mu.Unlock()
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("relation %q does not exist", table)})
	}
	for _, r := range incoming {
		r["id"] = uuid.New().String()
		r["created_at"] = now
		r["updated_at"] = now
		if table == "invitations" {
			r["status"] = model.InviteStatusPending
		}
		s.tables[table] = append(s.tables[table], r)
		created = append(created, r)
	}
	s.mu.Unlock()

	log.Info("Rows inserted", zap.String("table", table), zap.Int("count", len(created)))
	return c.JSON(http.StatusCreated, created)
}

// updateRows serves PATCH /rest/v1/:table, returning the representation.
func (s *Server) updateRows(c echo.Context) error {
	log := logger.FromEcho(c)
	table := c.Param("table")

	var patch row
	if err := c.Bind(&patch); err != nil {
		log.Error("Failed to parse update payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	}

	filters := extractFilters(c.QueryParams())
	if len(filters) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "update without filters is not allowed"})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var updated []row

	s.mu.Lock()
	rows, ok := s.tables[table]
	if !ok {
		s.mu.Unlock()
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("relation %q does not exist", table)})
	}
	for _, r := range rows {
		if matches(r, filters) {
			for k, v := range patch {
				r[k] = v
			}
			r["updated_at"] = now
			updated = append(updated, r)
		}
	}
	s.mu.Unlock()

	log.Info("Rows updated", zap.String("table", table), zap.Int("count", len(updated)))
	return c.JSON(http.StatusOK, updated)
}

// deleteRows serves DELETE /rest/v1/:table.
func (s *Server) deleteRows(c echo.Context) error {
	log := logger.FromEcho(c)
	table := c.Param("table")

	filters := extractFilters(c.QueryParams())
	if len(filters) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "delete without filters is not allowed"})
	}

	deleted := 0

	s.mu.Lock()
	rows, ok := s.tables[table]
	if !ok {
		s.mu.Unlock()
		return c.JSON(http.StatusNotFound, echo.Map{"message": fmt.Sprintf("relation %q does not exist", table)})
	}
	kept := rows[:0]
	for _, r := range rows {
		if matches(r, filters) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	s.mu.Unlock()

	log.Info("Rows deleted", zap.String("table", table), zap.Int("count", deleted))
	return c.NoContent(http.StatusNoContent)
}

// signObject issues a fake time-limited URL for a bucket object.
func (s *Server) signObject(c echo.Context) error {
	bucket := c.Param("bucket")
	path := c.Param("*")
	if bucket == "" || path == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bucket and path are required"})
	}

	var req struct {
		ExpiresIn int64 `json:"expiresIn"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"signedURL": fmt.Sprintf("/object/sign/%s/%s?token=%s", bucket, path, uuid.New().String()),
	})
}

func (s *Server) embedAccounts(rows []row) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range rows {
		accountID, _ := r["account_id"].(string)
		for _, a := range s.tables["accounts"] {
			if a["id"] == accountID {
				r["account"] = row{
					"id":    a["id"],
					"name":  a["name"],
					"email": a["email"],
					"image": a["image"],
				}
				break
			}
		}
	}
}

func copyRows(rows []row) []row {
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		cp := make(row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// extractFilters pulls "column=eq.value" pairs out of the query string.
func extractFilters(params map[string][]string) map[string]string {
	filters := make(map[string]string)
	for key, values := range params {
		switch key {
		case "select", "order", "limit", "offset":
			continue
		}
		for _, v := range values {
			if strings.HasPrefix(v, "eq.") {
				filters[key] = strings.TrimPrefix(v, "eq.")
			}
		}
	}
	return filters
}

func applyFilters(rows []row, params map[string][]string) []row {
	filters := extractFilters(params)
	if len(filters) == 0 {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r row, filters map[string]string) bool {
	for column, want := range filters {
		if fmt.Sprint(r[column]) != want {
			return false
		}
	}
	return true
}

func parseOrder(order string) (column string, ascending bool) {
	parts := strings.SplitN(order, ".", 2)
	column = parts[0]
	ascending = true
	if len(parts) == 2 && parts[1] == "desc" {
		ascending = false
	}
	return column, ascending
}
