package middleware

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/services"
)

const auditBodyLimit = 2000

var secretFieldPattern = regexp.MustCompile(`(?i)("(?:password|api_key|apikey|secret|token|access_token)"\s*:\s*)"[^"]*"`)

// AuditLog records admin write operations (POST/PUT/DELETE) to system_logs
// so user and source changes can be traced back to whoever made them.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		bodySnippet := captureBody(c)

		c.Next()

		userID := GetUserID(c)
		status := c.Writer.Status()
		module, action := routeModuleAction(c.FullPath(), method)

		outcome := "Failed"
		if status >= 200 && status < 300 {
			outcome = "OK"
		}
		message := fmt.Sprintf("[Audit] %s %s %s → %s", GetUsername(c), method, c.Request.URL.Path, outcome)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
			"body":   bodySnippet,
			"audit":  true,
		})
	}
}

// captureBody reads the request body for the audit record and puts it back
// for the handler. Credential-like JSON values are masked before storage.
func captureBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	snippet := string(bodyBytes)
	if len(snippet) > auditBodyLimit {
		snippet = snippet[:auditBodyLimit] + "...[truncated]"
	}
	return secretFieldPattern.ReplaceAllString(snippet, `$1"***"`)
}

// routeModuleAction derives a log module and action from a Gin route pattern,
// e.g. "/api/sources/:id" + "PUT" → module "Sources", action "Update".
func routeModuleAction(fullPath, method string) (string, string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	module, _, _ := strings.Cut(path, "/")
	if module == "" {
		module = "unknown"
	}
	module = strings.Title(strings.ReplaceAll(module, "-", " "))

	action := method
	switch method {
	case "POST":
		action = "Create"
	case "PUT":
		action = "Update"
	case "DELETE":
		action = "Delete"
	}
	return module, action
}
