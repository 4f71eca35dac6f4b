package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	TenantHeader = "X-Tenant-ID"
	TenantKey    = "tenant_id"
)

// TenantMiddleware requires the tenant short code on every scoped route
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "ERR_UNAUTHORIZED",
				"message": "missing " + TenantHeader + " header",
			})
			return
		}
		c.Set(TenantKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant short code set by TenantMiddleware
func GetTenantID(c *gin.Context) (string, bool) {
	tenantID := c.GetString(TenantKey)
	return tenantID, tenantID != ""
}
