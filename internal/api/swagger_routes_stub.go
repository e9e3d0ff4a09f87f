//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// registerSwaggerRoutes 默认构建不挂载 /swagger，文档仍可通过 /openapi 与 /docs/redoc 访问
func registerSwaggerRoutes(_ *gin.Engine) {}
