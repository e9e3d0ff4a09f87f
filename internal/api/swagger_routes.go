//go:build swagger

package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/wfunc/tictactoe/docs"
)

// registerSwaggerRoutes 注册 Swagger 文档路由（仅在 -tags swagger 时启用）
func registerSwaggerRoutes(engine *gin.Engine) {
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		ginSwagger.DocExpansion("none"),
	))
}
