package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"github.com/wfunc/tictactoe/docs"
)

const (
	redocCDN   = "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"
	redocLocal = "static/vendors/redoc/redoc.standalone.js"
)

// registerOpenAPIRoutes 提供 /openapi 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
	if _, err := os.Stat(redocLocal); err == nil {
		engine.StaticFile("/static/vendors/redoc/redoc.standalone.js", redocLocal)
	}
}

func serveOpenAPI(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "文档未注册",
		})
		return
	}
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", []byte(doc))
}

func serveRedoc(c *gin.Context) {
	// 优先使用本地 redoc 资源，离线可用；否则回退到 CDN
	script := redocCDN
	if _, err := os.Stat(redocLocal); err == nil {
		script = "/" + redocLocal
	}

	html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>` + docs.SwaggerInfo.Title + ` - Redoc</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="/openapi" expand-responses="200,201"></redoc>
    <script src="` + script + `"></script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
