// Package docs 注册 OpenAPI 文档，供 /openapi 与 Swagger UI 读取
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed api/openapi.yaml
var openAPI string

// SwaggerInfo 文档元信息
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tic-Tac-Toe Multiplayer API",
	Description:      "井字棋多人对战服务的 REST 与实时接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  openAPI,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
