package main

import "thyrosight/cmd"

// @title 甲状腺自评 API
// @version 1.0
// @description 表单规范化、分类服务调用、解释因子生成与评估记录管理
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cmd.Execute()
}
