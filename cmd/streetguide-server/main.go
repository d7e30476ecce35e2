// @title AI 街景导游 API 文档
// @version 1.0
// @description AI 街景导游服务端，分析街景截图并推荐下一步前进方向
// @host localhost:8080
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"streetguide-server-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [引导] 开始启动 streetguide-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background(), bootstrap.Options{}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "streetguide-server failed: %v\n", err)
		os.Exit(1)
	}
}
