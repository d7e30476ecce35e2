// streetguide-mock 使用预置场景响应请求，无需视觉模型与 API 密钥，便于前端联调。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"streetguide-server-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [引导] 开始启动 streetguide-mock...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background(), bootstrap.Options{Mock: true}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "streetguide-mock failed: %v\n", err)
		os.Exit(1)
	}
}
