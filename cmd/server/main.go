package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixel-place/internal/bootstrap"

	"github.com/sirupsen/logrus"
)

func main() {
	// 网格加载 (含首次初始化写入) 的超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.NewApp(ctx)
	cancel()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		app.Shutdown()
		logrus.Fatalf("Failed to start application: %v", err)
	}

	// 设置优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutdown signal received...")

	app.Shutdown()
}
