package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clickbattler/client"
)

// clickbattler 入口：连接游戏服务端、镜像世界状态，并在本地管理接口上
// 暴露状态与 heal/attack 指令
func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		host       = flag.String("host", "", "server host, e.g. localhost:3030 or https://game.example")
		adminAddr  = flag.String("admin", "", "local admin listen address, e.g. 127.0.0.1:8081")
		replay     = flag.String("replay", "", "replay a journal file or directory offline and print each session's final state")
	)
	flag.Parse()

	cfg, err := client.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}

	if err := client.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer client.SyncLogger()

	if *replay != "" {
		if err := runReplay(*replay); err != nil {
			client.Log.Errorf("replay: %v", err)
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 优雅退出（Ctrl+C）：取消 ctx，会话发送关闭帧后返回
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		client.Log.Errorf("session ended: %v", err)
		fmt.Fprintf(os.Stderr, "session ended: %v\n", err)
		client.SyncLogger()
		os.Exit(1)
	}
	client.Log.Info("Shutting down...")
}

func run(ctx context.Context, cfg client.Config) error {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return err
	}

	var journal *client.Journal
	if cfg.JournalDir != "" {
		journal = client.NewJournal(cfg.JournalDir, "frames")
		defer journal.Close()
	}

	session := client.NewSession(client.SessionOptions{
		Journal: journal,
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "clickbattler: %v\n", err)
		},
	})

	if cfg.AdminAddr != "" {
		srv := &http.Server{Addr: cfg.AdminAddr, Handler: client.AdminHandler(session)}
		go func() {
			client.Log.Infof("admin listening on %s", cfg.AdminAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				client.Log.Errorf("admin listen: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	conn, err := client.Dial(ctx, endpoint, cfg)
	if err != nil {
		return err
	}
	client.Log.Infof("connected to %s; session %s", endpoint, session.ID())
	return session.Run(ctx, conn)
}

func runReplay(path string) error {
	views, err := client.ReplayJournal(path, func(err error) {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}
