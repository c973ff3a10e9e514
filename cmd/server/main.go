package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anash56/gitgrade-analyzer/internal/adapter/gemini"
	"github.com/anash56/gitgrade-analyzer/internal/adapter/github"
	"github.com/anash56/gitgrade-analyzer/internal/common"
	"github.com/anash56/gitgrade-analyzer/internal/domain"
	"github.com/anash56/gitgrade-analyzer/internal/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// repoAnalyzer 是 handler 对分析服务的最小依赖，便于测试替换
type repoAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) (*domain.Report, error)
}

type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

type apiResponse struct {
	Success bool           `json:"success"`
	Data    *domain.Report `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func main() {
	// .env 不存在也没关系，正式环境直接用环境变量
	_ = godotenv.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	githubToken := os.Getenv("GITHUB_TOKEN")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if githubToken == "" {
		logrus.Warn("GITHUB_TOKEN 未设置，将使用匿名访问 (60次/小时限流)")
	}

	ctx := context.Background()
	insight, err := gemini.NewInsightGenerator(ctx, geminiKey)
	if err != nil {
		logrus.Fatalf("❌ AI 初始化失败: %v", err)
	}

	fetcher := github.NewFetcher(githubToken)
	svc := service.NewAnalysisService(fetcher, insight)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: newMux(svc),
	}

	go func() {
		logrus.Infof("🚀 GitGrade analyzer listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("❌ 服务启动失败: %v", err)
		}
	}()

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logrus.Info("👋 收到停止信号，正在退出...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("关闭服务出错: %v", err)
	}
}

// newMux 组装路由，所有路由都套一层 CORS
func newMux(svc repoAnalyzer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", handleAnalyze(svc))
	mux.HandleFunc("/api/health", handleHealth)
	return withCORS(mux)
}

func handleAnalyze(svc repoAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Error: "method not allowed"})
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RepoURL == "" {
			writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "repo_url is required"})
			return
		}

		start := time.Now()
		report, err := svc.Analyze(r.Context(), req.RepoURL)
		if err != nil {
			logrus.WithField("repo_url", req.RepoURL).Warnf("分析失败: %v", err)
			writeJSON(w, statusFor(err), apiResponse{Success: false, Error: err.Error()})
			return
		}

		logrus.WithFields(logrus.Fields{
			"repo_url": req.RepoURL,
			"score":    report.Score,
			"took":     time.Since(start).Round(time.Millisecond).String(),
		}).Info("分析完成")

		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: report})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor 无效 URL 归为 400，其余分析失败一律 500
func statusFor(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if appErr, ok := e.(*common.AppError); ok && appErr.Code == common.ErrCodeInvalidURL {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
