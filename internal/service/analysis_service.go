package service

import (
	"context"
	"fmt"

	"github.com/anash56/gitgrade-analyzer/internal/adapter/analyzer"
	"github.com/anash56/gitgrade-analyzer/internal/common"
	"github.com/anash56/gitgrade-analyzer/internal/domain"
	"github.com/anash56/gitgrade-analyzer/internal/port"
)

// AnalysisService 串起整条分析管道：解析 → 抓取 → 评分 → 点评
type AnalysisService struct {
	fetcher port.MetricsFetcher
	insight port.InsightGenerator
}

// NewAnalysisService 创建新的分析服务
// 两个外部 API 客户端在进程启动时构造一次，按引用注入，不持有请求级状态
func NewAnalysisService(fetcher port.MetricsFetcher, insight port.InsightGenerator) *AnalysisService {
	return &AnalysisService{
		fetcher: fetcher,
		insight: insight,
	}
}

// Analyze 对一个仓库 URL 执行一次完整分析
// 任何阶段失败都包成一个 ANALYSIS_ERROR 返回，这是唯一会跨出系统边界的错误；
// 结果一次性返回，没有部分结果，也没有任何持久化
func (s *AnalysisService) Analyze(ctx context.Context, rawURL string) (*domain.Report, error) {
	// 1. 解析 URL
	ref, err := domain.ParseRepoURL(rawURL)
	if err != nil {
		return nil, common.Wrap(common.ErrCodeAnalysis, "analysis failed", err)
	}

	fmt.Printf("🔍 开始分析 %s/%s...\n", ref.Owner, ref.Name)

	// 2. 抓取指标
	metrics, err := s.fetcher.FetchMetrics(ctx, ref)
	if err != nil {
		return nil, common.Wrap(common.ErrCodeAnalysis, "analysis failed", err)
	}
	fmt.Printf("✅ 指标抓取完成: %d commits, %d branches, %d PRs\n",
		metrics.TotalCommits, metrics.BranchCount, metrics.TotalPRs)

	// 3. 评分 (纯函数)
	score := analyzer.Score(metrics)
	fmt.Printf("🏆 质量评分: %d/100\n", score)

	// 4. AI 点评 (内部兜底，不会失败)
	insight := s.insight.Generate(ctx, metrics, score)

	return &domain.Report{
		Score:   score,
		Summary: insight.Summary,
		Roadmap: insight.Roadmap,
		Metrics: metrics,
	}, nil
}
