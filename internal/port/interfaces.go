package port

import (
	"context"

	"github.com/anash56/gitgrade-analyzer/internal/domain"
)

// MetricsFetcher (采集员): 负责调 GitHub API 把仓库指标拼装成一条完整记录
// 只有仓库元数据这一步是致命的，其余子请求失败一律回退到默认值
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context, ref domain.RepoRef) (*domain.Metrics, error)
}

// InsightGenerator (点评员): 负责调用 LLM (Gemini) 生成总结和改进路线
// 调用失败时内部回退到确定性模板，因此永远返回非 nil 结果
type InsightGenerator interface {
	Generate(ctx context.Context, m *domain.Metrics, score int) *domain.Insight
}
