package analyzer

import (
	"github.com/anash56/gitgrade-analyzer/internal/domain"
)

// 七个维度的分值上限，合计正好 100
// 注意：历史文档里写的是 5 维 20/25/20/20/15，与实现并不一致，
// 以这张表为准 (见 README 的已知差异说明)
const (
	maxReadmeScore = 20
	maxCommitScore = 25
	maxRecentScore = 15
	maxTestsScore  = 20
	maxCICDScore   = 10
	maxBranchScore = 5
	maxPRScore     = 5
)

// Score 把指标记录映射为 [0,100] 的质量分
// 纯函数：无 I/O、无隐藏状态，同样的输入永远得到同样的分数
func Score(m *domain.Metrics) int {
	total := scoreReadme(m) +
		scoreCommitVolume(m) +
		scoreRecentActivity(m) +
		scoreTests(m) +
		scoreCICD(m) +
		scoreBranches(m) +
		scorePullRequests(m)

	// 各维度本身不会超上限，这里的封顶只是保险
	if total > 100 {
		return 100
	}
	return total
}

// scoreReadme README 质量：看长度，没有 README 记 0
func scoreReadme(m *domain.Metrics) int {
	switch {
	case m.ReadmeLength > 1000:
		return maxReadmeScore
	case m.ReadmeLength > 500:
		return 15
	case m.HasReadme:
		return 10
	default:
		return 0
	}
}

// scoreCommitVolume 提交量：少于 20 条时按半数计，保底 5 分
func scoreCommitVolume(m *domain.Metrics) int {
	switch {
	case m.TotalCommits >= 100:
		return maxCommitScore
	case m.TotalCommits >= 50:
		return 20
	case m.TotalCommits >= 20:
		return 15
	default:
		half := m.TotalCommits / 2
		if half < 5 {
			return 5
		}
		return half
	}
}

// scoreRecentActivity 近 3 个月的活跃度
func scoreRecentActivity(m *domain.Metrics) int {
	switch {
	case m.RecentCommits > 20:
		return maxRecentScore
	case m.RecentCommits > 10:
		return 10
	case m.RecentCommits > 0:
		return 5
	default:
		return 0
	}
}

func scoreTests(m *domain.Metrics) int {
	if m.HasTests {
		return maxTestsScore
	}
	return 0
}

func scoreCICD(m *domain.Metrics) int {
	if m.HasCICD {
		return maxCICDScore
	}
	return 0
}

// scoreBranches 分支使用：单分支仓库不得分
func scoreBranches(m *domain.Metrics) int {
	switch {
	case m.BranchCount > 3:
		return maxBranchScore
	case m.BranchCount > 1:
		return 3
	default:
		return 0
	}
}

func scorePullRequests(m *domain.Metrics) int {
	switch {
	case m.TotalPRs > 10:
		return maxPRScore
	case m.TotalPRs > 0:
		return 3
	default:
		return 0
	}
}
