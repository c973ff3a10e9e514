package domain

import (
	"regexp"
	"strings"

	"github.com/anash56/gitgrade-analyzer/internal/common"
)

// RepoRef 标识一个待分析的仓库 (owner/name)
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Metrics 是一次分析抓取到的扁平指标集合
// 约定：即使某个子请求失败，所有字段也必须有值 (false/0/"Unknown"/空切片)，绝不缺键
type Metrics struct {
	Name            string   `json:"name"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	Watchers        int      `json:"watchers"`
	OpenIssues      int      `json:"open_issues"`
	PrimaryLanguage string   `json:"primary_language"` // 无法识别时为 "Unknown"
	Languages       []string `json:"languages"`

	HasReadme    bool `json:"has_readme"`
	ReadmeLength int  `json:"readme_length"` // 解码后的字节数，缺失时为 0

	// 下面三个计数都是单页上限 100 的近似值，不是真实总数
	TotalCommits  int `json:"total_commits"`
	RecentCommits int `json:"recent_commits"` // 最近 3 个月内的提交数
	BranchCount   int `json:"branch_count"`
	TotalPRs      int `json:"total_prs"`

	HasTests bool `json:"has_tests"`
	HasCICD  bool `json:"has_cicd"`
}

// Insight 是 AI 生成 (或兜底模板生成) 的点评
type Insight struct {
	Summary string   `json:"summary"`
	Roadmap []string `json:"roadmap"`
}

// Report 是一次分析的完整结果，随请求产生随请求消亡，不做持久化
type Report struct {
	Score   int      `json:"score"`
	Summary string   `json:"summary"`
	Roadmap []string `json:"roadmap"`
	Metrics *Metrics `json:"metrics"`
}

// 匹配 github.com/owner/repo 形式的路径段
var repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

// ParseRepoURL 从仓库 URL 中提取 owner 和 repo
// 末尾的 .git 后缀会被剥掉；匹配不到时返回 INVALID_URL 错误
func ParseRepoURL(raw string) (RepoRef, error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return RepoRef{}, common.New(common.ErrCodeInvalidURL, "invalid GitHub repository URL: "+raw)
	}

	name := strings.TrimSuffix(m[2], ".git")
	if name == "" {
		return RepoRef{}, common.New(common.ErrCodeInvalidURL, "invalid GitHub repository URL: "+raw)
	}

	return RepoRef{Owner: m[1], Name: name}, nil
}
