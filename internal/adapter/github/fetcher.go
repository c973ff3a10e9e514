package github

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/anash56/gitgrade-analyzer/internal/common"
	"github.com/anash56/gitgrade-analyzer/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// pageCap 每类列表只取一页，计数是上限 100 的近似值
const pageCap = 100

// 根目录条目名里出现这些子串就认为仓库带测试
var testNameHints = []string{"test", "tests", "__tests__", "spec", "specs"}

// 按顺序探测的 CI/CD 配置路径，命中第一个就短路返回
var cicdPaths = []string{
	".github/workflows",
	".gitlab-ci.yml",
	".travis.yml",
	"Jenkinsfile",
	".circleci/config.yml",
}

// Fetcher 实现了 port.MetricsFetcher 接口
type Fetcher struct {
	client  *github.Client
	nowFunc func() time.Time // 便于测试注入当前时间
}

// NewFetcher 初始化 GitHub 客户端
// token: GitHub Personal Access Token (空字符串则匿名访问，限制 60次/小时)
func NewFetcher(token string) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Fetcher{
		client:  client,
		nowFunc: time.Now,
	}
}

// FetchMetrics 按固定顺序执行 8 步抓取，拼装出一条完整的指标记录
// 只有第 1 步 (仓库元数据) 失败会让整次抓取失败，其余子请求失败全部回退默认值
func (f *Fetcher) FetchMetrics(ctx context.Context, ref domain.RepoRef) (*domain.Metrics, error) {
	// 1. 仓库元数据 (唯一的致命请求，带瞬时错误重试)
	var repo *github.Repository
	err := common.Do(ctx, func() error {
		var apiErr error
		repo, _, apiErr = f.client.Repositories.Get(ctx, ref.Owner, ref.Name)
		return apiErr
	},
		common.WithMaxRetries(2),
		common.WithInitialDelay(200*time.Millisecond),
	)
	if err != nil {
		return nil, common.Wrap(common.ErrCodeMetricsFetch,
			fmt.Sprintf("failed to fetch repository %s/%s", ref.Owner, ref.Name), err)
	}

	m := &domain.Metrics{
		Name:            repo.GetName(),
		Stars:           repo.GetStargazersCount(),
		Forks:           repo.GetForksCount(),
		Watchers:        repo.GetWatchersCount(),
		OpenIssues:      repo.GetOpenIssuesCount(),
		PrimaryLanguage: repo.GetLanguage(),
		Languages:       []string{},
	}
	if m.PrimaryLanguage == "" {
		m.PrimaryLanguage = "Unknown"
	}

	// 2. 语言列表
	m.Languages = f.fetchLanguages(ctx, ref)

	// 3. README (404 表示没有 README，不算错误)
	m.HasReadme, m.ReadmeLength = f.fetchReadme(ctx, ref)

	// 4. 提交：单页最多 100 条，并统计最近 3 个月内的提交
	m.TotalCommits, m.RecentCommits = f.fetchCommitActivity(ctx, ref)

	// 5. 分支
	m.BranchCount = f.fetchBranchCount(ctx, ref)

	// 6. PR (全部状态)
	m.TotalPRs = f.fetchPullRequestCount(ctx, ref)

	// 7. 测试目录探测
	m.HasTests = f.detectTests(ctx, ref)

	// 8. CI/CD 配置探测
	m.HasCICD = f.detectCICD(ctx, ref)

	return m, nil
}

// fetchLanguages 获取语言明细
// GitHub 的 /languages 按字节数从大到小返回，go-github 解析成 map 会丢掉顺序，
// 这里按字节数降序重排来还原平台顺序
func (f *Fetcher) fetchLanguages(ctx context.Context, ref domain.RepoRef) []string {
	langs, _, err := f.client.Repositories.ListLanguages(ctx, ref.Owner, ref.Name)
	if err != nil {
		log.Printf("⚠️ [Fetcher] 获取 %s/%s 语言列表失败: %v", ref.Owner, ref.Name, err)
		return []string{}
	}

	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// fetchReadme 获取 README 并返回解码后的字节长度
func (f *Fetcher) fetchReadme(ctx context.Context, ref domain.RepoRef) (bool, int) {
	readme, _, err := f.client.Repositories.GetReadme(ctx, ref.Owner, ref.Name, nil)
	if err != nil {
		// 404 = 没有 README，其他错误也一律按无 README 处理
		return false, 0
	}

	content, err := readme.GetContent()
	if err != nil {
		log.Printf("⚠️ [Fetcher] 解码 %s/%s README 失败: %v", ref.Owner, ref.Name, err)
		return false, 0
	}
	return true, len(content)
}

// fetchCommitActivity 取最近一页提交 (最多 100 条，GitHub 默认新的在前)
// 返回页内总数和其中最近 3 个月内的提交数
func (f *Fetcher) fetchCommitActivity(ctx context.Context, ref domain.RepoRef) (int, int) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, ref.Owner, ref.Name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: pageCap},
	})
	if err != nil {
		log.Printf("⚠️ [Fetcher] 获取 %s/%s 提交列表失败: %v", ref.Owner, ref.Name, err)
		return 0, 0
	}

	cutoff := f.nowFunc().AddDate(0, -3, 0)
	recent := 0
	for _, c := range commits {
		authored := c.GetCommit().GetAuthor().GetDate()
		if authored.After(cutoff) {
			recent++
		}
	}
	return len(commits), recent
}

// fetchBranchCount 取单页分支数
func (f *Fetcher) fetchBranchCount(ctx context.Context, ref domain.RepoRef) int {
	branches, _, err := f.client.Repositories.ListBranches(ctx, ref.Owner, ref.Name, &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: pageCap},
	})
	if err != nil {
		log.Printf("⚠️ [Fetcher] 获取 %s/%s 分支列表失败: %v", ref.Owner, ref.Name, err)
		return 0
	}
	return len(branches)
}

// fetchPullRequestCount 取单页 PR 数 (所有状态)，失败时记 0
func (f *Fetcher) fetchPullRequestCount(ctx context.Context, ref domain.RepoRef) int {
	prs, _, err := f.client.PullRequests.List(ctx, ref.Owner, ref.Name, &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: pageCap},
	})
	if err != nil {
		log.Printf("⚠️ [Fetcher] 获取 %s/%s PR 列表失败: %v", ref.Owner, ref.Name, err)
		return 0
	}
	return len(prs)
}

// detectTests 列出仓库根目录，任一条目名 (小写后) 包含测试关键词即认为有测试
// 只看文件名，不做任何代码语义分析
func (f *Fetcher) detectTests(ctx context.Context, ref domain.RepoRef) bool {
	_, entries, _, err := f.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, "", nil)
	if err != nil || entries == nil {
		return false
	}

	for _, entry := range entries {
		name := strings.ToLower(entry.GetName())
		for _, hint := range testNameHints {
			if strings.Contains(name, hint) {
				return true
			}
		}
	}
	return false
}

// detectCICD 按固定顺序探测常见 CI 配置路径，第一个存在的就返回 true
func (f *Fetcher) detectCICD(ctx context.Context, ref domain.RepoRef) bool {
	for _, path := range cicdPaths {
		fileContent, dirContent, _, err := f.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, path, nil)
		if err == nil && (fileContent != nil || dirContent != nil) {
			return true
		}
	}
	return false
}
