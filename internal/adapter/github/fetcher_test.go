package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/anash56/gitgrade-analyzer/internal/common"
	"github.com/anash56/gitgrade-analyzer/internal/domain"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
)

var testRef = domain.RepoRef{Owner: "testowner", Name: "testrepo"}

// 固定"当前时间"，让 3 个月的活跃窗口可预测
var fixedNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// setupMockGitHubServer 创建一个模拟的 GitHub API 服务器
func setupMockGitHubServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Fetcher) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL

	fetcher := &Fetcher{
		client:  client,
		nowFunc: func() time.Time { return fixedNow },
	}
	return server, fetcher
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// commitJSON 构造一条带作者时间的提交
func commitJSON(sha string, authored time.Time) map[string]any {
	return map[string]any{
		"sha": sha,
		"commit": map[string]any{
			"author": map[string]any{
				"name": "dev",
				"date": authored.Format(time.RFC3339),
			},
		},
	}
}

// fullRepoHandler 所有接口都正常响应的模拟仓库
func fullRepoHandler() http.HandlerFunc {
	readme := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("r", 1200)))

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/testowner/testrepo":
			writeBody(w, map[string]any{
				"name":              "testrepo",
				"stargazers_count":  321,
				"forks_count":       42,
				"watchers_count":    321,
				"open_issues_count": 7,
				"language":          "Go",
			})
		case "/repos/testowner/testrepo/languages":
			writeBody(w, map[string]int{"Go": 1000, "HTML": 500, "Shell": 500})
		case "/repos/testowner/testrepo/readme":
			writeBody(w, map[string]any{
				"name":     "README.md",
				"encoding": "base64",
				"content":  readme,
			})
		case "/repos/testowner/testrepo/commits":
			writeBody(w, []map[string]any{
				commitJSON("c1", fixedNow.AddDate(0, 0, -1)),
				commitJSON("c2", fixedNow.AddDate(0, -1, 0)),
				commitJSON("c3", fixedNow.AddDate(0, -2, 0)),
				commitJSON("c4", fixedNow.AddDate(0, -4, 0)),
				commitJSON("c5", fixedNow.AddDate(-1, 0, 0)),
			})
		case "/repos/testowner/testrepo/branches":
			writeBody(w, []map[string]any{
				{"name": "main"}, {"name": "dev"}, {"name": "feature/x"},
			})
		case "/repos/testowner/testrepo/pulls":
			writeBody(w, []map[string]any{
				{"number": 1}, {"number": 2},
			})
		case "/repos/testowner/testrepo/contents/":
			writeBody(w, []map[string]any{
				{"name": "cmd", "type": "dir"},
				{"name": "internal", "type": "dir"},
				{"name": "tests", "type": "dir"},
			})
		case "/repos/testowner/testrepo/contents/.github/workflows":
			writeBody(w, []map[string]any{
				{"name": "ci.yml", "type": "file"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	}
}

func TestFetcher_FetchMetrics_Success(t *testing.T) {
	_, fetcher := setupMockGitHubServer(t, fullRepoHandler())

	m, err := fetcher.FetchMetrics(context.Background(), testRef)

	assert.NoError(t, err)
	assert.Equal(t, "testrepo", m.Name)
	assert.Equal(t, 321, m.Stars)
	assert.Equal(t, 42, m.Forks)
	assert.Equal(t, 321, m.Watchers)
	assert.Equal(t, 7, m.OpenIssues)
	assert.Equal(t, "Go", m.PrimaryLanguage)
	// 按字节数降序还原平台顺序
	assert.Equal(t, []string{"Go", "HTML", "Shell"}, m.Languages)
	assert.True(t, m.HasReadme)
	assert.Equal(t, 1200, m.ReadmeLength)
	// 5 条提交里有 3 条落在最近 3 个月内
	assert.Equal(t, 5, m.TotalCommits)
	assert.Equal(t, 3, m.RecentCommits)
	assert.Equal(t, 3, m.BranchCount)
	assert.Equal(t, 2, m.TotalPRs)
	assert.True(t, m.HasTests) // 根目录有 "tests"
	assert.True(t, m.HasCICD)  // .github/workflows 命中
}

func TestFetcher_FetchMetrics_MetadataFailureIsFatal(t *testing.T) {
	_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"boom"}`)
	})

	m, err := fetcher.FetchMetrics(context.Background(), testRef)

	assert.Nil(t, m)
	assert.Error(t, err)
	var appErr *common.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, common.ErrCodeMetricsFetch, appErr.Code)
}

func TestFetcher_FetchMetrics_ReadmeMissingIsNotFatal(t *testing.T) {
	full := fullRepoHandler()
	_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/testowner/testrepo/readme" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		full(w, r)
	})

	m, err := fetcher.FetchMetrics(context.Background(), testRef)

	assert.NoError(t, err)
	assert.False(t, m.HasReadme)
	assert.Equal(t, 0, m.ReadmeLength)
	// 其余指标不受影响
	assert.Equal(t, 5, m.TotalCommits)
	assert.Equal(t, 3, m.BranchCount)
}

func TestFetcher_FetchMetrics_PullsFailureDefaultsToZero(t *testing.T) {
	full := fullRepoHandler()
	_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/testowner/testrepo/pulls" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"boom"}`)
			return
		}
		full(w, r)
	})

	m, err := fetcher.FetchMetrics(context.Background(), testRef)

	assert.NoError(t, err)
	assert.Equal(t, 0, m.TotalPRs)
	assert.Equal(t, 321, m.Stars)
}

func TestFetcher_FetchMetrics_UnknownLanguageDefault(t *testing.T) {
	_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/testowner/testrepo" {
			writeBody(w, map[string]any{"name": "testrepo"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	m, err := fetcher.FetchMetrics(context.Background(), testRef)

	assert.NoError(t, err)
	assert.Equal(t, "Unknown", m.PrimaryLanguage)
	// 全部子请求失败时的默认值
	assert.Equal(t, []string{}, m.Languages)
	assert.False(t, m.HasReadme)
	assert.Equal(t, 0, m.TotalCommits)
	assert.Equal(t, 0, m.RecentCommits)
	assert.Equal(t, 0, m.BranchCount)
	assert.Equal(t, 0, m.TotalPRs)
	assert.False(t, m.HasTests)
	assert.False(t, m.HasCICD)
}

func TestFetcher_DetectTests(t *testing.T) {
	tests := []struct {
		name     string
		entries  []map[string]any
		expected bool
	}{
		{
			name:     "有 tests 目录",
			entries:  []map[string]any{{"name": "tests", "type": "dir"}},
			expected: true,
		},
		{
			name:     "大小写不敏感",
			entries:  []map[string]any{{"name": "TESTS", "type": "dir"}},
			expected: true,
		},
		{
			name:     "文件名包含 spec 子串",
			entries:  []map[string]any{{"name": "app.spec.js", "type": "file"}},
			expected: true,
		},
		{
			name:     "__tests__ 目录",
			entries:  []map[string]any{{"name": "__tests__", "type": "dir"}},
			expected: true,
		},
		{
			name:     "没有任何测试痕迹",
			entries:  []map[string]any{{"name": "src", "type": "dir"}, {"name": "main.go", "type": "file"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/repos/testowner/testrepo/contents/" {
					writeBody(w, tt.entries)
					return
				}
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
			})

			assert.Equal(t, tt.expected, fetcher.detectTests(context.Background(), testRef))
		})
	}
}

func TestFetcher_DetectCICD(t *testing.T) {
	t.Run("只有 travis 配置也算有 CI", func(t *testing.T) {
		_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/testowner/testrepo/contents/.travis.yml" {
				writeBody(w, map[string]any{"name": ".travis.yml", "type": "file"})
				return
			}
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		})

		assert.True(t, fetcher.detectCICD(context.Background(), testRef))
	})

	t.Run("全部探测落空", func(t *testing.T) {
		_, fetcher := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		})

		assert.False(t, fetcher.detectCICD(context.Background(), testRef))
	})
}

func TestNewFetcher(t *testing.T) {
	// 无 token 和有 token 都能构造出客户端
	assert.NotNil(t, NewFetcher("").client)
	assert.NotNil(t, NewFetcher("ghp_sometoken").client)
}
