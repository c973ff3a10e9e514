package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anash56/gitgrade-analyzer/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// InsightGenerator 实现了 port.InsightGenerator 接口
type InsightGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewInsightGenerator 初始化 Gemini 客户端
// apiKey 为空时不报错，只是之后每次生成都走兜底模板
func NewInsightGenerator(ctx context.Context, apiKey string) (*InsightGenerator, error) {
	if apiKey == "" {
		log.Println("⚠️ [Gemini] API Key 为空，所有点评都将使用兜底模板")
		return &InsightGenerator{}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash-lite")

	return &InsightGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate 调用 Gemini 生成点评
// 调用失败或返回内容为空时回退到确定性模板，所以永远返回非 nil 结果；
// 调用成功但格式不对的回复按原样解析 (可能得到空 roadmap)，不触发兜底
func (g *InsightGenerator) Generate(ctx context.Context, m *domain.Metrics, score int) *domain.Insight {
	if g.model == nil {
		return fallbackInsight(m, score)
	}

	prompt := buildPrompt(m, score)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("⚠️ [Gemini] AI 调用失败，使用兜底模板: %v", err)
		return fallbackInsight(m, score)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Printf("⚠️ [Gemini] AI 返回内容为空，使用兜底模板")
		return fallbackInsight(m, score)
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		log.Printf("⚠️ [Gemini] AI 返回格式错误，使用兜底模板")
		return fallbackInsight(m, score)
	}

	return parseInsightReply(string(text))
}

// buildPrompt 构造确定性 Prompt
// 同一份指标 + 分数永远得到同一个 Prompt 字符串
func buildPrompt(m *domain.Metrics, score int) string {
	langs := m.Languages
	if len(langs) > 3 {
		langs = langs[:3]
	}

	return fmt.Sprintf(`You are a senior engineer reviewing the health of an open source repository.

Repository facts:
- Name: %s
- Primary language: %s
- Languages: %s
- Stars: %d
- Open issues: %d
- Commits (last page, max 100): %d
- Commits in the last 3 months: %d
- Has README: %t (length %d bytes)
- Has tests: %t
- Has CI/CD: %t
- Branches: %d
- Pull requests: %d
- Computed quality score: %d/100

Reply in EXACTLY this format, with no markdown fences:

SUMMARY:
A 2-3 sentence plain-English assessment of the repository's health.

ROADMAP:
- first concrete improvement
- second concrete improvement
- (4 to 6 items total, each on its own line starting with "- ")
`,
		m.Name, m.PrimaryLanguage, strings.Join(langs, ", "),
		m.Stars, m.OpenIssues,
		m.TotalCommits, m.RecentCommits,
		m.HasReadme, m.ReadmeLength,
		m.HasTests, m.HasCICD,
		m.BranchCount, m.TotalPRs,
		score)
}

// parseInsightReply 解析 SUMMARY:/ROADMAP: 两段式回复
// 按字面量 "ROADMAP:" 切分；roadmap 只收以 "-" 开头的行，去掉前导符号后为空的丢弃
func parseInsightReply(raw string) *domain.Insight {
	summaryPart, roadmapPart, _ := strings.Cut(raw, "ROADMAP:")

	summary := strings.TrimSpace(summaryPart)
	summary = strings.TrimSpace(strings.TrimPrefix(summary, "SUMMARY:"))

	roadmap := []string{}
	for _, line := range strings.Split(roadmapPart, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if item != "" {
			roadmap = append(roadmap, item)
		}
	}

	return &domain.Insight{Summary: summary, Roadmap: roadmap}
}

// fallbackInsight 确定性兜底：模板总结 + 固定 6 条路线，永不失败
func fallbackInsight(m *domain.Metrics, score int) *domain.Insight {
	var health string
	switch {
	case score >= 80:
		health = "in excellent shape"
	case score >= 60:
		health = "in good shape with room to improve"
	case score >= 40:
		health = "showing a solid base but missing key practices"
	default:
		health = "in need of foundational engineering work"
	}

	summary := fmt.Sprintf(
		"%s is a %s repository scoring %d/100, which puts it %s. The score reflects %d commits on record (%d in the last 3 months), %d branches and %d pull requests.",
		m.Name, m.PrimaryLanguage, score, health,
		m.TotalCommits, m.RecentCommits, m.BranchCount, m.TotalPRs)

	roadmap := make([]string, 0, 6)

	if m.HasReadme {
		roadmap = append(roadmap, "Expand the README with usage examples, setup steps and a contribution guide")
	} else {
		roadmap = append(roadmap, "Add a README that explains what the project does and how to get started")
	}

	if m.HasTests {
		roadmap = append(roadmap, "Grow the existing test suite and track coverage on critical paths")
	} else {
		roadmap = append(roadmap, "Introduce an automated test suite to protect against regressions")
	}

	if m.HasCICD {
		roadmap = append(roadmap, "Extend the CI pipeline with linting and automated release steps")
	} else {
		roadmap = append(roadmap, "Set up a CI pipeline (for example GitHub Actions) to build and test every push")
	}

	if m.RecentCommits > 0 {
		roadmap = append(roadmap, "Keep the current commit cadence and publish a changelog for notable updates")
	} else {
		roadmap = append(roadmap, "Resume regular development; there are no commits in the last 3 months")
	}

	if m.BranchCount > 1 {
		roadmap = append(roadmap, "Keep using feature branches and require review before merging")
	} else {
		roadmap = append(roadmap, "Adopt a branching workflow instead of committing straight to the default branch")
	}

	roadmap = append(roadmap, "Triage open issues regularly and label beginner-friendly ones to invite contributors")

	return &domain.Insight{Summary: summary, Roadmap: roadmap}
}
