package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anash56/gitgrade-analyzer/internal/adapter/gemini"
	"github.com/anash56/gitgrade-analyzer/internal/adapter/github"
	"github.com/anash56/gitgrade-analyzer/internal/service"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// 命令行一次性分析入口，走的管道和 HTTP 服务完全相同
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "gitgrade",
		Usage:     "score the health of a GitHub repository",
		ArgsUsage: "<repository url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Usage:   "GitHub personal access token",
				EnvVars: []string{"GITHUB_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "gemini-key",
				Usage:   "Gemini API key (without it every run uses the fallback commentary)",
				EnvVars: []string{"GEMINI_API_KEY"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "overall analysis timeout",
				Value: 2 * time.Minute,
			},
		},
		Action: runAnalyze,
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
}

func runAnalyze(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	rawURL := c.Args().First()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	insight, err := gemini.NewInsightGenerator(ctx, c.String("gemini-key"))
	if err != nil {
		return fmt.Errorf("AI 初始化失败: %w", err)
	}

	fetcher := github.NewFetcher(c.String("token"))
	svc := service.NewAnalysisService(fetcher, insight)

	report, err := svc.Analyze(ctx, rawURL)
	if err != nil {
		return err
	}

	printReport(report.Score, report.Summary, report.Roadmap)
	return nil
}

func printReport(score int, summary string, roadmap []string) {
	fmt.Println()
	switch {
	case score >= 80:
		color.Green("🏆 Score: %d/100", score)
	case score >= 50:
		color.Yellow("🏆 Score: %d/100", score)
	default:
		color.Red("🏆 Score: %d/100", score)
	}

	fmt.Println()
	color.Cyan("Summary")
	fmt.Println(summary)

	fmt.Println()
	color.Cyan("Roadmap")
	for _, item := range roadmap {
		fmt.Printf("  - %s\n", item)
	}
}
