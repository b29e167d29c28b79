// Package demo runs the scripted client session used by mcpws-client and
// the run_demo example.
package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	mcpws "github.com/wagiedev/mcpws-go"
)

// Step is one tool call of the session.
type Step struct {
	Title     string
	Tool      string
	Arguments map[string]any
}

// DefaultSteps are the tool calls made after listing tools.
func DefaultSteps() []Step {
	return []Step{
		{Title: "调用计算器工具", Tool: "calculator", Arguments: map[string]any{"expression": "10 + 5 * 2"}},
		{Title: "调用天气查询工具", Tool: "get_weather", Arguments: map[string]any{"city": "北京"}},
	}
}

// Options configures Run.
type Options struct {
	// Steps are the tool calls to make. Nil means DefaultSteps.
	Steps []Step

	// Concurrent issues the tool calls, and later the resource reads, at
	// the same time over the one connection. Output order is unchanged.
	Concurrent bool
}

// Run initializes c, lists and calls tools, then lists and reads up to two
// resources, writing a report to w. A tool or resource failure is reported
// and the session continues; a transport failure ends it.
func Run(ctx context.Context, c mcpws.Client, w io.Writer, opts Options) error {
	steps := opts.Steps
	if steps == nil {
		steps = DefaultSteps()
	}

	fmt.Fprintln(w, "=== MCP 客户端演示 ===")

	info, err := c.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	fmt.Fprintf(w, "已连接到 %s %s (协议版本 %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.ProtocolVersion)

	fmt.Fprintln(w, "\n--- 获取工具列表 ---")

	tools, err := c.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	for _, tool := range tools {
		fmt.Fprintf(w, "- %s: %s\n", tool.Name, tool.Description)
	}

	reports := make([]string, len(steps))

	err = each(ctx, len(steps), opts.Concurrent, func(ctx context.Context, i int) error {
		report, err := callTool(ctx, c, steps[i])
		reports[i] = report

		return err
	})
	if err != nil {
		return err
	}

	for i, step := range steps {
		fmt.Fprintf(w, "\n--- %s ---\n%s", step.Title, reports[i])
	}

	fmt.Fprintln(w, "\n--- 获取资源列表 ---")

	resources, err := c.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}

	for _, res := range resources {
		fmt.Fprintf(w, "- %s (%s): %s\n", res.Name, res.URI, res.Description)
	}

	resources = resources[:min(2, len(resources))]
	reads := make([]string, len(resources))

	err = each(ctx, len(resources), opts.Concurrent, func(ctx context.Context, i int) error {
		report, err := readResource(ctx, c, resources[i].URI)
		reads[i] = report

		return err
	})
	if err != nil {
		return err
	}

	titles := []string{"读取第一个资源", "读取第二个资源"}
	for i, report := range reads {
		fmt.Fprintf(w, "\n--- %s ---\n%s", titles[i], report)
	}

	fmt.Fprintln(w, "\n=== 演示结束 ===")

	return nil
}

// each runs fn for 0..n-1, concurrently when asked.
func each(ctx context.Context, n int, concurrent bool, fn func(context.Context, int) error) error {
	if !concurrent {
		for i := range n {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}

		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			return fn(gctx, i)
		})
	}

	return g.Wait()
}

func callTool(ctx context.Context, c mcpws.Client, step Step) (string, error) {
	result, err := c.CallTool(ctx, step.Tool, step.Arguments)
	if err != nil {
		if isFatal(err) {
			return "", fmt.Errorf("call %s: %w", step.Tool, err)
		}

		return fmt.Sprintf("工具 '%s' 调用失败: %v\n", step.Tool, err), nil
	}

	var b strings.Builder

	fmt.Fprintf(&b, "工具 '%s' 调用成功:\n", step.Tool)

	if result.StructuredContent != nil {
		pretty, err := json.MarshalIndent(result.StructuredContent, "", "  ")
		if err == nil {
			b.Write(pretty)
			b.WriteByte('\n')

			return b.String(), nil
		}
	}

	b.WriteString(result.Text())
	b.WriteByte('\n')

	return b.String(), nil
}

func readResource(ctx context.Context, c mcpws.Client, uri string) (string, error) {
	result, err := c.ReadResource(ctx, uri)
	if err != nil {
		if isFatal(err) {
			return "", fmt.Errorf("read %s: %w", uri, err)
		}

		return fmt.Sprintf("读取资源 '%s' 失败: %v\n", uri, err), nil
	}

	var b strings.Builder

	fmt.Fprintf(&b, "读取资源 '%s' 成功:\n--- 资源内容开始 ---\n", uri)

	for _, contents := range result.Contents {
		b.WriteString(contents.Text)
		b.WriteByte('\n')
	}

	b.WriteString("--- 资源内容结束 ---\n")

	return b.String(), nil
}

// isFatal reports whether err means the session cannot continue. An error
// response from the server is not fatal.
func isFatal(err error) bool {
	_, ok := errors.AsType[*mcpws.ResponseError](err)

	return !ok
}
