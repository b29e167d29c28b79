// Package tools provides the example tools served by mcpws-server.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcpws-go/internal/expr"
	"github.com/wagiedev/mcpws-go/internal/registry"
)

// Tool names.
const (
	Calculator             = "calculator"
	GetWeather             = "get_weather"
	GenerateASCIIArt       = "generate_ascii_art"
	GenerateSimpleASCIIArt = "generate_simple_ascii_art"
)

// unknownCity is reported when get_weather is called without a city.
const unknownCity = "未知城市"

// Annotations shared by every example tool: none has side effects.
var readOnly = &mcp.ToolAnnotations{
	ReadOnlyHint:   true,
	IdempotentHint: true,
}

// Register adds every example tool to reg.
func Register(reg *registry.Registry) error {
	defs := []struct {
		tool    *mcp.Tool
		handler mcp.ToolHandler
	}{
		{
			tool: registry.NewTool(Calculator, "执行数学计算", registry.ObjectSchema(
				registry.Property{Name: "expression", Type: "string", Description: "数学表达式，例如: 2 + 3 * 4"},
			)),
			handler: calculate,
		},
		{
			tool: registry.NewTool(GetWeather, "获取指定城市的天气信息", registry.ObjectSchema(
				registry.Property{Name: "city", Type: "string", Description: "城市名称，例如: 北京"},
			)),
			handler: weather,
		},
		{
			tool: registry.NewTool(GenerateASCIIArt, "根据输入文本生成简单的ASCII艺术字图案", registry.ObjectSchema(
				registry.Property{Name: "text", Type: "string", Description: "需要转换为ASCII艺术字的文本"},
			)),
			handler: artHandler(blockFont, 5, " ??? "),
		},
		{
			tool: registry.NewTool(GenerateSimpleASCIIArt, "生成简化的ASCII艺术字", registry.ObjectSchema(
				registry.Property{Name: "text", Type: "string", Description: "需要转换为ASCII艺术字的文本"},
			)),
			handler: artHandler(slimFont, 4, " ? "),
		},
	}

	for _, def := range defs {
		def.tool.Annotations = readOnly

		if err := reg.AddTool(def.tool, def.handler); err != nil {
			return err
		}
	}

	return nil
}

// calculate evaluates the expression argument. Evaluation failures are
// returned as errors so the caller receives an error response.
func calculate(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := registry.ParseArguments(req)
	if err != nil {
		return nil, err
	}

	expression, err := registry.StringArgument(args, "expression")
	if err != nil {
		return nil, err
	}

	value, err := expr.Eval(expression)
	if err != nil {
		return nil, fmt.Errorf("计算错误: %w", err)
	}

	return registry.JSONResult(map[string]any{"result": value})
}

// WeatherReport is the mock payload returned by get_weather.
type WeatherReport struct {
	City        string `json:"city"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    int    `json:"humidity"`
}

func weather(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := registry.ParseArguments(req)
	if err != nil {
		return nil, err
	}

	city := unknownCity
	if _, ok := args["city"]; ok {
		if city, err = registry.StringArgument(args, "city"); err != nil {
			return nil, err
		}
	}

	return registry.JSONResult(WeatherReport{
		City:        city,
		Temperature: 25,
		Condition:   "晴朗",
		Humidity:    60,
	})
}

func artHandler(font map[rune][]string, rows int, unknown string) mcp.ToolHandler {
	return func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := registry.ParseArguments(req)
		if err != nil {
			return nil, err
		}

		text, err := registry.StringArgument(args, "text")
		if err != nil {
			return nil, err
		}

		return registry.TextResult(Render(font, rows, unknown, text)), nil
	}
}

// RenderBlock renders text in the five-row block font.
func RenderBlock(text string) string {
	return Render(blockFont, 5, " ??? ", text)
}

// RenderSlim renders text in the four-row slim font.
func RenderSlim(text string) string {
	return Render(slimFont, 4, " ? ", text)
}

// Render draws text with font. Letters are upper-cased first; glyphs are
// separated by one space and runes missing from font become unknown on
// every row. Glyphs shorter than rows are padded with blank rows.
func Render(font map[rune][]string, rows int, unknown, text string) string {
	lines := make([]strings.Builder, rows)

	for _, r := range strings.ToUpper(text) {
		glyph, ok := font[r]
		if !ok {
			for i := range lines {
				lines[i].WriteString(unknown)
			}

			continue
		}

		width := glyphWidth(glyph)

		for i := range lines {
			row := strings.Repeat(" ", width)
			if i < len(glyph) {
				row = glyph[i]
			}

			lines[i].WriteString(row)
			lines[i].WriteByte(' ')
		}
	}

	out := make([]string, rows)
	for i := range lines {
		out[i] = lines[i].String()
	}

	return strings.Join(out, "\n")
}

func glyphWidth(glyph []string) int {
	width := 0
	for _, row := range glyph {
		width = max(width, len(row))
	}

	return width
}
