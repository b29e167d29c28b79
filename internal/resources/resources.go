// Package resources provides the example resources served by mcpws-server.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wagiedev/mcpws-go/internal/registry"
)

// Resource uris.
const (
	ReadmeURI = "file://README.md"
	UsersURI  = "file://data/users.json"
)

// Readme is the content of the README resource.
const Readme = "# MCP 示例项目\n\n这是一个使用Go实现的MCP服务器示例。"

// User is one record of the users resource.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Users returns the records served by the users resource.
func Users() []User {
	return []User{
		{ID: 1, Name: "张三", Email: "zhangsan@example.com"},
		{ID: 2, Name: "李四", Email: "lisi@example.com"},
	}
}

// Register adds the example resources to reg.
func Register(reg *registry.Registry) error {
	if err := reg.AddResource(
		registry.NewResource(ReadmeURI, "项目说明", "项目的README文件", "text/markdown"),
		readReadme,
	); err != nil {
		return err
	}

	return reg.AddResource(
		registry.NewResource(UsersURI, "用户数据", "系统中的用户信息", "application/json"),
		readUsers,
	)
}

func readReadme(context.Context, string) (string, error) {
	return Readme, nil
}

func readUsers(context.Context, string) (string, error) {
	data, err := json.Marshal(Users())
	if err != nil {
		return "", fmt.Errorf("encode users: %w", err)
	}

	return string(data), nil
}
