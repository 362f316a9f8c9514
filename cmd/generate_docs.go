package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/server"
)

// docsAuthorizer makes the Google tools register without real credentials.
type docsAuthorizer struct{}

func (docsAuthorizer) AuthURL(string) string { return "" }
func (docsAuthorizer) SaveToken(context.Context, string, string) error { return nil }

var _ google.Authorizer = docsAuthorizer{}

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := toolsDocumentation()
			if err != nil {
				return err
			}
			if outputFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolsDocumentation registers every tool group on a throwaway server and
// renders the result.
func toolsDocumentation() (string, error) {
	extractor, err := loadExtractor()
	if err != nil {
		return "", err
	}
	serverContext, err := server.NewServerContext(context.Background(), server.Config{
		Extractor: extractor,
		Auth:      docsAuthorizer{},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxdigest", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return "", err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return generateToolsMarkdown(tools), nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists every tool available when running inboxdigest as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Multi-Account Support\n\n")
	sb.WriteString("Tools that read Gmail accept an optional `account` parameter:\n\n")
	sb.WriteString("- **Default behavior:** If `account` is not specified, the `default` account is used\n")
	sb.WriteString("- **Multiple accounts:** Authorize each account once, e.g. `work` and `personal`\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "newsletter":
		return "Newsletter Tools"
	case "google":
		return "Google Account Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}
			sb.WriteString(fmt.Sprintf("- `%s` (%s): ", name, requiredStr))

			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", getPropertyType(propMap)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
