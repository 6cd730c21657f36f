// Package cli provides the command-line interface for the terminal client.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"starkterm/internal/models"
)

// addAICommands adds the manual AI analysis workflow. The backend renders a
// prompt, a human runs it in an external model, and the response is imported
// back. No model is ever called from here.
func addAICommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "AI analysis workflow (render, import, history)",
		Long: `Manual AI analysis workflow.

The backend owns a catalog of prompt templates. 'ai render' fills one
with live market data and prints the finished prompt; you run it in the
model of your choice and feed the answer back with 'ai import'. Stored
analyses are browsable with 'ai history'.`,
	}

	cmd.AddCommand(newAITemplatesCmd(app))
	cmd.AddCommand(newAIShowCmd(app))
	cmd.AddCommand(newAIRenderCmd(app))
	cmd.AddCommand(newAIImportCmd(app))
	cmd.AddCommand(newAIHistoryCmd(app))
	cmd.AddCommand(newAIHealthCmd(app))

	rootCmd.AddCommand(cmd)
}

func newAITemplatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available prompt templates",
		Example: `  starkterm ai templates
  starkterm ai templates --category technical`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			category, _ := cmd.Flags().GetString("category")

			templates, err := app.API.ListTemplates(ctx, category)
			if err != nil {
				output.Error("Failed to list templates: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(templates)
			}

			if len(templates) == 0 {
				output.Info("No templates available.")
				return nil
			}

			table := NewTable(output, "Category", "Name", "Version", "Description")
			for _, t := range templates {
				table.AddRow(t.Category, output.BoldText(t.Name), t.Version, TruncateString(t.Description, 48))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("category", "", "filter by category")

	return cmd
}

func newAIShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show <category> <name>",
		Short:   "Show template details and placeholders",
		Example: `  starkterm ai show technical swing_analysis`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			info, err := app.API.GetTemplate(ctx, args[0], args[1])
			if err != nil {
				output.Error("Failed to get template: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(info)
			}

			output.Printf("%s/%s  %s\n", info.Category, output.BoldText(info.Name), output.DimText("v"+info.Version))
			if info.Description != "" {
				output.Println(info.Description)
			}
			output.Println()

			if len(info.Placeholders) > 0 {
				output.Bold("Placeholders")
				table := NewTable(output, "Name", "Type", "Source", "Required")
				for _, p := range info.Placeholders {
					required := ""
					if p.Required {
						required = "yes"
					}
					table.AddRow(p.Name, p.Type, p.Source, required)
				}
				table.Render()
			}
			return nil
		},
	}
}

// parseParams turns repeated key=value flags into a parameter map.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", pair)
		}
		params[key] = value
	}
	return params, nil
}

func newAIRenderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <category> <name>",
		Short: "Render a prompt for manual execution",
		Long: `Render a prompt template with live backend data.

The finished prompt is printed (or written with --out) for you to paste
into an external model. The template reference and parameters shown in
the footer are what 'ai import' needs to file the response.`,
		Example: `  starkterm ai render technical swing_analysis --symbol AAPL
  starkterm ai render market daily_briefing --param timeframe=1w
  starkterm ai render technical swing_analysis --symbol NVDA --out prompt.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")
			paramPairs, _ := cmd.Flags().GetStringArray("param")
			outPath, _ := cmd.Flags().GetString("out")

			params, err := parseParams(paramPairs)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			req := models.RenderPromptRequest{
				Category:     args[0],
				TemplateName: args[1],
				Symbol:       strings.ToUpper(symbol),
				Parameters:   params,
			}

			rendered, err := app.API.RenderPrompt(ctx, req)
			if err != nil {
				output.Error("Failed to render prompt: %v", err)
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(rendered.Prompt), 0644); err != nil {
					output.Error("Failed to write prompt: %v", err)
					return err
				}
				output.Success("✓ Prompt written to %s", outPath)
			}

			if output.IsJSON() {
				return output.JSON(rendered)
			}

			if outPath == "" {
				output.Println(rendered.Prompt)
				output.Println()
			}

			output.Dim("Template: %s/%s v%s  ~%d tokens  temperature %.1f",
				rendered.Template.Category, rendered.Template.Name, rendered.Template.Version,
				rendered.Metadata.EstimatedTokens, rendered.Metadata.Temperature)
			output.Dim("Run the prompt externally, then: starkterm ai import %s %s%s",
				rendered.Template.Category, rendered.Template.Name, symbolHint(req.Symbol))
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "symbol the template analyzes")
	cmd.Flags().StringArray("param", nil, "template parameter as key=value (repeatable)")
	cmd.Flags().String("out", "", "write the prompt to a file instead of stdout")

	return cmd
}

func symbolHint(symbol string) string {
	if symbol == "" {
		return ""
	}
	return " --symbol " + symbol
}

func newAIImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <category> <name>",
		Short: "Import a model response for a rendered prompt",
		Long: `Store an externally executed model response on the backend.

The response is read from --file when given, otherwise pasted
interactively. Pass the same category, template name, symbol and
parameters used for 'ai render' so the analysis is filed correctly.`,
		Example: `  starkterm ai import technical swing_analysis --symbol AAPL --file response.md
  starkterm ai import market daily_briefing`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol, _ := cmd.Flags().GetString("symbol")
			file, _ := cmd.Flags().GetString("file")
			promptFile, _ := cmd.Flags().GetString("prompt-file")
			paramPairs, _ := cmd.Flags().GetStringArray("param")

			params, err := parseParams(paramPairs)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			var response string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					output.Error("Failed to read response file: %v", err)
					return err
				}
				response = string(data)
			} else {
				response, err = promptForResponse()
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(response) == "" {
				output.Error("Response is empty, nothing to import")
				return fmt.Errorf("empty response")
			}

			var renderedPrompt string
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					output.Error("Failed to read prompt file: %v", err)
					return err
				}
				renderedPrompt = string(data)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := app.API.ImportResponse(ctx, models.ImportResponseRequest{
				Category:       args[0],
				TemplateName:   args[1],
				Symbol:         strings.ToUpper(symbol),
				RenderedPrompt: renderedPrompt,
				Response:       response,
				Parameters:     params,
			})
			if err != nil {
				output.Error("Failed to import response: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Analysis stored (id %d)", result.ID)
			output.Dim("View it with: starkterm ai history show %d", result.ID)
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "symbol the analysis covers")
	cmd.Flags().String("file", "", "read the model response from a file")
	cmd.Flags().String("prompt-file", "", "attach the rendered prompt from a file")
	cmd.Flags().StringArray("param", nil, "parameter used at render time as key=value (repeatable)")

	return cmd
}

func newAIHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored analyses",
		Example: `  starkterm ai history
  starkterm ai history --symbol AAPL --limit 5
  starkterm ai history show 12
  starkterm ai history delete 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			analyses, err := app.API.GetAnalysisHistory(ctx, strings.ToUpper(symbol), category, limit)
			if err != nil {
				output.Error("Failed to get history: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(analyses)
			}

			if len(analyses) == 0 {
				output.Info("No stored analyses.")
				return nil
			}

			table := NewTable(output, "ID", "Category", "Template", "Symbol", "Created")
			for _, a := range analyses {
				table.AddRow(
					strconv.FormatInt(a.ID, 10),
					a.TemplateCategory,
					a.TemplateName,
					output.BoldText(a.Symbol),
					a.CreatedAt,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().String("category", "", "filter by template category")
	cmd.Flags().Int("limit", 10, "maximum entries")

	cmd.AddCommand(newAIHistoryShowCmd(app))
	cmd.AddCommand(newAIHistoryDeleteCmd(app))

	return cmd
}

func newAIHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored analysis in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				output.Error("Invalid analysis id %q", args[0])
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			analysis, err := app.API.GetAnalysis(ctx, id)
			if err != nil {
				output.Error("Failed to get analysis: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(analysis)
			}

			output.Printf("%s  %s/%s  %s\n",
				output.BoldText(analysis.Symbol),
				analysis.TemplateCategory, analysis.TemplateName,
				output.DimText(analysis.CreatedAt))
			if analysis.Model != "" {
				output.Dim("Model: %s (%s)", analysis.Model, analysis.ExecutionMode)
			}
			output.Println()
			output.Println(analysis.Response)
			return nil
		},
	}
}

func newAIHistoryDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				output.Error("Invalid analysis id %q", args[0])
				return err
			}

			yes, _ := cmd.Flags().GetBool("yes")
			confirmed, err := confirmAction(output, yes, fmt.Sprintf("Delete analysis %d?", id))
			if err != nil {
				return err
			}
			if !confirmed {
				output.Info("Cancelled")
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := app.API.DeleteAnalysis(ctx, id)
			if err != nil {
				output.Error("Failed to delete analysis: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ %s", result.Message)
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func newAIHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "AI subsystem health",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			health, err := app.API.GetAIHealth(ctx)
			if err != nil {
				output.Error("Failed to get AI health: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(health)
			}

			if health.Status == "healthy" {
				output.Success("AI subsystem healthy")
			} else {
				output.Warning("AI subsystem %s", health.Status)
				if health.Error != "" {
					output.Dim("%s", health.Error)
				}
			}
			output.Printf("  Templates loaded: %d\n", health.TemplatesLoaded)
			output.Printf("  Stored analyses:  %d\n", health.TotalAnalyses)
			if health.LastAnalysis != "" {
				output.Printf("  Last analysis:    %s\n", health.LastAnalysis)
			}
			return nil
		},
	}
}
