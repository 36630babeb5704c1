package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/resume/service"
)

//nolint:gochecknoglobals // Cobra boilerplate
var company string

//nolint:gochecknoglobals // Cobra boilerplate
var jobTitle string

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate <jd-file|->",
	Short: "Generate a tailored résumé and cover letter",
	Long: `Generate a tailored résumé and cover letter from a job description.

The job description is read from a file, or from stdin when the argument is "-".

Example:
  tailor generate jd.txt --company "Acme" --title "Staff Engineer"
  pbpaste | tailor generate - --company "Acme"`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoglobals // Cobra boilerplate
var promptCmd = &cobra.Command{
	Use:   "prompt <jd-file|->",
	Short: "Print the prompt that generate would send, without calling the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	for _, cmd := range []*cobra.Command{generateCmd, promptCmd} {
		cmd.Flags().StringVar(&company, "company", "", "Company name")
		cmd.Flags().StringVar(&jobTitle, "title", "", "Job title")
		rootCmd.AddCommand(cmd)
	}
}

func readJobDescription(cmd *cobra.Command, arg string) (string, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read job description: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("job description is empty")
	}
	return string(data), nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jd, err := readJobDescription(cmd, args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result, err := app.Generator.Generate(ctx, service.GenerateInput{Company: company, JobTitle: jobTitle, JobDescription: jd})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	jd, err := readJobDescription(cmd, args[0])
	if err != nil {
		return err
	}
	baseResume, err := extract.BaseResumeText(cmd.Context(), app.Paths.BaseResumes)
	if err != nil {
		return err
	}
	prompt := llm.BuildPrompt(llm.PromptInput{
		Template:       app.Generator.Resources.Prompt,
		JSONTemplate:   app.Generator.Resources.JSONTemplate,
		BaseResume:     baseResume,
		Company:        company,
		JobTitle:       jobTitle,
		JobDescription: jd,
	})
	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return err
}
