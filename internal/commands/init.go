package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/outcome/internal/config"
)

const initContainerTimeout = 60 * time.Second

const dynamoContainer = "outcome-dynamodb"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var skipDynamo bool

	cmd := &cobra.Command{
		Use:   "init [project-dir]",
		Short: "Initialize a new outcome project",
		Long:  "Writes outcome.yaml and an example batch, and optionally starts a local DynamoDB container.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), args[0], skipDynamo)
		},
	}

	cmd.Flags().BoolVar(&skipDynamo, "skip-dynamodb", false, "Skip starting the DynamoDB Local container")
	return cmd
}

const configTemplate = `server:
  addr: ":8080"
log:
  level: info
  format: text
aggregation:
  fidelity: flat
  concurrency: 8
store:
  type: %s
  dynamodb:
    tableName: members
    region: us-east-1
    endpoint: http://localhost:8000
    createTable: true
breaker:
  failureThreshold: 5
  timeout: 30s
reports:
  - type: console
`

const exampleBatch = `{
  "members": [
    {"email": "ada@example.com", "name": "Ada", "age": 36},
    {"email": "", "name": "Grace", "age": 45},
    {"email": "alan@example.com", "name": "Alan", "age": 0}
  ]
}
`

func runInit(w io.Writer, projectDir string, skipDynamo bool) error {
	bold := color.New(color.Bold)

	_, _ = bold.Fprintf(w, "Initializing outcome project: %s\n", projectDir)

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", projectDir, err)
	}

	storeType := "dynamodb"
	if skipDynamo {
		storeType = "memory"
	}
	configPath := filepath.Join(projectDir, config.FileName)
	if err := os.WriteFile(configPath, fmt.Appendf(nil, configTemplate, storeType), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	batchPath := filepath.Join(projectDir, "members.json")
	if err := os.WriteFile(batchPath, []byte(exampleBatch), 0o644); err != nil {
		return fmt.Errorf("writing example batch: %w", err)
	}

	_, _ = fmt.Fprintf(w, "  %s Project scaffolded\n", color.GreenString("✓"))

	if !skipDynamo {
		if err := startDynamoLocal(); err != nil {
			_, _ = fmt.Fprintf(w, "  %s DynamoDB Local setup skipped: %v\n", color.YellowString("⚠"), err)
			_, _ = fmt.Fprintf(w, "    Run manually: docker run -d --name %s -p 8000:8000 amazon/dynamodb-local\n", dynamoContainer)
		} else {
			_, _ = fmt.Fprintf(w, "  %s DynamoDB Local container started\n", color.GreenString("✓"))
		}
	} else {
		_, _ = fmt.Fprintf(w, "  %s DynamoDB Local skipped (--skip-dynamodb), using the memory store\n", color.YellowString("→"))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintf(w, "  cd %s\n", projectDir)
	_, _ = fmt.Fprintln(w, "  outcome report members.json")
	_, _ = fmt.Fprintln(w, "  outcome serve")
	return nil
}

func startDynamoLocal() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	// Reuse an existing container.
	if exec.Command("docker", "inspect", dynamoContainer).Run() == nil {
		if err := exec.Command("docker", "start", dynamoContainer).Run(); err != nil {
			return fmt.Errorf("starting existing container: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initContainerTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "run", "-d",
		"--name", dynamoContainer,
		"-p", "8000:8000",
		"amazon/dynamodb-local",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
