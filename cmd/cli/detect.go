package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motorefacciones/import-service/internal/adapters/detect"
	"github.com/motorefacciones/import-service/internal/parsers"
	"github.com/motorefacciones/import-service/internal/pipeline"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Guess the provider of a local supplier file from its header row",
	Example: `  import-service detect ./lista-mrm.xlsx`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	fileType := parsers.DetectFileType(args[0], content)
	headers, err := pipeline.ReadHeaders(content, fileType)
	if err != nil {
		return fmt.Errorf("failed to read headers: %w", err)
	}

	logger.Debug().Str("type", string(fileType)).Strs("headers", headers).Msg("Read header row")

	code, ok := detect.DetectProvider(headers)
	if !ok {
		fmt.Printf("No provider matched (%s): %s\n", fileType, strings.Join(headers, " | "))
		return fmt.Errorf("provider not detected")
	}
	fmt.Println(code)
	return nil
}
