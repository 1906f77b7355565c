package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	uploadType     string
	uploadDuration string
)

// audioExtensions classify an upload when --type is not given.
var audioExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".flac": true, ".ogg": true,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Add a recording or document to the library",
	Long: `Copies the file into the library under a fresh record folder and
adds a history record. Uploading the same content twice returns the
existing record instead of storing it again.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadType, "type", "", "source type (audio or document, default by extension)")
	uploadCmd.Flags().StringVar(&uploadDuration, "duration", "", "audio duration, e.g. 12:30")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	sourceType := uploadType
	if sourceType == "" {
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			sourceType = "audio"
		} else {
			sourceType = "document"
		}
	}

	rec, duplicate, err := libraryService.RegisterUpload(context.Background(), filepath.Base(path), sourceType, data, uploadDuration)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if duplicate {
		cmd.Printf("Already in the library as %s (%s)\n", titleStyle.Render(rec.Filename), rec.ID)
		return nil
	}
	cmd.Printf("Uploaded %s\n", titleStyle.Render(rec.Filename))
	cmd.Printf("  record %s\n", rec.ID)
	cmd.Printf("  stored %s\n", dimStyle.Render(rec.Path))
	return nil
}
