package ocr

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// AzureRecognizer reads printed text with Azure Computer Vision.
type AzureRecognizer struct {
	client *computervision.BaseClient
	logger *slog.Logger
}

func NewAzureRecognizer(endpoint, apiKey string, logger *slog.Logger) *AzureRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureRecognizer{client: &client, logger: logger}
}

func (a *AzureRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()
	f, err := os.Open(imagePath)
	if err != nil {
		return "", common.ConversionError("open image "+imagePath, err)
	}
	defer f.Close()

	result, err := a.client.RecognizePrintedTextInStream(ctx, true, f,
		computervision.OcrLanguages(computervision.En))
	if err != nil {
		return "", common.ConversionError("azure ocr failed", err)
	}

	lines := ocrResultLines(result)
	a.logger.Debug("azure ocr ok", "path", imagePath, "lines", len(lines),
		"elapsed_ms", time.Since(start).Milliseconds())
	return strings.Join(lines, "\n"), nil
}

// ocrResultLines flattens regions into text lines, words joined by spaces.
func ocrResultLines(result computervision.OcrResult) []string {
	var lines []string
	if result.Regions == nil {
		return lines
	}
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return lines
}
