package llm

import (
	"strings"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

// BuildExtractionPrompt renders the fixed extraction instruction for docType around text.
func BuildExtractionPrompt(docType constants.DocumentType, text string) string {
	var b strings.Builder
	b.WriteString("Extract ")
	b.WriteString(docType.String())
	b.WriteString(" information from the following text.\n\n")
	b.WriteString("Return a JSON object with:\n")
	b.WriteString("- vendor_name (string)\n")
	b.WriteString("- amount (float)\n")
	b.WriteString("- products (list of {name, quantity, unit_price, total})\n")
	b.WriteString("- total_amount (float)\n")
	b.WriteString("- date (string or null)\n\n")
	b.WriteString("Document:\n")
	b.WriteString(text)
	b.WriteString("\n\nJSON Response:")
	return b.String()
}
