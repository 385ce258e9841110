package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/garyjia/invoice-service/internal/artifact"
	"github.com/garyjia/invoice-service/internal/document"
	"github.com/garyjia/invoice-service/internal/domain/entity"
	"github.com/garyjia/invoice-service/pkg/utils"
)

// Renders an invoice snapshot (the JSON returned by GET /api/invoices/:id)
// to a PDF file without a database or blob store.

func main() {
	in := flag.String("in", "", "invoice snapshot JSON file")
	out := flag.String("out", "", "output PDF path (defaults to the storage file name)")
	brand := flag.String("brand", "", "profile name printed in the header")
	preview := flag.Bool("preview", false, "also write a PNG of the first page")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := utils.NewDevelopmentLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}

	var inv entity.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		log.Fatalf("Failed to parse snapshot: %v", err)
	}

	var branding entity.Branding
	if *brand != "" {
		branding.Name = brand
	}

	pdf, err := document.NewRenderer(logger).Render(&inv, branding)
	if err != nil {
		log.Fatalf("Failed to render invoice: %v", err)
	}

	target := *out
	if target == "" {
		target = artifact.FileName(&inv)
	}
	if err := os.WriteFile(target, pdf, 0o644); err != nil {
		log.Fatalf("Failed to write PDF: %v", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", target, len(pdf))
	fmt.Printf("Storage key: %s\n", artifact.StorageKey(&inv))

	if !*preview {
		return
	}

	png, err := document.NewPreviewer().PNG(pdf)
	if err != nil {
		log.Fatalf("Failed to render preview: %v", err)
	}
	pngPath := strings.TrimSuffix(target, ".pdf") + ".png"
	if err := os.WriteFile(pngPath, png, 0o644); err != nil {
		log.Fatalf("Failed to write preview: %v", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", pngPath, len(png))
}
