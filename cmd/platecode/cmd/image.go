package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/platecode/internal/pipeline"
	"github.com/MeKo-Tech/platecode/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image FILE...",
	Short: "Recognize identification codes in plate images",
	Long: `Process one or more plate photographs and report the identification
codes found in them.

Supported formats: JPEG, PNG, BMP

Examples:
  platecode image plate.jpg
  platecode image *.png --format json
  platecode image plate.jpg --ocr paddle --endpoint http://localhost:8866/predict/ocr_system
  platecode image plate.jpg --overlay -o results.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runImage,
}

func runImage(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()
	format := cfg.Output.Format
	if format != outputFormatText && format != outputFormatJSON {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			format, strings.Join([]string{outputFormatText, outputFormatJSON}, ", "))
	}

	p, err := pipeline.NewBuilder().
		WithConfig(cfg.Pipeline).
		Build()
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	type fileResult struct {
		File    string                     `json:"file"`
		Results []pipeline.DetectionResult `json:"results"`
	}
	var all []fileResult

	for _, path := range args {
		img, meta, err := utils.LoadImage(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		slog.Debug("image loaded", "file", path, "width", meta.Width, "height", meta.Height)

		results, err := p.Recognize(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
		all = append(all, fileResult{File: path, Results: results})

		if cfg.Output.Overlay {
			overlayPath := cfg.Output.OverlayPath
			if overlayPath == "" {
				ext := filepath.Ext(path)
				overlayPath = strings.TrimSuffix(path, ext) + "_overlay.png"
			}
			if err := writeOverlay(img, results, overlayPath); err != nil {
				return fmt.Errorf("writing overlay for %s: %w", path, err)
			}
			slog.Debug("overlay written", "file", overlayPath)
		}
	}

	out := cmd.OutOrStdout()
	if cfg.Output.File != "" {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == outputFormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}

	for _, fr := range all {
		fmt.Fprintf(out, "%s:\n", fr.File)
		if len(fr.Results) == 0 {
			fmt.Fprintln(out, "  no codes found")
			continue
		}
		for _, r := range fr.Results {
			desc := r.Manufacturer
			if r.Model != "" {
				desc += " " + r.Model
			}
			fmt.Fprintf(out, "  %-20s %-6s %.2f  %s  [%s]\n",
				r.Code, r.Category, r.Confidence, desc, r.Method)
		}
	}
	return nil
}

func writeOverlay(img image.Image, results []pipeline.DetectionResult, path string) error {
	annotated := pipeline.RenderOverlay(img, results)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, annotated)
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	imageCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	imageCmd.Flags().Bool("overlay", false, "write an annotated copy of each input image")
	imageCmd.Flags().String("overlay-path", "", "path for the annotated image (default: <input>_overlay.png)")
	imageCmd.Flags().String("ocr", "tesseract", "OCR engine (tesseract, paddle)")
	imageCmd.Flags().String("tesseract-path", "", "path to the tesseract binary")
	imageCmd.Flags().String("endpoint", "", "PaddleOCR serving endpoint URL")
	imageCmd.Flags().Int("psm", 6, "tesseract page segmentation mode")
	imageCmd.Flags().Float64("confidence", 0.7, "minimum confidence for reported results")
	imageCmd.Flags().Float64("fuzzy-threshold", 0.8, "minimum similarity for fuzzy lexicon matches")
	imageCmd.Flags().String("strategy", "contours", "region detection strategy (contours, lines, text)")

	_ = viper.BindPFlag("output.format", imageCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.file", imageCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.overlay", imageCmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("output.overlay_path", imageCmd.Flags().Lookup("overlay-path"))
	_ = viper.BindPFlag("pipeline.engine", imageCmd.Flags().Lookup("ocr"))
	_ = viper.BindPFlag("pipeline.engine_path", imageCmd.Flags().Lookup("tesseract-path"))
	_ = viper.BindPFlag("pipeline.endpoint", imageCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("pipeline.psm", imageCmd.Flags().Lookup("psm"))
	_ = viper.BindPFlag("pipeline.min_confidence", imageCmd.Flags().Lookup("confidence"))
	_ = viper.BindPFlag("pipeline.fuzzy_threshold", imageCmd.Flags().Lookup("fuzzy-threshold"))
	_ = viper.BindPFlag("pipeline.strategy", imageCmd.Flags().Lookup("strategy"))
}
