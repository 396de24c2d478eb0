package main

import (
	"encoding/json"
	"fmt"
	"os"

	"learning-path/internal/models"
	"learning-path/shared/pipeline"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store one learning path",
	Long:  "Generate a learning path for a topic, store it, and print the course document as JSON.",
	RunE:  runGenerate,
}

var (
	genTopic       string
	genDescription string
	genCategory    string
	genDifficulty  string
	genChapters    int
	genTone        string
	genOutputFile  string
)

func init() {
	generateCmd.Flags().StringVarP(&genTopic, "topic", "t", "", "Course topic (required)")
	generateCmd.Flags().StringVarP(&genDescription, "description", "d", "", "Optional course description")
	generateCmd.Flags().StringVarP(&genCategory, "category", "c", string(models.CategoryGeneral), "Course category")
	generateCmd.Flags().StringVar(&genDifficulty, "difficulty", string(models.DifficultyBeginner), "Beginner, Intermediate or Advanced")
	generateCmd.Flags().IntVarP(&genChapters, "chapters", "n", 5, "Number of chapters")
	generateCmd.Flags().StringVar(&genTone, "tone", string(models.ToneEducational), "Output tone")
	generateCmd.Flags().StringVarP(&genOutputFile, "out", "o", "", "Write the course JSON to this file instead of stdout")
	_ = generateCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	progress := func(requestID string, state pipeline.State, chapter int) {
		if chapter > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s chapter %d\n", requestID[:8], state, chapter)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", requestID[:8], state)
	}

	gen, err := a.generator(ctx, pipeline.WithProgress(progress))
	if err != nil {
		return err
	}

	doc, err := gen.Generate(ctx, models.CourseRequest{
		Topic:        genTopic,
		Description:  genDescription,
		Category:     models.Category(genCategory),
		Difficulty:   models.Difficulty(genDifficulty),
		ChapterCount: genChapters,
		Tone:         models.Tone(genTone),
	})
	if err != nil {
		return fmt.Errorf("generation failed (%s): %w", models.KindOf(err), err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode course: %w", err)
	}

	if genOutputFile != "" {
		if err := os.WriteFile(genOutputFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored %s, wrote %s\n", doc.Metadata.StorageURI, genOutputFile)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
