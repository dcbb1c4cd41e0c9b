// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/extract"
	"github.com/pdiddy/review-engine/internal/framing"
	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

// framingTemperature is the sampling temperature for the framing
// translation; a little looser than extraction, which wants determinism.
const framingTemperature = 0.3

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Translate the review context into a neutral framing paragraph",
	Long: `Frame rewrites the requester's review context into a short neutral
paragraph that the extraction prompt embeds. The translation removes
directional language so the extraction model is not steered toward a
conclusion.

If the model call fails, a deterministic template assembled from the raw
context fields is used instead, so the pipeline never stalls here.`,
	RunE: runFrame,
}

func init() {
	frameCmd.Flags().String("model", "", "framing model (default from project settings)")
	frameCmd.Flags().String("api-key", "", "Gemini API key (overrides env and .secrets/)")
	frameCmd.Flags().Int32("max-output-tokens", 0, "token cap for the framing response")
	frameCmd.Flags().Bool("fallback", false, "skip the model and use the deterministic template")

	rootCmd.AddCommand(frameCmd)
}

func runFrame(cmd *cobra.Command, args []string) error {
	projectFile, _ := cmd.Flags().GetString("project")
	pf, err := project.Load(projectFile)
	if err != nil {
		return err
	}

	useFallback, _ := cmd.Flags().GetBool("fallback")

	var framed string
	if useFallback {
		framed = framing.Fallback(pf.ContextRaw)
	} else {
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = pf.Settings.FramingModel
		}
		explicitKey, _ := cmd.Flags().GetString("api-key")
		apiKey := secrets.GeminiAPIKey(loadedSecrets, explicitKey)
		if apiKey == "" {
			return fmt.Errorf("no Gemini API key: set %s, .secrets/%s, or --api-key", secrets.GeminiKeyEnv, secrets.GeminiKeyFile)
		}
		maxTokens, _ := cmd.Flags().GetInt32("max-output-tokens")

		cfg := types.FramingConfig{
			AIConfig: types.AIConfig{
				Model:  model,
				APIKey: apiKey,
			},
			MaxOutputTokens: int(maxTokens),
		}

		ctx := context.Background()
		provider, err := extract.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, framingTemperature)
		if err != nil {
			return err
		}

		framed, err = framing.Translate(ctx, provider, pf.ContextRaw, int32(cfg.MaxOutputTokens))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Framing model failed (%v); using template fallback\n", err)
			framed = framing.Fallback(pf.ContextRaw)
		}
	}

	for _, warning := range framing.Validate(framed) {
		fmt.Fprintf(os.Stderr, "  [WARNING] %s\n", warning)
	}

	pf.ContextTranslated = framed
	if err := project.Save(projectFile, pf); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Framing:")
	fmt.Fprintln(os.Stdout, framed)
	return nil
}
