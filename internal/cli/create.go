package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/beriox/bexp/internal/experiment"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		variants   string
		expType    string
		baseline   string
		confidence float64
		file       string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new experiment",
		Long: `Create a new experiment with weighted variants.

Variants are given as comma-separated id=weight pairs; weights are traffic
percentages and must sum to 100.

Examples:
  bexp create pricing-page --variants "control=50,variant_a=50"
  bexp create hero-copy --variants "control=34,variant_a=33,variant_b=33" --type content
  bexp create --file experiments.yaml
  bexp create checkout-flow        (interactive)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return createFromFile(file)
			}

			if len(args) == 0 {
				return fmt.Errorf("experiment name required (or use --file)")
			}
			id := args[0]

			var variantList []experiment.Variant
			var err error
			if variants != "" {
				variantList, err = parseVariants(variants)
			} else {
				variantList, err = promptVariants()
			}
			if err != nil {
				return err
			}

			cfg := experiment.Config{
				ID:              id,
				Name:            id,
				Type:            experiment.ExperimentType(expType),
				Variants:        variantList,
				IsActive:        true,
				BaselineVariant: baseline,
				ConfidenceLevel: confidence,
			}

			return withEngine(func(e *experiment.Engine) error {
				if err := e.CreateExperiment(cfg); err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				fmt.Printf("Created experiment '%s' with %d variants:\n", id, len(variantList))
				for _, v := range variantList {
					fmt.Printf("  %-12s %.2f%%\n", v.ID, v.Weight)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variants, "variants", "v", "", "comma-separated id=weight pairs")
	cmd.Flags().StringVarP(&expType, "type", "t", string(experiment.TypeFeature), "experiment type (feature, ui, pricing, content, workflow)")
	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline variant id (default: control)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "confidence level percent (default: 95)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML experiment definition file")

	return cmd
}

func createFromFile(path string) error {
	configs, err := experiment.LoadDefinitions(path)
	if err != nil {
		return err
	}

	return withEngine(func(e *experiment.Engine) error {
		created, err := e.Seed(configs)
		if err != nil {
			return err
		}
		fmt.Printf("Created %d of %d experiments from %s\n", created, len(configs), path)
		return nil
	})
}

// parseVariants decodes "control=50,variant_a=25,variant_b=25".
func parseVariants(spec string) ([]experiment.Variant, error) {
	parts := strings.Split(spec, ",")
	if len(parts) < 2 {
		return nil, fmt.Errorf("need at least 2 variants. Example: --variants \"control=50,variant_a=50\"")
	}

	variants := make([]experiment.Variant, 0, len(parts))
	for i, part := range parts {
		id, weightStr, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || id == "" {
			return nil, fmt.Errorf("invalid variant %q: expected id=weight", part)
		}
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for variant %q: %w", id, err)
		}
		variants = append(variants, experiment.Variant{
			ID:     id,
			Name:   id,
			Type:   variantTypeFor(i, id),
			Weight: weight,
		})
	}
	return variants, nil
}

func variantTypeFor(index int, id string) experiment.VariantType {
	if id == "control" {
		return experiment.VariantControl
	}
	switch index {
	case 1:
		return experiment.VariantA
	case 2:
		return experiment.VariantB
	default:
		return experiment.VariantC
	}
}

// promptVariants collects variants interactively when no flags are given.
func promptVariants() ([]experiment.Variant, error) {
	countPrompt := promptui.Select{
		Label: "How many variants (including control)?",
		Items: []string{"2", "3", "4"},
	}
	_, countStr, err := countPrompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return nil, err
	}
	count, _ := strconv.Atoi(countStr)

	variants := make([]experiment.Variant, 0, count)
	remaining := 100.0
	for i := 0; i < count; i++ {
		defaultID := "control"
		if i > 0 {
			defaultID = fmt.Sprintf("variant_%c", 'a'+i-1)
		}

		idPrompt := promptui.Prompt{
			Label:   fmt.Sprintf("Variant %d id", i+1),
			Default: defaultID,
		}
		id, err := idPrompt.Run()
		if err != nil {
			return nil, err
		}

		weight := remaining
		if i < count-1 {
			weightPrompt := promptui.Prompt{
				Label:   fmt.Sprintf("Weight for %s (%% of traffic, %.2f left)", id, remaining),
				Default: fmt.Sprintf("%.2f", remaining/float64(count-i)),
			}
			weightStr, err := weightPrompt.Run()
			if err != nil {
				return nil, err
			}
			weight, err = strconv.ParseFloat(weightStr, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight: %w", err)
			}
		}
		remaining -= weight

		variants = append(variants, experiment.Variant{
			ID:     id,
			Name:   id,
			Type:   variantTypeFor(i, id),
			Weight: weight,
		})
	}

	return variants, nil
}
