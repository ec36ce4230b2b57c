package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"food-recommender/internal/core/food"
	"food-recommender/internal/core/recommend"
	"food-recommender/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	dataSource   string
	criteriaFile string
	output       = "text" // "text" or "json"
	logLevel     = "warn"
	seed         int64
	fetchTimeout = 30 * time.Second

	req      recommend.Request
	per100   string
	calories float64
)

var rootCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend food items from a spreadsheet dataset",
	Long: `recommend scores every row of a food dataset against include and exclude
terms for ingredients, user type and taste, then prints the top matches.`,
	Example: `  recommend --data food.xlsx --ingredient beef,cheese --star-ingredient --exclude-ingredient pork
  recommend --data food.csv --taste rich --calories 500 --output json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataSource == "" {
			dataSource = os.Getenv("FOOD_DATA_SOURCE")
		}
		if dataSource == "" {
			return fmt.Errorf("--data is required (or set FOOD_DATA_SOURCE)")
		}
		return common.InitLogger(logLevel, "")
	},
	RunE: runRecommend,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&dataSource, "data", "", "Dataset path or URL (.xlsx or .csv)")
	flags.StringVar(&criteriaFile, "criteria", "", "JSON file with the request body; flags override its fields")
	flags.StringVar(&output, "output", output, "Output format: text or json")
	flags.StringVar(&logLevel, "log-level", logLevel, "Log level")
	flags.Int64Var(&seed, "seed", 0, "Seed for the tie shuffle (random when unset)")
	flags.DurationVar(&fetchTimeout, "fetch-timeout", fetchTimeout, "Timeout for remote datasets")

	flags.StringVar(&req.IncludeIngredient, "ingredient", "", "Preferred ingredients, comma separated")
	flags.StringVar(&req.IncludeUserType, "user-type", "", "Your type (e.g. gain, normal, athlete)")
	flags.StringVar(&req.IncludeTaste, "taste", "", "Preferred tastes, comma separated")
	flags.BoolVar(&req.PrioritizeIngredient, "star-ingredient", false, "Prioritize ingredient matches")
	flags.BoolVar(&req.PrioritizeUserType, "star-user-type", false, "Prioritize user type matches")
	flags.BoolVar(&req.PrioritizeTaste, "star-taste", false, "Prioritize taste matches")
	flags.StringVar(&req.ExcludeIngredient, "exclude-ingredient", "", "Ingredients to avoid")
	flags.StringVar(&req.ExcludeUserType, "exclude-user-type", "", "Types to avoid")
	flags.StringVar(&req.ExcludeTaste, "exclude-taste", "", "Tastes to avoid")
	flags.IntVar(&req.TopN, "top", recommend.DefaultTopN, "Number of rows to return")
	flags.StringVar(&per100, "per100", "", "Calorie bucket target (rows sharing its leading digit)")
	flags.Float64Var(&calories, "calories", 0, "Desired calories; adds a serving size column")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	defer common.Sync()

	request, err := buildRequest(cmd)
	if err != nil {
		return err
	}
	criteria, err := request.ToCriteria()
	if err != nil {
		return err
	}
	if per100 != "" {
		target, err := recommend.ParseCalorieTarget(per100)
		if err != nil {
			return err
		}
		criteria.CalorieTarget = target
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout+5*time.Second)
	defer cancel()

	table, err := food.NewLoader(fetchTimeout).Load(ctx, dataSource)
	if err != nil {
		return err
	}

	result, err := recommend.Recommend(table, criteria, seededRand(cmd))
	if err != nil {
		return err
	}

	switch output {
	case "json":
		return renderJSON(cmd.OutOrStdout(), result)
	case "text":
		return renderText(cmd.OutOrStdout(), result)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

// seededRand 只有明確指定 --seed 時才固定亂數來源，nil 代表每次隨機
func seededRand(cmd *cobra.Command) *rand.Rand {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible tie shuffle
}

// buildRequest 合併 --criteria 檔案與命令列旗標
func buildRequest(cmd *cobra.Command) (recommend.Request, error) {
	request := recommend.Request{TopN: recommend.DefaultTopN}
	if criteriaFile != "" {
		f, err := os.Open(criteriaFile)
		if err != nil {
			return request, fmt.Errorf("open criteria file: %w", err)
		}
		defer f.Close()
		if err := common.DecodeJSONStrict(f, &request); err != nil {
			return request, common.NewInvalidCriteriaError("criteria file", err.Error())
		}
	}

	flags := cmd.Flags()
	overrides := map[string]func(){
		"ingredient":         func() { request.IncludeIngredient = req.IncludeIngredient },
		"user-type":          func() { request.IncludeUserType = req.IncludeUserType },
		"taste":              func() { request.IncludeTaste = req.IncludeTaste },
		"star-ingredient":    func() { request.PrioritizeIngredient = req.PrioritizeIngredient },
		"star-user-type":     func() { request.PrioritizeUserType = req.PrioritizeUserType },
		"star-taste":         func() { request.PrioritizeTaste = req.PrioritizeTaste },
		"exclude-ingredient": func() { request.ExcludeIngredient = req.ExcludeIngredient },
		"exclude-user-type":  func() { request.ExcludeUserType = req.ExcludeUserType },
		"exclude-taste":      func() { request.ExcludeTaste = req.ExcludeTaste },
		"top":                func() { request.TopN = req.TopN },
		"calories":           func() { v := calories; request.DesiredCalories = &v },
	}
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
	return request, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
