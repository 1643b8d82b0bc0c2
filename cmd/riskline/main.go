package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"riskline/internal/annotator"
	"riskline/internal/config"
	"riskline/internal/db"
	"riskline/internal/detector"
	"riskline/internal/loader"
	"riskline/internal/migrate"
	"riskline/internal/rules"
	"riskline/internal/server"
	"riskline/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "riskline",
	Short: "Riskline CLI",
	Long: `Riskline detects security and operational risks in pre-extracted
task-call trees of automation content (playbooks and roles). It runs a set of
pluggable rules against annotated task invocations and produces a narrative
text report plus a machine-readable structured report.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("RISKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show details during the process")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(annotatorsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func scanCmd() *cobra.Command {
	var input, output, collection, source string
	var prePass, save bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect risks from tasks by checking rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input required")
			}
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			trees, err := loader.Load(input)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.Scan.Collection
			}
			logger := newLogger()
			defer logger.Sync()

			annotator.Apply(trees, cfg.DisabledAnnotators())
			ruleSet := rules.Without(rules.All(), cfg.DisabledRules())
			narrative, rep := detector.Detect(trees, ruleSet, detector.Options{
				CollectionName: collection,
				PrePass:        prePass || cfg.Scan.PrePass,
				Logger:         logger,
			})

			if output != "" {
				data, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return err
				}
			}
			fmt.Print(narrative)

			if save {
				if source == "" {
					source = input
				}
				return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
					reportJSON, err := json.Marshal(rep)
					if err != nil {
						return err
					}
					run, err := st.SaveRun(ctx, store.Run{
						Source:        source,
						Collection:    collection,
						PlaybookTotal: rep.Summary["playbooks"].Total,
						PlaybookRisk:  rep.Summary["playbooks"].Risk,
						RoleTotal:     rep.Summary["roles"].Total,
						RoleRisk:      rep.Summary["roles"].Risk,
						Report:        reportJSON,
						Narrative:     narrative,
					})
					if err != nil {
						return err
					}
					fmt.Printf("saved run %s\n", run.ID)
					return nil
				})
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "path to the input json (tasks_in_trees.json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "path to the output json")
	cmd.Flags().StringVar(&collection, "collection", "", "collection name forwarded to collection-aware rules")
	cmd.Flags().BoolVar(&prePass, "pre-pass", false, "build the full role-to-playbook mapping before rule checks")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run in the workspace database")
	cmd.Flags().StringVar(&source, "source", "", "source label stored with a saved run (defaults to the input path)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rules", Short: "Inspect registered rules"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleSet := rules.All()
			if viper.GetBool("json") {
				type row struct {
					Name           string `json:"name"`
					Enabled        bool   `json:"enabled"`
					SeparateReport bool   `json:"separate_report"`
				}
				out := make([]row, 0, len(ruleSet))
				for _, r := range ruleSet {
					out = append(out, row{r.Name(), r.Enabled(), r.SeparateReport()})
				}
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Enabled", "Placement"})
			for _, r := range ruleSet {
				placement := "inline"
				if r.SeparateReport() {
					placement = "tabulated"
				}
				tw.AppendRow(table.Row{r.Name(), r.Enabled(), placement})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}

func annotatorsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "annotators", Short: "Inspect registered annotators"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered annotators",
		RunE: func(cmd *cobra.Command, args []string) error {
			annotators := annotator.All()
			if viper.GetBool("json") {
				type row struct {
					Name    string `json:"name"`
					Enabled bool   `json:"enabled"`
					Type    string `json:"type"`
				}
				out := make([]row, 0, len(annotators))
				for _, a := range annotators {
					out = append(out, row{a.Name(), a.Enabled(), a.Type()})
				}
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Enabled", "Type"})
			for _, a := range annotators {
				tw.AppendRow(table.Row{a.Name(), a.Enabled(), a.Type()})
			}
			tw.Render()
			return nil
		},
	})
	return cmd
}

func historyCmd() *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Saved scan runs"}
	history.AddCommand(historyListCmd())
	history.AddCommand(historyShowCmd())
	return history
}

func historyListCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				runs, err := st.ListRuns(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Created", "Source", "Playbooks", "Roles"})
				for _, run := range runs {
					tw.AppendRow(table.Row{
						run.ID, run.CreatedAt, run.Source,
						fmt.Sprintf("%d/%d", run.PlaybookRisk, run.PlaybookTotal),
						fmt.Sprintf("%d/%d", run.RoleRisk, run.RoleTotal),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of runs")
	return cmd
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				run, err := st.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				fmt.Print(run.Narrative)
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Inspect workspace config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	return cfg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("RISKLINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("RISKLINE_JWT_SECRET is required for bearer auth")
			}
			logger := newLogger()
			defer logger.Sync()
			handler, err := server.New(server.Config{
				Store:    store.Store{DB: conn},
				Scan:     cfg,
				BasePath: basePath,
				Auth:     authCfg,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Riskline API on http://%s%s\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, store.Store{DB: conn})
}

func newLogger() *zap.Logger {
	if !viper.GetBool("verbose") {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
