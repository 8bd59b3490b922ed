package cli

import (
	"os"

	"dailygraph-quiz/internal/config"
	"github.com/spf13/cobra"
)

// NewSitemapCmd writes the sitemap of every daily entry.
func NewSitemapCmd(configPath *string) *cobra.Command {
	var out, baseURL string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate sitemap.xml for the daily entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.Sitemap.BaseURL = baseURL
			}
			d, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.close()

			doc, err := d.service.Sitemap(cmd.Context(), cfg.Sitemap.BaseURL)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}
			return os.WriteFile(out, doc, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "site base URL (overrides config)")
	return cmd
}
