package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/api"
	"github.com/custodia-labs/coursemate/internal/logger"
)

var (
	serveAddr    string
	serveStatic  string
	serveMetrics bool
	serveDocs    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the question answering API:

  POST   /api/query              ask a question
  GET    /api/courses            course statistics
  DELETE /api/session/{id}       forget a session

--static serves a web frontend from a directory. --docs ingests a
directory of course documents before the server starts. --metrics adds
a Prometheus endpoint at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8000", "listen address")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "directory of static frontend files")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "expose Prometheus metrics at /metrics")
	serveCmd.Flags().StringVar(&serveDocs, "docs", "", "directory of course documents to ingest at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(NeedLLM)
	if err != nil {
		return err
	}
	if err := requireQuery(svc); err != nil {
		return err
	}

	ctx := cmd.Context()
	if serveDocs != "" && svc.Ingest != nil {
		report, err := svc.Ingest.IngestDirectory(ctx, serveDocs, false)
		if err != nil {
			// The server is still useful with whatever is already indexed.
			logger.Warn("Loading documents from %s: %v", serveDocs, err)
		} else {
			logger.Info("Loaded %d course(s) with %d chunk(s)", report.Courses, report.Chunks)
		}
	}

	var metrics *api.Metrics
	if serveMetrics {
		metrics = api.NewMetrics()
	}

	router := api.NewRouter(api.NewHandler(svc.Query, metrics), api.RouterOptions{
		StaticDir: serveStatic,
		Metrics:   metrics,
	})

	cmd.Printf("Listening on %s\n", serveAddr)
	return api.Serve(ctx, serveAddr, router)
}
