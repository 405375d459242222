package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"stock-forecaster/internal/analysis"
	"stock-forecaster/internal/api"
	"stock-forecaster/internal/config"
	"stock-forecaster/internal/db"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/logger"
	"stock-forecaster/internal/report"
	"stock-forecaster/internal/store"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides PORT env)")
	products := flag.String("products", "", "one-shot mode: comma-separated product IDs, or 'all'")
	startDate := flag.String("start", "", "one-shot mode: start date YYYY-MM-DD (default: epoch)")
	endDate := flag.String("end", "", "one-shot mode: end date YYYY-MM-DD")
	reportPath := flag.String("report", "", "one-shot mode: write XLSX report to this path")
	flag.Parse()

	logger.Banner(version)

	// .env is optional; real env vars win either way.
	godotenv.Load()
	cfg := config.Load()
	if *port != 0 {
		cfg.Port = *port
	}

	modelStore, err := store.Open(cfg.ModelDBPath)
	if err != nil {
		logger.Error("Store", fmt.Sprintf("Failed to load models: %v", err))
		os.Exit(1)
	}

	if *products != "" {
		runOnce(cfg, modelStore, *products, *startDate, *endDate, *reportPath)
		return
	}

	database, err := db.Open(cfg.HistoryDBPath)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	srv := api.NewServer(cfg, modelStore, database)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}

// runOnce executes a single forecast+analysis from the command line, prints
// a summary, and optionally writes the XLSX report.
func runOnce(cfg *config.Config, modelStore *store.Store, productsArg, startArg, endArg, reportArg string) {
	selected := cfg.Products
	if productsArg != "all" {
		selected = strings.Split(productsArg, ",")
		for i := range selected {
			selected[i] = strings.TrimSpace(selected[i])
		}
	}

	start := cfg.Epoch()
	if startArg != "" {
		t, err := time.Parse("2006-01-02", startArg)
		if err != nil {
			logger.Error("CLI", fmt.Sprintf("Invalid start date %q, want YYYY-MM-DD", startArg))
			os.Exit(1)
		}
		start = t
	}
	end, err := time.Parse("2006-01-02", endArg)
	if err != nil {
		logger.Error("CLI", fmt.Sprintf("Invalid end date %q, want YYYY-MM-DD", endArg))
		os.Exit(1)
	}

	engine := forecast.New(cfg, modelStore)
	windows, err := engine.Forecast(selected, start, end)
	if err != nil {
		logger.Error("Forecast", err.Error())
		os.Exit(1)
	}

	agg, err := analysis.NewAnalyzer(cfg.Losses).Analyze(windows)
	if err != nil {
		logger.Error("Analysis", err.Error())
		os.Exit(1)
	}

	printSummary(agg)

	if reportArg != "" {
		if err := report.Save(reportArg, agg, start, end); err != nil {
			logger.Error("Report", err.Error())
			os.Exit(1)
		}
		logger.Success("Report", fmt.Sprintf("Wrote %s", reportArg))
	}
}

func printSummary(agg *analysis.Aggregate) {
	ids := make([]string, 0, len(agg.Products))
	for id := range agg.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pa := agg.Products[id]
		logger.Section("Product " + id)
		logger.Stats("End selling price", fmt.Sprintf("%.2f", pa.EndSellingPrice))
		logger.Stats("End cost price", fmt.Sprintf("%.2f", pa.EndCostPrice))
		logger.Stats("Avg selling price", fmt.Sprintf("%.2f", pa.AvgSellingPrice))
		logger.Stats("Avg cost price", fmt.Sprintf("%.2f", pa.AvgCostPrice))
		logger.Stats("Total sales", fmt.Sprintf("%.2f", pa.TotalSales))
		logger.Stats("Total costs", fmt.Sprintf("%.2f", pa.TotalCosts))
		logger.Stats("Profit", fmt.Sprintf("%.2f%%", pa.ProfitPercent))
		logger.Stats("Sales excluding lost", fmt.Sprintf("%.2f", pa.SalesExcludingLost))
		logger.Stats("Profit excluding lost", fmt.Sprintf("%.2f%%", pa.ProfitExcludingLost))
	}

	logger.Section("Cumulative")
	logger.Stats("Total sales", fmt.Sprintf("%.2f", agg.Cumulative.TotalSales))
	logger.Stats("Total sales excl. lost", fmt.Sprintf("%.2f", agg.Cumulative.TotalSalesExcludingLost))
	logger.Stats("Total costs", fmt.Sprintf("%.2f", agg.Cumulative.TotalCosts))
	logger.Stats("Total profit", fmt.Sprintf("%.2f%%", agg.Cumulative.TotalProfitPercent))

	logger.Section("Rankings")
	logger.Stats("Highest selling", agg.Rankings.HighestSelling)
	logger.Stats("Highest profit", agg.Rankings.HighestProfit)
	logger.Stats("Highest loss", agg.Rankings.HighestLoss)
}
