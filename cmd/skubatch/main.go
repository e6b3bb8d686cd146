package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sku-batch/internal/api"
	"sku-batch/internal/config"
	"sku-batch/internal/core/batch"
	"sku-batch/internal/infra/logx"
	"sku-batch/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("config:", err)
		os.Exit(1)
	}

	closer, err := logx.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Println("log setup:", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	skus := skuArgs(os.Args[1:])
	if len(skus) == 0 {
		fmt.Println("usage: skubatch SKU [SKU…]  (oder kommagetrennt)")
		os.Exit(1)
	}

	client := api.New(cfg.BaseURL, cfg.Token)
	cache := batch.NewCache()
	coord := batch.NewCoordinator(client, cache, cfg.LoadWorkers)

	m := ui.InitialModel(ui.Deps{
		Catalog:     client,
		Cache:       cache,
		Coord:       coord,
		Selection:   batch.NewSelectionSets(),
		DetailsEdit: batch.NewDetailsSession(cache, client, coord, cfg.RunWorkers),
		Skus:        skus,
		RunWorkers:  cfg.RunWorkers,
		ReportPath:  "skubatch_report.json",
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	coord.Close()
}

// skuArgs accepts both space- and comma-separated SKU lists.
func skuArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
