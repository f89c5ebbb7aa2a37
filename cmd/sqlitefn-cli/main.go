// Command sqlitefn-cli is a demo harness for the sqlitefn package: it
// resolves spreadsheet-shaped tables from files on disk (CSV/JSON/text
// directly, or XLSX/HTML via their host adapters) and runs one SQLITE()
// query over them, printing the shaped result to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"

	"github.com/cellquery/sqlitefn"
	"github.com/cellquery/sqlitefn/config"
	"github.com/cellquery/sqlitefn/host"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  sqlitefn-cli [--config path.hcl] <source> <query> [params...]")
	fmt.Println()
	fmt.Println("source is one of:")
	fmt.Println("  a directory of .csv/.json/.txt files (tables named by filename)")
	fmt.Println("  an .xlsx/.xls workbook (tables named by sheet, or by defined name)")
	fmt.Println("  an .html/.htm document (tables named by <table id=...> or positionally)")
}

func main() {
	args := os.Args[1:]
	var configPath string
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}

	if len(rest) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	source := rest[0]
	query := rest[1]
	params := make([]any, len(rest)-2)
	for i, p := range rest[2:] {
		params[i] = p
	}

	resolver, err := openSource(source)
	if err != nil {
		fmt.Printf("Error opening source: %v\n", err)
		os.Exit(1)
	}

	rt := sqlitefn.FromConfig(resolver, cfg)
	result, errText := rt.SQLITE(context.Background(), query, params...)
	if errText != "" {
		fmt.Println(errText)
		os.Exit(1)
	}

	printTable(result)
}

func openSource(path string) (host.Resolver, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if info.IsDir() {
		return &host.FilesystemResolver{Dir: path}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return host.NewWorkbookResolver(f), nil
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open document: %w", err)
		}
		defer f.Close()
		doc, err := html.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		return host.NewHTMLResolver(doc), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", path)
	}
}

func printTable(result *sqlitefn.Result) {
	fmt.Println(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	if result.Warning != "" {
		fmt.Fprintln(os.Stderr, "warning:", result.Warning)
	}
}
