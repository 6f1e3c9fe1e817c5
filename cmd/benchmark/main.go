// Command benchmark compares the Go-regexp and Hyperscan pattern
// engines' tokenization throughput over a directory of source files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ashlark/prism/pkg"
)

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	Engine          string
	FilesScanned    int64
	TotalBytes      int64
	TotalLines      int64
	CompileDuration time.Duration
	ScanDuration    time.Duration
	ThroughputMBPS  float64
}

func main() {
	engine := flag.String("engine", "all", "engine to benchmark: go, hyperscan, or all")
	dir := flag.String("dir", ".", "directory of .go files to tokenize")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Benchmark the prism tokenizer's pattern engines\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *engine != "go" && *engine != "hyperscan" && *engine != "all" {
		fmt.Fprintf(os.Stderr, "Error: invalid engine %q. Must be 'go', 'hyperscan', or 'all'\n", *engine)
		flag.Usage()
		os.Exit(1)
	}

	files, err := collectGoFiles(*dir)
	if err != nil {
		log.Fatalf("Failed to collect files under %s: %v", *dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("No .go files found under %s", *dir)
	}

	fmt.Println("=== Prism Tokenizer Benchmark ===")
	fmt.Printf("Directory: %s\n", *dir)
	fmt.Printf("Files: %d\n\n", len(files))

	var results []BenchmarkResult
	if *engine == "go" || *engine == "all" {
		result := benchmarkEngine("go", files)
		results = append(results, result)
		printResult(result)
	}
	if *engine == "hyperscan" || *engine == "all" {
		result := benchmarkEngine("hyperscan", files)
		results = append(results, result)
		printResult(result)
	}

	printSummaryTable(results)
}

func collectGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func benchmarkEngine(engineName string, files []string) BenchmarkResult {
	result := BenchmarkResult{Engine: engineName}

	compileStart := time.Now()
	h, ok := prism.FromExtension(".go", 4, prism.WithEngine(engineName))
	if !ok {
		log.Fatalf("no packaged catalog for .go")
	}
	defer h.Close()
	result.CompileDuration = time.Since(compileStart)

	if h.EngineName() != engineName && engineName == "hyperscan" {
		fmt.Println("hyperscan engine not available, it fell back to go-regexp for this run")
	}

	scanStart := time.Now()
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		lines := splitLines(string(data))

		h.Run(lines)
		for i := range lines {
			if _, err := h.Line(i, lines[i]); err != nil {
				log.Fatalf("unexpected render error: %v", err)
			}
		}

		result.FilesScanned++
		result.TotalBytes += info.Size()
		result.TotalLines += int64(len(lines))
	}
	result.ScanDuration = time.Since(scanStart)

	if result.ScanDuration.Seconds() > 0 {
		result.ThroughputMBPS = float64(result.TotalBytes) / (1024 * 1024) / result.ScanDuration.Seconds()
	}
	return result
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func printResult(result BenchmarkResult) {
	fmt.Printf("Engine: %s\n", result.Engine)
	fmt.Printf("  Compilation Time: %v\n", result.CompileDuration)
	fmt.Printf("  Scan Time: %v\n", result.ScanDuration)
	fmt.Printf("  Files Scanned: %d\n", result.FilesScanned)
	fmt.Printf("  Lines Scanned: %d\n", result.TotalLines)
	fmt.Printf("  Throughput: %.2f MB/s\n", result.ThroughputMBPS)
	fmt.Println()
}

func printSummaryTable(results []BenchmarkResult) {
	fmt.Println("=== BENCHMARK SUMMARY ===")
	fmt.Println()
	fmt.Printf("%-12s %-12s %-12s %-12s\n", "Engine", "Compile(ms)", "Scan(ms)", "Throughput")
	fmt.Printf("%-12s %-12s %-12s %-12s\n", "--------", "-----------", "--------", "----------")
	for _, result := range results {
		fmt.Printf("%-12s %-12.1f %-12.1f %-12.2f\n",
			result.Engine,
			float64(result.CompileDuration.Nanoseconds())/1e6,
			float64(result.ScanDuration.Nanoseconds())/1e6,
			result.ThroughputMBPS,
		)
	}
	fmt.Println()
}
