package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/gKV/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for gKV servers",
		Long:    "Runs timed benchmarks of the node operations against the configured server and reports latency quantiles. All test data lives under the ^perf global and is removed afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfGlobal     = "^perf"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfSeconds    = 5
	perfValueKB    = 100
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "seconds"
	perfTestCmd.Flags().Int(key, 5, util.WrapString("How long to run each benchmark (in seconds)"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different subscripts to spread the operations over"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfKeySpread = viper.GetInt("keys")
	perfSeconds = viper.GetInt("seconds")
	perfValueKB = viper.GetInt("large-value-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for gKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Keys: %d, Duration: %ds/test\n", perfNumThreads, perfKeySpread, perfSeconds)
	fmt.Println()

	fmt.Println("starting tests...")

	// Remove leftovers of an aborted earlier run
	if _, err := drv.Kill(perfGlobal); err != nil {
		return fmt.Errorf("failed to clear %s: %v", perfGlobal, err)
	}
	defer func() {
		if _, err := drv.Kill(perfGlobal); err != nil {
			log.Printf("cleanup failed: %v", err)
		}
	}()

	results := make(map[string]gometrics.Timer)
	record := func(name string, timer gometrics.Timer) {
		results[name] = timer
		printResult(name, timer)
	}

	largeValue := strings.Repeat("x", perfValueKB*1024)

	record("set", runBench("set", func(i int) error {
		_, err := drv.Set(perfGlobal, []interface{}{"set", i % perfKeySpread}, "test")
		return err
	}))

	record("set-large", runBench("set-large", func(i int) error {
		_, err := drv.Set(perfGlobal, []interface{}{"large", i % perfKeySpread}, largeValue)
		return err
	}))

	// seed nodes for the read tests
	for i := 0; i < perfKeySpread; i++ {
		if _, err := drv.Set(perfGlobal, []interface{}{"read", i}, "test"); err != nil {
			return fmt.Errorf("failed to seed read nodes: %v", err)
		}
	}

	record("get", runBench("get", func(i int) error {
		_, err := drv.Get(perfGlobal, "read", i%perfKeySpread)
		return err
	}))

	record("get-undef", runBench("get-undef", func(i int) error {
		_, err := drv.Get(perfGlobal, "nope", i%perfKeySpread)
		return err
	}))

	record("data", runBench("data", func(i int) error {
		_, err := drv.Data(perfGlobal, "read", i%perfKeySpread)
		return err
	}))

	record("order", runBench("order", func(i int) error {
		_, err := drv.Order(perfGlobal, "read", i%perfKeySpread)
		return err
	}))

	record("incr", runBench("incr", func(i int) error {
		_, err := drv.Increment(perfGlobal, []interface{}{"ctr", i % perfKeySpread}, nil)
		return err
	}))

	record("mixed", runBench("mixed", func(i int) error {
		var err error
		switch i % 4 {
		case 0:
			_, err = drv.Set(perfGlobal, []interface{}{"mix", i % perfKeySpread}, "test")
		case 1:
			_, err = drv.Get(perfGlobal, "mix", i%perfKeySpread)
		case 2:
			_, err = drv.Data(perfGlobal, "mix", i%perfKeySpread)
		case 3:
			_, err = drv.Increment(perfGlobal, []interface{}{"mixctr"}, nil)
		}
		return err
	}))

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// runBench runs op from perfNumThreads goroutines for perfSeconds and
// records every call in a timer. The returned timer holds the latency
// distribution of the run.
func runBench(name string, op func(i int) error) gometrics.Timer {
	timer := gometrics.NewTimer()
	if shouldSkip(name) {
		return timer
	}

	deadline := time.Now().Add(time.Duration(perfSeconds) * time.Second)
	var wg sync.WaitGroup
	wg.Add(perfNumThreads)

	for t := 0; t < perfNumThreads; t++ {
		go func(offset int) {
			defer wg.Done()
			i := offset
			for time.Now().Before(deadline) {
				start := time.Now()
				if err := op(i); err != nil {
					log.Printf("(%s) - operation failed: %v", name, err)
				}
				timer.UpdateSince(start)
				i += perfNumThreads
			}
		}(t)
	}

	wg.Wait()
	return timer
}

// printResult prints the latency distribution of one benchmark
func printResult(test string, timer gometrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-12sskipped\n", test)
		return
	}

	fmt.Printf("%-12s%8d ops\t%8.0f ops/sec\tp50 %v\tp95 %v\tp99 %v\n",
		test,
		timer.Count(),
		timer.RateMean(),
		time.Duration(timer.Percentile(0.5)),
		time.Duration(timer.Percentile(0.95)),
		time.Duration(timer.Percentile(0.99)),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]gometrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Count", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "Skipped",
		"Endpoint", "TimeoutSec", "Serializer", "Transport", "Compression",
		"Threads", "Keys", "Seconds", "LargeValueSizeKB",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.RateMean()),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", timer.Percentile(0.5)),
			fmt.Sprintf("%.0f", timer.Percentile(0.95)),
			fmt.Sprintf("%.0f", timer.Percentile(0.99)),
			strconv.FormatBool(timer.Count() == 0),
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			config.Serializer,
			viper.GetString("transport"),
			strconv.FormatBool(config.Compression),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(perfSeconds),
			strconv.Itoa(perfValueKB),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
