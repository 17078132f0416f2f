package main

import "flag"
import "fmt"
import "os"
import "time"

import humanize "github.com/dustin/go-humanize"
import "github.com/bnclabs/golog"

import "github.com/bnclabs/gomem/mem"

var options struct {
	capacity int64
	backing  string
	count    int
	size     int64
	align    int64
	loglevel string
}

func argParse() {
	flag.Int64Var(&options.capacity, "capacity", 64*1024*1024,
		"size of the arena backing segment, in bytes")
	flag.StringVar(&options.backing, "backing", "native",
		"arena backing, native or heap")
	flag.IntVar(&options.count, "count", 1000000,
		"number of allocations to attempt")
	flag.Int64Var(&options.size, "size", 32,
		"size of each allocation, in bytes")
	flag.Int64Var(&options.align, "align", 8,
		"alignment of each allocation, power of 2")
	flag.StringVar(&options.loglevel, "log", "info",
		"log level")
	flag.Parse()
}

func main() {
	argParse()
	log.SetLogger(nil, map[string]interface{}{
		"log.level": options.loglevel, "log.file": "",
	})
	mem.LogComponents("all")

	setts := mem.Defaultsettings()
	setts["capacity"], setts["backing"] = options.capacity, options.backing
	arena, err := mem.NewArena(setts)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	start, allocated := time.Now(), 0
	for i := 0; i < options.count; i++ {
		if _, err := arena.Allocate(options.size, options.align); err != nil {
			fmt.Printf("allocation %v: %v\n", i, err)
			break
		}
		allocated++
	}
	elapsed := time.Since(start)

	arena.Log()
	sizestr := humanize.Bytes(uint64(options.size))
	fmt.Printf("allocated %v windows of %v in %v\n", allocated, sizestr, elapsed)
	if allocated > 0 {
		fmt.Printf("%v per allocation\n", elapsed/time.Duration(allocated))
	}
	if err := arena.Close(); err != nil {
		fmt.Printf("close: %v\n", err)
		os.Exit(1)
	}
}
