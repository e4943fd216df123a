// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/rhollenbeck/tenbit/asm"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose tracing")
	flag.Parse()

	basenames := flag.Args()
	if len(basenames) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tenbit [-v] file1 [file2 ...]")
		os.Exit(1)
	}

	var wg sync.WaitGroup
	failed := make([]bool, len(basenames))

	for i, base := range basenames {
		wg.Add(1)
		go func(i int, base string) {
			defer wg.Done()
			failed[i] = !assembleOne(base, *verbose)
		}(i, base)
	}
	wg.Wait()

	for _, f := range failed {
		if f {
			os.Exit(1)
		}
	}
}

// assembleOne runs the full pipeline for "<base>.as" and persists its
// output files. It returns false if assembly failed, having already
// written diagnostics to stderr.
func assembleOne(base string, verbose bool) bool {
	srcPath := base + ".as"
	src, err := os.Open(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", base, err)
		return false
	}
	defer src.Close()

	intermediate, res, err := asm.Assemble(base, src, verbose)
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", base, err)
		return false
	}

	if werr := os.WriteFile(base+".am", intermediate, 0o644); werr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", base, werr)
		return false
	}
	if werr := os.WriteFile(base+".ob", res.Object, 0o644); werr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", base, werr)
		return false
	}
	if res.Entries != nil {
		if werr := os.WriteFile(base+".ent", res.Entries, 0o644); werr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", base, werr)
			return false
		}
	}
	if res.Externs != nil {
		if werr := os.WriteFile(base+".ext", res.Externs, 0o644); werr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", base, werr)
			return false
		}
	}

	fmt.Printf("%s: assembled successfully\n", base)
	return true
}
