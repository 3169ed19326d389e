package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/simonhull/audiotag"
)

// Useful test tool to confirm where each tag sits and what we decoded from it.
func main() {
	verbose := flag.Bool("v", false, "dump decoded tag structures")
	strict := flag.Bool("strict", false, "fail on damaged tags")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		info := audiotag.GetVersionInfo()
		fmt.Printf("tag-dump %s (%s, %s)\n", info.Version, info.GitCommit, info.GoVersion)
		return
	}
	if flag.NArg() < 1 {
		fmt.Println("Usage: tag-dump [-v] [-strict] <file>...")
		os.Exit(1)
	}

	var opts []audiotag.Option
	if *strict {
		opts = append(opts, audiotag.WithStrictParsing())
	}

	status := 0
	for _, path := range flag.Args() {
		if err := dump(path, *verbose, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			status = 1
		}
	}
	os.Exit(status)
}

func dump(path string, verbose bool, opts []audiotag.Option) error {
	file, err := audiotag.Open(path, opts...)
	if err != nil {
		return err
	}
	defer file.Close()

	start, end := file.AudioRange()
	fmt.Printf("%s (size: %d, audio: [%d, %d))\n", path, file.Size, start, end)

	cfg := spew.ConfigState{Indent: "    ", DisablePointerAddresses: true, MaxDepth: 4}
	for _, t := range file.Tags {
		fmt.Printf("  %s\n", t)
		if fields := audiotag.FieldsOf(t.Tag); fields != nil {
			for key, values := range fields.All() {
				fmt.Printf("    %s: %q\n", key, values)
			}
		}
		if verbose {
			cfg.Fdump(os.Stdout, t.Tag)
		}
	}
	for _, w := range file.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}
