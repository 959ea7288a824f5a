// Command corevm is a thin CLI entry point: it loads a classpath and runs
// one static method to completion, printing its result, matching the
// teacher's own hand-rolled flag-based cmd/jacobin entry point.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"corevm/globals"
	"corevm/types"
	"corevm/vm"
)

func main() {
	cp := flag.String("cp", "", "classpath: a "+string(os.PathListSeparator)+"-separated list of directories and/or jar/zip archives")
	verbose := flag.Bool("verbose", false, "enable trace output")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	class, method, descriptor, err := parseTarget(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "corevm:", err)
		os.Exit(1)
	}

	machine, err := vm.New(*cp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "corevm:", err)
		os.Exit(1)
	}
	globals.SetTraceVerbose(*verbose)

	result, err := machine.Execute(class, method, descriptor, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "corevm:", err)
		os.Exit(1)
	}
	if result.Kind != types.KindReference || result.Ref != 0 {
		fmt.Println(result.String())
	}
}

// parseTarget splits "Class#method#descriptor" into its three parts.
func parseTarget(spec string) (class, method, descriptor string, err error) {
	parts := strings.SplitN(spec, "#", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("target must be Class#method#descriptor, got %q", spec)
	}
	return parts[0], parts[1], parts[2], nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: corevm -cp <classpath> Class#method#descriptor\n")
	flag.PrintDefaults()
}
