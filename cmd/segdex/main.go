// Command segdex is a small command-line front end over an index.Index,
// grounded on the examples' habit of a single flag.FlagSet-per-subcommand
// binary rather than a cobra tree: create, add, query, label, unlabel,
// dumpinfo, and delete.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/segdex/segdex/internal/index"
	"github.com/segdex/segdex/internal/segment"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  segdex create [-base path] [-capacity bytes]\n")
	fmt.Fprintf(os.Stderr, "  segdex add [-base path]   (reads whitespace-separated terms from stdin)\n")
	fmt.Fprintf(os.Stderr, "  segdex query [-base path] [-max n] <term>\n")
	fmt.Fprintf(os.Stderr, "  segdex label [-base path] <label> <docid>\n")
	fmt.Fprintf(os.Stderr, "  segdex unlabel [-base path] <label> <docid>\n")
	fmt.Fprintf(os.Stderr, "  segdex dumpinfo [-base path]\n")
	fmt.Fprintf(os.Stderr, "  segdex delete [-base path]\n")
	os.Exit(1)
}

// defaultBase mirrors the teacher's configFile: a per-user directory under
// $CONFIG_DIR, falling back to .segdex under the user's home directory,
// unless the caller overrides it with -base.
func defaultBase() string {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		dir = filepath.Join(home, ".segdex")
	}
	return filepath.Join(dir, "index_")
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	action := os.Args[1]
	args := os.Args[2:]

	switch action {
	case "create":
		runCreate(args)
	case "add":
		runAdd(args)
	case "query":
		runQuery(args)
	case "label":
		runRelabel(args, true)
	case "unlabel":
		runRelabel(args, false)
	case "dumpinfo":
		runDumpInfo(args)
	case "delete":
		runDelete(args)
	default:
		fmt.Fprintf(os.Stderr, "segdex: unknown action %q\n", action)
		usage()
	}
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	capacity := fs.Uint64("capacity", segment.DefaultCapacityBytes, "segment capacity in bytes")
	fs.Parse(args)

	idx, err := index.Create(*base, index.WithSegmentCapacityBytes(*capacity))
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: create: %v\n", err)
		os.Exit(1)
	}
	defer idx.Free()

	fmt.Printf("created index at %s\n", *base)
}

// runAdd reads one entry's terms as whitespace-separated words from
// stdin, one position per occurrence in the stream, and adds it as a
// single entry.
func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	fs.Parse(args)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanWords)
	var terms []string
	for scanner.Scan() {
		terms = append(terms, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "segdex: add: reading stdin: %v\n", err)
		os.Exit(1)
	}
	if len(terms) == 0 {
		usage()
	}

	idx, err := index.Load(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: add: %v\n", err)
		os.Exit(1)
	}
	defer idx.Free()

	docID, err := idx.AddEntry(entryFromTerms(terms))
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: add: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("added doc %d\n", docID)
}

func entryFromTerms(terms []string) segment.Entry {
	positions := map[string][]uint32{}
	order := make([]string, 0, len(terms))
	for i, term := range terms {
		if _, seen := positions[term]; !seen {
			order = append(order, term)
		}
		positions[term] = append(positions[term], uint32(i))
	}

	entry := segment.Entry{}
	for _, term := range order {
		entry.Tokens = append(entry.Tokens, segment.Token{Term: term, Positions: positions[term]})
	}
	return entry
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	max := fs.Int("max", 10, "maximum results per batch")
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
	}
	term := fs.Arg(0)

	idx, err := index.Load(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: query: %v\n", err)
		os.Exit(1)
	}
	defer idx.Free()

	q := index.NewQuery(term)
	idx.SetupQuery(q)
	defer idx.TeardownQuery(q)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		results, err := idx.RunQuery(q, *max)
		if err != nil {
			fmt.Fprintf(os.Stderr, "segdex: query: %v\n", err)
			os.Exit(1)
		}
		for _, docID := range results {
			fmt.Fprintln(out, docID)
		}
		if len(results) < *max {
			break
		}
	}
}

func runRelabel(args []string, add bool) {
	name := "unlabel"
	if add {
		name = "label"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	fs.Parse(args)

	if fs.NArg() != 2 {
		usage()
	}
	label := fs.Arg(0)
	docID, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: %s: invalid doc id %q: %v\n", name, fs.Arg(1), err)
		os.Exit(1)
	}

	idx, err := index.Load(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: %s: %v\n", name, err)
		os.Exit(1)
	}
	defer idx.Free()

	if add {
		err = idx.AddLabel(label, docID)
	} else {
		err = idx.RemoveLabel(label, docID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: %s: %v\n", name, err)
		os.Exit(1)
	}
}

func runDumpInfo(args []string) {
	fs := flag.NewFlagSet("dumpinfo", flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	fs.Parse(args)

	idx, err := index.Load(*base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segdex: dumpinfo: %v\n", err)
		os.Exit(1)
	}
	defer idx.Free()

	if err := idx.DumpInfo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "segdex: dumpinfo: %v\n", err)
		os.Exit(1)
	}
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	base := fs.String("base", defaultBase(), "index base path")
	force := fs.Bool("force", false, "skip confirmation prompt")
	fs.Parse(args)

	if !*force {
		fmt.Printf("delete index at %s? [y/N] ", *base)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return
		}
	}

	if err := index.Delete(*base); err != nil {
		fmt.Fprintf(os.Stderr, "segdex: delete: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("deleted")
}
