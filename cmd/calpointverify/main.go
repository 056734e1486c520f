// Command calpointverify verifies calpoint proofs from the command line.
//
// It accepts proofs in any wire form (JSON-LD documents, or the binary
// form as base64/hex text) and checks each embedded anchor against a
// single trusted endpoint. With -offline it only evaluates the proofs,
// flattening them into per-anchor records without any network access.
//
// Usage:
//
//	calpointverify [flags] <proof-file> [proof-file...]
//
// Examples:
//
//	# Verify against a discovered node
//	calpointverify proof.json
//
//	# Verify against a specific trusted node
//	calpointverify -trusted http://node.example.com proof.json
//
//	# Offline evaluation with JSON output
//	calpointverify -offline -format json proof.chp
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"calpoint/internal/config"
	"calpoint/internal/logging"
	"calpoint/internal/store"
	"calpoint/pkg/client"
	"calpoint/pkg/proof"
)

var (
	// Version information (set at build time)
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "configuration file (TOML/YAML/JSON)")
	trusted := flag.String("trusted", "", "trusted endpoint URI (default: one discovered node)")
	formatStr := flag.String("format", "text", "output format: text, json")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall verification timeout")
	offline := flag.Bool("offline", false, "evaluate only, no network access")
	quiet := flag.Bool("quiet", false, "quiet mode - only exit code")
	versionFlag := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "calpointverify - Verify calpoint timestamp proofs\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <proof-file> [proof-file...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Reads proofs from files, or from stdin when no files are given.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag {
		fmt.Printf("calpointverify %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Component: "calpointverify",
	})

	proofs, err := loadProofs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading proofs: %v\n", err)
		os.Exit(1)
	}

	clientCfg := client.Config{
		SeedDomain:    cfg.SeedDomain,
		NodeURIs:      cfg.NodeURIs,
		Timeout:       cfg.Timeout(),
		MaxConcurrent: cfg.MaxConcurrent,
		Logger:        logger,
	}
	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		clientCfg.Store = st
	}
	c := client.New(clientCfg)

	var records []proof.FlatProofAnchor
	if *offline {
		records, err = c.Evaluate(proofs)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		records, err = c.Verify(ctx, proofs, *trusted)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		if err := printRecords(os.Stdout, records, *formatStr, *offline); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !*offline {
		for _, r := range records {
			if !r.Verified {
				os.Exit(1)
			}
		}
	}
}

// loadProofs reads proof material from the given files, or stdin when no
// files are named. Each file holds one proof in any wire form.
func loadProofs(paths []string) ([]any, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []any{strings.TrimSpace(string(data))}, nil
	}

	proofs := make([]any, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if json.Valid(data) {
			proofs = append(proofs, string(data))
		} else {
			proofs = append(proofs, strings.TrimSpace(string(data)))
		}
	}
	return proofs, nil
}

func printRecords(w io.Writer, records []proof.FlatProofAnchor, format string, offline bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "text":
		for _, r := range records {
			status := "-"
			if !offline {
				if r.Verified {
					status = "VERIFIED"
				} else {
					status = "FAILED"
				}
			}
			branch := r.Branch
			if branch == "" {
				branch = "(unlabeled)"
			}
			fmt.Fprintf(w, "%-9s %-5s anchor=%-12s branch=%-20s hash=%s\n",
				status, r.Type, r.AnchorID, branch, r.Hash)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
