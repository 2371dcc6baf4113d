package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(adminURL(*baseURL, "/admin/v1/state"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	os.Exit(printResponse(resp))
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Post(adminURL(*baseURL, "/admin/v1/snapshot"), "application/json", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	os.Exit(printResponse(resp))
}

func adminURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}

// printResponse pretty-prints a JSON body and returns the process exit code.
func printResponse(resp *http.Response) int {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	var out bytes.Buffer
	if json.Indent(&out, b, "", "  ") == nil {
		fmt.Println(out.String())
	} else {
		fmt.Println(strings.TrimSpace(string(b)))
	}
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
