// Package main provides the entry point for the fpprobe CLI.
//
// fpprobe drives a headless Chrome through a fixed number of sequential
// iterations against a browser fingerprinting page. Every iteration saves a
// screenshot, a PDF and the verification result of the page, and appends
// its progress to a shared log file.
//
// Usage:
//
//	fpprobe run
//	fpprobe history [run-id]
//
// See --help for all available options.
package main

// main is the entry point for fpprobe.
func main() {
	Execute()
}
