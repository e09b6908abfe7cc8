package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  preview    Edit markdown with a live preview in the browser")
	fmt.Fprintln(w, "  render     Render markdown to preview HTML")
	fmt.Fprintln(w, "  convert    Convert a markdown file to DOCX")
	fmt.Fprintln(w, "  doctor     Check the conversion backend and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2docx help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printBackendUsage(w io.Writer) {
	fmt.Fprintln(w, "Backend:")
	fmt.Fprintln(w, "  -b, --backend <url>       Conversion endpoint (default: "+defaultBackendHelp+")")
	fmt.Fprintln(w, "  -t, --timeout <d>         Request timeout, e.g. 30s (default: none)")
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx preview [file] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve an editor with a live preview. Edits are rendered after a")
	fmt.Fprintln(w, "short pause; the Convert button saves a DOCX through the backend.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  file    Markdown file to load (optional)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: "+defaultAddrHelp+")")
	fmt.Fprintln(w, "  -w, --watch               Reload when the file changes on disk")
	fmt.Fprintln(w, "      --highlight <style>   Code highlight style")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding styles/ and templates/")
	fmt.Fprintln(w)
	printBackendUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx render <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render markdown the way the preview does and write the HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  file    Markdown file, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default: stdout)")
	fmt.Fprintln(w, "  -p, --page                Write the full page instead of the fragment")
	fmt.Fprintln(w, "      --highlight <style>   Code highlight style")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding styles/ and templates/")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx convert <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Send a markdown file to the conversion backend and save the DOCX.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  file    Markdown file, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: current)")
	fmt.Fprintln(w, "  -n, --name <file>         Output file name (default: document.docx)")
	fmt.Fprintln(w, "  -y, --yes                 Overwrite an existing file")
	fmt.Fprintln(w)
	printBackendUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2docx doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the conversion backend, configuration and environment.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output JSON")
	fmt.Fprintln(w)
	printBackendUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "preview":
		printPreviewUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2docx version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2docx help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
