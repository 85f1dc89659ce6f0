package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/itchyny/gojq"
)

// OutputFormat selects how Output renders a result.
type OutputFormat string

const (
	// FormatYAML renders YAML, the default for terminal use.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatTable renders a bordered table; the result must implement Tabler.
	FormatTable OutputFormat = "table"
	// FormatRaw writes strings and byte slices verbatim.
	FormatRaw OutputFormat = "raw"
)

// Tabler lets a result type provide its own table rendering.
type Tabler interface {
	// TableHeader returns the column titles.
	TableHeader() []string
	// TableRows returns one row of cells per item.
	TableRows() [][]string
}

// OutputOptions selects the destination and rendering of a result.
type OutputOptions struct {
	// Format picks the renderer. Empty means FormatYAML.
	Format OutputFormat

	// File writes to this path instead of stdout.
	File string

	// Indent overrides the two-space JSON indentation.
	Indent string

	// Query is a jq expression applied to the result before rendering.
	Query string

	// Writer, when set, takes precedence over File and stdout.
	Writer io.Writer
}

// Output renders result per opts and writes it to the selected destination.
func Output(result any, opts OutputOptions) error {
	if opts.Query != "" {
		filtered, err := applyQuery(result, opts.Query)
		if err != nil {
			return err
		}
		result = filtered
	}

	var w io.Writer
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.File != "":
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	default:
		w = os.Stdout
	}

	switch opts.Format {
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatJSON:
		return outputJSON(w, result, opts.Indent)
	case FormatTable:
		return outputTable(w, result)
	case FormatRaw:
		return outputRaw(w, result)
	}
	return fmt.Errorf("unsupported output format: %s", opts.Format)
}

// applyQuery runs a jq expression over the result. The result is passed
// through JSON so gojq sees plain maps and slices. A query yielding one
// value returns that value; multiple values come back as a slice.
func applyQuery(result any, expr string) (any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq expression: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result for jq: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode result for jq: %w", err)
	}

	var out []any
	iter := q.Run(v)
	for {
		item, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := item.(error); ok {
			return nil, fmt.Errorf("jq: %w", err)
		}
		out = append(out, item)
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

func outputJSON(w io.Writer, result any, indent string) error {
	if indent == "" {
		indent = "  "
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	return enc.Encode(result)
}

func outputYAML(w io.Writer, result any) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func outputTable(w io.Writer, result any) error {
	tb, ok := result.(Tabler)
	if !ok {
		return fmt.Errorf("table output not supported for %T", result)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(tb.TableHeader()...).
		Rows(tb.TableRows()...)
	_, err := fmt.Fprintln(w, t)
	return err
}

func outputRaw(w io.Writer, result any) error {
	var err error
	switch v := result.(type) {
	case []byte:
		_, err = w.Write(v)
	case string:
		_, err = io.WriteString(w, v)
	default:
		err = outputYAML(w, result)
	}
	return err
}

// OutputBytes dumps binary data, such as synthesized audio, to a file.
func OutputBytes(data []byte, path string) error {
	if path == "" {
		return fmt.Errorf("output file path is required for binary data")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Terminal message helpers. Status lines go to stdout, errors and verbose
// chatter to stderr so piped output stays clean.

// PrintSuccess prints a checkmarked status line.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error line to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintInfo prints an informational line.
func PrintInfo(format string, args ...any) {
	fmt.Printf("ℹ "+format+"\n", args...)
}

// PrintWarning prints a warning line.
func PrintWarning(format string, args ...any) {
	fmt.Printf("⚠ "+format+"\n", args...)
}

// PrintVerbose prints to stderr when verbose mode is on.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
