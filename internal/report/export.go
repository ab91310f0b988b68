// Package report renders analysis results for people and machines.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
)

// Format is an output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml (or yml) and text in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json, yaml or text)", s)
	}
}

// FormatFromPath infers the format from an output file name, ignoring a
// trailing compression suffix.
func FormatFromPath(path string) (Format, bool) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".txt":
		return FormatText, true
	}
	return "", false
}

//go:embed schema.json
var analysisSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", bytes.NewReader(analysisSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load analysis schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile analysis schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Encode writes result as JSON or YAML. The JSON form is checked against
// the analysis schema first; on any failure nothing is written and the
// error is a SERIALIZATION PDFError.
func Encode(w io.Writer, result *extraction.AnalysisResult, format Format) error {
	if result == nil {
		return errors.NewPDFError(errors.ErrorTypeSerialization, "nil analysis result")
	}

	data, err := marshalJSON(result)
	if err != nil {
		return errors.WrapError(errors.ErrorTypeSerialization, "failed to encode JSON", err)
	}
	if err := checkSchema(data); err != nil {
		return errors.WrapError(errors.ErrorTypeSerialization, "analysis does not match schema", err)
	}

	if format == FormatYAML {
		if data, err = marshalYAML(result); err != nil {
			return errors.WrapError(errors.ErrorTypeSerialization, "failed to encode YAML", err)
		}
	} else if format != FormatJSON {
		return errors.NewPDFErrorWithContext(errors.ErrorTypeSerialization, "unsupported format", string(format))
	}

	if _, err := w.Write(data); err != nil {
		return errors.WrapError(errors.ErrorTypeSerialization, "failed to write output", err)
	}
	return nil
}

// EncodeSummary writes a link check summary as JSON or YAML.
func EncodeSummary(w io.Writer, summary *pdf.LinkCheckSummary, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = marshalJSON(summary)
	case FormatYAML:
		data, err = marshalYAML(summary)
	default:
		return errors.NewPDFErrorWithContext(errors.ErrorTypeSerialization, "unsupported format", string(format))
	}
	if err != nil {
		return errors.WrapError(errors.ErrorTypeSerialization, "failed to encode summary", err)
	}

	if _, err := w.Write(data); err != nil {
		return errors.WrapError(errors.ErrorTypeSerialization, "failed to write output", err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkSchema(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode JSON for validation: %w", err)
	}
	return schema.Validate(doc)
}

// WriteFile writes data to path, compressing it when the name ends in .gz
// or .zst.
func WriteFile(path string, data []byte) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		w = gzip.NewWriter(file)
	case ".zst":
		zw, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = zw
	default:
		if _, err := file.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return nil
}
