package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/suitecrm-client/internal/client"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// CreateClient builds a client from the CLI configuration and establishes
// the session.
func CreateClient(ctx context.Context) (*client.Client, error) {
	config, err := buildSuiteCRMConfig(loadConfig(), NewLogger(os.Stderr, viper.GetBool("verbose")))
	if err != nil {
		return nil, err
	}

	crm, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return crm, nil
}

// withClient runs fn with a fresh client and closes it afterwards.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, crm *client.Client) error) error {
	ctx := commandContext(cmd)

	crm, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = crm.Close(ctx)
	}()

	return fn(ctx, crm)
}

// ParseAttributes converts KEY=VALUE arguments into record attributes.
func ParseAttributes(args []string) (map[string]interface{}, error) {
	attributes := make(map[string]interface{}, len(args))

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAttribute, arg)
		}

		attributes[key] = value
	}

	return attributes, nil
}

// BuildQuery builds a module query from FIELD=VALUE filters and the list
// flags.
func BuildQuery(filters, fields []string, sortField string, page, pageSize int) (*suitecrm.Query, error) {
	query := suitecrm.NewQuery()

	for _, filter := range filters {
		field, value, ok := strings.Cut(filter, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, filter)
		}

		query.Where(field, value)
	}

	if len(fields) > 0 {
		query.WithFields(fields...)
	}

	if sortField != "" {
		query.SortBy(sortField)
	}

	if page > 0 || pageSize > 0 {
		query.WithPage(page, pageSize)
	}

	return query, nil
}

func outputFormat() (string, error) {
	output := viper.GetString("output")

	switch output {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, output)
	}
}

// renderOutput writes value as JSON or YAML, or calls table for table output.
func renderOutput(w io.Writer, value interface{}, table func(io.Writer) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err = encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		err = yaml.NewEncoder(w).Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return nil
	default:
		return table(w)
	}
}

func renderRecord(w io.Writer, record *suitecrm.Record) error {
	return renderOutput(w, record, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"ID", record.ID})
		_ = table.Append([]string{"Type", record.Type})

		for _, name := range sortedAttributeNames(record) {
			_ = table.Append([]string{name, record.Attribute(name)})
		}

		return renderTable(table)
	})
}

func renderRecords(w io.Writer, records []suitecrm.Record, fields []string) error {
	return renderOutput(w, records, func(w io.Writer) error {
		columns := fields
		if len(columns) == 0 {
			columns = []string{"name"}
		}

		header := []interface{}{"ID"}
		for _, column := range columns {
			header = append(header, column)
		}

		table := tablewriter.NewWriter(w)
		table.Header(header...)

		for i := range records {
			row := []string{records[i].ID}
			for _, column := range columns {
				row = append(row, records[i].Attribute(column))
			}

			_ = table.Append(row)
		}

		return renderTable(table)
	})
}

func renderResult(w io.Writer, result *suitecrm.Result, fields []string) error {
	switch result.Kind {
	case suitecrm.ResultRecord:
		return renderRecord(w, result.Record)
	case suitecrm.ResultList:
		return renderRecords(w, result.Records, fields)
	default:
		return renderDocument(w, result.Document)
	}
}

// documentView is a Document with its raw members decoded for output.
type documentView struct {
	Status int                    `json:"status"           yaml:"status"`
	Data   interface{}            `json:"data,omitempty"   yaml:"data,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"   yaml:"meta,omitempty"`
	Errors interface{}            `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newDocumentView(doc *suitecrm.Document) documentView {
	view := documentView{}
	if doc == nil {
		return view
	}

	view.Status = doc.StatusCode
	view.Meta = doc.Meta

	if len(doc.Data) > 0 {
		_ = json.Unmarshal(doc.Data, &view.Data)
	}

	if len(doc.Errors) > 0 {
		_ = json.Unmarshal(doc.Errors, &view.Errors)
	}

	return view
}

func renderDocument(w io.Writer, doc *suitecrm.Document) error {
	view := newDocumentView(doc)

	return renderOutput(w, view, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Status", fmt.Sprint(view.Status)})

		for _, key := range sortedKeys(view.Meta) {
			_ = table.Append([]string{"meta." + key, fmt.Sprint(view.Meta[key])})
		}

		if view.Data != nil {
			encoded, _ := json.Marshal(view.Data)
			_ = table.Append([]string{"Data", string(encoded)})
		}

		if view.Errors != nil {
			encoded, _ := json.Marshal(view.Errors)
			_ = table.Append([]string{"Errors", string(encoded)})
		}

		return renderTable(table)
	})
}

func renderStrings(w io.Writer, header string, values []string) error {
	return renderOutput(w, values, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header(header)

		for _, value := range values {
			_ = table.Append([]string{value})
		}

		return renderTable(table)
	})
}

func outputActionResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return renderOutput(w, result, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		return renderTable(table)
	})
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func sortedAttributeNames(record *suitecrm.Record) []string {
	return sortedKeys(record.Attributes)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
