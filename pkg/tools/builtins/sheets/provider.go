// Package sheets provides the save_to_sheets tool, which exports a list of
// activities to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/registry"
)

const (
	// DefaultTitle names spreadsheets created by the tool.
	DefaultTitle = "Activity Ideas"

	writeRange = "Sheet1!A1"
)

// Header is the first row written to every export.
var Header = []string{"Name", "Location", "Description", "Price", "Opening Hours", "Category", "URL"}

var rowKeys = []string{"name", "location", "description", "price", "opening_hours", "category", "url"}

// Config controls the sheets tool.
type Config struct {
	// Enabled turns the export on. Disabled exports fail with an error result.
	Enabled bool

	// CredentialsFile is a service account or authorized user JSON file.
	CredentialsFile string

	// Endpoint overrides the API base URL.
	Endpoint string

	// HTTPClient, when set, is used as-is and bypasses credential loading.
	HTTPClient *http.Client
}

// Result is the save_to_sheets response.
type Result struct {
	SpreadsheetID  string `json:"spreadsheet_id"`
	SpreadsheetURL string `json:"spreadsheet_url"`
	RowsUpdated    int64  `json:"rows_updated"`
}

// Provider contributes save_to_sheets.
type Provider struct {
	cfg Config

	mu  sync.Mutex
	svc *gsheets.Service
}

var _ registry.Provider = (*Provider)(nil)

// New creates the sheets provider. The API client is built on first use.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "sheets" }

// Tools returns the save_to_sheets descriptor.
func (p *Provider) Tools() []tools.Descriptor {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return []tools.Descriptor{{
		Name:        string(tools.SaveToSheets),
		DisplayName: tools.DefaultDisplayNames[string(tools.SaveToSheets)],
		Description: "Save a list of activities to a Google Sheet. Creates a new sheet if spreadsheet_id is not provided.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"activities": map[string]any{
					"type":        "array",
					"description": "List of activity objects to save",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":          str("Activity name"),
							"location":      str("Activity location"),
							"description":   str("Activity description"),
							"price":         str("Price information"),
							"opening_hours": str("Opening hours"),
							"category":      str("Activity category"),
							"url":           str("URL for more information"),
						},
					},
				},
				"spreadsheet_id": str("Optional existing spreadsheet ID"),
			},
			"required": []string{"activities"},
		},
		Required: []string{"activities"},
		Func:     p.execute,
	}}
}

// Routes returns nil.
func (p *Provider) Routes() []registry.Route { return nil }

// Collectors returns nil.
func (p *Provider) Collectors() []prometheus.Collector { return nil }

// Close is a no-op.
func (p *Provider) Close() error { return nil }

// Rows renders the header plus one row per activity. Missing fields become
// empty cells.
func Rows(activities []map[string]any) [][]any {
	rows := make([][]any, 0, len(activities)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)

	for _, a := range activities {
		row := make([]any, len(rowKeys))
		for i, k := range rowKeys {
			row[i] = cell(a[k])
		}
		rows = append(rows, row)
	}
	return rows
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Save writes activities to spreadsheetID, creating a new spreadsheet when
// the id is empty.
func (p *Provider) Save(ctx context.Context, activities []map[string]any, spreadsheetID string) (Result, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return Result{}, err
	}

	if spreadsheetID == "" {
		created, err := svc.Spreadsheets.Create(&gsheets.Spreadsheet{
			Properties: &gsheets.SpreadsheetProperties{Title: DefaultTitle},
		}).Fields("spreadsheetId").Context(ctx).Do()
		if err != nil {
			return Result{}, fmt.Errorf("creating spreadsheet: %w", err)
		}
		spreadsheetID = created.SpreadsheetId
	}

	resp, err := svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, &gsheets.ValueRange{
		Values: Rows(activities),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("writing values: %w", err)
	}

	return Result{
		SpreadsheetID:  spreadsheetID,
		SpreadsheetURL: "https://docs.google.com/spreadsheets/d/" + spreadsheetID,
		RowsUpdated:    resp.UpdatedCells,
	}, nil
}

func (p *Provider) service(ctx context.Context) (*gsheets.Service, error) {
	if !p.cfg.Enabled {
		return nil, errors.New("Google Sheets export is not enabled")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.svc != nil {
		return p.svc, nil
	}

	var opts []option.ClientOption
	switch {
	case p.cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(p.cfg.HTTPClient))
	case p.cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(p.cfg.CredentialsFile), option.WithScopes(gsheets.SpreadsheetsScope))
	default:
		return nil, errors.New("Google Sheets credentials file not configured")
	}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	p.svc = svc
	return svc, nil
}

func (p *Provider) execute(ctx context.Context, args tools.Args) (any, error) {
	res, err := p.Save(ctx, args.Objects("activities"), args.String("spreadsheet_id"))
	if err != nil {
		return map[string]any{
			"error":           "An error occurred: " + err.Error(),
			"spreadsheet_id":  nil,
			"spreadsheet_url": nil,
		}, nil
	}
	return res, nil
}
