// Package sheets reads boarding rows from a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// Source implements pipeline.Source over the Sheets v4 values API. The
// credentials are a service-account JSON key.
type Source struct {
	SpreadsheetID string

	// clientOptions replace the credential-derived options when set.
	clientOptions []option.ClientOption
}

// NewSource returns a Source for the given spreadsheet.
func NewSource(spreadsheetID string) *Source {
	return &Source{SpreadsheetID: spreadsheetID}
}

// Fetch reads rangeID with formatted values. A key that cannot be parsed and
// a 401 from the API are authentication errors; every other failure is a
// fetch error.
func (s *Source) Fetch(ctx context.Context, creds domain.Credentials, rangeID string) ([]domain.RawRow, error) {
	opts, err := s.options(ctx, creds)
	if err != nil {
		return nil, &domain.AuthenticationError{Err: err}
	}

	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, &domain.AuthenticationError{Err: fmt.Errorf("create sheets client: %w", err)}
	}

	resp, err := srv.Spreadsheets.Values.Get(s.SpreadsheetID, rangeID).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return nil, &domain.AuthenticationError{Err: err}
		}
		return nil, &domain.FetchError{Range: rangeID, Err: err}
	}

	return toRows(resp.Values), nil
}

func (s *Source) options(ctx context.Context, creds domain.Credentials) ([]option.ClientOption, error) {
	if len(creds) == 0 {
		return nil, errors.New("service account key is empty")
	}
	gcreds, err := google.CredentialsFromJSON(ctx, creds, sheetsapi.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	if len(s.clientOptions) > 0 {
		return s.clientOptions, nil
	}
	return []option.ClientOption{option.WithCredentials(gcreds)}, nil
}

func toRows(values [][]interface{}) []domain.RawRow {
	rows := make([]domain.RawRow, 0, len(values))
	for i, cells := range values {
		fields := make([]string, len(cells))
		for j, v := range cells {
			if v == nil {
				continue
			}
			fields[j] = fmt.Sprint(v)
		}
		rows = append(rows, domain.RawRow{Line: i + 1, Fields: fields})
	}
	return rows
}
