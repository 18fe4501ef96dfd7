// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"io"
	"sort"

	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// ScansFor returns the rows of one user in insertion order
func (s *Service) ScansFor(ctx context.Context, username string) ([]models.Scan, error) {
	scans, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, err
	}
	return store.FilterByUser(scans, username), nil
}

// AllScans returns every row, or one user's rows when filter is set
func (s *Service) AllScans(ctx context.Context, filter string) ([]models.Scan, error) {
	if filter != "" {
		return s.ScansFor(ctx, filter)
	}
	return s.ledger.Load(ctx)
}

// AggregateCounts summarises the ledger. Today compares each row's date
// with the current date, both in the civil timezone; rows whose timestamp
// cannot be parsed are not counted as today.
func (s *Service) AggregateCounts(ctx context.Context) (models.Summary, error) {
	scans, err := s.ledger.Load(ctx)
	if err != nil {
		return models.Summary{}, err
	}

	loc := s.cfg.Location
	ty, tm, td := s.cfg.Now().In(loc).Date()

	counts := make(map[string]int)
	today := 0
	for _, scan := range scans {
		counts[scan.Username]++
		if t, ok := scan.Time(loc); ok {
			y, m, d := t.Date()
			if y == ty && m == tm && d == td {
				today++
			}
		}
	}

	perUser := make([]models.UserCount, 0, len(counts))
	for name, n := range counts {
		perUser = append(perUser, models.UserCount{Username: name, Count: n})
	}
	sort.Slice(perUser, func(i, j int) bool {
		if perUser[i].Count != perUser[j].Count {
			return perUser[i].Count > perUser[j].Count
		}
		return perUser[i].Username < perUser[j].Username
	})

	return models.Summary{
		Total:       len(scans),
		ActiveUsers: len(counts),
		Today:       today,
		PerUser:     perUser,
		Timezone:    loc.String(),
	}, nil
}

// UsersWithScans returns the sorted distinct usernames present in the ledger
func (s *Service) UsersWithScans(ctx context.Context) ([]string, error) {
	scans, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	names := []string{}
	for _, scan := range scans {
		if !seen[scan.Username] {
			seen[scan.Username] = true
			names = append(names, scan.Username)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ExportCSV writes rows in the ledger format
func (s *Service) ExportCSV(w io.Writer, rows []models.Scan) error {
	return store.EncodeCSV(w, rows)
}

// ExportFilename names a download: scans_<username>.csv, or scans_all.csv
// when username is empty
func ExportFilename(username string) string {
	if username == "" {
		return "scans_all.csv"
	}
	return "scans_" + username + ".csv"
}
