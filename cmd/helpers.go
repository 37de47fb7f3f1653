package main

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/consolidador-t25/tarifas-cli/internal/extract"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/remote"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
	"github.com/consolidador-t25/tarifas-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

func newExtractor() *extract.Extractor {
	return extract.New(sheet.NewReader(), extract.Options{
		Timeout:  time.Duration(cfg.Processing.FileTimeoutSecs) * time.Second,
		MaxRows:  cfg.Processing.MaxRows,
		MaxSites: cfg.Processing.MaxSites,
	})
}

func dialRemote(ctx context.Context) (*remote.Client, error) {
	return remote.Dial(ctx, remote.Options{
		Host:         cfg.Remote.Host,
		Port:         cfg.Remote.Port,
		Username:     cfg.Remote.Username,
		Password:     cfg.Remote.Password,
		Timeout:      time.Duration(cfg.Remote.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Remote.MaxRetries,
		OpsPerSecond: cfg.Remote.OpsPerSecond,
	})
}

// loadRoster reads a contract roster CSV: numero,ano[,nit[,razon_social]].
// A header row is skipped when its first field is not numeric-looking.
func loadRoster(path string) ([]model.Contract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open roster %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse roster csv")
	}

	var contracts []model.Contract
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		number := strings.TrimSpace(row[0])
		year := strings.TrimSpace(row[1])
		if number == "" || year == "" {
			continue
		}
		if i == 0 && !isDigits(number) {
			continue // header row
		}
		c := model.Contract{Number: number, Year: year}
		if len(row) > 2 {
			c.NIT = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			c.Provider = strings.TrimSpace(row[3])
		}
		contracts = append(contracts, c)
	}
	if len(contracts) == 0 {
		return nil, eris.Errorf("roster %s has no contracts", path)
	}
	return contracts, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
