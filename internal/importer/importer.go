package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cartservice/internal/domain"
	"github.com/shopspring/decimal"
)

type PromoWriter interface {
	Upsert(ctx context.Context, promo domain.PromoCode) (*domain.PromoCode, error)
}

// CSVImporter reads promo code exports and inserts or updates them by code.
//
// Expected headers: code, description, discountType, discountValue, active,
// expiryDate, minimumPurchaseAmount. Only code, discountType and
// discountValue are required.
type CSVImporter struct {
	reader *csv.Reader
	promos PromoWriter
}

func NewCSVImporter(r io.Reader, repo PromoWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader: csvr,
		promos: repo,
	}
}

// Run parses CSV rows and upserts one promo code per non-blank row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["code"]; !ok {
		return 0, errors.New("missing code column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		promo, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if promo == nil {
			continue
		}
		if _, err := i.promos.Upsert(ctx, *promo); err != nil {
			return imported, fmt.Errorf("upsert promo %q: %w", promo.Code, err)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.PromoCode, error) {
	code := domain.NormalizeCode(pick(record, index, "code"))
	if code == "" {
		return nil, nil
	}

	discountType := domain.DiscountType(strings.ToUpper(pick(record, index, "discountType")))
	if !discountType.Valid() {
		return nil, fmt.Errorf("code %s: unknown discount type %q", code, discountType)
	}
	value, err := decimal.NewFromString(pick(record, index, "discountValue"))
	if err != nil {
		return nil, fmt.Errorf("code %s: discount value: %w", code, err)
	}

	promo := &domain.PromoCode{
		Code:          code,
		Description:   pick(record, index, "description"),
		DiscountType:  discountType,
		DiscountValue: value,
		Active:        true,
	}

	if v := pick(record, index, "active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("code %s: active: %w", code, err)
		}
		promo.Active = active
	}
	if v := pick(record, index, "expiryDate"); v != "" {
		expiry, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("code %s: expiry date: %w", code, err)
		}
		promo.ExpiryDate = &expiry
	}
	if v := pick(record, index, "minimumPurchaseAmount"); v != "" {
		minimum, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("code %s: minimum purchase amount: %w", code, err)
		}
		promo.MinimumPurchaseAmount = &minimum
	}
	return promo, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates, which expire at the
// end of that day in UTC.
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Nanosecond), nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
