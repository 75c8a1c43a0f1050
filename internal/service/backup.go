package service

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/storage"
)

// BackupVersion is the newest archive layout this build can restore.
const BackupVersion = 1

// AppVersion is recorded in backup manifests.
const AppVersion = "1.0.0"

var (
	ErrInvalidBackup     = errors.New("invalid backup")
	ErrUnsupportedBackup = errors.New("unsupported backup version")
)

// Archive entry names.
const (
	manifestEntry       = "manifest.json"
	aircraftEntry       = "data/aircraft.json"
	vendorsEntry        = "data/vendors.json"
	categoriesEntry     = "data/categories.json"
	paymentMethodsEntry = "data/payment-methods.json"
	tripsEntry          = "data/trips.json"
	expensesEntry       = "data/expenses.json"
	lineItemsEntry      = "data/line-items.json"
	receiptsDir         = "receipts/"
)

// Counts is a per-kind tally used by manifests and restore results.
type Counts struct {
	Aircraft       int `json:"aircraft"`
	Vendors        int `json:"vendors"`
	Categories     int `json:"categories"`
	PaymentMethods int `json:"paymentMethods"`
	Trips          int `json:"trips"`
	Expenses       int `json:"expenses"`
	LineItems      int `json:"lineItems"`
	Receipts       int `json:"receipts"`
}

type BackupManifest struct {
	Version    int    `json:"version"`
	AppVersion string `json:"appVersion"`
	CreatedAt  string `json:"createdAt"`
	Counts     Counts `json:"counts"`
}

type BackupAircraft struct {
	ID         string  `json:"id"`
	TailNumber string  `json:"tailNumber"`
	Name       *string `json:"name"`
	Notes      *string `json:"notes"`
	IsActive   bool    `json:"isActive"`
	CreatedAt  string  `json:"createdAt"`
}

type BackupVendor struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Notes     *string `json:"notes"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
}

type BackupCategory struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	IsSystem       bool    `json:"isSystem"`
	IsActive       bool    `json:"isActive"`
	IsFuelCategory bool    `json:"isFuelCategory"`
	IsDefault      bool    `json:"isDefault"`
	Notes          *string `json:"notes"`
	CreatedAt      string  `json:"createdAt"`
}

type BackupPaymentMethod struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Notes     *string `json:"notes"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
}

type BackupTrip struct {
	ID         string  `json:"id"`
	AircraftID *string `json:"aircraftId"`
	TripNumber *string `json:"tripNumber"`
	Name       string  `json:"name"`
	StartDate  string  `json:"startDate"`
	EndDate    *string `json:"endDate"`
	Notes      *string `json:"notes"`
	CreatedAt  string  `json:"createdAt"`
}

// BackupReceipt describes a receipt whose payload is stored in the archive
// as receipts/{Filename}.
type BackupReceipt struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename"`
	StoragePath      string `json:"storagePath"`
}

type BackupExpense struct {
	ID              string          `json:"id"`
	TripID          *string         `json:"tripId"`
	VendorID        *string         `json:"vendorId"`
	PaymentMethodID *string         `json:"paymentMethodId"`
	CategoryID      *string         `json:"categoryId"`
	Date            string          `json:"date"`
	Vendor          string          `json:"vendor"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	PaymentMethod   *string         `json:"paymentMethod"`
	Notes           *string         `json:"notes"`
	CreatedAt       string          `json:"createdAt"`
	Receipts        []BackupReceipt `json:"receipts"`
}

type BackupLineItem struct {
	ID              string              `json:"id"`
	ExpenseID       string              `json:"expenseId"`
	CategoryID      *string             `json:"categoryId"`
	Description     *string             `json:"description"`
	Category        string              `json:"category"`
	Amount          decimal.Decimal     `json:"amount"`
	QuantityGallons decimal.NullDecimal `json:"quantityGallons"`
	SortOrder       *int                `json:"sortOrder"`
	CreatedAt       string              `json:"createdAt"`
}

// BackupData is the entity graph held by an archive.
type BackupData struct {
	Aircraft       []BackupAircraft
	Vendors        []BackupVendor
	Categories     []BackupCategory
	PaymentMethods []BackupPaymentMethod
	Trips          []BackupTrip
	Expenses       []BackupExpense
	LineItems      []BackupLineItem
}

// RestoreResult reports a restore. Skips are normal on a re-run; only
// Errors make it unsuccessful.
type RestoreResult struct {
	Success bool     `json:"success"`
	Created Counts   `json:"created"`
	Skipped Counts   `json:"skipped"`
	Errors  []string `json:"errors"`
}

// BackupService produces and restores full ledger archives.
type BackupService struct {
	Aircraft       *repository.AircraftRepo
	Vendors        *repository.VendorRepo
	Categories     *repository.CategoryRepo
	PaymentMethods *repository.PaymentMethodRepo
	Trips          *repository.TripRepo
	Expenses       *repository.ExpenseRepo
	LineItems      *repository.LineItemRepo
	Receipts       *repository.ReceiptRepo
	Blobs          storage.Store
	Logger         *log.Logger
	Now            func() time.Time
}

func NewBackupService(db *sql.DB, blobs storage.Store, logger *log.Logger) *BackupService {
	return &BackupService{
		Aircraft:       repository.NewAircraftRepo(db),
		Vendors:        repository.NewVendorRepo(db),
		Categories:     repository.NewCategoryRepo(db),
		PaymentMethods: repository.NewPaymentMethodRepo(db),
		Trips:          repository.NewTripRepo(db),
		Expenses:       repository.NewExpenseRepo(db),
		LineItems:      repository.NewLineItemRepo(db),
		Receipts:       repository.NewReceiptRepo(db),
		Blobs:          blobs,
		Logger:         logger,
	}
}

func (s *BackupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Snapshot reads every non-deleted entity into backup records.
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	d := &BackupData{}

	aircraft, err := s.Aircraft.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aircraft: %w", err)
	}
	for _, a := range aircraft {
		d.Aircraft = append(d.Aircraft, BackupAircraft{ID: a.ID, TailNumber: a.TailNumber, Name: a.Name, Notes: a.Notes, IsActive: a.IsActive, CreatedAt: a.CreatedAt})
	}
	vendors, err := s.Vendors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	for _, v := range vendors {
		d.Vendors = append(d.Vendors, BackupVendor{ID: v.ID, Name: v.Name, Notes: v.Notes, IsActive: v.IsActive, CreatedAt: v.CreatedAt})
	}
	categories, err := s.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		d.Categories = append(d.Categories, BackupCategory{
			ID: c.ID, Name: c.Name, IsSystem: c.IsSystem, IsActive: c.IsActive,
			IsFuelCategory: c.IsFuelCategory, IsDefault: c.IsDefault, Notes: c.Notes, CreatedAt: c.CreatedAt,
		})
	}
	methods, err := s.PaymentMethods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	for _, p := range methods {
		d.PaymentMethods = append(d.PaymentMethods, BackupPaymentMethod{ID: p.ID, Name: p.Name, Notes: p.Notes, IsActive: p.IsActive, CreatedAt: p.CreatedAt})
	}
	trips, err := s.Trips.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	for _, t := range trips {
		d.Trips = append(d.Trips, BackupTrip{
			ID: t.ID, AircraftID: t.AircraftID, TripNumber: t.TripNumber, Name: t.Name,
			StartDate: t.StartDate, EndDate: t.EndDate, Notes: t.Notes, CreatedAt: t.CreatedAt,
		})
	}

	receipts, err := s.Receipts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	byExpense := make(map[string][]repository.Receipt)
	for _, r := range receipts {
		byExpense[r.ExpenseID] = append(byExpense[r.ExpenseID], r)
	}

	expenses, err := s.Expenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	exported := make(map[string]bool, len(expenses))
	for _, e := range expenses {
		exported[e.ID] = true
		be := BackupExpense{
			ID: e.ID, TripID: e.TripID, VendorID: e.VendorID, PaymentMethodID: e.PaymentMethodID,
			CategoryID: e.CategoryID, Date: e.Date, Vendor: e.Vendor, Amount: e.Amount, Category: e.Category,
			PaymentMethod: e.PaymentMethod, Notes: e.Notes, CreatedAt: e.CreatedAt,
			Receipts: []BackupReceipt{},
		}
		for _, r := range byExpense[e.ID] {
			ext := path.Ext(r.StoragePath)
			original := "receipt" + ext
			if r.OriginalFilename != nil {
				original = *r.OriginalFilename
			}
			be.Receipts = append(be.Receipts, BackupReceipt{
				ID:               r.ID,
				Filename:         r.ID + ext,
				OriginalFilename: original,
				StoragePath:      r.StoragePath,
			})
		}
		d.Expenses = append(d.Expenses, be)
	}

	items, err := s.LineItems.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	for _, li := range items {
		if !exported[li.ExpenseID] {
			continue
		}
		d.LineItems = append(d.LineItems, BackupLineItem{
			ID: li.ID, ExpenseID: li.ExpenseID, CategoryID: li.CategoryID, Description: li.Description,
			Category: li.Category, Amount: li.Amount, QuantityGallons: li.QuantityGallons,
			SortOrder: li.SortOrder, CreatedAt: li.CreatedAt,
		})
	}
	return d, nil
}

func (d *BackupData) counts() Counts {
	c := Counts{
		Aircraft:       len(d.Aircraft),
		Vendors:        len(d.Vendors),
		Categories:     len(d.Categories),
		PaymentMethods: len(d.PaymentMethods),
		Trips:          len(d.Trips),
		Expenses:       len(d.Expenses),
		LineItems:      len(d.LineItems),
	}
	for _, e := range d.Expenses {
		c.Receipts += len(e.Receipts)
	}
	return c
}

// emptyIfNil keeps empty kinds as [] rather than null in the archive.
func emptyIfNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Generate writes a backup archive of the whole ledger. Receipts whose
// blob cannot be downloaded are left out of the archive.
func (s *BackupService) Generate(ctx context.Context) ([]byte, error) {
	logger := orDiscard(s.Logger)
	d, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	manifest := BackupManifest{
		Version:    BackupVersion,
		AppVersion: AppVersion,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
		Counts:     d.counts(),
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		v    any
	}{
		{manifestEntry, manifest},
		{aircraftEntry, emptyIfNil(d.Aircraft)},
		{vendorsEntry, emptyIfNil(d.Vendors)},
		{categoriesEntry, emptyIfNil(d.Categories)},
		{paymentMethodsEntry, emptyIfNil(d.PaymentMethods)},
		{tripsEntry, emptyIfNil(d.Trips)},
		{expensesEntry, emptyIfNil(d.Expenses)},
		{lineItemsEntry, emptyIfNil(d.LineItems)},
	}
	for _, e := range entries {
		body, err := json.MarshalIndent(e.v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.name, err)
		}
		if err := writeEntry(zw, e.name, body); err != nil {
			return nil, err
		}
	}

	for _, e := range d.Expenses {
		for _, r := range e.Receipts {
			data, err := s.Blobs.Download(ctx, r.StoragePath)
			if err != nil {
				logger.Warn("receipt left out of backup", "receipt", r.ID, "path", r.StoragePath, "err", err)
				continue
			}
			if err := writeEntry(zw, receiptsDir+r.Filename, data); err != nil {
				return nil, err
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	logger.Info("backup generated", "expenses", manifest.Counts.Expenses, "receipts", manifest.Counts.Receipts)
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, body []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// entrySet indexes the entries of a backup zip by name.
type entrySet map[string]*zip.File

func (a entrySet) read(name string) ([]byte, bool, error) {
	f, ok := a[name]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, true, err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	return body, true, err
}

func readJSON[T any](a entrySet, name string) ([]T, error) {
	body, ok, err := a.read(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidBackup, name, err)
	}
	if !ok {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidBackup, name, err)
	}
	return out, nil
}

// ReadBackup validates the manifest and decodes the entity arrays. A missing
// data file reads as an empty kind.
func ReadBackup(data []byte) (*BackupManifest, *BackupData, entrySet, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	a := make(entrySet, len(zr.File))
	for _, f := range zr.File {
		a[f.Name] = f
	}

	body, ok, err := a.read(manifestEntry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: read manifest: %v", ErrInvalidBackup, err)
	}
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: missing %s", ErrInvalidBackup, manifestEntry)
	}
	var m BackupManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: decode manifest: %v", ErrInvalidBackup, err)
	}
	if m.Version > BackupVersion {
		return nil, nil, nil, fmt.Errorf("%w: backup version %d is newer than supported version %d", ErrUnsupportedBackup, m.Version, BackupVersion)
	}

	d := &BackupData{}
	if d.Aircraft, err = readJSON[BackupAircraft](a, aircraftEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.Vendors, err = readJSON[BackupVendor](a, vendorsEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.Categories, err = readJSON[BackupCategory](a, categoriesEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.PaymentMethods, err = readJSON[BackupPaymentMethod](a, paymentMethodsEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.Trips, err = readJSON[BackupTrip](a, tripsEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.Expenses, err = readJSON[BackupExpense](a, expensesEntry); err != nil {
		return nil, nil, nil, err
	}
	if d.LineItems, err = readJSON[BackupLineItem](a, lineItemsEntry); err != nil {
		return nil, nil, nil, err
	}
	return &m, d, a, nil
}

type liveIDs struct {
	aircraft, vendors, categories, paymentMethods, trips, expenses, lineItems, receipts map[string]struct{}
}

func (s *BackupService) liveIDs(ctx context.Context) (liveIDs, error) {
	var (
		ids liveIDs
		err error
	)
	sets := []struct {
		name string
		dst  *map[string]struct{}
		load func(context.Context) (map[string]struct{}, error)
	}{
		{"aircraft", &ids.aircraft, s.Aircraft.IDs},
		{"vendors", &ids.vendors, s.Vendors.IDs},
		{"categories", &ids.categories, s.Categories.IDs},
		{"payment methods", &ids.paymentMethods, s.PaymentMethods.IDs},
		{"trips", &ids.trips, s.Trips.IDs},
		{"expenses", &ids.expenses, s.Expenses.IDs},
		{"line items", &ids.lineItems, s.LineItems.IDs},
		{"receipts", &ids.receipts, s.Receipts.IDs},
	}
	for _, set := range sets {
		if *set.dst, err = set.load(ctx); err != nil {
			return ids, fmt.Errorf("read %s ids: %w", set.name, err)
		}
	}
	return ids, nil
}

func has(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

// restoreEach inserts every record whose id is not live yet.
func restoreEach[T any](records []T, live map[string]struct{}, created, skipped *int, res *RestoreResult,
	id func(T) string, label func(T) string, insert func(T) error) {
	for _, r := range records {
		if has(live, id(r)) {
			*skipped++
			continue
		}
		if err := insert(r); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", label(r), err))
			continue
		}
		*created++
	}
}

// Restore re-inserts a backup by original id, parents first. Records whose id
// already exists are skipped, so restoring the same archive twice is a no-op
// the second time. Line items and receipts whose expense is neither live nor
// restored in this pass are dropped.
func (s *BackupService) Restore(ctx context.Context, data []byte) (*RestoreResult, error) {
	logger := orDiscard(s.Logger)
	_, d, a, err := ReadBackup(data)
	if err != nil {
		return nil, err
	}
	live, err := s.liveIDs(ctx)
	if err != nil {
		return nil, err
	}
	res := &RestoreResult{Errors: []string{}}

	restoreEach(d.Aircraft, live.aircraft, &res.Created.Aircraft, &res.Skipped.Aircraft, res,
		func(r BackupAircraft) string { return r.ID },
		func(r BackupAircraft) string { return "Aircraft " + r.TailNumber },
		func(r BackupAircraft) error {
			return s.Aircraft.Insert(ctx, repository.Aircraft{ID: r.ID, TailNumber: r.TailNumber, Name: r.Name, Notes: r.Notes, IsActive: r.IsActive, CreatedAt: r.CreatedAt})
		})
	restoreEach(d.Vendors, live.vendors, &res.Created.Vendors, &res.Skipped.Vendors, res,
		func(r BackupVendor) string { return r.ID },
		func(r BackupVendor) string { return "Vendor " + r.Name },
		func(r BackupVendor) error {
			return s.Vendors.Insert(ctx, repository.Vendor{ID: r.ID, Name: r.Name, Notes: r.Notes, IsActive: r.IsActive, CreatedAt: r.CreatedAt})
		})
	restoreEach(d.Categories, live.categories, &res.Created.Categories, &res.Skipped.Categories, res,
		func(r BackupCategory) string { return r.ID },
		func(r BackupCategory) string { return "Category " + r.Name },
		func(r BackupCategory) error {
			return s.Categories.Insert(ctx, repository.Category{
				ID: r.ID, Name: r.Name, IsSystem: r.IsSystem, IsActive: r.IsActive,
				IsFuelCategory: r.IsFuelCategory, IsDefault: r.IsDefault, Notes: r.Notes, CreatedAt: r.CreatedAt,
			})
		})
	restoreEach(d.PaymentMethods, live.paymentMethods, &res.Created.PaymentMethods, &res.Skipped.PaymentMethods, res,
		func(r BackupPaymentMethod) string { return r.ID },
		func(r BackupPaymentMethod) string { return "Payment method " + r.Name },
		func(r BackupPaymentMethod) error {
			return s.PaymentMethods.Insert(ctx, repository.PaymentMethod{ID: r.ID, Name: r.Name, Notes: r.Notes, IsActive: r.IsActive, CreatedAt: r.CreatedAt})
		})

	tails := make(map[string]string, len(d.Aircraft))
	for _, ac := range d.Aircraft {
		tails[ac.ID] = ac.TailNumber
	}
	restoreEach(d.Trips, live.trips, &res.Created.Trips, &res.Skipped.Trips, res,
		func(r BackupTrip) string { return r.ID },
		func(r BackupTrip) string { return "Trip " + r.Name },
		func(r BackupTrip) error {
			return s.Trips.Insert(ctx, repository.Trip{
				ID: r.ID, AircraftID: r.AircraftID, TripNumber: r.TripNumber, Name: r.Name,
				StartDate: r.StartDate, EndDate: r.EndDate, Aircraft: tails[deref(r.AircraftID)],
				Notes: r.Notes, CreatedAt: r.CreatedAt,
			})
		})

	restored := make(map[string]struct{})
	restoreEach(d.Expenses, live.expenses, &res.Created.Expenses, &res.Skipped.Expenses, res,
		func(r BackupExpense) string { return r.ID },
		func(r BackupExpense) string { return fmt.Sprintf("Expense %s %s", r.Date, r.Vendor) },
		func(r BackupExpense) error {
			err := s.Expenses.Insert(ctx, repository.Expense{
				ID: r.ID, TripID: r.TripID, VendorID: r.VendorID, PaymentMethodID: r.PaymentMethodID,
				CategoryID: r.CategoryID, Date: r.Date, Vendor: r.Vendor, Amount: r.Amount, Category: r.Category,
				PaymentMethod: r.PaymentMethod, Notes: r.Notes, CreatedAt: r.CreatedAt,
			})
			if err == nil {
				restored[r.ID] = struct{}{}
			}
			return err
		})
	parentKnown := func(expenseID string) bool {
		return has(live.expenses, expenseID) || has(restored, expenseID)
	}

	var items []BackupLineItem
	for _, li := range d.LineItems {
		if has(live.lineItems, li.ID) || parentKnown(li.ExpenseID) {
			items = append(items, li)
		}
	}
	restoreEach(items, live.lineItems, &res.Created.LineItems, &res.Skipped.LineItems, res,
		func(r BackupLineItem) string { return r.ID },
		func(r BackupLineItem) string { return "Line item" },
		func(r BackupLineItem) error {
			return s.LineItems.Insert(ctx, repository.LineItem{
				ID: r.ID, ExpenseID: r.ExpenseID, CategoryID: r.CategoryID, Description: r.Description,
				Category: r.Category, Amount: r.Amount, QuantityGallons: r.QuantityGallons,
				SortOrder: r.SortOrder, CreatedAt: r.CreatedAt,
			})
		})

	for _, e := range d.Expenses {
		for _, r := range e.Receipts {
			if has(live.receipts, r.ID) {
				res.Skipped.Receipts++
				continue
			}
			if !parentKnown(e.ID) {
				continue
			}
			err := s.restoreReceipt(ctx, a, e.ID, r)
			switch {
			case errors.Is(err, errReceiptFileMissing):
				res.Errors = append(res.Errors, fmt.Sprintf("Receipt file not found: %s", r.Filename))
				continue
			case err != nil:
				res.Errors = append(res.Errors, fmt.Sprintf("Receipt %s: %v", r.OriginalFilename, err))
				continue
			}
			res.Created.Receipts++
		}
	}

	res.Success = len(res.Errors) == 0
	logger.Info("backup restored", "created_expenses", res.Created.Expenses, "skipped_expenses", res.Skipped.Expenses, "errors", len(res.Errors))
	return res, nil
}

var errReceiptFileMissing = errors.New("receipt file missing from archive")

func (s *BackupService) restoreReceipt(ctx context.Context, a entrySet, expenseID string, r BackupReceipt) error {
	body, ok, err := a.read(receiptsDir + r.Filename)
	if err != nil {
		return err
	}
	if !ok {
		return errReceiptFileMissing
	}
	storagePath := storage.ReceiptPath(expenseID, r.OriginalFilename, s.now())
	if err := s.Blobs.Upload(ctx, storagePath, body, importer.ContentTypeFor(r.Filename, body)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	original := r.OriginalFilename
	err = s.Receipts.Insert(ctx, repository.Receipt{
		ID:               r.ID,
		ExpenseID:        expenseID,
		StoragePath:      storagePath,
		OriginalFilename: &original,
		UploadedAt:       repository.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}
