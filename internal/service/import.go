package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/storage"
)

// ImportService writes a reconciled import into the ledger.
type ImportService struct {
	Vendors        NamedStore[repository.Vendor]
	Categories     NamedStore[repository.Category]
	PaymentMethods NamedStore[repository.PaymentMethod]
	Aircraft       AircraftStore
	Trips          TripStore
	Expenses       ExpenseStore
	LineItems      LineItemStore
	Receipts       ReceiptStore
	Sessions       SessionStore
	Blobs          storage.Store
	Logger         *log.Logger

	// Now stamps receipt storage paths. Defaults to time.Now.
	Now func() time.Time
}

// NewImportService wires an ImportService to the sqlite repositories.
func NewImportService(db *sql.DB, blobs storage.Store, logger *log.Logger) *ImportService {
	return &ImportService{
		Vendors:        repository.NewVendorRepo(db),
		Categories:     repository.NewCategoryRepo(db),
		PaymentMethods: repository.NewPaymentMethodRepo(db),
		Aircraft:       repository.NewAircraftRepo(db),
		Trips:          repository.NewTripRepo(db),
		Expenses:       repository.NewExpenseRepo(db),
		LineItems:      repository.NewLineItemRepo(db),
		Receipts:       repository.NewReceiptRepo(db),
		Sessions:       repository.NewImportSessionRepo(db),
		Blobs:          blobs,
		Logger:         logger,
	}
}

// ImportRequest is everything an execution needs. Trips and Standalone
// come from the preview, Mappings from the user.
type ImportRequest struct {
	Source                 importer.Source
	Filename               string
	Trips                  []importer.ParsedTrip
	Standalone             []importer.ParsedExpense
	Mappings               importer.Mappings
	Receipts               []importer.ReceiptFile
	SkipDuplicateTripNames []string
}

// NewImportRequest starts a request from a preview and the chosen mappings.
func NewImportRequest(p *importer.Preview, m importer.Mappings) ImportRequest {
	return ImportRequest{
		Source:     p.Source,
		Trips:      p.Trips,
		Standalone: p.Standalone,
		Mappings:   m,
	}
}

// Created counts rows actually inserted by an import.
type Created struct {
	Vendors        int `json:"vendors"`
	Categories     int `json:"categories"`
	PaymentMethods int `json:"paymentMethods"`
	Aircraft       int `json:"aircraft"`
	Trips          int `json:"trips"`
	Expenses       int `json:"expenses"`
	LineItems      int `json:"lineItems"`
	Receipts       int `json:"receipts"`
}

// ImportResult reports an execution. Success only reflects Failed: receipt
// problems are listed in Errors without failing the import.
type ImportResult struct {
	Success   bool     `json:"success"`
	SessionID string   `json:"sessionId"`
	Created   Created  `json:"created"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

func (r *ImportResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Failed++
}

// Snapshot reads the entities a preview is reconciled against.
func (s *ImportService) Snapshot(ctx context.Context) (importer.Existing, error) {
	var ex importer.Existing
	cats, err := s.Categories.List(ctx)
	if err != nil {
		return ex, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		ex.Categories = append(ex.Categories, importer.ExistingCategory{ID: c.ID, Name: c.Name, IsFuel: c.IsFuelCategory})
	}
	vendors, err := s.Vendors.List(ctx)
	if err != nil {
		return ex, fmt.Errorf("list vendors: %w", err)
	}
	for _, v := range vendors {
		ex.Vendors = append(ex.Vendors, importer.ExistingEntity{ID: v.ID, Name: v.Name})
	}
	methods, err := s.PaymentMethods.List(ctx)
	if err != nil {
		return ex, fmt.Errorf("list payment methods: %w", err)
	}
	for _, p := range methods {
		ex.PaymentMethods = append(ex.PaymentMethods, importer.ExistingEntity{ID: p.ID, Name: p.Name})
	}
	aircraft, err := s.Aircraft.List(ctx)
	if err != nil {
		return ex, fmt.Errorf("list aircraft: %w", err)
	}
	for _, a := range aircraft {
		ex.Aircraft = append(ex.Aircraft, importer.ExistingAircraft{ID: a.ID, TailNumber: a.TailNumber})
	}
	trips, err := s.Trips.List(ctx)
	if err != nil {
		return ex, fmt.Errorf("list trips: %w", err)
	}
	for _, t := range trips {
		ex.Trips = append(ex.Trips, importer.ExistingTrip{ID: t.ID, Name: t.Name, StartDate: t.StartDate})
	}
	return ex, nil
}

// resolution is the ledger id chosen for one entity key. An empty id means
// the entity is left off downstream records.
type resolution struct {
	id      string
	created bool
}

// resolvedIDs holds one ledger id per catalogued entity.
type resolvedIDs struct {
	catalogs       importer.Catalogs
	vendors        map[importer.EntityKey]string
	categories     map[importer.EntityKey]string
	paymentMethods map[importer.EntityKey]string
	aircraft       map[importer.EntityKey]string
}

func lookup(c *importer.Catalog, ids map[importer.EntityKey]string, name string) *string {
	k, ok := c.Key(name)
	if !ok {
		return nil
	}
	return strPtr(ids[k])
}

func (r resolvedIDs) vendor(name string) *string {
	return lookup(r.catalogs.Vendors, r.vendors, name)
}
func (r resolvedIDs) category(name string) *string {
	return lookup(r.catalogs.Categories, r.categories, name)
}
func (r resolvedIDs) paymentMethod(name string) *string {
	return lookup(r.catalogs.PaymentMethods, r.paymentMethods, name)
}
func (r resolvedIDs) aircraftID(tail string) string {
	return deref(lookup(r.catalogs.Aircraft, r.aircraft, tail))
}

// Execute runs the import: entities, then trips with their expenses and line
// items, then receipts. A failing record is reported and the run continues.
// The returned error is reserved for failures that stop the whole run.
func (s *ImportService) Execute(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	logger := orDiscard(s.Logger).With("source", req.Source)
	all := importer.AllExpenses(req.Trips, req.Standalone)
	res := &ImportResult{Errors: []string{}}

	meta, err := json.Marshal(req.Mappings)
	if err != nil {
		return nil, fmt.Errorf("encode mappings: %w", err)
	}
	session := repository.ImportSession{
		ID:               uuid.NewString(),
		SourceType:       string(req.Source),
		Status:           repository.SessionProcessing,
		OriginalFilename: strPtr(req.Filename),
		TotalRecords:     countLineItems(all),
		Metadata:         strPtr(string(meta)),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create import session: %w", err)
	}
	res.SessionID = session.ID
	logger = logger.With("session", session.ID)
	logger.Info("import started", "trips", len(req.Trips), "expenses", len(all))

	abort := func(err error) (*ImportResult, error) {
		if ferr := s.Sessions.Fail(context.WithoutCancel(ctx), session.ID, err.Error()); ferr != nil {
			logger.Error("mark session failed", "err", ferr)
		}
		return res, err
	}

	ids := s.resolveEntities(ctx, importer.BuildCatalogs(all), req.Mappings, res, logger)
	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	receiptKeys := make(map[string]string)
	w := &expenseWriter{svc: s, ids: ids, session: session.ID, res: res, keys: receiptKeys, logger: logger}

	skip := make(map[string]bool, len(req.SkipDuplicateTripNames))
	for _, name := range req.SkipDuplicateTripNames {
		skip[name] = true
	}
	for _, trip := range req.Trips {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		if skip[trip.Name] {
			res.Skipped++
			s.addLog(ctx, logger, session.ID, 0, repository.LogSkipped, "trip", "", "duplicate trip "+trip.Name)
			logger.Info("skipped duplicate trip", "trip", trip.Name)
			continue
		}
		tripID := ""
		if aircraftID := ids.aircraftID(trip.TailNumber); trip.TripNumber != "" && aircraftID != "" {
			o := s.createTrip(ctx, trip, aircraftID)
			if !o.ok() {
				res.fail("Trip %s: %v", trip.Name, o.err)
				logger.Warn("trip insert failed", "trip", trip.Name, "err", o.err)
				continue
			}
			tripID = o.value
			res.Created.Trips++
		}
		for _, e := range trip.Expenses {
			w.write(ctx, e, tripID)
		}
	}
	for _, e := range req.Standalone {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		w.write(ctx, e, "")
	}

	if len(req.Receipts) > 0 {
		s.attachReceipts(ctx, req.Receipts, receiptKeys, res, logger)
	}

	res.Success = res.Failed == 0
	processed := res.Created.Expenses + res.Created.LineItems + res.Created.Receipts
	if err := s.Sessions.Complete(ctx, session.ID, processed, res.Failed); err != nil {
		logger.Error("complete session", "err", err)
	}
	logger.Info("import finished", "failed", res.Failed, "skipped", res.Skipped, "expenses", res.Created.Expenses)
	return res, nil
}

func (s *ImportService) resolveEntities(ctx context.Context, cats importer.Catalogs, m importer.Mappings, res *ImportResult, logger *log.Logger) resolvedIDs {
	ids := resolvedIDs{
		catalogs:       cats,
		vendors:        make(map[importer.EntityKey]string),
		categories:     make(map[importer.EntityKey]string),
		paymentMethods: make(map[importer.EntityKey]string),
		aircraft:       make(map[importer.EntityKey]string),
	}

	run := func(label string, c *importer.Catalog, out map[importer.EntityKey]string, counter *int, resolve func(k importer.EntityKey, name string) outcome[resolution]) {
		for _, k := range c.Keys() {
			name := c.Name(k)
			o := resolve(k, name)
			if !o.ok() {
				res.fail("%s %s: %v", label, name, o.err)
				logger.Warn("entity resolution failed", "kind", label, "name", name, "err", o.err)
				continue
			}
			if o.value.id != "" {
				out[k] = o.value.id
			}
			if o.value.created {
				*counter++
			}
		}
	}

	vendorMaps := importer.IndexMappings(cats.Vendors, m.Vendors)
	run("Vendor", cats.Vendors, ids.vendors, &res.Created.Vendors, func(k importer.EntityKey, name string) outcome[resolution] {
		mapping, ok := vendorMaps[k]
		if !ok {
			return succeeded(resolution{})
		}
		return resolveNamed(ctx, s.Vendors, name, mapping,
			func(v repository.Vendor) string { return v.ID },
			func(n string) repository.Vendor {
				return repository.Vendor{ID: uuid.NewString(), Name: n, IsActive: true}
			})
	})

	categoryMaps := importer.IndexMappings(cats.Categories, m.Categories)
	run("Category", cats.Categories, ids.categories, &res.Created.Categories, func(k importer.EntityKey, name string) outcome[resolution] {
		mapping, ok := categoryMaps[k]
		if !ok {
			return succeeded(resolution{})
		}
		return resolveNamed(ctx, s.Categories, name, mapping,
			func(c repository.Category) string { return c.ID },
			func(n string) repository.Category {
				return repository.Category{ID: uuid.NewString(), Name: n, IsActive: true, IsFuelCategory: mapping.IsFuelCategory}
			})
	})

	methodMaps := importer.IndexMappings(cats.PaymentMethods, m.PaymentMethods)
	run("Payment method", cats.PaymentMethods, ids.paymentMethods, &res.Created.PaymentMethods, func(k importer.EntityKey, name string) outcome[resolution] {
		mapping, ok := methodMaps[k]
		if !ok {
			return succeeded(resolution{})
		}
		return resolveNamed(ctx, s.PaymentMethods, name, mapping,
			func(p repository.PaymentMethod) string { return p.ID },
			func(n string) repository.PaymentMethod {
				return repository.PaymentMethod{ID: uuid.NewString(), Name: n, IsActive: true}
			})
	})

	aircraftMaps := importer.IndexMappings(cats.Aircraft, m.Aircraft)
	run("Aircraft", cats.Aircraft, ids.aircraft, &res.Created.Aircraft, func(k importer.EntityKey, tail string) outcome[resolution] {
		mapping, ok := aircraftMaps[k]
		if !ok {
			return succeeded(resolution{})
		}
		return s.resolveAircraft(ctx, tail, mapping)
	})
	return ids
}

// resolveNamed applies one mapping decision to a named entity. Create is
// idempotent: an existing row with the same name, ignoring case, is reused.
func resolveNamed[T any](ctx context.Context, store NamedStore[T], name string, m importer.EntityMapping, idOf func(T) string, build func(name string) T) outcome[resolution] {
	switch m.Action {
	case importer.ActionSkip:
		return succeeded(resolution{})
	case importer.ActionMap:
		if m.TargetID != "" {
			return succeeded(resolution{id: m.TargetID})
		}
		found, err := store.FindByName(ctx, name)
		if err != nil {
			return failed[resolution](err)
		}
		if found == nil {
			return succeeded(resolution{})
		}
		return succeeded(resolution{id: idOf(*found)})
	case importer.ActionCreate:
		target := m.NewName
		if target == "" {
			target = name
		}
		found, err := store.FindByName(ctx, target)
		if err != nil {
			return failed[resolution](err)
		}
		if found != nil {
			return succeeded(resolution{id: idOf(*found)})
		}
		v := build(target)
		if err := store.Insert(ctx, v); err != nil {
			return failed[resolution](err)
		}
		return succeeded(resolution{id: idOf(v), created: true})
	default:
		return failed[resolution](fmt.Errorf("unknown mapping action %q", m.Action))
	}
}

func (s *ImportService) resolveAircraft(ctx context.Context, tail string, m importer.AircraftMapping) outcome[resolution] {
	switch m.Action {
	case importer.ActionMap:
		if m.TargetID != "" {
			return succeeded(resolution{id: m.TargetID})
		}
		found, err := s.Aircraft.FindByTailNumber(ctx, tail)
		if err != nil {
			return failed[resolution](err)
		}
		if found == nil {
			return succeeded(resolution{})
		}
		return succeeded(resolution{id: found.ID})
	case importer.ActionCreate:
		target := m.TailNumber
		if target == "" {
			target = tail
		}
		found, err := s.Aircraft.FindByTailNumber(ctx, target)
		if err != nil {
			return failed[resolution](err)
		}
		if found != nil {
			return succeeded(resolution{id: found.ID})
		}
		a := repository.Aircraft{
			ID:         uuid.NewString(),
			TailNumber: strings.ToUpper(target),
			Name:       strPtr(m.Name),
			IsActive:   true,
		}
		if err := s.Aircraft.Insert(ctx, a); err != nil {
			return failed[resolution](err)
		}
		return succeeded(resolution{id: a.ID, created: true})
	default:
		return failed[resolution](fmt.Errorf("unsupported aircraft action %q", m.Action))
	}
}

func (s *ImportService) createTrip(ctx context.Context, trip importer.ParsedTrip, aircraftID string) outcome[string] {
	t := repository.Trip{
		ID:         uuid.NewString(),
		AircraftID: &aircraftID,
		TripNumber: strPtr(trip.TripNumber),
		Name:       trip.Name,
		StartDate:  trip.StartDate,
		EndDate:    strPtr(trip.EndDate),
		Aircraft:   trip.TailNumber,
	}
	if err := s.Trips.Insert(ctx, t); err != nil {
		return failed[string](err)
	}
	return succeeded(t.ID)
}

// expenseWriter creates expenses and line items for one execution.
type expenseWriter struct {
	svc     *ImportService
	ids     resolvedIDs
	session string
	res     *ImportResult
	keys    map[string]string
	logger  *log.Logger
	row     int
}

func (w *expenseWriter) write(ctx context.Context, e importer.ParsedExpense, tripID string) {
	w.row++
	o := w.insertExpense(ctx, e, tripID)
	if !o.ok() {
		w.res.fail("Expense %s %s: %v", e.Date, e.VendorName, o.err)
		w.logger.Warn("expense insert failed", "date", e.Date, "vendor", e.VendorName, "err", o.err)
		w.svc.addLog(ctx, w.logger, w.session, w.row, repository.LogError, "expense", "", o.err.Error())
		return
	}
	expenseID := o.value
	w.res.Created.Expenses++

	for _, item := range e.LineItems {
		if item.ICAO != "" {
			w.keys[importer.ExpenseKey(e.Date, e.TripNumber, item.ICAO)] = expenseID
		}
	}
	if e.TripNumber != "" {
		w.keys[importer.ExpenseKey(e.Date, e.TripNumber, "")] = expenseID
	}

	for i, item := range e.LineItems {
		order := i
		li := repository.LineItem{
			ID:              uuid.NewString(),
			ExpenseID:       expenseID,
			CategoryID:      w.ids.category(item.Category),
			Description:     strPtr(item.Description),
			Category:        item.Category,
			Amount:          item.Amount,
			QuantityGallons: item.Gallons,
			SortOrder:       &order,
		}
		if err := w.svc.LineItems.Insert(ctx, li); err != nil {
			w.res.fail("Line item %d for expense %s: %v", i+1, e.Date, err)
			w.logger.Warn("line item insert failed", "date", e.Date, "item", i+1, "err", err)
			continue
		}
		w.res.Created.LineItems++
	}
	w.svc.addLog(ctx, w.logger, w.session, w.row, repository.LogSuccess, "expense", expenseID, "")
}

func (w *expenseWriter) insertExpense(ctx context.Context, e importer.ParsedExpense, tripID string) outcome[string] {
	var categoryID *string
	if primary, ok := e.PrimaryLineItem(); ok {
		categoryID = w.ids.category(primary.Category)
	}
	ex := repository.Expense{
		ID:              uuid.NewString(),
		TripID:          strPtr(tripID),
		VendorID:        w.ids.vendor(e.VendorName),
		PaymentMethodID: w.ids.paymentMethod(e.PaymentMethod),
		CategoryID:      categoryID,
		Date:            e.Date,
		Vendor:          e.VendorName,
		Amount:          e.Total(),
		Category:        e.PrimaryCategory(),
		PaymentMethod:   strPtr(e.PaymentMethod),
		Notes:           strPtr(e.Notes),
	}
	if err := w.svc.Expenses.Insert(ctx, ex); err != nil {
		return failed[string](err)
	}
	return succeeded(ex.ID)
}

// attachReceipts uploads receipts whose filename names a created expense.
// Unparseable or unmatched receipts are skipped.
func (s *ImportService) attachReceipts(ctx context.Context, receipts []importer.ReceiptFile, keys map[string]string, res *ImportResult, logger *log.Logger) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	for _, rf := range receipts {
		key, ok := importer.ParseReceiptFilename(rf.Filename)
		if !ok {
			logger.Debug("receipt filename not recognised", "file", rf.Filename)
			continue
		}
		expenseID, ok := keys[importer.ExpenseKey(key.Date, key.TripNumber, key.ICAO)]
		if !ok {
			expenseID, ok = keys[importer.ExpenseKey(key.Date, key.TripNumber, "")]
		}
		if !ok {
			logger.Debug("receipt matches no expense", "file", rf.Filename)
			continue
		}

		o := s.storeReceipt(ctx, expenseID, rf, now())
		if !o.ok() {
			res.Errors = append(res.Errors, fmt.Sprintf("Receipt %s: %v", rf.Filename, o.err))
			logger.Warn("receipt failed", "file", rf.Filename, "err", o.err)
			continue
		}
		res.Created.Receipts++
	}
}

func (s *ImportService) storeReceipt(ctx context.Context, expenseID string, rf importer.ReceiptFile, now time.Time) outcome[string] {
	if s.Blobs == nil {
		return failed[string](fmt.Errorf("no blob store configured"))
	}
	original := path.Base(filepath.ToSlash(rf.Filename))
	storagePath := storage.ReceiptPath(expenseID, original, now)
	contentType := rf.ContentType
	if contentType == "" {
		contentType = importer.ContentTypeFor(rf.Filename, rf.Data)
	}
	if err := s.Blobs.Upload(ctx, storagePath, rf.Data, contentType); err != nil {
		return failed[string](err)
	}
	r := repository.Receipt{
		ID:               uuid.NewString(),
		ExpenseID:        expenseID,
		StoragePath:      storagePath,
		OriginalFilename: &original,
		UploadedAt:       repository.Timestamp(),
	}
	if err := s.Receipts.Insert(ctx, r); err != nil {
		return failed[string](err)
	}
	return succeeded(r.ID)
}

func (s *ImportService) addLog(ctx context.Context, logger *log.Logger, sessionID string, row int, status, entity, entityID, msg string) {
	err := s.Sessions.AddLog(ctx, repository.ImportLog{
		ID:              uuid.NewString(),
		ImportSessionID: sessionID,
		RowNumber:       row,
		Status:          status,
		EntityType:      entity,
		EntityID:        strPtr(entityID),
		ErrorMessage:    strPtr(msg),
	})
	if err != nil {
		logger.Warn("write import log", "err", err)
	}
}

func countLineItems(expenses []importer.ParsedExpense) int {
	n := 0
	for _, e := range expenses {
		n += len(e.LineItems)
	}
	return n
}
