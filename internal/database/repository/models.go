package repository

import "github.com/shopspring/decimal"

// Aircraft represents an aircraft row.
type Aircraft struct {
	ID         string
	TailNumber string
	Name       *string
	Notes      *string
	IsActive   bool
	CreatedAt  string
}

// Vendor represents a vendor row.
type Vendor struct {
	ID        string
	Name      string
	Notes     *string
	IsActive  bool
	CreatedAt string
}

// Category represents an expense_categories row.
type Category struct {
	ID             string
	Name           string
	IsSystem       bool
	IsActive       bool
	IsFuelCategory bool
	IsDefault      bool
	Notes          *string
	CreatedAt      string
}

// PaymentMethod represents a payment_methods row.
type PaymentMethod struct {
	ID        string
	Name      string
	Notes     *string
	IsActive  bool
	CreatedAt string
}

// Trip represents a trip row. Aircraft is the denormalised tail number.
type Trip struct {
	ID         string
	AircraftID *string
	TripNumber *string
	Name       string
	StartDate  string
	EndDate    *string
	Aircraft   string
	Notes      *string
	CreatedAt  string
}

// Expense represents an expense row. Category is the label of the
// primary line item and Amount the sum of all line items.
type Expense struct {
	ID              string
	TripID          *string
	VendorID        *string
	PaymentMethodID *string
	CategoryID      *string
	Date            string
	Vendor          string
	Amount          decimal.Decimal
	Category        string
	PaymentMethod   *string
	Notes           *string
	CreatedAt       string
}

// LineItem represents an expense_line_items row.
type LineItem struct {
	ID              string
	ExpenseID       string
	CategoryID      *string
	Description     *string
	Category        string
	Amount          decimal.Decimal
	QuantityGallons decimal.NullDecimal
	SortOrder       *int
	CreatedAt       string
}

// Receipt represents a receipts row.
type Receipt struct {
	ID               string
	ExpenseID        string
	StoragePath      string
	OriginalFilename *string
	UploadedAt       string
}

// ImportSession tracks one import execution.
type ImportSession struct {
	ID               string
	SourceType       string
	Status           string
	OriginalFilename *string
	TotalRecords     int
	ProcessedRecords int
	FailedRecords    int
	ErrorMessage     *string
	Metadata         *string
	CreatedAt        string
	UpdatedAt        string
	CompletedAt      *string
}

// ImportLog is a per-record entry of an import session.
type ImportLog struct {
	ID              string
	ImportSessionID string
	RowNumber       int
	Status          string
	EntityType      string
	EntityID        *string
	ErrorMessage    *string
	CreatedAt       string
}

// Import session and log statuses.
const (
	SessionProcessing = "processing"
	SessionCompleted  = "completed"
	SessionFailed     = "failed"

	LogSuccess = "success"
	LogError   = "error"
	LogSkipped = "skipped"
)
