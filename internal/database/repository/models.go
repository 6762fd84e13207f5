package repository

import "time"

// Movement types. A transfer writes one transfer_out and one transfer_in leg.
const (
	MovementIncome      = "income"
	MovementExpense     = "expense"
	MovementTransferIn  = "transfer_in"
	MovementTransferOut = "transfer_out"
)

// Sale payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPartial  = "partial"
	PaymentComplete = "complete"
)

// Account represents a bank account row. Monetary fields are integer cents.
type Account struct {
	ID                string
	Name              string
	Balance           int64
	HistoricalIncome  int64
	HistoricalExpense int64
	IsPrimary         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Client represents a client directory row.
type Client struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// PurchaseOrder represents inventory bought for resale.
type PurchaseOrder struct {
	ID             string
	Product        string
	Supplier       string
	Quantity       int64
	AvailableStock int64
	UnitCostPrice  int64
	CreatedAt      time.Time
}

// Sale represents a sale row.
type Sale struct {
	ID              string
	ClientID        string
	PurchaseOrderID string
	Quantity        int64
	UnitSalePrice   int64
	UnitCostPrice   int64
	UnitFreight     int64
	TotalSalePrice  int64
	AmountRemaining int64
	PaymentStatus   string
	CreatedAt       time.Time
}

// Movement represents one append-only ledger entry.
type Movement struct {
	ID        string
	AccountID string
	Type      string
	Amount    int64
	Concept   string
	CreatedAt time.Time
}

// WizardSession represents a persisted multi-turn dialogue.
type WizardSession struct {
	ID            string
	OwnerID       string
	OperationType string
	CurrentStep   int
	CollectedData map[string]string
	Completed     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}
