// Package command holds the static catalog of operations the assistant can
// execute. The catalog is built once at startup and never mutated.
package command

// Category buckets operations for permission checks: only query, analyze and
// navigate are read-only.
type Category string

const (
	CategoryCreate   Category = "create"
	CategoryQuery    Category = "query"
	CategoryAnalyze  Category = "analyze"
	CategoryNavigate Category = "navigate"
	CategoryExport   Category = "export"
)

// ReadOnly reports whether operations in this category leave state untouched.
func (c Category) ReadOnly() bool {
	switch c {
	case CategoryQuery, CategoryAnalyze, CategoryNavigate:
		return true
	}
	return false
}

// Operation names. The classifier maps matched patterns onto these.
const (
	OpCreateSale          = "create_sale"
	OpCreatePurchaseOrder = "create_purchase_order"
	OpRecordIncome        = "record_income"
	OpRecordExpense       = "record_expense"
	OpTransfer            = "transfer"
	OpViewAccounts        = "view_accounts"
	OpViewSales           = "view_sales"
	OpViewMovements       = "view_movements"
	OpSummary             = "summary"
	OpNavigate            = "navigate"
	OpExportMovements     = "export_movements"
)

// ParamType describes how a parameter value is parsed and validated.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamAmount ParamType = "amount" // integer cents
	ParamInt    ParamType = "int"
	ParamEnum   ParamType = "enum"
)

// ParamSpec is one entry in an operation's ordered parameter schema.
type ParamSpec struct {
	Name     string
	Type     ParamType
	Required bool
	Enum     []string
}

// Operation is an immutable operation definition.
type Operation struct {
	Name                 string
	Category             Category
	RequiresConfirmation bool
	// WizardType names the multi-turn flow that collects missing parameters.
	// Empty means the operation never needs a wizard.
	WizardType string
	Params     []ParamSpec
}

// Registry is a static, read-only lookup of operations by name.
type Registry struct {
	ops    []Operation
	byName map[string]Operation
}

// NewRegistry builds the operation catalog.
func NewRegistry() *Registry {
	r := &Registry{}
	r.ops = []Operation{
		{
			Name:                 OpCreateSale,
			Category:             CategoryCreate,
			RequiresConfirmation: true,
			WizardType:           "sale",
			Params: []ParamSpec{
				{Name: "client_id", Type: ParamString, Required: true},
				{Name: "purchase_order_id", Type: ParamString, Required: true},
				{Name: "quantity", Type: ParamInt, Required: true},
				{Name: "unit_sale_price", Type: ParamAmount, Required: true},
				{Name: "unit_freight", Type: ParamAmount, Required: false},
			},
		},
		{
			Name:                 OpCreatePurchaseOrder,
			Category:             CategoryCreate,
			RequiresConfirmation: true,
			WizardType:           "purchase_order",
			Params: []ParamSpec{
				{Name: "product", Type: ParamString, Required: true},
				{Name: "quantity", Type: ParamInt, Required: true},
				{Name: "unit_cost_price", Type: ParamAmount, Required: true},
			},
		},
		{
			Name:       OpRecordIncome,
			Category:   CategoryCreate,
			WizardType: "deposit",
			Params: []ParamSpec{
				{Name: "amount", Type: ParamAmount, Required: true},
				{Name: "account_id", Type: ParamString, Required: false},
				{Name: "concept", Type: ParamString, Required: false},
			},
		},
		{
			Name:       OpRecordExpense,
			Category:   CategoryCreate,
			WizardType: "expense",
			Params: []ParamSpec{
				{Name: "amount", Type: ParamAmount, Required: true},
				{Name: "account_id", Type: ParamString, Required: false},
				{Name: "concept", Type: ParamString, Required: false},
			},
		},
		{
			Name:                 OpTransfer,
			Category:             CategoryCreate,
			RequiresConfirmation: true,
			WizardType:           "transfer",
			Params: []ParamSpec{
				{Name: "source_id", Type: ParamString, Required: true},
				{Name: "destination_id", Type: ParamString, Required: true},
				{Name: "amount", Type: ParamAmount, Required: true},
			},
		},
		{Name: OpViewAccounts, Category: CategoryQuery},
		{
			Name:     OpViewSales,
			Category: CategoryQuery,
			Params: []ParamSpec{
				{Name: "period", Type: ParamEnum, Required: false, Enum: periodEnum},
			},
		},
		{
			Name:     OpViewMovements,
			Category: CategoryQuery,
			Params: []ParamSpec{
				{Name: "period", Type: ParamEnum, Required: false, Enum: periodEnum},
			},
		},
		{
			Name:     OpSummary,
			Category: CategoryAnalyze,
			Params: []ParamSpec{
				{Name: "period", Type: ParamEnum, Required: false, Enum: periodEnum},
			},
		},
		{
			Name:     OpNavigate,
			Category: CategoryNavigate,
			Params: []ParamSpec{
				{Name: "panel", Type: ParamEnum, Required: true, Enum: []string{"ventas", "bancos", "clientes", "ordenes", "movimientos", "resumen"}},
			},
		},
		{
			Name:     OpExportMovements,
			Category: CategoryExport,
			Params: []ParamSpec{
				{Name: "period", Type: ParamEnum, Required: false, Enum: periodEnum},
			},
		},
	}
	r.byName = make(map[string]Operation, len(r.ops))
	for _, op := range r.ops {
		r.byName[op.Name] = op
	}
	return r
}

var periodEnum = []string{"today", "yesterday", "week", "month", "year", "quarter"}

// Get looks up an operation by name.
func (r *Registry) Get(name string) (Operation, bool) {
	op, ok := r.byName[name]
	return op, ok
}

// All returns the catalog in declaration order.
func (r *Registry) All() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}
