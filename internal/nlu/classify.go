package nlu

import (
	"regexp"
	"strings"

	"github.com/cajabot/cajabot/internal/command"
)

// Match is the result of classifying one utterance.
type Match struct {
	// Operation is empty when nothing matched above the confidence floor.
	Operation  string
	Confidence float64
	Entities   map[string]string
}

type intentPattern struct {
	re         *regexp.Regexp
	operation  string
	confidence float64
}

// patterns is the authoritative intent table. Order is a priority list: on
// equal confidence the earlier entry wins, so more specific phrasings must
// appear before the generic ones that contain them.
var patterns = []intentPattern{
	{regexp.MustCompile(`\b(?:crear|nueva|registrar|hacer)\s+(?:una\s+)?venta\b|\bvender\b`), command.OpCreateSale, 0.95},
	{regexp.MustCompile(`\b(?:crear|nueva|registrar)\s+(?:una\s+)?orden(?:\s+de\s+compra)?\b|\bcomprar\s+mercancia\b`), command.OpCreatePurchaseOrder, 0.9},
	{regexp.MustCompile(`\btransferir\b|\btransferencia\b|\b(?:mover|pasar)\s+(?:dinero|fondos|plata)\b`), command.OpTransfer, 0.9},
	{regexp.MustCompile(`\b(?:registrar|anotar)\s+(?:un\s+)?ingreso\b|\bdeposit(?:ar|o)\b|\bingreso\b|\bcobramos\b`), command.OpRecordIncome, 0.85},
	{regexp.MustCompile(`\b(?:registrar|anotar)\s+(?:un\s+)?gasto\b|\bgast(?:o|amos|ar)\b|\bpag(?:ar|amos|ue)\b|\begreso\b`), command.OpRecordExpense, 0.85},
	{regexp.MustCompile(`\bexportar\b|\bdescargar\b`), command.OpExportMovements, 0.85},
	{regexp.MustCompile(`\b(?:ir|ve|vamos|llevame)\s+a(?:l)?\b`), command.OpNavigate, 0.85},
	{regexp.MustCompile(`\bresumen\b|\bbalance\s+general\b|\bcomo\s+(?:vamos|va\s+el\s+negocio)\b`), command.OpSummary, 0.8},
	{regexp.MustCompile(`\b(?:ver|mostrar|consultar)\s+(?:los\s+)?(?:bancos|cuentas|saldos)\b|\bbancos\b|\bsaldos?\b`), command.OpViewAccounts, 0.8},
	{regexp.MustCompile(`\b(?:ver|mostrar|consultar)\s+(?:las\s+)?ventas\b|\bventas\b`), command.OpViewSales, 0.75},
	{regexp.MustCompile(`\b(?:ver|mostrar|consultar)\s+(?:los\s+)?movimientos\b|\bmovimientos\b|\bhistorial\b`), command.OpViewMovements, 0.75},
}

// Classifier matches normalized text against the intent table.
type Classifier struct {
	minConfidence float64
}

// NewClassifier returns a classifier with the given confidence floor.
func NewClassifier(minConfidence float64) *Classifier {
	return &Classifier{minConfidence: minConfidence}
}

// Classify normalizes the text, scans the pattern table keeping the highest
// confidence (first wins ties), and merges in extracted entities. Operation is
// empty when the best match falls below the floor.
func (c *Classifier) Classify(text string) Match {
	normalized := strings.ToLower(strings.TrimSpace(text))
	best := Match{Entities: Extract(text)}
	for _, p := range patterns {
		if p.confidence <= best.Confidence {
			continue
		}
		if p.re.MatchString(normalized) {
			best.Operation = p.operation
			best.Confidence = p.confidence
		}
	}
	if best.Confidence < c.minConfidence {
		best.Operation = ""
	}
	return best
}
