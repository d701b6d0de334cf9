// Package ofx reads OFX/QFX bank and credit card statements into expense drafts.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/expense-flow/internal/model"
)

// Categories assigned from the OFX transaction type. Everything else gets
// DefaultCategory and is meant to be recategorized by the user.
const (
	DefaultCategory = "Uncategorized"
	FeesCategory    = "Bank Fees"
	CashCategory    = "Cash"
	ChecksCategory  = "Checks"
)

// Payment methods by statement kind.
const (
	CardPaymentMethod = "Card"
	BankPaymentMethod = "Bank Transfer"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Entry is one statement line converted to a transaction draft. The draft has
// no id; FitID and AccountID identify the line within the bank's records.
type Entry struct {
	FitID       string
	AccountID   string
	Type        string
	Transaction model.Transaction
	Credit      bool
}

// Key identifies an entry for de-duplication across files.
func (e Entry) Key() string {
	if e.FitID != "" {
		return e.AccountID + "/" + e.FitID
	}
	t := e.Transaction
	return strings.Join([]string{e.AccountID, t.Date.String(), t.Amount.String(), t.Vendor}, "/")
}

// Dedupe drops entries whose Key was already seen, keeping the first.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := e.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{logger: slog.Default().With("component", "ofx")}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns one entry per statement line.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Entry, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		currency := currencyCode(stmt.CurDef.String())
		for _, ofxTx := range stmt.BankTranList.Transactions {
			entries = append(entries, p.convert(ofxTx, string(stmt.BankAcctFrom.AcctID), currency, BankPaymentMethod))
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		currency := currencyCode(stmt.CurDef.String())
		for _, ofxTx := range stmt.BankTranList.Transactions {
			entries = append(entries, p.convert(ofxTx, string(stmt.CCAcctFrom.AcctID), currency, CardPaymentMethod))
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return entries, nil
}

// currencyCode maps an OFX currency to an ISO code. Unknown currencies are left
// empty so the backend default applies.
func currencyCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == "XXX" {
		return ""
	}
	return code
}

// convert turns a statement line into a draft. OFX debits are negative; the
// draft amount is always the absolute value.
func (p *Parser) convert(ofxTx ofxgo.Transaction, accountID, currency, paymentMethod string) Entry {
	amount, _ := ofxTx.TrnAmt.Float64()
	trnType := fmt.Sprintf("%v", ofxTx.TrnType)

	tx := model.Transaction{
		Date:          model.NewDate(ofxTx.DtPosted.Time),
		Category:      categoryFor(trnType),
		Item:          strings.TrimSpace(string(ofxTx.Name)),
		Vendor:        p.extractMerchantName(ofxTx),
		Amount:        model.NewAmount(math.Abs(amount)),
		Currency:      currency,
		PaymentMethod: paymentMethod,
		Notes:         strings.TrimSpace(string(ofxTx.Memo)),
	}
	if ofxTx.CheckNum != "" {
		tx.Notes = strings.TrimSpace(tx.Notes + " check #" + string(ofxTx.CheckNum))
	}

	return Entry{
		FitID:       string(ofxTx.FiTID),
		AccountID:   accountID,
		Type:        trnType,
		Credit:      amount > 0,
		Transaction: tx,
	}
}

func categoryFor(trnType string) string {
	switch trnType {
	case "FEE", "SRVCHG":
		return FeesCategory
	case "ATM", "CASH":
		return CashCategory
	case "CHECK":
		return ChecksCategory
	default:
		return DefaultCategory
	}
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// drop a leading "MM/DD "
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}
	return slices.Contains(generic, strings.ToUpper(strings.TrimSpace(name)))
}

// GetAccounts extracts the sorted unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			seen[string(stmt.BankAcctFrom.AcctID)] = struct{}{}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			seen[string(stmt.CCAcctFrom.AcctID)] = struct{}{}
		}
	}

	accounts := make([]string, 0, len(seen))
	for acct := range seen {
		accounts = append(accounts, acct)
	}
	slices.Sort(accounts)
	return accounts, nil
}
