package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-flow/internal/api"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/model"
	"github.com/Veraticus/expense-flow/internal/ofx"
)

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>EUR
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>Corner Bakery
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240128120000[0:GMT]
<TRNAMT>40.00
<FITID>2024012801
<NAME>ONLINE STORE
<MEMO>Refund for order 77
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeStatement(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportOFX_DryRun(t *testing.T) {
	backend := newFakeBackend(0)
	dir := t.TempDir()
	first := writeStatement(t, dir, "jan.ofx", statementOFX)
	writeStatement(t, dir, "jan-copy.qfx", statementOFX)

	res := runCLI(t, startBackend(t, backend), "", "import-ofx", "--dry-run", dir, first)
	requireSuccess(t, res)

	assert.Contains(t, res.stdout, "jan.ofx: 3 transactions")
	assert.Contains(t, res.stdout, "2 expenses totalling 150.50 ready to import")
	assert.Contains(t, res.stdout, "Corner Bakery")
	assert.NotContains(t, res.stdout, "ONLINE STORE")
	assert.Contains(t, res.stdout, "Dry run complete")
	assert.False(t, backend.requested("POST /api/transactions"))
}

func TestImportOFX_Creates(t *testing.T) {
	backend := newFakeBackend(0)
	path := writeStatement(t, t.TempDir(), "jan.ofx", statementOFX)

	res := runCLI(t, startBackend(t, backend), "",
		"import-ofx", "--yes", "--include-credits", "--owner", "Alex", path)
	requireSuccess(t, res)

	assert.Contains(t, res.stdout, "Created 3 of 3 expenses")
	require.Len(t, backend.records, 3)
	for _, tx := range backend.records {
		assert.Equal(t, "Alex", tx.Owner)
		assert.NotZero(t, tx.ID)
	}
	assert.Equal(t, "40.00", backend.records[2].Amount.String())
}

func TestImportOFX_Declined(t *testing.T) {
	backend := newFakeBackend(0)
	path := writeStatement(t, t.TempDir(), "jan.ofx", statementOFX)

	res := runCLI(t, startBackend(t, backend), "n\n", "import-ofx", path)
	requireSuccess(t, res)

	assert.Contains(t, res.stdout, "Create 2 expenses?")
	assert.Contains(t, res.stdout, "Import cancelled")
	assert.Empty(t, backend.records)
}

func TestImportOFX_NothingToImport(t *testing.T) {
	dir := t.TempDir()
	writeStatement(t, dir, "broken.ofx", "not valid OFX")

	res := runCLI(t, startBackend(t, newFakeBackend(0)), "", "import-ofx", dir)

	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, common.ErrNoTransactions)
	assert.Contains(t, res.stdout, "broken.ofx")
}

func TestImportOFX_NoMatchingFiles(t *testing.T) {
	res := runCLI(t, "", "", "import-ofx", filepath.Join(t.TempDir(), "*.qfx"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "no files match")
}

func TestSelectDrafts(t *testing.T) {
	entries := []ofx.Entry{
		{Transaction: model.Transaction{Item: "debit"}},
		{Transaction: model.Transaction{Item: "refund"}, Credit: true},
	}

	drafts := selectDrafts(entries, importOptions{})
	require.Len(t, drafts, 1)
	assert.Equal(t, "debit", drafts[0].Item)

	drafts = selectDrafts(entries, importOptions{includeCredits: true, owner: "Sam"})
	require.Len(t, drafts, 2)
	assert.Equal(t, "Sam", drafts[1].Owner)
}

func TestCreateDrafts_RetriesNetworkErrors(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if posts.Add(1) == 1 {
			// Drop the first connection without a response.
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "date": "2024-01-15", "category": "Uncategorized", "amount": 25.5}`))
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	require.NoError(t, err)

	steps := 0
	drafts := []model.Transaction{{Category: "Uncategorized", Amount: model.NewAmount(25.5)}}
	result := createDrafts(context.Background(), client, drafts, 2, func() { steps++ })

	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Failed)
	assert.Equal(t, int32(2), posts.Load())
	assert.Equal(t, 1, steps)
}

func TestCreateDrafts_HTTPErrorsAreNotRetried(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		http.Error(w, "category unknown", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	require.NoError(t, err)

	drafts := []model.Transaction{{Category: "Nope", Item: "thing", Amount: model.NewAmount(1)}}
	result := createDrafts(context.Background(), client, drafts, 3, func() {})

	assert.Zero(t, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error(), "Nope → thing")
	assert.Contains(t, result.Failed[0].Error(), "category unknown")
	assert.Equal(t, int32(1), posts.Load())
}

func TestCreateDrafts_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := api.NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	result := createDrafts(ctx, client, []model.Transaction{{}, {}}, 3, func() { t.Fatal("no step expected") })
	assert.Zero(t, result.Created)
	assert.Empty(t, result.Failed)
}
