package ui

import (
	"errors"
	"testing"

	"github.com/Mohsinsiddi/gymcli/internal/chain"
	"github.com/Mohsinsiddi/gymcli/internal/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func sampleRecords() []history.Record {
	return []history.Record{
		{Hash: common.HexToHash("0x02"), Block: 12, Kind: "transfer", From: bob, To: alice, Amount: gc(5)},
		{Hash: common.HexToHash("0x01"), Block: 11, Kind: "sell", From: alice, To: bob, Amount: gc(50)},
	}
}

// ---------------------------------------------------------------------------
// HistoryTable
// ---------------------------------------------------------------------------

func TestHistoryTableRowsAndDirections(t *testing.T) {
	net := chain.Network{Name: "sepolia", Explorer: "https://sepolia.etherscan.io/"}
	tbl, rows := HistoryTable(sampleRecords(), alice, net)

	require.Len(t, tbl.Rows, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "←", tbl.Rows[0][2])
	assert.Equal(t, TruncateAddr(bob.Hex()), tbl.Rows[0][3])
	assert.Equal(t, "5.0000", tbl.Rows[0][4])
	assert.Equal(t, "→", tbl.Rows[1][2])
	assert.Equal(t, "sell", tbl.Rows[1][1])

	hash := common.HexToHash("0x02").Hex()
	assert.Equal(t, hash, rows[0].FullHash)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash, rows[0].ExplorerURL)
}

func TestHistoryTableWithoutExplorer(t *testing.T) {
	_, rows := HistoryTable(sampleRecords(), alice, chain.Network{Name: "localhost", InProcess: true})
	assert.Empty(t, rows[0].ExplorerURL)
}

// ---------------------------------------------------------------------------
// txListModel
// ---------------------------------------------------------------------------

func stubDesktop(t *testing.T, copyErr error) (opened, copied *string) {
	t.Helper()
	var o, c string
	prevB, prevC := browse, clipboard
	browse = func(url string) { o = url }
	clipboard = func(s string) error {
		c = s
		return copyErr
	}
	t.Cleanup(func() { browse, clipboard = prevB, prevC })
	return &o, &c
}

func newList(net chain.Network) txListModel {
	tbl, rows := HistoryTable(sampleRecords(), alice, net)
	return txListModel{title: "History", table: tbl, txData: rows}
}

func TestTxListOpenAndCopy(t *testing.T) {
	opened, copied := stubDesktop(t, nil)
	m := press(newList(chain.Network{Explorer: "https://x.io"}), "down", "o").(txListModel)
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "https://x.io/tx/"+common.HexToHash("0x01").Hex(), *opened)

	m = press(m, "c").(txListModel)
	assert.Equal(t, common.HexToHash("0x01").Hex(), *copied)
	assert.Contains(t, m.flash, "Copied")
	assert.Contains(t, m.View(), "Copied")
}

func TestTxListNoExplorer(t *testing.T) {
	opened, _ := stubDesktop(t, nil)
	m := press(newList(chain.Network{}), "o").(txListModel)
	assert.Empty(t, *opened)
	assert.Equal(t, "No explorer URL available", m.flash)
}

func TestTxListCopyFailure(t *testing.T) {
	stubDesktop(t, errors.New("xclip missing"))
	m := press(newList(chain.Network{}), "c").(txListModel)
	assert.Contains(t, m.flash, "xclip missing")
}

func TestTxListFlashClearsOnNextKey(t *testing.T) {
	stubDesktop(t, nil)
	m := press(newList(chain.Network{}), "o", "down").(txListModel)
	assert.Empty(t, m.flash)
	assert.Contains(t, m.View(), "navigate")
}

func TestTxListEnterOpens(t *testing.T) {
	opened, _ := stubDesktop(t, nil)
	press(newList(chain.Network{Explorer: "https://x.io"}), "enter")
	assert.Equal(t, "https://x.io/tx/"+common.HexToHash("0x02").Hex(), *opened)
}

func TestTxListShowsSelectedDetail(t *testing.T) {
	m := newList(chain.Network{})
	assert.Contains(t, m.View(), "received 5 GC from "+bob.Hex())

	m = press(m, "down").(txListModel)
	assert.Contains(t, m.View(), "sell 50 GC to "+bob.Hex()+" · block 11")
}

func TestRecordDetail(t *testing.T) {
	r := history.Record{Block: 7, Kind: "transfer", From: alice, To: bob, Amount: gc(10)}
	assert.Equal(t, "sent 10 GC to "+bob.Hex()+" · block 7", recordDetail(r, alice))
	assert.Equal(t, "received 10 GC from "+alice.Hex()+" · block 7", recordDetail(r, bob))
}
