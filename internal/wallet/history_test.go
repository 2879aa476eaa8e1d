package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	ownerAddr  = "0x1111111111111111111111111111111111111111"
	friendAddr = "0x2222222222222222222222222222222222222222"
	shopAddr   = "0x3333333333333333333333333333333333333333"
)

type fakeDirectory struct {
	phones map[string]string
}

func (d fakeDirectory) PhoneNumbersByAddress(_ context.Context, addresses []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, a := range addresses {
		if p, ok := d.phones[strings.ToLower(a)]; ok {
			out[strings.ToLower(a)] = p
		}
	}
	return out, nil
}

type explorerStub struct {
	mu    sync.Mutex
	paths []string
	query []url.Values
	body  string
	code  int
}

func (e *explorerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.paths = append(e.paths, r.URL.Path)
	e.query = append(e.query, r.URL.Query())
	e.mu.Unlock()
	if e.code != 0 {
		w.WriteHeader(e.code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(e.body))
}

const transfersJSON = `{
  "items": [
    {
      "from": {"hash": "0x2222222222222222222222222222222222222222"},
      "to": {"hash": "0x1111111111111111111111111111111111111111"},
      "token": {"address": "0xb755506531786C8aC63B756BaB1ac387bACB0C04", "name": "ZARP Stablecoin"},
      "timestamp": "2024-05-01T10:00:00.000000Z",
      "total": {"value": "1500000000000000000", "decimals": "18"}
    },
    {
      "from": {"hash": "0x1111111111111111111111111111111111111111"},
      "to": {"hash": "0x3333333333333333333333333333333333333333", "name": "Corner Shop"},
      "token": {"address": "0xb755506531786C8aC63B756BaB1ac387bACB0C04", "name": "ZARP Stablecoin"},
      "timestamp": "2024-05-02T10:00:00.000000Z",
      "total": {"value": "1234500000000000000000", "decimals": "18"}
    },
    {
      "from": {"hash": "0x1111111111111111111111111111111111111111"},
      "to": {"hash": "0x381Bb761187411F920aF8350CA9D3D003E5AB4E2"},
      "token": {"address": "0xb755506531786C8aC63B756BaB1ac387bACB0C04", "name": "ZARP Stablecoin"},
      "timestamp": "2024-05-03T10:00:00.000000Z",
      "total": {"value": "2000000000000000000", "decimals": "18"}
    }
  ],
  "next_page_params": {"block_number": 1234, "index": 7}
}`

func newHistoryFixture(t *testing.T, stub *explorerStub) *HistoryService {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	directory := fakeDirectory{phones: map[string]string{friendAddr: "+27821234567"}}
	return NewHistoryService(NewBlockscoutClient(srv.URL, nil), directory)
}

func TestHistoryLabelsTransfers(t *testing.T) {
	stub := &explorerStub{body: transfersJSON}
	svc := newHistoryFixture(t, stub)

	page, err := svc.History(context.Background(), ownerAddr, "ZA", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	received := page.Items[0]
	require.Equal(t, "Receive", received.TypeLabel)
	require.Equal(t, "green", received.Color)
	require.Equal(t, "ZARP", received.TokenLabel)
	require.Equal(t, "1.50", received.Amount)
	require.NotNil(t, received.FromLabel)
	require.Equal(t, "+27821234567", *received.FromLabel)
	require.NotNil(t, received.ToLabel)
	require.Equal(t, "Cash", *received.ToLabel)

	sent := page.Items[1]
	require.Equal(t, "Send", sent.TypeLabel)
	require.Equal(t, "red", sent.Color)
	require.Equal(t, "1,234.50", sent.Amount)
	require.NotNil(t, sent.ToLabel)
	require.Equal(t, "Corner Shop", *sent.ToLabel)

	saved := page.Items[2]
	require.Equal(t, "Transfer", saved.TypeLabel)
	require.Equal(t, "neutral", saved.Color)
	require.NotNil(t, saved.ToLabel)
	require.Equal(t, "Savings", *saved.ToLabel)

	require.NotNil(t, page.NextPageParams)
	require.Equal(t, PageParams{BlockNumber: 1234, Index: 7}, *page.NextPageParams)

	require.Equal(t, []string{"/api/v2/addresses/" + ownerAddr + "/token-transfers"}, stub.paths)
	q := stub.query[0]
	require.Equal(t, "ERC-20", q.Get("type"))
	require.Equal(t, "to | from", q.Get("filter"))
	require.Equal(t, ZARP.Address, q.Get("token"))
	require.Empty(t, q.Get("block_number"))
}

func TestHistoryPagingAndRegion(t *testing.T) {
	stub := &explorerStub{body: `{"items": [], "next_page_params": null}`}
	svc := newHistoryFixture(t, stub)

	page, err := svc.History(context.Background(), ownerAddr, "US", &PageParams{BlockNumber: 99, Index: 3})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Nil(t, page.NextPageParams)

	q := stub.query[0]
	require.Equal(t, USDC.Address, q.Get("token"))
	require.Equal(t, "99", q.Get("block_number"))
	require.Equal(t, "3", q.Get("index"))
}

func TestHistoryUnlabelledCounterparty(t *testing.T) {
	stub := &explorerStub{body: `{"items": [{
		"from": {"hash": "0x4444444444444444444444444444444444444444"},
		"to": {"hash": "0x1111111111111111111111111111111111111111"},
		"token": {"address": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"},
		"timestamp": "2024-05-01T10:00:00Z",
		"total": {"value": "250000", "decimals": "6"}
	}]}`}
	svc := newHistoryFixture(t, stub)

	page, err := svc.History(context.Background(), ownerAddr, "US", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Nil(t, page.Items[0].FromLabel)
	require.Equal(t, "USDC", page.Items[0].TokenLabel)
	require.Equal(t, "0.25", page.Items[0].Amount)
}

func TestHistoryUpstreamFailure(t *testing.T) {
	svc := newHistoryFixture(t, &explorerStub{code: http.StatusBadGateway})

	_, err := svc.History(context.Background(), ownerAddr, "ZA", nil)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestFormatAmount(t *testing.T) {
	svc := NewHistoryService(nil, fakeDirectory{})
	cases := map[string][2]string{
		"0.00":     {"0", "18"},
		"12.00":    {"12000000", "6"},
		"0.123457": {"123456789", "9"},
		"42.00":    {"42", "0"},
		"1,000.00": {"1000", "bogus"},
	}
	for want, in := range cases {
		require.Equal(t, want, svc.formatAmount(in[0], in[1]), in)
	}
}
