package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrUpstream wraps failures talking to the block explorer.
var ErrUpstream = errors.New("block explorer unavailable")

const defaultExplorerTimeout = 10 * time.Second

type addressRef struct {
	Hash          string `json:"hash"`
	Name          string `json:"name"`
	ENSDomainName string `json:"ens_domain_name"`
	PrivateTags   []tag  `json:"private_tags"`
	PublicTags    []tag  `json:"public_tags"`
}

type tag struct {
	Label string `json:"label"`
}

// metadataLabel picks the explorer's own label for an address, if any.
func (a addressRef) metadataLabel() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.ENSDomainName != "":
		return a.ENSDomainName
	case len(a.PrivateTags) > 0 && a.PrivateTags[0].Label != "":
		return a.PrivateTags[0].Label
	case len(a.PublicTags) > 0:
		return a.PublicTags[0].Label
	}
	return ""
}

type tokenTransfer struct {
	From  addressRef `json:"from"`
	To    addressRef `json:"to"`
	Token struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	} `json:"token"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Total     struct {
		Value    string `json:"value"`
		Decimals string `json:"decimals"`
	} `json:"total"`
}

type transfersPage struct {
	Items          []tokenTransfer `json:"items"`
	NextPageParams *struct {
		BlockNumber int64 `json:"block_number"`
		Index       int64 `json:"index"`
	} `json:"next_page_params"`
}

// BlockscoutClient reads ERC-20 transfers from a Blockscout v2 API.
type BlockscoutClient struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
}

// NewBlockscoutClient targets baseURL (e.g. https://base.blockscout.com).
func NewBlockscoutClient(baseURL string, client *fasthttp.Client) *BlockscoutClient {
	if client == nil {
		client = &fasthttp.Client{Name: "airtime-queen"}
	}
	return &BlockscoutClient{baseURL: baseURL, client: client, timeout: defaultExplorerTimeout}
}

func (b *BlockscoutClient) tokenTransfers(ctx context.Context, owner, token string, page *PageParams) (transfersPage, error) {
	query := url.Values{}
	query.Set("type", "ERC-20")
	query.Set("filter", "to | from")
	query.Set("token", token)
	if page != nil {
		query.Set("block_number", strconv.FormatInt(page.BlockNumber, 10))
		query.Set("index", strconv.FormatInt(page.Index, 10))
	}
	target := fmt.Sprintf("%s/api/v2/addresses/%s/token-transfers?%s", b.baseURL, owner, query.Encode())

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	deadline := time.Now().Add(b.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := b.client.DoDeadline(req, resp, deadline); err != nil {
		return transfersPage{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return transfersPage{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	var decoded transfersPage
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return transfersPage{}, fmt.Errorf("%w: decode transfers: %v", ErrUpstream, err)
	}
	return decoded, nil
}
