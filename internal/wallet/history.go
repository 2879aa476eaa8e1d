package wallet

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	typeReceive  = "Receive"
	typeSend     = "Send"
	typeTransfer = "Transfer"

	colorIncoming = "green"
	colorOutgoing = "red"
	colorNeutral  = "neutral"

	ownWalletLabel = "Cash"
)

// PageParams positions a history page in the explorer's cursor space.
type PageParams struct {
	BlockNumber int64 `json:"blockNumber"`
	Index       int64 `json:"index"`
}

// Transfer is one labelled entry in a user's transaction history.
type Transfer struct {
	ToAddress    string  `json:"toAddress"`
	FromAddress  string  `json:"fromAddress"`
	ToLabel      *string `json:"toLabel"`
	FromLabel    *string `json:"fromLabel"`
	TypeLabel    string  `json:"typeLabel"`
	Color        string  `json:"color"`
	TokenAddress string  `json:"tokenAddress"`
	TokenLabel   string  `json:"tokenLabel"`
	Timestamp    string  `json:"timestamp"`
	Amount       string  `json:"amount"`
}

// HistoryPage is a page of transfers plus the cursor for the next one.
type HistoryPage struct {
	Items          []Transfer  `json:"items"`
	NextPageParams *PageParams `json:"nextPageParams,omitempty"`
}

// PhoneDirectory resolves wallet addresses of registered users to their phone numbers.
type PhoneDirectory interface {
	PhoneNumbersByAddress(ctx context.Context, addresses []string) (map[string]string, error)
}

// HistoryService builds labelled transaction histories.
type HistoryService struct {
	explorer  *BlockscoutClient
	directory PhoneDirectory
	printer   *message.Printer
}

// NewHistoryService wires the explorer and the user directory.
func NewHistoryService(explorer *BlockscoutClient, directory PhoneDirectory) *HistoryService {
	return &HistoryService{
		explorer:  explorer,
		directory: directory,
		printer:   message.NewPrinter(language.English),
	}
}

// History lists transfers of the owner's base token, newest first.
func (s *HistoryService) History(ctx context.Context, owner, countryCode string, page *PageParams) (HistoryPage, error) {
	base := BaseToken(countryCode)
	yield, _ := YieldToken(base)

	raw, err := s.explorer.tokenTransfers(ctx, owner, base.Address, page)
	if err != nil {
		return HistoryPage{}, err
	}

	mentioned := make([]string, 0, 2*len(raw.Items))
	for _, item := range raw.Items {
		mentioned = append(mentioned, checksum(item.To.Hash), checksum(item.From.Hash))
	}
	phones, err := s.directory.PhoneNumbersByAddress(ctx, mentioned)
	if err != nil {
		return HistoryPage{}, err
	}

	out := HistoryPage{Items: make([]Transfer, 0, len(raw.Items))}
	for _, item := range raw.Items {
		incoming := sameAddress(item.To.Hash, owner)

		typeLabel, color := typeSend, colorOutgoing
		if incoming {
			typeLabel, color = typeReceive, colorIncoming
		}
		if isSavings(item.To.Hash, yield) || isSavings(item.From.Hash, yield) {
			typeLabel, color = typeTransfer, colorNeutral
		}

		tokenLabel, ok := KnownLabel(item.Token.Address)
		if !ok {
			tokenLabel = item.Token.Name
		}

		out.Items = append(out.Items, Transfer{
			ToAddress:    item.To.Hash,
			FromAddress:  item.From.Hash,
			ToLabel:      counterpartyLabel(item.To, owner, phones),
			FromLabel:    counterpartyLabel(item.From, owner, phones),
			TypeLabel:    typeLabel,
			Color:        color,
			TokenAddress: item.Token.Address,
			TokenLabel:   tokenLabel,
			Timestamp:    item.Timestamp,
			Amount:       s.formatAmount(item.Total.Value, item.Total.Decimals),
		})
	}
	if raw.NextPageParams != nil {
		out.NextPageParams = &PageParams{BlockNumber: raw.NextPageParams.BlockNumber, Index: raw.NextPageParams.Index}
	}
	return out, nil
}

// counterpartyLabel applies label precedence: protocol address, registered
// user, the owner's own wallet, then explorer metadata.
func counterpartyLabel(ref addressRef, owner string, phones map[string]string) *string {
	label, ok := KnownLabel(ref.Hash)
	if !ok {
		label = phones[strings.ToLower(ref.Hash)]
	}
	if label == "" && sameAddress(ref.Hash, owner) {
		label = ownWalletLabel
	}
	if label == "" {
		label = ref.metadataLabel()
	}
	if label == "" {
		return nil
	}
	return &label
}

func isSavings(address string, yield Token) bool {
	return yield.Address != "" && (sameAddress(address, yield.Address) || sameAddress(address, yield.YieldPool))
}

func checksum(address string) string {
	if !common.IsHexAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// formatAmount renders value/10^decimals with two to six fraction digits.
func (s *HistoryService) formatAmount(value, decimals string) string {
	v, ok := new(big.Float).SetString(value)
	if !ok {
		v = new(big.Float)
	}
	d, err := strconv.Atoi(decimals)
	if err != nil || d < 0 {
		d = 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil))
	amount, _ := new(big.Float).Quo(v, scale).Float64()

	return s.printer.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(6)))
}
